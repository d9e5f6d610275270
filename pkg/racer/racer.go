// Package racer implements the candidate racing engine: a
// Happy-Eyeballs-style staggered attempt pool where the first successful
// channel wins and every other attempt is cancelled.
package racer

import (
	"context"
	"time"

	"github.com/edgeengineer/transport-services-sub001/pkg/candidate"
	"github.com/edgeengineer/transport-services-sub001/pkg/stack"
	"github.com/edgeengineer/transport-services-sub001/pkg/types"
)

// Dialer attempts a single candidate. Implementations wrap stack.Stack.Connect.
type Dialer func(ctx context.Context, c candidate.Candidate) (stack.Channel, error)

// Result is the outcome of a race.
type Result struct {
	Channel   stack.Channel
	Candidate candidate.Candidate
}

// Observer receives racing telemetry; all methods may be nil-checked away
// by passing a zero-value Observer.
type Observer struct {
	AttemptStarted   func(candidate.Candidate)
	AttemptSucceeded func(candidate.Candidate)
	AttemptFailed    func(candidate.Candidate, error)
	AttemptCancelled func(candidate.Candidate)
}

// severity ranks per-attempt failures for the "most-specific" error chosen
// when every attempt fails: authentication failures rank above connection
// refused, which ranks above timeout, which ranks above unreachable.
func severity(err error) int {
	switch {
	case err == nil:
		return 0
	case types.IsAuthFailure(err):
		return 4
	case types.IsRefused(err):
		return 3
	case types.IsTimeout(err):
		return 2
	default:
		return 1 // unreachable / unknown
	}
}

// Race runs candidates in rank order, launching the next after stagger once
// the previous one is in flight, until one succeeds or all fail. The first
// success cancels every other in-flight attempt via ctx cancellation of
// their individual sub-contexts; this function's own ctx cancellation
// cancels the whole operation.
func Race(ctx context.Context, cands []candidate.Candidate, stagger time.Duration, dial Dialer, obs Observer) (Result, error) {
	if len(cands) == 0 {
		return Result{}, types.Newf(types.KindEstablishmentFailure, "no candidates to race")
	}

	type attemptResult struct {
		idx int
		ch  stack.Channel
		err error
	}

	raceCtx, cancelAll := context.WithCancel(ctx)
	defer cancelAll()

	results := make(chan attemptResult, len(cands))
	attemptCtx := make([]context.CancelFunc, len(cands))

	launch := func(i int) {
		c := cands[i]
		actx, cancel := context.WithCancel(raceCtx)
		attemptCtx[i] = cancel
		if obs.AttemptStarted != nil {
			obs.AttemptStarted(c)
		}
		go func() {
			ch, err := dial(actx, c)
			select {
			case results <- attemptResult{idx: i, ch: ch, err: err}:
			case <-raceCtx.Done():
				if ch != nil {
					ch.Close(stack.CloseAbortive)
				}
			}
		}()
	}

	go func() {
		for i := range cands {
			select {
			case <-raceCtx.Done():
				return
			default:
			}
			launch(i)
			if i != len(cands)-1 {
				t := time.NewTimer(stagger)
				select {
				case <-raceCtx.Done():
					t.Stop()
					return
				case <-t.C:
				}
			}
		}
	}()

	var (
		winner      *attemptResult
		worstErr    error
		worstRank   = -1
		failedCount int
	)

	for {
		select {
		case <-ctx.Done():
			return Result{}, types.New(types.KindTimeout, "race cancelled", ctx.Err())
		case r := <-results:
			if r.err == nil {
				winner = &r
				cancelAll()
				for j, cancel := range attemptCtx {
					if j != r.idx && cancel != nil {
						cancel()
						if obs.AttemptCancelled != nil {
							obs.AttemptCancelled(cands[j])
						}
					}
				}
				if obs.AttemptSucceeded != nil {
					obs.AttemptSucceeded(cands[r.idx])
				}
				goto done
			}
			failedCount++
			if obs.AttemptFailed != nil {
				obs.AttemptFailed(cands[r.idx], r.err)
			}
			if s := severity(r.err); s > worstRank {
				worstRank = s
				worstErr = r.err
			}
			if failedCount == len(cands) {
				return Result{}, types.New(types.KindEstablishmentFailure, "all candidates failed", worstErr)
			}
		}
	}

done:
	return Result{Channel: winner.ch, Candidate: cands[winner.idx]}, nil
}
