package types

import "fmt"

// Kind enumerates the error taxonomy.
type Kind int

const (
	KindEstablishmentFailure Kind = iota
	KindResolutionFailure
	KindSendFailure
	KindReceiveFailure
	KindSendNotAllowed
	KindReceiveNotAllowed
	KindSendAfterFinal
	KindConnectionClosed
	KindTimeout
	KindNotSupported
	KindInvalidConfiguration
	KindInvalidMessageSize
	KindGroupCloneFailed
)

func (k Kind) String() string {
	switch k {
	case KindEstablishmentFailure:
		return "establishmentFailure"
	case KindResolutionFailure:
		return "resolutionFailure"
	case KindSendFailure:
		return "sendFailure"
	case KindReceiveFailure:
		return "receiveFailure"
	case KindSendNotAllowed:
		return "sendNotAllowed"
	case KindReceiveNotAllowed:
		return "receiveNotAllowed"
	case KindSendAfterFinal:
		return "sendAfterFinal"
	case KindConnectionClosed:
		return "connectionClosed"
	case KindTimeout:
		return "timeout"
	case KindNotSupported:
		return "notSupported"
	case KindInvalidConfiguration:
		return "invalidConfiguration"
	case KindInvalidMessageSize:
		return "invalidMessageSize"
	case KindGroupCloneFailed:
		return "groupCloneFailed"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned and delivered throughout this
// package. Callers should inspect Kind (or use errors.Is against the Err*
// sentinels below) rather than matching on message text.
type Error struct {
	Kind   Kind
	Reason string
	Err    error // underlying cause, if any
}

func newError(kind Kind, reason string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Reason != "" {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, &Error{Kind: K}) match on Kind alone, so callers
// can write errors.Is(err, postsocket.ErrSendAfterFinal) style checks.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinel errors for errors.Is comparisons. Reason/Err are intentionally
// empty; real errors carry details and still compare equal via Error.Is.
var (
	ErrEstablishmentFailure = &Error{Kind: KindEstablishmentFailure}
	ErrResolutionFailure    = &Error{Kind: KindResolutionFailure}
	ErrSendFailure          = &Error{Kind: KindSendFailure}
	ErrReceiveFailure       = &Error{Kind: KindReceiveFailure}
	ErrSendNotAllowed       = &Error{Kind: KindSendNotAllowed}
	ErrReceiveNotAllowed    = &Error{Kind: KindReceiveNotAllowed}
	ErrSendAfterFinal       = &Error{Kind: KindSendAfterFinal}
	ErrConnectionClosed     = &Error{Kind: KindConnectionClosed}
	ErrTimeout              = &Error{Kind: KindTimeout}
	ErrNotSupported         = &Error{Kind: KindNotSupported}
	ErrInvalidConfiguration = &Error{Kind: KindInvalidConfiguration}
	ErrInvalidMessageSize   = &Error{Kind: KindInvalidMessageSize}
	ErrGroupCloneFailed     = &Error{Kind: KindGroupCloneFailed}
)

// NotSupported builds a notSupported error with reason.
func NotSupported(reason string) *Error {
	return newError(KindNotSupported, reason, nil)
}

// New builds an *Error of the given kind, wrapping cause if non-nil. This
// is the constructor other packages (candidate, racer, framer, multicast)
// use to report into the taxonomy without needing to reach into
// this package's unexported helpers.
func New(kind Kind, reason string, cause error) *Error {
	return newError(kind, reason, cause)
}

// Newf builds an *Error of the given kind with a formatted reason.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return newError(kind, fmt.Sprintf(format, args...), nil)
}
