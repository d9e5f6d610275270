package postsocket

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// RuntimeConfig holds tunables that apply across every Preconnection rather
// than to one in particular: racer stagger, default connect timeout,
// rendezvous grace period, and the like. It loads from the environment
// with an `env:"NAME=default"` struct tag, matching how other process-wide
// tunables in this codebase are configured. This package ships no CLI, so
// embedders call UnmarshalEnv(os.Environ(), false) themselves if they want
// environment-driven configuration; the zero value is also valid and
// equivalent to DefaultRuntimeConfig().
type RuntimeConfig struct {
	// RaceStagger is the delay between launching successive candidate
	// attempts.
	RaceStagger time.Duration `env:"POSTSOCKET_RACE_STAGGER=250ms"`

	// DefaultConnTimeout is used when a TransportProperties.ConnTimeout is
	// unset.
	DefaultConnTimeout time.Duration `env:"POSTSOCKET_DEFAULT_CONN_TIMEOUT=30s"`

	// RendezvousGracePeriod is how long rendezvous listeners are given to
	// bind before outbound attempts start.
	RendezvousGracePeriod time.Duration `env:"POSTSOCKET_RENDEZVOUS_GRACE=50ms"`

	// MaxFrameSize bounds the built-in length-prefix framer (default 1 MiB).
	MaxFrameSize int `env:"POSTSOCKET_MAX_FRAME_SIZE=1048576"`

	// ConsumeTimeout bounds how long the multicast receiver waits to hand a
	// newly seen source's Connection to a slow Connections() consumer before
	// dropping that notification. No other component reads it.
	ConsumeTimeout time.Duration `env:"POSTSOCKET_CONSUME_TIMEOUT=250ms"`
}

// DefaultRuntimeConfig returns a RuntimeConfig populated with the defaults
// encoded in its env tags, equivalent to the zero value parsed with no
// environment variables set.
func DefaultRuntimeConfig() RuntimeConfig {
	var c RuntimeConfig
	if err := c.UnmarshalEnv(nil, false); err != nil {
		panic("postsocket: invalid built-in RuntimeConfig defaults: " + err.Error())
	}
	return c
}

// UnmarshalEnv parses es (as from os.Environ()) into c, using each field's
// `env:"NAME=default"` tag. If incremental is true, fields whose variable
// is absent from es are left unmodified instead of reset to their default.
func (c *RuntimeConfig) UnmarshalEnv(es []string, incremental bool) error {
	em := map[string]string{}
	for _, e := range es {
		if k, v, ok := strings.Cut(e, "="); ok {
			em[k] = v
		}
	}

	cv := reflect.ValueOf(c).Elem()
	for _, ctf := range reflect.VisibleFields(cv.Type()) {
		env, ok := ctf.Tag.Lookup("env")
		if !ok {
			continue
		}

		key, def, _ := strings.Cut(env, "=")
		val := def
		if v, exists := em[key]; exists {
			val = v
		} else if incremental {
			continue
		}

		cvf := cv.FieldByName(ctf.Name)
		switch cvf.Interface().(type) {
		case string:
			cvf.SetString(val)
		case int, int8, int16, int32, int64:
			if val == "" {
				cvf.SetInt(0)
			} else if v, err := strconv.ParseInt(val, 10, 64); err == nil {
				cvf.SetInt(v)
			} else {
				return fmt.Errorf("env %s: parse %q as int: %w", key, val, err)
			}
		case bool:
			if val == "" {
				cvf.SetBool(false)
			} else if v, err := strconv.ParseBool(val); err == nil {
				cvf.SetBool(v)
			} else {
				return fmt.Errorf("env %s: parse %q as bool: %w", key, val, err)
			}
		case time.Duration:
			if val == "" {
				cvf.Set(reflect.ValueOf(time.Duration(0)))
			} else if v, err := time.ParseDuration(val); err == nil {
				cvf.Set(reflect.ValueOf(v))
			} else {
				return fmt.Errorf("env %s: parse %q as duration: %w", key, val, err)
			}
		default:
			return fmt.Errorf("env %s: unsupported field type %s", key, cvf.Type())
		}
	}
	return nil
}
