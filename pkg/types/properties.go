package types

// Preference is the selection strength for a TransportProperties option.
type Preference int

const (
	// NoPreference means the option does not affect candidate feasibility
	// or ranking.
	NoPreference Preference = iota
	// Prefer biases ranking toward stacks/paths satisfying the option, but
	// does not eliminate candidates lacking it.
	Prefer
	// Require eliminates candidates lacking the capability.
	Require
	// Avoid biases ranking away from stacks/paths satisfying the option.
	Avoid
	// Prohibit eliminates candidates needing the capability.
	Prohibit
)

func (p Preference) String() string {
	switch p {
	case NoPreference:
		return "noPreference"
	case Prefer:
		return "prefer"
	case Require:
		return "require"
	case Avoid:
		return "avoid"
	case Prohibit:
		return "prohibit"
	default:
		return "unknown"
	}
}

// MultipathMode is a separate axis from the Preference options.
type MultipathMode int

const (
	MultipathDisabled MultipathMode = iota
	MultipathPassive
	MultipathActive
)

// MultipathPolicy governs how a multipath-capable stack spreads traffic.
type MultipathPolicy int

const (
	MultipathHandover MultipathPolicy = iota
	MultipathInteractive
	MultipathAggregate
)

// Direction constrains which half(s) of a Connection may be used.
type Direction int

const (
	Bidirectional Direction = iota
	SendOnly
	RecvOnly
)

// TransportProperties is the set of enumerated preferences.
// The zero value is all NoPreference, MultipathDisabled, Bidirectional, and
// a zero ConnTimeout (meaning the runtime default applies).
type TransportProperties struct {
	Reliability           Preference
	PreserveOrder         Preference
	PreserveMsgBoundaries Preference
	CongestionControl     Preference
	KeepAlive             Preference
	PreferLowPower        Preference
	ZeroRTT               Preference
	DisableNagle          Preference

	MultipathMode   MultipathMode
	MultipathPolicy MultipathPolicy

	Direction Direction

	// ConnTimeout bounds the entire initiate/rendezvous call. Zero means
	// the initiating Preconnection's RuntimeConfig.DefaultConnTimeout (30s
	// by default) applies; NewTransportProperties sets 30 explicitly.
	ConnTimeout float64 // seconds
}

// NewTransportProperties returns TransportProperties with the stated
// defaults: reliable, ordered, congestion-controlled, bidirectional, 30s
// connect timeout — the common case of "give me a TCP-like stream".
func NewTransportProperties() TransportProperties {
	return TransportProperties{
		Reliability:       Require,
		PreserveOrder:     Require,
		CongestionControl: Require,
		Direction:         Bidirectional,
		ConnTimeout:       30,
	}
}

// Merge returns a copy of tp with any non-default field of over applied on
// top, used by Connection.Clone's alteration parameter.
func (tp TransportProperties) Merge(over TransportProperties) TransportProperties {
	out := tp
	if over.Reliability != NoPreference {
		out.Reliability = over.Reliability
	}
	if over.PreserveOrder != NoPreference {
		out.PreserveOrder = over.PreserveOrder
	}
	if over.PreserveMsgBoundaries != NoPreference {
		out.PreserveMsgBoundaries = over.PreserveMsgBoundaries
	}
	if over.CongestionControl != NoPreference {
		out.CongestionControl = over.CongestionControl
	}
	if over.KeepAlive != NoPreference {
		out.KeepAlive = over.KeepAlive
	}
	if over.PreferLowPower != NoPreference {
		out.PreferLowPower = over.PreferLowPower
	}
	if over.ZeroRTT != NoPreference {
		out.ZeroRTT = over.ZeroRTT
	}
	if over.DisableNagle != NoPreference {
		out.DisableNagle = over.DisableNagle
	}
	if over.MultipathMode != MultipathDisabled {
		out.MultipathMode = over.MultipathMode
	}
	if over.MultipathPolicy != 0 {
		out.MultipathPolicy = over.MultipathPolicy
	}
	if over.Direction != Bidirectional {
		out.Direction = over.Direction
	}
	if over.ConnTimeout != 0 {
		out.ConnTimeout = over.ConnTimeout
	}
	return out
}
