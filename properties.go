package postsocket

import "github.com/edgeengineer/transport-services-sub001/pkg/types"

// TransportProperties and friends live in pkg/types; see endpoint.go for
// why.
type (
	TransportProperties = types.TransportProperties
	Preference          = types.Preference
	MultipathMode       = types.MultipathMode
	MultipathPolicy     = types.MultipathPolicy
	Direction           = types.Direction
)

const (
	NoPreference = types.NoPreference
	Prefer       = types.Prefer
	Require      = types.Require
	Avoid        = types.Avoid
	Prohibit     = types.Prohibit

	MultipathDisabled = types.MultipathDisabled
	MultipathPassive  = types.MultipathPassive
	MultipathActive   = types.MultipathActive

	MultipathHandover    = types.MultipathHandover
	MultipathInteractive = types.MultipathInteractive
	MultipathAggregate   = types.MultipathAggregate

	Bidirectional = types.Bidirectional
	SendOnly      = types.SendOnly
	RecvOnly      = types.RecvOnly
)

var NewTransportProperties = types.NewTransportProperties
