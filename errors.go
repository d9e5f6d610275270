package postsocket

import "github.com/edgeengineer/transport-services-sub001/pkg/types"

// Error, Kind, and the error taxonomy live in pkg/types; see endpoint.go
// for why.
type (
	Error = types.Error
	Kind  = types.Kind
)

const (
	KindEstablishmentFailure = types.KindEstablishmentFailure
	KindResolutionFailure    = types.KindResolutionFailure
	KindSendFailure          = types.KindSendFailure
	KindReceiveFailure       = types.KindReceiveFailure
	KindSendNotAllowed       = types.KindSendNotAllowed
	KindReceiveNotAllowed    = types.KindReceiveNotAllowed
	KindSendAfterFinal       = types.KindSendAfterFinal
	KindConnectionClosed     = types.KindConnectionClosed
	KindTimeout              = types.KindTimeout
	KindNotSupported         = types.KindNotSupported
	KindInvalidConfiguration = types.KindInvalidConfiguration
	KindInvalidMessageSize   = types.KindInvalidMessageSize
	KindGroupCloneFailed     = types.KindGroupCloneFailed
)

var (
	ErrEstablishmentFailure = types.ErrEstablishmentFailure
	ErrResolutionFailure    = types.ErrResolutionFailure
	ErrSendFailure          = types.ErrSendFailure
	ErrReceiveFailure       = types.ErrReceiveFailure
	ErrSendNotAllowed       = types.ErrSendNotAllowed
	ErrReceiveNotAllowed    = types.ErrReceiveNotAllowed
	ErrSendAfterFinal       = types.ErrSendAfterFinal
	ErrConnectionClosed     = types.ErrConnectionClosed
	ErrTimeout              = types.ErrTimeout
	ErrNotSupported         = types.ErrNotSupported
	ErrInvalidConfiguration = types.ErrInvalidConfiguration
	ErrInvalidMessageSize   = types.ErrInvalidMessageSize
	ErrGroupCloneFailed     = types.ErrGroupCloneFailed

	NotSupported = types.NotSupported
)
