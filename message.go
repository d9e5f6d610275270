package postsocket

import "github.com/edgeengineer/transport-services-sub001/pkg/types"

// Message and MessageContext live in pkg/types; see endpoint.go for why.
type (
	Message        = types.Message
	MessageContext = types.MessageContext
)

var NewMessage = types.NewMessage
