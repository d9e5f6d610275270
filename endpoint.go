package postsocket

import "github.com/edgeengineer/transport-services-sub001/pkg/types"

// Endpoint and its kinds live in pkg/types so that pkg/stack, pkg/candidate,
// pkg/racer, pkg/framer, and pkg/multicast can share the same concrete
// value types as this package's public API without an import cycle. This
// file re-exports them under the public API's names.
type (
	Endpoint          = types.Endpoint
	EndpointKind      = types.EndpointKind
	MulticastEndpoint = types.MulticastEndpoint
	MulticastType     = types.MulticastType
)

const (
	EndpointHost                = types.EndpointHost
	EndpointIP                  = types.EndpointIP
	EndpointBluetoothService    = types.EndpointBluetoothService
	EndpointBluetoothPeripheral = types.EndpointBluetoothPeripheral

	MulticastAnySource      = types.MulticastAnySource
	MulticastSourceSpecific = types.MulticastSourceSpecific
)

var (
	NewHostEndpoint                = types.NewHostEndpoint
	NewIPEndpoint                  = types.NewIPEndpoint
	NewBluetoothServiceEndpoint    = types.NewBluetoothServiceEndpoint
	NewBluetoothPeripheralEndpoint = types.NewBluetoothPeripheralEndpoint
	NewMulticastEndpoint           = types.NewMulticastEndpoint
)
