package stack

import (
	"context"

	"github.com/edgeengineer/transport-services-sub001/pkg/types"
)

// l2capStack is the bluetoothL2CAP variant. Concrete BLE transport is an
// external platform-adapter concern, so Connect/Listen return notSupported;
// what this stack provides is a real extension point — CanHandle/Priority
// participate in gathering and ranking so a platform adapter can Register
// a working implementation under the same name ("bluetoothL2CAP") without
// the core needing to know about it.
type l2capStack struct{}

// NewL2CAPStack returns the built-in (stub) Bluetooth L2CAP Stack.
func NewL2CAPStack() Stack { return l2capStack{} }

func (l2capStack) Name() string { return "bluetoothL2CAP" }

func (l2capStack) Capabilities() Capabilities {
	return Capabilities{
		Reliability:       true,
		Ordering:          true,
		MessageBoundaries: true,
		LowPower:          true,
	}
}

func (l2capStack) CanHandle(e types.Endpoint) bool {
	return e.Kind == types.EndpointBluetoothService || e.Kind == types.EndpointBluetoothPeripheral
}

func (l2capStack) Priority(props types.TransportProperties) int {
	if props.PreferLowPower == types.Require || props.PreferLowPower == types.Prefer {
		return 20
	}
	return 1
}

func (s l2capStack) Connect(ctx context.Context, remote types.Endpoint, local *types.Endpoint, props types.TransportProperties, sec types.SecurityParameters) (Channel, error) {
	if !s.CanHandle(remote) {
		return nil, unsupportedEndpoint(s.Name(), remote)
	}
	return nil, types.NotSupported("no BLE platform adapter registered for bluetoothL2CAP")
}

func (s l2capStack) Listen(ctx context.Context, local types.Endpoint, props types.TransportProperties, sec types.SecurityParameters) (ServerChannel, error) {
	return nil, types.NotSupported("no BLE platform adapter registered for bluetoothL2CAP")
}
