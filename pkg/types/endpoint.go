package types

import (
	"fmt"
	"net"
)

// EndpointKind identifies which alternative of the Endpoint tagged union is
// populated.
type EndpointKind int

const (
	// EndpointHost identifies an endpoint by DNS hostname.
	EndpointHost EndpointKind = iota
	// EndpointIP identifies an endpoint by literal IP address.
	EndpointIP
	// EndpointBluetoothService identifies an endpoint by a Bluetooth
	// service UUID.
	EndpointBluetoothService
	// EndpointBluetoothPeripheral identifies an endpoint by a Bluetooth
	// peripheral UUID.
	EndpointBluetoothPeripheral
)

func (k EndpointKind) String() string {
	switch k {
	case EndpointHost:
		return "host"
	case EndpointIP:
		return "ip"
	case EndpointBluetoothService:
		return "bluetoothService"
	case EndpointBluetoothPeripheral:
		return "bluetoothPeripheral"
	default:
		return "unknown"
	}
}

// Endpoint is a tagged union identifying a local or remote transport
// endpoint: at least one of Name or IP must be set. Port is required to
// connect, optional to bind. It is immutable; the With* builders return a
// modified copy.
type Endpoint struct {
	Kind EndpointKind

	Name string // hostname, for EndpointHost
	IP   net.IP // literal address, for EndpointIP

	UUID string // bluetooth service/peripheral UUID
	PSM  *uint16 // bluetooth protocol/service multiplexer, optional

	Port      uint16
	Interface string // optional local interface hint
}

// Validate checks the invariant that at least one identifying field is set.
func (e Endpoint) Validate() error {
	switch e.Kind {
	case EndpointHost:
		if e.Name == "" {
			return newError(KindInvalidConfiguration, "host endpoint missing hostname", nil)
		}
	case EndpointIP:
		if e.IP == nil {
			return newError(KindInvalidConfiguration, "ip endpoint missing address", nil)
		}
	case EndpointBluetoothService, EndpointBluetoothPeripheral:
		if e.UUID == "" {
			return newError(KindInvalidConfiguration, "bluetooth endpoint missing uuid", nil)
		}
	default:
		return newError(KindInvalidConfiguration, fmt.Sprintf("unknown endpoint kind %d", e.Kind), nil)
	}
	return nil
}

// RequirePort checks that Port is set, for contexts (e.g. connect) where it
// is mandatory.
func (e Endpoint) RequirePort() error {
	if e.Port == 0 {
		return newError(KindInvalidConfiguration, "endpoint missing required port", nil)
	}
	return nil
}

func (e Endpoint) String() string {
	switch e.Kind {
	case EndpointHost:
		return fmt.Sprintf("host(%s):%d", e.Name, e.Port)
	case EndpointIP:
		return fmt.Sprintf("ip(%s):%d", e.IP, e.Port)
	case EndpointBluetoothService:
		return fmt.Sprintf("bt-service(%s)", e.UUID)
	case EndpointBluetoothPeripheral:
		return fmt.Sprintf("bt-peripheral(%s)", e.UUID)
	default:
		return "invalid-endpoint"
	}
}

// NewHostEndpoint creates an Endpoint naming hostname.
func NewHostEndpoint(hostname string) Endpoint {
	return Endpoint{Kind: EndpointHost, Name: hostname}
}

// NewIPEndpoint creates an Endpoint naming a literal address.
func NewIPEndpoint(ip net.IP) Endpoint {
	return Endpoint{Kind: EndpointIP, IP: ip}
}

// NewBluetoothServiceEndpoint creates an Endpoint naming a Bluetooth service.
func NewBluetoothServiceEndpoint(uuid string) Endpoint {
	return Endpoint{Kind: EndpointBluetoothService, UUID: uuid}
}

// NewBluetoothPeripheralEndpoint creates an Endpoint naming a Bluetooth
// peripheral.
func NewBluetoothPeripheralEndpoint(uuid string) Endpoint {
	return Endpoint{Kind: EndpointBluetoothPeripheral, UUID: uuid}
}

// WithHostname returns a copy of e with Name set and its kind switched to
// EndpointHost.
func (e Endpoint) WithHostname(hostname string) Endpoint {
	e.Kind = EndpointHost
	e.Name = hostname
	return e
}

// WithAddress returns a copy of e with IP set.
func (e Endpoint) WithAddress(ip net.IP) Endpoint {
	e.Kind = EndpointIP
	e.IP = ip
	return e
}

// WithPort returns a copy of e with Port set.
func (e Endpoint) WithPort(port uint16) Endpoint {
	e.Port = port
	return e
}

// WithInterface returns a copy of e with a local interface hint set.
func (e Endpoint) WithInterface(iface string) Endpoint {
	e.Interface = iface
	return e
}

// WithPSM returns a copy of e with a Bluetooth PSM set.
func (e Endpoint) WithPSM(psm uint16) Endpoint {
	e.PSM = &psm
	return e
}

// MulticastType selects between any-source and source-specific multicast.
type MulticastType int

const (
	// MulticastAnySource enables any-source multicast (ASM) reception.
	MulticastAnySource MulticastType = iota
	// MulticastSourceSpecific enables source-specific multicast (SSM)
	// reception, restricted to MulticastEndpoint.Sources.
	MulticastSourceSpecific
)

// MulticastEndpoint describes a multicast group.
type MulticastEndpoint struct {
	GroupAddress net.IP
	Port         uint16
	TTL          int // default 1
	Loopback     bool
	Type         MulticastType
	Sources      []net.IP // required non-empty if Type == MulticastSourceSpecific
	Interface    string
}

// NewMulticastEndpoint creates a MulticastEndpoint with the usual defaults
// (TTL=1, loopback=false, any-source).
func NewMulticastEndpoint(group net.IP, port uint16) MulticastEndpoint {
	return MulticastEndpoint{
		GroupAddress: group,
		Port:         port,
		TTL:          1,
		Type:         MulticastAnySource,
	}
}

// Validate checks the MulticastEndpoint invariants.
func (m MulticastEndpoint) Validate() error {
	if m.GroupAddress == nil || m.GroupAddress.To4() == nil && m.GroupAddress.To16() == nil {
		return newError(KindInvalidConfiguration, "multicast endpoint missing a parseable group address", nil)
	}
	if !m.GroupAddress.IsMulticast() {
		return newError(KindInvalidConfiguration, fmt.Sprintf("%s is not a multicast address", m.GroupAddress), nil)
	}
	if m.Type == MulticastSourceSpecific && len(m.Sources) == 0 {
		return newError(KindInvalidConfiguration, "source-specific multicast requires at least one source", nil)
	}
	return nil
}
