package model

// StructuredConfig is the per-host intermediate representation produced by the
// structured-config stage and consumed only by the designed-config stage for
// the same host. It has no cross-host references; everything fabric-wide it
// needs was baked in from the shared facts at build time.
type StructuredConfig struct {
	Hostname string
	Platform string
	Role     string

	// RouterID doubles as the Loopback0 address, /32.
	RouterID string
	BGPAS    uint32
	MgmtIP   string

	Ethernets    []EthernetInterface
	BGPNeighbors []BGPNeighbor
}

// EthernetInterface is one routed point-to-point fabric link.
type EthernetInterface struct {
	Name          string
	Description   string
	PeerHostname  string
	PeerInterface string
}

// BGPNeighbor is one eBGP session, addressed by the peer's loopback.
type BGPNeighbor struct {
	Address     string
	RemoteAS    uint32
	Description string
}

// DesignedConfig is the terminal artifact for a host: the rendered device
// configuration text, opaque to the orchestrator.
type DesignedConfig struct {
	Hostname string
	Text     string
}
