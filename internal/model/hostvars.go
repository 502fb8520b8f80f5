package model

// Device roles understood by the build pipeline. Controller entries exist in
// inventories as management placeholders and are never built.
const (
	RoleSpine      = "spine"
	RoleLeaf       = "leaf"
	RoleController = "controller"
)

// FabricVars are fabric-wide variables declared once in the inventory. The
// loader flattens them into every host's variable set, the same way group
// vars flatten into per-host vars in an inventory system.
type FabricVars struct {
	Name         string `validate:"required"`
	LoopbackPool string `validate:"required,cidr"`
	ASBase       uint32 `validate:"required,min=1,max=4294967294"`
}

// HostVars is the effective variable set for a single device. It is resolved
// once per run by the inventory loader and is read-only afterwards.
type HostVars struct {
	Hostname string `validate:"required,hostname_rfc1123"`
	Role     string `validate:"required,oneof=spine leaf"`
	Platform string
	MgmtIP   string `validate:"omitempty,cidr"`

	// BGPAS overrides the derived AS number when non-zero.
	BGPAS uint32 `validate:"max=4294967294"`

	// Uplinks names the spine devices a leaf connects to, in port order.
	// Spines declare no uplinks; their side of each link is derived.
	Uplinks []string `validate:"dive,hostname_rfc1123"`

	Fabric FabricVars
}
