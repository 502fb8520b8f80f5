// Package validate implements the two validation gates of the build pipeline:
// host input variables before the structured-config stage and the structured
// config before the render stage. Results carry an ordered list of structured
// issues rather than free-text, so callers can print or aggregate them.
package validate

import (
	"fmt"
	"net/netip"

	"github.com/go-playground/validator/v10"
	"github.com/vk/fabbuild/internal/model"
)

// Issue is one validation finding: a machine-readable code, a human-readable
// message and the path of the offending field.
type Issue struct {
	Code    string
	Message string
	Path    string
}

// String renders the issue as a single diagnostic line.
func (i Issue) String() string {
	return fmt.Sprintf("%s: %s [%s]", i.Path, i.Message, i.Code)
}

// Result is the outcome of one validation pass. Issues preserve discovery
// order. A Result is consumed immediately by the calling stage, never stored.
type Result struct {
	Failed bool
	Issues []Issue
}

func (r *Result) add(code, path, format string, args ...any) {
	r.Failed = true
	r.Issues = append(r.Issues, Issue{Code: code, Path: path, Message: fmt.Sprintf(format, args...)})
}

// v is shared; validator.Validate caches struct metadata and is safe for
// concurrent use.
var v = validator.New(validator.WithRequiredStructEnabled())

// Inputs validates a host's effective variable set. Tag-driven field rules
// run first, then the cross-field topology rules.
func Inputs(vars *model.HostVars) Result {
	var res Result

	if err := v.Struct(vars); err != nil {
		for _, fe := range err.(validator.ValidationErrors) {
			res.add(fe.Tag(), fe.Namespace(), "value %v violates rule %q", fe.Value(), fe.Tag())
		}
	}

	if vars.Role == model.RoleLeaf && len(vars.Uplinks) == 0 {
		res.add("required", "HostVars.Uplinks", "leaf %q declares no uplinks", vars.Hostname)
	}
	if vars.Role == model.RoleSpine && len(vars.Uplinks) > 0 {
		res.add("excluded", "HostVars.Uplinks", "spine %q must not declare uplinks", vars.Hostname)
	}
	for _, uplink := range vars.Uplinks {
		if uplink == vars.Hostname {
			res.add("nefield", "HostVars.Uplinks", "host %q lists itself as an uplink", vars.Hostname)
		}
	}

	return res
}

// Structured validates a structured config before it is rendered. The checks
// guard the render contract, not the network design; design errors surface
// earlier, in Inputs or fact computation.
func Structured(sc *model.StructuredConfig) Result {
	var res Result

	if sc.Hostname == "" {
		res.add("required", "StructuredConfig.Hostname", "hostname is empty")
	}
	if _, err := netip.ParseAddr(sc.RouterID); err != nil {
		res.add("ip", "StructuredConfig.RouterID", "router ID %q is not a valid address", sc.RouterID)
	}
	if sc.BGPAS == 0 {
		res.add("required", "StructuredConfig.BGPAS", "AS number is unset")
	}

	seen := make(map[string]struct{}, len(sc.Ethernets))
	for idx, eth := range sc.Ethernets {
		path := fmt.Sprintf("StructuredConfig.Ethernets[%d]", idx)
		if eth.Name == "" {
			res.add("required", path, "interface has no name")
			continue
		}
		if _, dup := seen[eth.Name]; dup {
			res.add("unique", path, "duplicate interface %q", eth.Name)
		}
		seen[eth.Name] = struct{}{}
	}

	for idx, nbr := range sc.BGPNeighbors {
		path := fmt.Sprintf("StructuredConfig.BGPNeighbors[%d]", idx)
		if _, err := netip.ParseAddr(nbr.Address); err != nil {
			res.add("ip", path, "neighbor address %q is not a valid address", nbr.Address)
		}
		if nbr.RemoteAS == 0 {
			res.add("required", path, "neighbor %q has no remote AS", nbr.Address)
		}
	}

	return res
}
