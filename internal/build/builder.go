// Package build implements the two per-host build stages: deriving the
// structured config from host vars plus shared facts, and rendering the
// designed config from the structured config. Each stage validates its input
// first and fails with a typed Failure, never a bare error string.
package build

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/vk/fabbuild/internal/ctxlog"
	"github.com/vk/fabbuild/internal/facts"
	"github.com/vk/fabbuild/internal/model"
	"github.com/vk/fabbuild/internal/render"
	"github.com/vk/fabbuild/internal/validate"
)

// Builder runs the build stages for individual hosts. The zero value prints
// validation diagnostics to stdout; DiagW overrides the sink for tests.
type Builder struct {
	DiagW io.Writer
}

func (b *Builder) diag() io.Writer {
	if b.DiagW != nil {
		return b.DiagW
	}
	return os.Stdout
}

// StructuredConfig validates a host's input variables and derives its
// structured config from them and the shared fact set. The facts are
// read-only, so concurrent calls for different hosts are safe.
func (b *Builder) StructuredConfig(ctx context.Context, vars *model.HostVars, f *facts.Facts) (*model.StructuredConfig, error) {
	logger := ctxlog.FromContext(ctx).With("host", vars.Hostname)

	if res := validate.Inputs(vars); res.Failed {
		b.reportIssues(ctx, vars.Hostname, res.Issues)
		return nil, &Failure{Host: vars.Hostname, Stage: StageStructured, Kind: KindValidation, Issues: res.Issues}
	}
	logger.Debug("Input validation passed.")

	sc := &model.StructuredConfig{
		Hostname: vars.Hostname,
		Platform: vars.Platform,
		Role:     vars.Role,
		RouterID: f.RouterID(vars.Hostname),
		BGPAS:    f.AS(vars.Hostname),
		MgmtIP:   vars.MgmtIP,
	}

	seenNeighbors := make(map[string]struct{})
	for _, peering := range f.Peerings(vars.Hostname) {
		sc.Ethernets = append(sc.Ethernets, model.EthernetInterface{
			Name:          peering.LocalIface,
			Description:   fmt.Sprintf("P2P_LINK_TO_%s_%s", peering.PeerHostname, peering.PeerIface),
			PeerHostname:  peering.PeerHostname,
			PeerInterface: peering.PeerIface,
		})

		// Parallel links to the same peer share one BGP session.
		if _, dup := seenNeighbors[peering.PeerRouterID]; dup {
			continue
		}
		seenNeighbors[peering.PeerRouterID] = struct{}{}
		sc.BGPNeighbors = append(sc.BGPNeighbors, model.BGPNeighbor{
			Address:     peering.PeerRouterID,
			RemoteAS:    peering.PeerAS,
			Description: peering.PeerHostname,
		})
	}

	logger.Debug("Structured config derived.", "ethernets", len(sc.Ethernets), "neighbors", len(sc.BGPNeighbors))
	return sc, nil
}

// DesignedConfig validates a structured config and renders the final device
// configuration text. It depends only on the one host's structured config.
func (b *Builder) DesignedConfig(ctx context.Context, sc *model.StructuredConfig) (*model.DesignedConfig, error) {
	logger := ctxlog.FromContext(ctx).With("host", sc.Hostname)

	if res := validate.Structured(sc); res.Failed {
		b.reportIssues(ctx, sc.Hostname, res.Issues)
		return nil, &Failure{Host: sc.Hostname, Stage: StageDesigned, Kind: KindValidation, Issues: res.Issues}
	}
	logger.Debug("Structured config validation passed.")

	return &model.DesignedConfig{Hostname: sc.Hostname, Text: render.Config(sc)}, nil
}

// reportIssues emits every validation issue to the diagnostic sink, one line
// each, before the owning stage fails. Partial diagnostics must precede the
// abort so the operator sees what broke.
func (b *Builder) reportIssues(ctx context.Context, host string, issues []validate.Issue) {
	logger := ctxlog.FromContext(ctx).With("host", host)
	for _, issue := range issues {
		fmt.Fprintf(b.diag(), "%s: %s\n", host, issue)
		logger.Error("Validation issue.", "code", issue.Code, "path", issue.Path, "message", issue.Message)
	}
}
