package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/fabbuild/internal/ctxlog"
	"github.com/vk/fabbuild/internal/fsutil"
	"github.com/vk/fabbuild/internal/model"
	"github.com/zclconf/go-cty/cty"
)

// Fabric is the resolved inventory: fabric-wide variables plus the effective
// variable set of every buildable device. Controller placeholders are kept
// aside so the app can report what was skipped.
type Fabric struct {
	Vars     model.FabricVars
	Hosts    map[string]*model.HostVars
	Excluded []string
}

// Hostnames returns the buildable hostnames in sorted order.
func (f *Fabric) Hostnames() []string {
	names := make([]string, 0, len(f.Hosts))
	for name := range f.Hosts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// fileRoot decodes all top-level blocks accepted in any inventory file.
type fileRoot struct {
	Fabrics []*fabricBlock `hcl:"fabric,block"`
	Devices []*deviceBlock `hcl:"device,block"`
	Remain  hcl.Body       `hcl:",remain"`
}

type fabricBlock struct {
	Name         string `hcl:"name"`
	LoopbackPool string `hcl:"loopback_pool"`
	ASBase       uint32 `hcl:"as_base"`
}

type deviceBlock struct {
	Name     string   `hcl:"name,label"`
	Role     string   `hcl:"role"`
	Platform string   `hcl:"platform,optional"`
	MgmtIP   string   `hcl:"mgmt_ip,optional"`
	BGPAS    uint32   `hcl:"bgp_as,optional"`
	Uplinks  []string `hcl:"uplinks,optional"`
}

// Loader reads .hcl inventory files from a file or directory path.
type Loader struct{}

// NewLoader creates a new HCL inventory loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fabricOnlyRoot is the first-pass decode target: it pulls the fabric block
// out of a file and leaves everything else untouched.
type fabricOnlyRoot struct {
	Fabrics []*fabricBlock `hcl:"fabric,block"`
	Remain  hcl.Body       `hcl:",remain"`
}

// Load parses every inventory file under path and merges the result into a
// single Fabric. Exactly one fabric block must exist across all files, and
// device names must be unique. Devices declaring the controller role are
// excluded from the buildable host set.
//
// Loading is two-pass: the fabric block is decoded first, then device blocks
// are decoded with the fabric values exposed as the `fabric` variable, so a
// device can write e.g. `bgp_as = fabric.as_base + 100`.
func (l *Loader) Load(ctx context.Context, path string) (*Fabric, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl inventory files found under %s", path)
	}
	logger.Debug("Discovered inventory files.", "count", len(files))

	parser := hclparse.NewParser()
	parsed := make([]*hcl.File, 0, len(files))

	var fabrics []*fabricBlock
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse inventory file %s: %w", file, diags)
		}
		parsed = append(parsed, hclFile)

		var root fabricOnlyRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode inventory file %s: %w", file, diags)
		}
		fabrics = append(fabrics, root.Fabrics...)
	}

	if len(fabrics) == 0 {
		return nil, fmt.Errorf("inventory at %s declares no fabric block", path)
	}
	if len(fabrics) > 1 {
		return nil, fmt.Errorf("inventory at %s declares %d fabric blocks, only one is allowed", path, len(fabrics))
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"fabric": cty.ObjectVal(map[string]cty.Value{
				"name":          cty.StringVal(fabrics[0].Name),
				"loopback_pool": cty.StringVal(fabrics[0].LoopbackPool),
				"as_base":       cty.NumberUIntVal(uint64(fabrics[0].ASBase)),
			}),
		},
	}

	var devices []*deviceBlock
	for i, hclFile := range parsed {
		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, evalCtx, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode inventory file %s: %w", files[i], diags)
		}
		devices = append(devices, root.Devices...)
	}

	fabric := &Fabric{
		Vars: model.FabricVars{
			Name:         fabrics[0].Name,
			LoopbackPool: fabrics[0].LoopbackPool,
			ASBase:       fabrics[0].ASBase,
		},
		Hosts: make(map[string]*model.HostVars, len(devices)),
	}

	for _, dev := range devices {
		if _, dup := fabric.Hosts[dev.Name]; dup || contains(fabric.Excluded, dev.Name) {
			return nil, fmt.Errorf("duplicate device %q in inventory", dev.Name)
		}
		if strings.EqualFold(dev.Role, model.RoleController) {
			logger.Debug("Excluding controller entry from build.", "host", dev.Name)
			fabric.Excluded = append(fabric.Excluded, dev.Name)
			continue
		}
		fabric.Hosts[dev.Name] = &model.HostVars{
			Hostname: dev.Name,
			Role:     dev.Role,
			Platform: dev.Platform,
			MgmtIP:   dev.MgmtIP,
			BGPAS:    dev.BGPAS,
			Uplinks:  dev.Uplinks,
			Fabric:   fabric.Vars,
		}
	}

	logger.Debug("Inventory resolved.", "fabric", fabric.Vars.Name, "hosts", len(fabric.Hosts), "excluded", len(fabric.Excluded))
	return fabric, nil
}

func contains(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}
