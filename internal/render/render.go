// Package render turns a structured config into final device configuration
// text. Rendering is a pure function of its input: identical structured
// configs produce byte-identical text, which keeps pipeline runs idempotent.
package render

import (
	"fmt"
	"strings"

	"github.com/vk/fabbuild/internal/model"
)

// Config renders the EOS-style configuration text for one device.
func Config(sc *model.StructuredConfig) string {
	var b strings.Builder

	section(&b, "hostname %s", sc.Hostname)

	for _, eth := range sc.Ethernets {
		b.WriteString("!\n")
		fmt.Fprintf(&b, "interface %s\n", eth.Name)
		if eth.Description != "" {
			fmt.Fprintf(&b, "   description %s\n", eth.Description)
		}
		b.WriteString("   no switchport\n")
	}

	b.WriteString("!\n")
	b.WriteString("interface Loopback0\n")
	fmt.Fprintf(&b, "   ip address %s/32\n", sc.RouterID)

	if sc.MgmtIP != "" {
		b.WriteString("!\n")
		b.WriteString("interface Management1\n")
		fmt.Fprintf(&b, "   ip address %s\n", sc.MgmtIP)
	}

	section(&b, "ip routing")

	b.WriteString("!\n")
	fmt.Fprintf(&b, "router bgp %d\n", sc.BGPAS)
	fmt.Fprintf(&b, "   router-id %s\n", sc.RouterID)
	for _, nbr := range sc.BGPNeighbors {
		fmt.Fprintf(&b, "   neighbor %s remote-as %d\n", nbr.Address, nbr.RemoteAS)
		if nbr.Description != "" {
			fmt.Fprintf(&b, "   neighbor %s description %s\n", nbr.Address, nbr.Description)
		}
	}

	b.WriteString("!\n")
	b.WriteString("end\n")
	return b.String()
}

func section(b *strings.Builder, format string, args ...any) {
	b.WriteString("!\n")
	fmt.Fprintf(b, format, args...)
	b.WriteString("\n")
}
