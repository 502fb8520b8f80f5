package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/fabbuild/internal/model"
)

func sampleConfig() *model.StructuredConfig {
	return &model.StructuredConfig{
		Hostname: "leaf1",
		Role:     model.RoleLeaf,
		RouterID: "192.0.2.1",
		BGPAS:    65001,
		MgmtIP:   "10.0.0.13/24",
		Ethernets: []model.EthernetInterface{
			{Name: "Ethernet1", Description: "P2P_LINK_TO_spine1_Ethernet1"},
			{Name: "Ethernet2", Description: "P2P_LINK_TO_spine2_Ethernet1"},
		},
		BGPNeighbors: []model.BGPNeighbor{
			{Address: "192.0.2.3", RemoteAS: 65000, Description: "spine1"},
			{Address: "192.0.2.4", RemoteAS: 65000, Description: "spine2"},
		},
	}
}

func TestConfigSections(t *testing.T) {
	t.Parallel()

	text := Config(sampleConfig())
	require.NotEmpty(t, text)

	assert.Contains(t, text, "hostname leaf1\n")
	assert.Contains(t, text, "interface Ethernet1\n   description P2P_LINK_TO_spine1_Ethernet1\n   no switchport\n")
	assert.Contains(t, text, "interface Loopback0\n   ip address 192.0.2.1/32\n")
	assert.Contains(t, text, "interface Management1\n   ip address 10.0.0.13/24\n")
	assert.Contains(t, text, "router bgp 65001\n   router-id 192.0.2.1\n")
	assert.Contains(t, text, "neighbor 192.0.2.3 remote-as 65000\n")
	assert.Contains(t, text, "neighbor 192.0.2.3 description spine1\n")
	assert.True(t, strings.HasSuffix(text, "end\n"))
}

func TestConfigOmitsManagementWhenUnset(t *testing.T) {
	t.Parallel()

	sc := sampleConfig()
	sc.MgmtIP = ""
	text := Config(sc)
	assert.NotContains(t, text, "Management1")
}

func TestConfigIsByteStable(t *testing.T) {
	t.Parallel()

	first := Config(sampleConfig())
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Config(sampleConfig()))
	}
}
