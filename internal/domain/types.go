package domain

import (
	"fmt"
	"net/netip"
	"strings"
)

// Family is the IP protocol family a record belongs to.
type Family int

const (
	IPv4 Family = 4
	IPv6 Family = 6
)

func (f Family) String() string {
	if f == IPv6 {
		return "DHCPv6"
	}
	return "DHCPv4"
}

// Backend identifies the target DHCP server representation.
type Backend string

const (
	// BackendKea is the subnet-oriented backend; reservations link to a subnet.
	BackendKea Backend = "kea"
	// BackendDnsmasq is the flat backend; host records stand alone.
	BackendDnsmasq Backend = "dnsmasq"
)

// IsValidBackend reports whether b is a known backend.
func IsValidBackend(b Backend) bool {
	switch b {
	case BackendKea, BackendDnsmasq:
		return true
	}
	return false
}

// ParseBackend converts user input to a Backend. Matching is case-insensitive
// and an empty string selects Kea.
func ParseBackend(s string) (Backend, error) {
	b := Backend(strings.ToLower(strings.TrimSpace(s)))
	if b == "" {
		return BackendKea, nil
	}
	if !IsValidBackend(b) {
		return "", fmt.Errorf("unknown backend %q (want kea or dnsmasq)", s)
	}
	return b, nil
}

// DisplayName is the product spelling used in messages.
func (b Backend) DisplayName() string {
	if b == BackendDnsmasq {
		return "dnsmasq"
	}
	return "Kea"
}

// Mapping is a legacy DHCPv4 static mapping. Optional fields are empty when absent.
type Mapping struct {
	Interface   string
	MAC         string
	IP          string
	Hostname    string
	ClientID    string
	Description string
}

// DisplayName returns the hostname, falling back to the client id.
func (m Mapping) DisplayName() string {
	if m.Hostname != "" {
		return m.Hostname
	}
	return m.ClientID
}

// MappingV6 is a legacy DHCPv6 static mapping.
type MappingV6 struct {
	Interface    string
	DUID         string
	IP           string
	Hostname     string
	Description  string
	DomainSearch string
}

// Range is a legacy dynamic range on one interface. It is used for both families.
type Range struct {
	Interface string
	From      string
	To        string
}

// OptionsV4 is the per-interface DHCPv4 option bundle of the legacy service.
type OptionsV4 struct {
	Interface    string
	DNSServers   []string
	Gateway      string
	DomainName   string
	DomainSearch string
	NTPServers   []string
}

// OptionsV6 is the per-interface DHCPv6 option bundle of the legacy service.
type OptionsV6 struct {
	Interface    string
	DNSServers   []string
	DomainSearch string
}

// InterfaceCIDR is the network an interface's static address lives in.
type InterfaceCIDR struct {
	Interface string
	Prefix    netip.Prefix
}

// Subnet is a subnet already declared in the target backend.
type Subnet struct {
	ID        string
	CIDR      string
	Interface string
}

// DesiredSubnet is a subnet to be created from an interface's ranges.
type DesiredSubnet struct {
	Interface string
	CIDR      string
	Ranges    []Range
}

// MigrationOptions selects what a scan or convert run does.
type MigrationOptions struct {
	FailIfExisting bool    `json:"fail_if_existing"`
	Verbose        bool    `json:"verbose"`
	Backend        Backend `json:"backend"`
	CreateSubnets  bool    `json:"create_subnets"`
	ForceSubnets   bool    `json:"force_subnets"`
	CreateOptions  bool    `json:"create_options"`
	ForceOptions   bool    `json:"force_options"`
	EnableBackend  bool    `json:"enable_backend"`
}

// MigrationStats is the result of a scan or convert run.
type MigrationStats struct {
	MappingsFound        int      `json:"mappings_found"`
	MappingsV6Found      int      `json:"mappings_v6_found"`
	RangesFound          int      `json:"ranges_found"`
	RangesV6Found        int      `json:"ranges_v6_found"`
	SubnetsFound         int      `json:"subnets_found"`
	SubnetsV6Found       int      `json:"subnets_v6_found"`
	ToCreate             int      `json:"to_create"`
	ToCreateV6           int      `json:"to_create_v6"`
	Skipped              int      `json:"skipped"`
	SkippedV6            int      `json:"skipped_v6"`
	InterfacesConfigured []string `json:"interfaces_configured,omitempty"`
	SourceDisabledV4     []string `json:"source_disabled_v4,omitempty"`
	SourceDisabledV6     []string `json:"source_disabled_v6,omitempty"`
	BackendEnabledV4     bool     `json:"backend_enabled_v4"`
	BackendEnabledV6     bool     `json:"backend_enabled_v6"`
}
