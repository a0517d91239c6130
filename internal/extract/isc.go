// Package extract reads legacy ISC DHCP data and existing target-backend
// records out of a configuration document. Nothing in this package mutates
// the document.
package extract

import (
	"strings"
	"unicode"

	"dhcpmigrate/internal/configdoc"
	"dhcpmigrate/internal/domain"
)

const (
	sectionV4 = "dhcpd"
	sectionV6 = "dhcpdv6"
)

// Mappings returns every <dhcpd>/<iface>/<staticmap> that has both a MAC and
// an address, in document order.
func Mappings(root *configdoc.Node) []domain.Mapping {
	var out []domain.Mapping
	eachStaticMap(root, sectionV4, func(iface string, sm *configdoc.Node) {
		m := domain.Mapping{
			Interface:   iface,
			MAC:         sm.ChildText("mac"),
			IP:          sm.ChildText("ipaddr"),
			Hostname:    sm.ChildText("hostname"),
			ClientID:    sm.ChildText("cid"),
			Description: sm.ChildText("descr"),
		}
		if m.MAC == "" || m.IP == "" {
			return
		}
		out = append(out, m)
	})
	return out
}

// MappingsV6 returns every <dhcpdv6>/<iface>/<staticmap> that has both a DUID
// and an address, in document order.
func MappingsV6(root *configdoc.Node) []domain.MappingV6 {
	var out []domain.MappingV6
	eachStaticMap(root, sectionV6, func(iface string, sm *configdoc.Node) {
		m := domain.MappingV6{
			Interface:    iface,
			DUID:         sm.ChildText("duid"),
			IP:           sm.ChildText("ipaddrv6"),
			Hostname:     sm.ChildText("hostname"),
			Description:  sm.ChildText("descr"),
			DomainSearch: sm.ChildText("domainsearchlist"),
		}
		if m.DUID == "" || m.IP == "" {
			return
		}
		out = append(out, m)
	})
	return out
}

// Ranges returns the DHCPv4 dynamic ranges; entries missing an endpoint are skipped.
func Ranges(root *configdoc.Node) []domain.Range {
	return ranges(root, sectionV4)
}

// RangesV6 returns the DHCPv6 dynamic ranges.
func RangesV6(root *configdoc.Node) []domain.Range {
	return ranges(root, sectionV6)
}

func ranges(root *configdoc.Node, section string) []domain.Range {
	svc := root.Child(section)
	if svc == nil {
		return nil
	}
	var out []domain.Range
	for _, iface := range svc.Children() {
		for _, r := range iface.ChildrenNamed("range") {
			from, to := r.ChildText("from"), r.ChildText("to")
			if from == "" || to == "" {
				continue
			}
			out = append(out, domain.Range{Interface: iface.Name(), From: from, To: to})
		}
	}
	return out
}

// OptionsV4 returns one bundle per interface that configures at least one
// DNS server, NTP server, gateway, domain name or domain search list.
func OptionsV4(root *configdoc.Node) []domain.OptionsV4 {
	svc := root.Child(sectionV4)
	if svc == nil {
		return nil
	}
	var out []domain.OptionsV4
	for _, iface := range svc.Children() {
		o := domain.OptionsV4{Interface: iface.Name()}
		for _, c := range iface.Children() {
			v := c.Text()
			switch {
			case c.Is("dnsserver"):
				if v != "" {
					o.DNSServers = append(o.DNSServers, v)
				}
			case c.Is("ntpserver"):
				if v != "" {
					o.NTPServers = append(o.NTPServers, v)
				}
			case c.Is("gateway"):
				o.Gateway = v
			case c.Is("domain"):
				o.DomainName = v
			case c.Is("domainsearchlist"):
				o.DomainSearch = NormalizeDomainSearch(v)
			}
		}
		if len(o.DNSServers) == 0 && len(o.NTPServers) == 0 &&
			o.Gateway == "" && o.DomainName == "" && o.DomainSearch == "" {
			continue
		}
		out = append(out, o)
	}
	return out
}

// OptionsV6 returns one bundle per interface with DNS servers or a domain search list.
func OptionsV6(root *configdoc.Node) []domain.OptionsV6 {
	svc := root.Child(sectionV6)
	if svc == nil {
		return nil
	}
	var out []domain.OptionsV6
	for _, iface := range svc.Children() {
		o := domain.OptionsV6{Interface: iface.Name()}
		for _, c := range iface.Children() {
			v := c.Text()
			switch {
			case c.Is("dnsserver"):
				if v != "" {
					o.DNSServers = append(o.DNSServers, v)
				}
			case c.Is("domainsearchlist"):
				o.DomainSearch = NormalizeDomainSearch(v)
			}
		}
		if len(o.DNSServers) == 0 && o.DomainSearch == "" {
			continue
		}
		out = append(out, o)
	}
	return out
}

// SplitDomainList splits a domain list on ';', ',' and whitespace, dropping
// empty tokens.
func SplitDomainList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == ',' || unicode.IsSpace(r)
	})
}

// NormalizeDomainSearch rewrites a domain search list as single-space separated.
func NormalizeDomainSearch(s string) string {
	return strings.Join(SplitDomainList(s), " ")
}

// EnabledInterfaces returns the sorted names of legacy interfaces whose
// <enable> flag is set for the given family. A missing, empty or "0" flag
// counts as disabled.
func EnabledInterfaces(root *configdoc.Node, fam domain.Family) []string {
	svc := LegacyService(root, fam)
	if svc == nil {
		return nil
	}
	var out []string
	for _, iface := range svc.Children() {
		if IsEnabled(iface) {
			out = append(out, iface.Name())
		}
	}
	sortUnique(&out)
	return out
}

// LegacyService returns the <dhcpd> or <dhcpdv6> section, searching the
// whole document.
func LegacyService(root *configdoc.Node, fam domain.Family) *configdoc.Node {
	if fam == domain.IPv6 {
		return root.Descendant(sectionV6)
	}
	return root.Descendant(sectionV4)
}

// IsEnabled reports whether n carries a non-empty <enable> flag other than "0".
func IsEnabled(n *configdoc.Node) bool {
	en := n.Child("enable")
	if en == nil {
		return false
	}
	v := en.Text()
	return v != "" && v != "0"
}

func eachStaticMap(root *configdoc.Node, section string, fn func(iface string, sm *configdoc.Node)) {
	svc := root.Child(section)
	if svc == nil {
		return
	}
	for _, iface := range svc.Children() {
		for _, sm := range iface.ChildrenNamed("staticmap") {
			fn(iface.Name(), sm)
		}
	}
}
