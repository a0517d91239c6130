package extract

import (
	"strings"

	"dhcpmigrate/internal/configdoc"
)

// Dnsmasq returns the first <dnsmasq> element in the document, or nil.
func Dnsmasq(root *configdoc.Node) *configdoc.Node {
	return root.Descendant("dnsmasq")
}

// HasDnsmasq reports whether the document has a <dnsmasq> section.
func HasDnsmasq(root *configdoc.Node) bool { return Dnsmasq(root) != nil }

// DnsmasqHostKeys are the identities already claimed by dnsmasq host entries.
type DnsmasqHostKeys struct {
	IPs       []string
	MACs      []string
	ClientIDs []string
}

// Empty reports whether no host identity was found.
func (k DnsmasqHostKeys) Empty() bool {
	return len(k.IPs) == 0 && len(k.MACs) == 0 && len(k.ClientIDs) == 0
}

// DnsmasqHosts collects the non-empty ip, hwaddr and client_id values of
// every <dnsmasq><hosts> entry.
func DnsmasqHosts(root *configdoc.Node) DnsmasqHostKeys {
	var k DnsmasqHostKeys
	d := Dnsmasq(root)
	if d == nil {
		return k
	}
	for _, h := range d.ChildrenNamed("hosts") {
		if v := h.ChildText("ip"); v != "" {
			k.IPs = append(k.IPs, v)
		}
		if v := h.ChildText("hwaddr"); v != "" {
			k.MACs = append(k.MACs, v)
		}
		if v := h.ChildText("client_id"); v != "" {
			k.ClientIDs = append(k.ClientIDs, v)
		}
	}
	return k
}

// RangeKey identifies a dnsmasq range by interface, endpoints and either
// prefix length (DHCPv6) or netmask (DHCPv4).
func RangeKey(iface, start, end, prefixLen, mask string) string {
	return strings.Join([]string{iface, start, end, prefixLen, mask}, "|")
}

// DnsmasqRangeKey computes the RangeKey of an existing <dhcp_ranges> element.
func DnsmasqRangeKey(n *configdoc.Node) string {
	return RangeKey(
		n.ChildText("interface"),
		n.ChildText("start_addr"),
		n.ChildText("end_addr"),
		n.ChildText("prefix_len"),
		n.ChildText("subnet_mask"),
	)
}

// DnsmasqRangeKeys returns the keys of all existing <dhcp_ranges> entries.
func DnsmasqRangeKeys(root *configdoc.Node) []string {
	d := Dnsmasq(root)
	if d == nil {
		return nil
	}
	var out []string
	for _, r := range d.ChildrenNamed("dhcp_ranges") {
		out = append(out, DnsmasqRangeKey(r))
	}
	return out
}

// OptionKey identifies a dnsmasq option record.
func OptionKey(typ, option, option6, iface, tag, setTag string) string {
	return strings.Join([]string{strings.ToLower(typ), option, option6, iface, tag, setTag}, "|")
}

// DnsmasqOptionKey returns the OptionKey of a <dhcp_options> element. Only
// records of type "set" take part in collision checks; others report false.
func DnsmasqOptionKey(n *configdoc.Node) (string, bool) {
	if !n.Is("dhcp_options") {
		return "", false
	}
	typ := n.ChildText("type")
	if !strings.EqualFold(typ, "set") {
		return "", false
	}
	return OptionKey(
		typ,
		n.ChildText("option"),
		n.ChildText("option6"),
		n.ChildText("interface"),
		n.ChildText("tag"),
		n.ChildText("set_tag"),
	), true
}

// DnsmasqOptionKeys returns the keys of all existing "set" option records.
func DnsmasqOptionKeys(root *configdoc.Node) []string {
	d := Dnsmasq(root)
	if d == nil {
		return nil
	}
	var out []string
	for _, o := range d.ChildrenNamed("dhcp_options") {
		if key, ok := DnsmasqOptionKey(o); ok {
			out = append(out, key)
		}
	}
	return out
}
