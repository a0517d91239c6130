package migrate

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	"dhcpmigrate/internal/configdoc"
	"dhcpmigrate/internal/domain"
	"dhcpmigrate/internal/extract"
)

// field is one child element of a generated record.
type field struct {
	name  string
	value string
}

func newRecord(name string, fields []field) *configdoc.Node {
	n := configdoc.NewNode(name)
	n.SetAttr("uuid", uuid.NewString())
	for _, f := range fields {
		n.AddTextChild(f.name, f.value)
	}
	return n
}

// newReservation builds a Kea <reservation> linked to subnetID.
func newReservation(m domain.Mapping, subnetID string) *configdoc.Node {
	fields := []field{
		{"subnet", subnetID},
		{"ip_address", m.IP},
		{"hw_address", m.MAC},
	}
	if name := m.DisplayName(); name != "" {
		fields = append(fields, field{"hostname", name})
	}
	if m.Description != "" {
		fields = append(fields, field{"description", m.Description})
	}
	return newRecord("reservation", fields)
}

// newReservationV6 builds a Kea DHCPv6 <reservation> keyed by DUID.
func newReservationV6(m domain.MappingV6, subnetID string) *configdoc.Node {
	fields := []field{
		{"subnet", subnetID},
		{"ip_address", m.IP},
		{"duid", m.DUID},
	}
	if m.Hostname != "" {
		fields = append(fields, field{"hostname", m.Hostname})
	}
	if m.DomainSearch != "" {
		fields = append(fields, field{"domain_search", m.DomainSearch})
	}
	if m.Description != "" {
		fields = append(fields, field{"description", m.Description})
	}
	return newRecord("reservation", fields)
}

// newHost builds a dnsmasq <hosts> entry for a DHCPv4 mapping, including
// the default fields dnsmasq expects.
func newHost(m domain.Mapping) *configdoc.Node {
	fields := []field{
		{"hwaddr", m.MAC},
		{"ip", m.IP},
		{"host", m.DisplayName()},
	}
	if m.ClientID != "" {
		fields = append(fields, field{"client_id", m.ClientID})
	}
	if m.Description != "" {
		fields = append(fields, field{"descr", m.Description})
	}
	fields = append(fields,
		field{"domain", ""},
		field{"local", "0"},
		field{"ignore", "0"},
		field{"lease_time", ""},
		field{"cnames", ""},
		field{"set_tag", ""},
		field{"comments", ""},
		field{"aliases", ""},
	)
	return newRecord("hosts", fields)
}

// newHostV6 builds a dnsmasq <hosts> entry for a DHCPv6 mapping. The DUID is
// stored as client id and the domain is the first search-list entry.
func newHostV6(m domain.MappingV6) *configdoc.Node {
	fields := []field{
		{"host", m.Hostname},
		{"domain", firstDomain(m.DomainSearch)},
		{"local", "0"},
		{"ip", m.IP},
		{"client_id", m.DUID},
		{"hwaddr", ""},
	}
	if m.Description != "" {
		fields = append(fields, field{"descr", m.Description})
	}
	fields = append(fields,
		field{"lease_time", ""},
		field{"cnames", ""},
		field{"ignore", "0"},
		field{"set_tag", ""},
		field{"comments", ""},
		field{"aliases", ""},
	)
	return newRecord("hosts", fields)
}

func firstDomain(search string) string {
	parts := strings.FieldsFunc(search, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// newKeaSubnet builds a <subnet4>/<subnet6> holding the desired pools.
func newKeaSubnet(d domain.DesiredSubnet, fam domain.Family) *configdoc.Node {
	pools := make([]string, 0, len(d.Ranges))
	for _, r := range d.Ranges {
		pools = append(pools, r.From+"-"+r.To)
	}
	return newRecord(extract.KeaSubnetTag(fam), []field{
		{"subnet", d.CIDR},
		{"pools", strings.Join(pools, ",")},
	})
}

// newRange builds a dnsmasq <dhcp_ranges> entry. DHCPv4 ranges carry a
// netmask, DHCPv6 ranges a prefix length.
func newRange(iface string, r domain.Range, fam domain.Family, sizing string) *configdoc.Node {
	fields := []field{
		{"interface", iface},
		{"set_tag", ""},
		{"start_addr", r.From},
		{"end_addr", r.To},
	}
	if fam == domain.IPv6 {
		fields = append(fields, field{"prefix_len", sizing})
	} else {
		fields = append(fields, field{"subnet_mask", sizing})
	}
	fields = append(fields,
		field{"constructor", ""},
		field{"mode", ""},
		field{"lease_time", ""},
		field{"domain_type", "range"},
		field{"domain", ""},
		field{"nosync", "0"},
	)
	return newRecord("dhcp_ranges", fields)
}

// newOption builds a dnsmasq <dhcp_options> record of type "set".
func newOption(spec optionSpec) *configdoc.Node {
	return newRecord("dhcp_options", []field{
		{"type", "set"},
		{"option", spec.option},
		{"option6", spec.option6},
		{"interface", spec.iface},
		{"tag", ""},
		{"set_tag", ""},
		{"value", spec.value},
		{"force", ""},
		{"description", ""},
	})
}
