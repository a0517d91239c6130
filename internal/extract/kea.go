package extract

import (
	"dhcpmigrate/internal/configdoc"
	"dhcpmigrate/internal/domain"
)

// KeaService returns the <dhcp4> or <dhcp6> section below the first <Kea>
// element, or nil when either is missing.
func KeaService(root *configdoc.Node, fam domain.Family) *configdoc.Node {
	kea := root.Descendant("kea")
	if kea == nil {
		return nil
	}
	if fam == domain.IPv6 {
		return kea.Descendant("dhcp6")
	}
	return kea.Descendant("dhcp4")
}

// HasKeaDHCP4 reports whether Kea has a DHCPv4 section.
func HasKeaDHCP4(root *configdoc.Node) bool { return KeaService(root, domain.IPv4) != nil }

// HasKeaDHCP6 reports whether Kea has a DHCPv6 section.
func HasKeaDHCP6(root *configdoc.Node) bool { return KeaService(root, domain.IPv6) != nil }

// KeaSubnetTag is the element name of a subnet for the family.
func KeaSubnetTag(fam domain.Family) string {
	if fam == domain.IPv6 {
		return "subnet6"
	}
	return "subnet4"
}

// KeaSubnetContainer returns the element holding the family's subnet
// entries: <subnets> when present, otherwise the DHCPv4 section itself
// for configurations that list <subnet4> directly. It returns nil when
// there is nowhere to look.
func KeaSubnetContainer(svc *configdoc.Node, fam domain.Family) *configdoc.Node {
	if svc == nil {
		return nil
	}
	if s := svc.Child("subnets"); s != nil {
		return s
	}
	if fam == domain.IPv4 {
		return svc
	}
	return nil
}

// KeaSubnets returns the declared DHCPv4 subnets in document order. Entries
// without a uuid attribute or subnet text are ignored.
func KeaSubnets(root *configdoc.Node) []domain.Subnet {
	return keaSubnets(root, domain.IPv4)
}

// KeaSubnetsV6 returns the declared DHCPv6 subnets in document order.
func KeaSubnetsV6(root *configdoc.Node) []domain.Subnet {
	return keaSubnets(root, domain.IPv6)
}

func keaSubnets(root *configdoc.Node, fam domain.Family) []domain.Subnet {
	container := KeaSubnetContainer(KeaService(root, fam), fam)
	if container == nil {
		return nil
	}
	var out []domain.Subnet
	for _, s := range container.ChildrenNamed(KeaSubnetTag(fam)) {
		id, ok := s.Attr("uuid")
		if !ok {
			continue
		}
		text := s.ChildText("subnet")
		if text == "" {
			continue
		}
		out = append(out, domain.Subnet{ID: id, CIDR: text})
	}
	return out
}

// KeaReservedIPs returns the addresses of existing DHCPv4 reservations.
func KeaReservedIPs(root *configdoc.Node) []string {
	return reservationField(root, domain.IPv4, "ip_address")
}

// KeaReservedIPsV6 returns the addresses of existing DHCPv6 reservations.
func KeaReservedIPsV6(root *configdoc.Node) []string {
	return reservationField(root, domain.IPv6, "ip_address")
}

// KeaReservedDUIDsV6 returns the DUIDs of existing DHCPv6 reservations.
func KeaReservedDUIDsV6(root *configdoc.Node) []string {
	return reservationField(root, domain.IPv6, "duid")
}

func reservationField(root *configdoc.Node, fam domain.Family, field string) []string {
	svc := KeaService(root, fam)
	if svc == nil {
		return nil
	}
	res := svc.Descendant("reservations")
	if res == nil {
		return nil
	}
	var out []string
	for _, r := range res.ChildrenNamed("reservation") {
		if v := r.ChildText(field); v != "" {
			out = append(out, v)
		}
	}
	return out
}
