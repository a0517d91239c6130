package extract

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"dhcpmigrate/internal/cidr"
	"dhcpmigrate/internal/configdoc"
	"dhcpmigrate/internal/domain"
)

// InterfaceCIDRs derives the IPv4 network of every statically addressed
// interface under <interfaces>, in document order.
//
// Interfaces without an address or prefix length, interfaces that obtain
// their address dynamically, and entries whose address or prefix length
// text does not parse are skipped. A prefix length that parses but is too
// long for the family is an error.
func InterfaceCIDRs(root *configdoc.Node) ([]domain.InterfaceCIDR, error) {
	return interfaceCIDRs(root, domain.IPv4)
}

// InterfaceCIDRsV6 is InterfaceCIDRs for <ipaddrv6>/<subnetv6>.
func InterfaceCIDRsV6(root *configdoc.Node) ([]domain.InterfaceCIDR, error) {
	return interfaceCIDRs(root, domain.IPv6)
}

func interfaceCIDRs(root *configdoc.Node, fam domain.Family) ([]domain.InterfaceCIDR, error) {
	ifaces := root.Child("interfaces")
	if ifaces == nil {
		return nil, nil
	}
	addrTag, bitsTag := "ipaddr", "subnet"
	if fam == domain.IPv6 {
		addrTag, bitsTag = "ipaddrv6", "subnetv6"
	}

	var out []domain.InterfaceCIDR
	for _, iface := range ifaces.Children() {
		addr, bits := iface.ChildText(addrTag), iface.ChildText(bitsTag)
		if addr == "" || bits == "" || isDynamicAddress(addr, fam) {
			continue
		}
		if _, err := strconv.ParseUint(bits, 10, 8); err != nil {
			continue
		}
		a, err := cidr.ParseAddr(addr)
		if err != nil || a.Is4() != (fam == domain.IPv4) {
			continue
		}
		p, err := cidr.InterfacePrefix(addr, bits)
		if err != nil {
			return nil, fmt.Errorf("interface %s: %w", iface.Name(), err)
		}
		out = append(out, domain.InterfaceCIDR{Interface: iface.Name(), Prefix: p})
	}
	return out, nil
}

func isDynamicAddress(addr string, fam domain.Family) bool {
	if fam == domain.IPv6 {
		return strings.EqualFold(addr, "dhcp6") || strings.EqualFold(addr, "track6")
	}
	return strings.EqualFold(addr, "dhcp")
}

func sortUnique(s *[]string) {
	slices.Sort(*s)
	*s = slices.Compact(*s)
}
