package migrate

import (
	"net/netip"

	"dhcpmigrate/internal/cidr"
	"dhcpmigrate/internal/domain"
)

func interfacePrefix(c domain.InterfaceCIDR) netip.Prefix { return c.Prefix }

// resolveInterface returns the interface whose network most specifically
// contains addr.
func resolveInterface(addr string, cidrs []domain.InterfaceCIDR, fam domain.Family) (string, error) {
	a, err := cidr.ParseAddr(addr)
	if err != nil {
		return "", err
	}
	match, ok := cidr.MostSpecific(cidrs, interfacePrefix, a)
	if !ok {
		return "", &NoMatchingInterfaceError{Address: addr, Family: fam}
	}
	return match.Interface, nil
}

// interfaceCIDR looks up the network of a named interface.
func interfaceCIDR(name string, cidrs []domain.InterfaceCIDR) (netip.Prefix, bool) {
	for _, c := range cidrs {
		if c.Interface == name {
			return c.Prefix, true
		}
	}
	return netip.Prefix{}, false
}

// validateMappingInterfaces checks that every DHCPv4 mapping is declared
// under the interface its address belongs to.
func validateMappingInterfaces(mappings []domain.Mapping, cidrs []domain.InterfaceCIDR) error {
	for _, m := range mappings {
		if err := checkDeclaredInterface(m.IP, m.Interface, cidrs, domain.IPv4); err != nil {
			return err
		}
	}
	return nil
}

// validateMappingInterfacesV6 is validateMappingInterfaces for DHCPv6 mappings.
func validateMappingInterfacesV6(mappings []domain.MappingV6, cidrs []domain.InterfaceCIDR) error {
	for _, m := range mappings {
		if err := checkDeclaredInterface(m.IP, m.Interface, cidrs, domain.IPv6); err != nil {
			return err
		}
	}
	return nil
}

func checkDeclaredInterface(addr, declared string, cidrs []domain.InterfaceCIDR, fam domain.Family) error {
	derived, err := resolveInterface(addr, cidrs, fam)
	if err != nil {
		return err
	}
	if derived != declared {
		return &InterfaceMismatchError{Address: addr, Declared: declared, Derived: derived}
	}
	return nil
}
