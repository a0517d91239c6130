package migrate

import (
	"net/netip"

	"github.com/google/uuid"

	"dhcpmigrate/internal/cidr"
	"dhcpmigrate/internal/domain"
)

// placeholderPrefix marks subnets a scan expects convert to create.
const placeholderPrefix = "new-"

type parsedSubnet struct {
	subnet domain.Subnet
	prefix netip.Prefix
}

func parsedPrefix(p parsedSubnet) netip.Prefix { return p.prefix }

// findSubnet returns the most specific subnet containing addr. Ties go to
// the subnet declared first.
func findSubnet(addr string, subnets []domain.Subnet, fam domain.Family) (domain.Subnet, error) {
	a, err := cidr.ParseAddr(addr)
	if err != nil {
		return domain.Subnet{}, err
	}
	candidates := make([]parsedSubnet, 0, len(subnets))
	for _, s := range subnets {
		p, err := cidr.ParsePrefix(s.CIDR)
		if err != nil {
			return domain.Subnet{}, err
		}
		candidates = append(candidates, parsedSubnet{subnet: s, prefix: p})
	}
	match, ok := cidr.MostSpecific(candidates, parsedPrefix, a)
	if !ok {
		return domain.Subnet{}, &SubnetError{Address: addr, Family: fam}
	}
	return match.subnet, nil
}

// buildDesiredSubnets groups legacy ranges by interface, in the order each
// interface is first seen, and pairs every group with the interface network.
// Both endpoints of every range must lie inside that network.
func buildDesiredSubnets(ranges []domain.Range, cidrs []domain.InterfaceCIDR, fam domain.Family) ([]domain.DesiredSubnet, error) {
	var out []domain.DesiredSubnet
	index := make(map[string]int)
	for _, r := range ranges {
		prefix, ok := interfaceCIDR(r.Interface, cidrs)
		if !ok {
			return nil, &NoInterfaceCIDRError{Family: fam, Interface: r.Interface}
		}
		inside, err := rangeInside(r, prefix)
		if err != nil {
			return nil, err
		}
		if !inside {
			return nil, &RangeError{Family: fam, From: r.From, To: r.To, Interface: r.Interface, CIDR: prefix.String()}
		}
		if i, seen := index[r.Interface]; seen {
			out[i].Ranges = append(out[i].Ranges, r)
			continue
		}
		index[r.Interface] = len(out)
		out = append(out, domain.DesiredSubnet{
			Interface: r.Interface,
			CIDR:      prefix.String(),
			Ranges:    []domain.Range{r},
		})
	}
	return out, nil
}

func rangeInside(r domain.Range, prefix netip.Prefix) (bool, error) {
	from, err := cidr.ParseAddr(r.From)
	if err != nil {
		return false, err
	}
	to, err := cidr.ParseAddr(r.To)
	if err != nil {
		return false, err
	}
	return cidr.Contains(prefix, from) && cidr.Contains(prefix, to), nil
}

func hasSubnetCIDR(subnets []domain.Subnet, text string) bool {
	for _, s := range subnets {
		if s.CIDR == text {
			return true
		}
	}
	return false
}

// effectiveSubnets appends a placeholder for every desired subnet that does
// not exist yet, so a scan resolves addresses the way a convert would.
func effectiveSubnets(existing []domain.Subnet, desired []domain.DesiredSubnet) []domain.Subnet {
	out := append([]domain.Subnet(nil), existing...)
	for _, d := range desired {
		if hasSubnetCIDR(out, d.CIDR) {
			continue
		}
		out = append(out, domain.Subnet{
			ID:        placeholderPrefix + uuid.NewString(),
			CIDR:      d.CIDR,
			Interface: d.Interface,
		})
	}
	return out
}

func desiredInterfaces(desired ...[]domain.DesiredSubnet) []string {
	var out []string
	for _, set := range desired {
		for _, d := range set {
			out = append(out, d.Interface)
		}
	}
	return out
}

// shortID trims a subnet identifier for progress output.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
