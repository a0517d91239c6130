package migrate

import (
	"strconv"

	"dhcpmigrate/internal/cidr"
	"dhcpmigrate/internal/configdoc"
	"dhcpmigrate/internal/domain"
	"dhcpmigrate/internal/extract"
)

type dnsmasqBackend struct{}

// dnsmasqState is the target side of a dnsmasq run. Host addresses share
// one key set across both families.
type dnsmasqState struct {
	section *configdoc.Node
	hosts   extract.DnsmasqHostKeys
	seen    *tracker // address, MAC
	seenV6  *tracker // address, client id
	ranges  keySet
	options keySet
}

func loadDnsmasq(root *configdoc.Node) *dnsmasqState {
	hosts := extract.DnsmasqHosts(root)
	ips := newKeySet(hosts.IPs)
	return &dnsmasqState{
		section: extract.Dnsmasq(root),
		hosts:   hosts,
		seen:    newTracker(ips, newKeySet(hosts.MACs)),
		seenV6:  newTracker(ips, newKeySet(hosts.ClientIDs)),
		ranges:  newKeySet(extract.DnsmasqRangeKeys(root)),
		options: newKeySet(extract.DnsmasqOptionKeys(root)),
	}
}

func (dnsmasqBackend) check(r *run, p *plan, s *dnsmasqState, specs []optionSpec) error {
	work := len(p.mappings) > 0 || len(p.mappingsV6) > 0 ||
		len(p.desired) > 0 || len(p.desiredV6) > 0 || len(specs) > 0
	if work && s.section == nil {
		return &BackendNotConfiguredError{Backend: domain.BackendDnsmasq}
	}
	if r.opts.FailIfExisting && (!s.hosts.Empty() || (r.opts.CreateSubnets && len(s.ranges) > 0)) {
		return &ExistingRecordsError{Backend: domain.BackendDnsmasq, Count: len(s.hosts.IPs)}
	}
	return nil
}

func (b dnsmasqBackend) scan(r *run, p *plan) (*domain.MigrationStats, error) {
	return b.migrate(r, p)
}

func (b dnsmasqBackend) convert(r *run, p *plan) (*domain.MigrationStats, error) {
	return b.migrate(r, p)
}

// migrate is shared by scan and convert; r.mutate decides whether records
// are written.
func (b dnsmasqBackend) migrate(r *run, p *plan) (*domain.MigrationStats, error) {
	s := loadDnsmasq(r.root)
	specs := dnsmasqOptionSpecs(p.optionsV4, p.optionsV6)
	if err := b.check(r, p, s, specs); err != nil {
		return nil, err
	}
	st := p.stats()

	desired, desiredV6 := p.creating(r.opts)
	if err := b.applyRanges(r, s, desired, domain.IPv4); err != nil {
		return nil, err
	}
	if err := b.applyRanges(r, s, desiredV6, domain.IPv6); err != nil {
		return nil, err
	}
	if r.mutate && len(specs) > 0 {
		r.applyDnsmasqOptions(s.section, specs, s.options)
	}

	r.processingHeader(p, " for dnsmasq")
	for _, m := range p.mappings {
		if s.seen.seen(m.IP, m.MAC) {
			st.Skipped++
			r.progress("  SKIP: %s (%s) - IP or MAC already exists in dnsmasq", m.IP, m.MAC)
			continue
		}
		r.progress("  ADD: %s (%s) [%s]", m.IP, m.MAC, orNoHostname(m.DisplayName()))
		if r.mutate {
			s.section.Append(newHost(m))
		}
		s.seen.accept(m.IP, m.MAC)
		st.ToCreate++
	}
	for _, m := range p.mappingsV6 {
		if s.seenV6.seen(m.IP, m.DUID) {
			st.SkippedV6++
			r.progress("  SKIP6: %s (%s) - IP or DUID already exists in dnsmasq", m.IP, m.DUID)
			continue
		}
		r.progress("  ADD6: %s (%s) [%s]", m.IP, m.DUID, orNoHostname(m.Hostname))
		if r.mutate {
			s.section.Append(newHostV6(m))
		}
		s.seenV6.accept(m.IP, m.DUID)
		st.ToCreateV6++
	}

	if !r.mutate {
		return st, nil
	}
	if r.opts.CreateSubnets {
		ifaces, err := applyDnsmasqInterfaces(r.root, desired, desiredV6)
		if err != nil {
			return nil, err
		}
		st.InterfacesConfigured = ifaces
	}
	if r.opts.EnableBackend {
		r.disableSource(st)
		hasRanges := len(p.desired) > 0 || len(p.desiredV6) > 0 || len(s.ranges) > 0
		if hasRanges {
			if !enableDnsmasq(r.root) {
				return nil, &EnableError{Backend: domain.BackendDnsmasq}
			}
			st.BackendEnabledV4 = true
			st.BackendEnabledV6 = true
		}
	}
	return st, nil
}

// applyRanges turns desired subnets into dnsmasq ranges, one per legacy
// range. Existing ranges with the same key are skipped with a warning or,
// when subnets are forced, replaced. A scan only reports.
func (dnsmasqBackend) applyRanges(r *run, s *dnsmasqState, desired []domain.DesiredSubnet, fam domain.Family) error {
	label := "ADD-RANGE"
	if fam == domain.IPv6 {
		label = "ADD-RANGE6"
	}
	for _, d := range desired {
		sizing, err := rangeSizing(d.CIDR, fam)
		if err != nil {
			return err
		}
		for _, rg := range d.Ranges {
			var key string
			if fam == domain.IPv6 {
				key = extract.RangeKey(d.Interface, rg.From, rg.To, sizing, "")
			} else {
				key = extract.RangeKey(d.Interface, rg.From, rg.To, "", sizing)
			}
			if _, exists := s.ranges[key]; exists {
				if !r.mutate || !r.opts.ForceSubnets {
					r.warn("Warning: dnsmasq range %s-%s already exists (iface %s). Skipping.", rg.From, rg.To, d.Interface)
					continue
				}
				s.section.RemoveChildren(func(n *configdoc.Node) bool {
					return n.Is("dhcp_ranges") && extract.DnsmasqRangeKey(n) == key
				})
			}
			r.progress("  %s: %s-%s (iface %s)", label, rg.From, rg.To, d.Interface)
			if r.mutate {
				s.section.Append(newRange(d.Interface, rg, fam, sizing))
			}
		}
	}
	return nil
}

// rangeSizing is the netmask (DHCPv4) or prefix length (DHCPv6) recorded
// with a range.
func rangeSizing(text string, fam domain.Family) (string, error) {
	p, err := cidr.ParsePrefix(text)
	if err != nil {
		return "", err
	}
	if fam == domain.IPv6 {
		return strconv.Itoa(p.Bits()), nil
	}
	return cidr.Netmask(p.Bits())
}
