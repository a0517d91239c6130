package migrate

import (
	"dhcpmigrate/internal/configdoc"
	"dhcpmigrate/internal/domain"
	"dhcpmigrate/internal/extract"
)

type keaBackend struct{}

// keaState is the target side of a Kea run.
type keaState struct {
	subnets   []domain.Subnet
	subnetsV6 []domain.Subnet
	seen      *tracker // address
	seenV6    *tracker // address, DUID
	reserved  int
}

func loadKea(root *configdoc.Node) *keaState {
	ips := extract.KeaReservedIPs(root)
	ipsV6 := extract.KeaReservedIPsV6(root)
	return &keaState{
		subnets:   extract.KeaSubnets(root),
		subnetsV6: extract.KeaSubnetsV6(root),
		seen:      newTracker(newKeySet(ips)),
		seenV6:    newTracker(newKeySet(ipsV6), newKeySet(extract.KeaReservedDUIDsV6(root))),
		reserved:  len(ips) + len(ipsV6),
	}
}

// check runs the presence, nothing-to-create and fail-if-existing checks.
func (keaBackend) check(r *run, p *plan, s *keaState) error {
	families := []struct {
		fam      domain.Family
		mappings int
		subnets  []domain.Subnet
		desired  []domain.DesiredSubnet
	}{
		{domain.IPv4, len(p.mappings), s.subnets, p.desired},
		{domain.IPv6, len(p.mappingsV6), s.subnetsV6, p.desiredV6},
	}
	for _, f := range families {
		if f.mappings == 0 || len(f.subnets) > 0 {
			continue
		}
		if extract.KeaService(r.root, f.fam) == nil {
			return &BackendNotConfiguredError{Backend: domain.BackendKea, Family: f.fam}
		}
		if !r.opts.CreateSubnets {
			return &NoBackendSubnetsError{Backend: domain.BackendKea, Family: f.fam}
		}
		if len(f.desired) == 0 {
			return &NothingToCreateError{Backend: domain.BackendKea, Family: f.fam}
		}
	}
	if r.opts.FailIfExisting && !(s.seen.empty() && s.seenV6.empty()) {
		return &ExistingRecordsError{Backend: domain.BackendKea, Count: s.reserved}
	}
	return nil
}

func (k keaBackend) scan(r *run, p *plan) (*domain.MigrationStats, error) {
	s := loadKea(r.root)
	if err := k.check(r, p, s); err != nil {
		return nil, err
	}
	st := p.stats()
	st.SubnetsFound = len(s.subnets)
	st.SubnetsV6Found = len(s.subnetsV6)

	subnets, subnetsV6 := s.subnets, s.subnetsV6
	if r.opts.CreateSubnets {
		k.reportSubnets(r, s.subnets, p.desired, "ADD-SUBNET")
		k.reportSubnets(r, s.subnetsV6, p.desiredV6, "ADD-SUBNET6")
		subnets = effectiveSubnets(s.subnets, p.desired)
		subnetsV6 = effectiveSubnets(s.subnetsV6, p.desiredV6)
	}

	r.processingHeader(p, "")
	if err := k.reserve(r, p, s, subnets, subnetsV6, nil, nil, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (keaBackend) reportSubnets(r *run, existing []domain.Subnet, desired []domain.DesiredSubnet, label string) {
	if !r.opts.Verbose {
		return
	}
	for _, d := range desired {
		if hasSubnetCIDR(existing, d.CIDR) {
			r.warn("Warning: Kea subnet %s already exists (iface %s). Skipping.", d.CIDR, d.Interface)
			continue
		}
		r.progress("  %s: %s (iface %s)", label, d.CIDR, d.Interface)
	}
}

func (k keaBackend) convert(r *run, p *plan) (*domain.MigrationStats, error) {
	s := loadKea(r.root)
	if err := k.check(r, p, s); err != nil {
		return nil, err
	}
	st := p.stats()

	desired, desiredV6 := p.creating(r.opts)
	if err := k.mergeSubnets(r, s.subnets, desired, domain.IPv4); err != nil {
		return nil, err
	}
	if err := k.mergeSubnets(r, s.subnetsV6, desiredV6, domain.IPv6); err != nil {
		return nil, err
	}
	if len(desired) > 0 || len(desiredV6) > 0 {
		s.subnets = extract.KeaSubnets(r.root)
		s.subnetsV6 = extract.KeaSubnetsV6(r.root)
	}
	st.SubnetsFound = len(s.subnets)
	st.SubnetsV6Found = len(s.subnetsV6)

	if r.opts.CreateSubnets {
		ifaces, err := applyKeaInterfaces(r.root, desired, desiredV6)
		if err != nil {
			return nil, err
		}
		st.InterfacesConfigured = ifaces
	}
	if r.opts.CreateOptions {
		r.applyKeaOptions(p)
	}

	r.processingHeader(p, "")
	var into, intoV6 *configdoc.Node
	if len(p.mappings) > 0 {
		into = reservationsNode(r.root, domain.IPv4)
		if into == nil {
			return nil, &BackendNotConfiguredError{Backend: domain.BackendKea, Family: domain.IPv4}
		}
	}
	if len(p.mappingsV6) > 0 {
		intoV6 = reservationsNode(r.root, domain.IPv6)
		if intoV6 == nil {
			return nil, &BackendNotConfiguredError{Backend: domain.BackendKea, Family: domain.IPv6}
		}
	}
	if err := k.reserve(r, p, s, s.subnets, s.subnetsV6, into, intoV6, st); err != nil {
		return nil, err
	}

	if r.opts.EnableBackend {
		r.disableSource(st)
		if len(s.subnets) > 0 {
			if !enableKea(r.root, domain.IPv4) {
				return nil, &EnableError{Backend: domain.BackendKea, Family: domain.IPv4}
			}
			st.BackendEnabledV4 = true
		}
		if len(s.subnetsV6) > 0 {
			if !enableKea(r.root, domain.IPv6) {
				return nil, &EnableError{Backend: domain.BackendKea, Family: domain.IPv6}
			}
			st.BackendEnabledV6 = true
		}
	}
	return st, nil
}

// reserve walks the v4 batch and then the v6 batch, resolving each mapping
// to a subnet and deduplicating it. When into/intoV6 are non-nil the
// reservations are appended there; otherwise the mappings are only counted.
func (keaBackend) reserve(r *run, p *plan, s *keaState, subnets, subnetsV6 []domain.Subnet,
	into, intoV6 *configdoc.Node, st *domain.MigrationStats) error {
	for _, m := range p.mappings {
		if s.seen.seen(m.IP) {
			st.Skipped++
			r.progress("  SKIP: %s (%s) - IP already reserved", m.IP, m.MAC)
			continue
		}
		subnet, err := findSubnet(m.IP, subnets, domain.IPv4)
		if err != nil {
			return err
		}
		r.progress("  ADD: %s (%s) -> subnet %s [%s]", m.IP, m.MAC, shortID(subnet.ID), orNoHostname(m.DisplayName()))
		if into != nil {
			into.Append(newReservation(m, subnet.ID))
		}
		s.seen.accept(m.IP)
		st.ToCreate++
	}

	for _, m := range p.mappingsV6 {
		if s.seenV6.seen(m.IP, m.DUID) {
			st.SkippedV6++
			r.progress("  SKIP6: %s (%s) - IP or DUID already reserved", m.IP, m.DUID)
			continue
		}
		subnet, err := findSubnet(m.IP, subnetsV6, domain.IPv6)
		if err != nil {
			return err
		}
		r.progress("  ADD6: %s (%s) -> subnet %s [%s]", m.IP, m.DUID, shortID(subnet.ID), orNoHostname(m.Hostname))
		if intoV6 != nil {
			intoV6.Append(newReservationV6(m, subnet.ID))
		}
		s.seenV6.accept(m.IP, m.DUID)
		st.ToCreateV6++
	}
	return nil
}

// mergeSubnets writes the desired subnets of one family. A subnet whose
// network already exists is skipped with a warning, or replaced when
// subnets are forced.
func (keaBackend) mergeSubnets(r *run, existing []domain.Subnet, desired []domain.DesiredSubnet, fam domain.Family) error {
	if len(desired) == 0 {
		return nil
	}
	svc := extract.KeaService(r.root, fam)
	if svc == nil {
		return &BackendNotConfiguredError{Backend: domain.BackendKea, Family: fam}
	}
	container := subnetsNode(svc, fam)
	tag := extract.KeaSubnetTag(fam)
	for _, d := range desired {
		if hasSubnetCIDR(existing, d.CIDR) {
			if !r.opts.ForceSubnets {
				r.warn("Warning: Kea subnet %s already exists (iface %s). Skipping.", d.CIDR, d.Interface)
				continue
			}
			container.RemoveChildren(func(n *configdoc.Node) bool {
				return n.Is(tag) && n.ChildText("subnet") == d.CIDR
			})
		}
		container.Append(newKeaSubnet(d, fam))
	}
	return nil
}

// subnetsNode returns the element new subnets are appended to: the
// existing subnet container, or a new <subnets> element.
func subnetsNode(svc *configdoc.Node, fam domain.Family) *configdoc.Node {
	if c := svc.Child("subnets"); c != nil {
		return c
	}
	if fam == domain.IPv4 && len(svc.ChildrenNamed(extract.KeaSubnetTag(fam))) > 0 {
		return svc
	}
	return svc.AddChild("subnets")
}

// reservationsNode finds or creates the family's <reservations> element.
func reservationsNode(root *configdoc.Node, fam domain.Family) *configdoc.Node {
	svc := extract.KeaService(root, fam)
	if svc == nil {
		return nil
	}
	if res := svc.Descendant("reservations"); res != nil {
		return res
	}
	return svc.AddChild("reservations")
}

func orNoHostname(name string) string {
	if name == "" {
		return "<no hostname>"
	}
	return name
}
