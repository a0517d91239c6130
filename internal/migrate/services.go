package migrate

import (
	"slices"
	"strings"

	"dhcpmigrate/internal/configdoc"
	"dhcpmigrate/internal/domain"
	"dhcpmigrate/internal/extract"
)

// disableSource clears the enable flag of every legacy interface that has
// it set and returns the sorted names it changed. The <enable> element is
// kept with empty text.
func disableSource(root *configdoc.Node, fam domain.Family) []string {
	svc := extract.LegacyService(root, fam)
	if svc == nil {
		return nil
	}
	var out []string
	for _, iface := range svc.Children() {
		if !extract.IsEnabled(iface) {
			continue
		}
		iface.Child("enable").SetText("")
		out = append(out, iface.Name())
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// setFlag sets the named flag child to value, inserting it as the first
// child element when it is missing.
func setFlag(n *configdoc.Node, name, value string) {
	if c := n.Child(name); c != nil {
		c.SetText(value)
		return
	}
	n.InsertChildAt(0, name).SetText(value)
}

// enableKea switches on the Kea service of one family. It reports false
// when the family has no Kea section.
func enableKea(root *configdoc.Node, fam domain.Family) bool {
	svc := extract.KeaService(root, fam)
	if svc == nil {
		return false
	}
	general, _ := svc.EnsureChild("general")
	setFlag(general, "enabled", "1")
	return true
}

// enableDnsmasq switches on the shared dnsmasq service.
func enableDnsmasq(root *configdoc.Node) bool {
	d := extract.Dnsmasq(root)
	if d == nil {
		return false
	}
	setFlag(d, "enable", "1")
	return true
}

// mergeInterfaceList unions a comma separated interface list with names,
// returning the sorted, de-duplicated result.
func mergeInterfaceList(existing string, names []string) []string {
	var out []string
	for _, v := range strings.Split(existing, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	for _, v := range names {
		if v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// applyKeaInterfaces adds the interfaces of the desired subnets to each
// family's <general><interfaces> list and returns every interface listed
// afterwards.
func applyKeaInterfaces(root *configdoc.Node, desired, desiredV6 []domain.DesiredSubnet) ([]string, error) {
	var all []string
	for _, fam := range []domain.Family{domain.IPv4, domain.IPv6} {
		d := desired
		if fam == domain.IPv6 {
			d = desiredV6
		}
		if len(d) == 0 {
			continue
		}
		svc := extract.KeaService(root, fam)
		if svc == nil {
			return nil, &BackendNotConfiguredError{Backend: domain.BackendKea, Family: fam}
		}
		general, _ := svc.EnsureChild("general")
		list, _ := general.EnsureChild("interfaces")
		merged := mergeInterfaceList(list.Text(), desiredInterfaces(d))
		list.SetText(strings.Join(merged, ","))
		all = append(all, merged...)
	}
	slices.Sort(all)
	return slices.Compact(all), nil
}

// applyDnsmasqInterfaces rewrites <dnsmasq><interface> as the union of its
// current value and the interfaces of the desired ranges.
func applyDnsmasqInterfaces(root *configdoc.Node, desired, desiredV6 []domain.DesiredSubnet) ([]string, error) {
	names := desiredInterfaces(desired, desiredV6)
	if len(names) == 0 {
		return nil, nil
	}
	d := extract.Dnsmasq(root)
	if d == nil {
		return nil, &BackendNotConfiguredError{Backend: domain.BackendDnsmasq}
	}
	merged := mergeInterfaceList(d.ChildText("interface"), names)
	d.RemoveChildren(func(n *configdoc.Node) bool { return n.Is("interface") })
	d.AddTextChild("interface", strings.Join(merged, ","))
	return merged, nil
}
