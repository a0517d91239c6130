package migrate

import (
	"strconv"
	"strings"

	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/insomniacslk/dhcp/dhcpv6"

	"dhcpmigrate/internal/configdoc"
	"dhcpmigrate/internal/domain"
	"dhcpmigrate/internal/extract"
)

// Option codes written into dnsmasq records.
var (
	codeDNS          = v4Code(dhcpv4.OptionDomainNameServer)
	codeRouter       = v4Code(dhcpv4.OptionRouter)
	codeDomainName   = v4Code(dhcpv4.OptionDomainName)
	codeDomainSearch = v4Code(dhcpv4.OptionDNSDomainSearchList)
	codeNTP          = v4Code(dhcpv4.OptionNTPServers)

	codeDNSv6          = v6Code(dhcpv6.OptionDNSRecursiveNameServer)
	codeDomainSearchV6 = v6Code(dhcpv6.OptionDomainSearchList)
)

func v4Code(c dhcpv4.OptionCode) string { return strconv.Itoa(int(c.Code())) }

func v6Code(c dhcpv6.OptionCode) string { return strconv.Itoa(int(c)) }

// joinList drops empty values and duplicates, keeping first-seen order.
func joinList(values []string) string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return strings.Join(out, ",")
}

// domainSearchCSV rewrites a domain search list as a comma separated list.
func domainSearchCSV(s string) string {
	return strings.Join(extract.SplitDomainList(s), ",")
}

// applyKeaOptions attaches legacy option bundles to the Kea subnets whose
// network equals the bundle's interface network.
func (r *run) applyKeaOptions(p *plan) {
	byCIDR := make(map[string]domain.OptionsV4)
	for _, o := range p.optionsV4 {
		prefix, ok := interfaceCIDR(o.Interface, p.cidrs)
		if !ok {
			r.warn("Warning: No interface CIDR found for DHCPv4 options (iface %s). Skipping.", o.Interface)
			continue
		}
		byCIDR[prefix.String()] = o
	}
	byCIDRv6 := make(map[string]domain.OptionsV6)
	for _, o := range p.optionsV6 {
		prefix, ok := interfaceCIDR(o.Interface, p.cidrsV6)
		if !ok {
			r.warn("Warning: No interface CIDR found for DHCPv6 options (iface %s). Skipping.", o.Interface)
			continue
		}
		byCIDRv6[prefix.String()] = o
	}

	for _, s := range r.keaSubnetElements(domain.IPv4) {
		o, ok := byCIDR[s.ChildText("subnet")]
		if !ok {
			continue
		}
		data, _ := s.EnsureChild("option_data")
		auto, _ := s.EnsureChild("option_data_autocollect")
		auto.SetText("0")
		r.setKeaOption(data, "domain_name_servers", joinList(o.DNSServers))
		r.setKeaOption(data, "routers", o.Gateway)
		r.setKeaOption(data, "domain_name", o.DomainName)
		r.setKeaOption(data, "domain_search", o.DomainSearch)
		r.setKeaOption(data, "ntp_servers", joinList(o.NTPServers))
	}

	for _, s := range r.keaSubnetElements(domain.IPv6) {
		o, ok := byCIDRv6[s.ChildText("subnet")]
		if !ok {
			continue
		}
		data, _ := s.EnsureChild("option_data")
		r.setKeaOption(data, "dns_servers", joinList(o.DNSServers))
		r.setKeaOption(data, "domain_search", o.DomainSearch)
	}
}

func (r *run) keaSubnetElements(fam domain.Family) []*configdoc.Node {
	container := extract.KeaSubnetContainer(extract.KeaService(r.root, fam), fam)
	if container == nil {
		return nil
	}
	return container.ChildrenNamed(extract.KeaSubnetTag(fam))
}

// setKeaOption writes one option_data field. Empty values are ignored and a
// field that already holds a value is kept unless options are forced.
func (r *run) setKeaOption(data *configdoc.Node, name, value string) {
	if value == "" {
		return
	}
	existing := data.Child(name)
	if existing == nil {
		data.AddTextChild(name, value)
		return
	}
	if cur := existing.Text(); cur != "" && !r.opts.ForceOptions {
		r.warn("Warning: Kea option %s already set (%s). Skipping.", name, cur)
		return
	}
	existing.SetText(value)
}

// optionSpec is one dnsmasq option record to create. Exactly one of option
// (DHCPv4) and option6 (DHCPv6) is set.
type optionSpec struct {
	iface   string
	option  string
	option6 string
	value   string
}

func (s optionSpec) key() string {
	return extract.OptionKey("set", s.option, s.option6, s.iface, "", "")
}

func (s optionSpec) label() string {
	if s.option == "" {
		return "v6:" + s.option6
	}
	return s.option
}

// dnsmasqOptionSpecs translates legacy bundles into dnsmasq option records,
// one per non-empty field.
func dnsmasqOptionSpecs(v4 []domain.OptionsV4, v6 []domain.OptionsV6) []optionSpec {
	var out []optionSpec
	add := func(iface, code, code6, value string) {
		if value == "" {
			return
		}
		out = append(out, optionSpec{iface: iface, option: code, option6: code6, value: value})
	}
	for _, o := range v4 {
		add(o.Interface, codeDNS, "", joinList(o.DNSServers))
		add(o.Interface, codeRouter, "", o.Gateway)
		add(o.Interface, codeDomainName, "", o.DomainName)
		add(o.Interface, codeDomainSearch, "", domainSearchCSV(o.DomainSearch))
		add(o.Interface, codeNTP, "", joinList(o.NTPServers))
	}
	for _, o := range v6 {
		add(o.Interface, "", codeDNSv6, joinList(o.DNSServers))
		add(o.Interface, "", codeDomainSearchV6, domainSearchCSV(o.DomainSearch))
	}
	return out
}

// applyDnsmasqOptions appends option records, skipping or replacing
// records that share a key with an existing one.
func (r *run) applyDnsmasqOptions(d *configdoc.Node, specs []optionSpec, existing keySet) {
	for _, spec := range specs {
		key := spec.key()
		if _, ok := existing[key]; ok {
			if !r.opts.ForceOptions {
				r.warn("Warning: dnsmasq option %s already exists (iface %s). Skipping.", spec.label(), spec.iface)
				continue
			}
			d.RemoveChildren(func(n *configdoc.Node) bool {
				k, ok := extract.DnsmasqOptionKey(n)
				return ok && k == key
			})
		}
		d.Append(newOption(spec))
	}
}
