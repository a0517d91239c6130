package migrate

import (
	"errors"
	"fmt"

	"dhcpmigrate/internal/domain"
)

// Sentinel errors for the migration engine. Callers should use errors.Is to
// classify failures; the typed errors below carry the details.
var (
	// ErrNoMatchingSubnet indicates no target subnet contains an address.
	ErrNoMatchingSubnet = errors.New("no matching subnet")

	// ErrNoMatchingInterface indicates no interface network contains an address.
	ErrNoMatchingInterface = errors.New("no matching interface")

	// ErrInterfaceMismatch indicates a mapping is declared under a different
	// interface than the one its address belongs to.
	ErrInterfaceMismatch = errors.New("interface mismatch")

	// ErrBackendNotConfigured indicates the target backend section is missing.
	ErrBackendNotConfigured = errors.New("backend not configured")

	// ErrNoBackendSubnets indicates the backend is present but has no subnets.
	ErrNoBackendSubnets = errors.New("no backend subnets")

	// ErrExistingRecords indicates records already exist while fail-if-existing is set.
	ErrExistingRecords = errors.New("existing records found")

	ErrRangeOutsideSubnet = errors.New("range outside interface subnet")
	ErrNoInterfaceCIDR    = errors.New("no interface cidr for range")
	ErrNothingToCreate    = errors.New("nothing to create subnets from")
	ErrEnableBackend      = errors.New("enable backend failed")
)

// SubnetError reports an address outside every target subnet.
type SubnetError struct {
	Address string
	Family  domain.Family
}

func (e *SubnetError) Error() string {
	return fmt.Sprintf("IP address %s does not match any configured subnet", e.Address)
}

func (e *SubnetError) Unwrap() error { return ErrNoMatchingSubnet }

// NoMatchingInterfaceError reports an address outside every interface network.
type NoMatchingInterfaceError struct {
	Address string
	Family  domain.Family
}

func (e *NoMatchingInterfaceError) Error() string {
	return fmt.Sprintf("IP address %s does not match any interface CIDR", e.Address)
}

func (e *NoMatchingInterfaceError) Unwrap() error { return ErrNoMatchingInterface }

// InterfaceMismatchError reports a mapping declared under the wrong interface.
// It is never corrected automatically.
type InterfaceMismatchError struct {
	Address  string
	Declared string
	Derived  string
}

func (e *InterfaceMismatchError) Error() string {
	return fmt.Sprintf("IP address %s maps to interface %s but is declared under %s",
		e.Address, e.Derived, e.Declared)
}

func (e *InterfaceMismatchError) Unwrap() error { return ErrInterfaceMismatch }

// BackendNotConfiguredError reports a missing backend section. Family is zero
// for dnsmasq, which has one section for both families.
type BackendNotConfiguredError struct {
	Backend domain.Backend
	Family  domain.Family
}

func (e *BackendNotConfiguredError) Error() string {
	switch {
	case e.Backend == domain.BackendDnsmasq:
		return "dnsmasq not configured in config.xml. Please configure dnsmasq first."
	case e.Family == domain.IPv6:
		return "Kea DHCPv6 not configured in config.xml. Please configure Kea DHCPv6 first."
	default:
		return "Kea DHCPv4 not configured in config.xml. Please configure Kea subnets first."
	}
}

func (e *BackendNotConfiguredError) Unwrap() error { return ErrBackendNotConfigured }

// NoBackendSubnetsError reports a configured backend with no subnets for a family.
type NoBackendSubnetsError struct {
	Backend domain.Backend
	Family  domain.Family
}

func (e *NoBackendSubnetsError) Error() string {
	if e.Family == domain.IPv6 {
		return fmt.Sprintf("No %s DHCPv6 subnets found. Please configure at least one %s DHCPv6 subnet before migration.",
			e.Backend.DisplayName(), e.Backend.DisplayName())
	}
	return fmt.Sprintf("No %s subnets found. Please configure at least one %s subnet before migration.",
		e.Backend.DisplayName(), e.Backend.DisplayName())
}

func (e *NoBackendSubnetsError) Unwrap() error { return ErrNoBackendSubnets }

// ExistingRecordsError aborts a run when fail-if-existing is set and the
// target already holds records.
type ExistingRecordsError struct {
	Backend domain.Backend
	Count   int
}

func (e *ExistingRecordsError) Error() string {
	if e.Backend == domain.BackendDnsmasq {
		return fmt.Sprintf("Existing dnsmasq hosts found (%d entries) and --fail-if-existing is set. Aborting.", e.Count)
	}
	return fmt.Sprintf("Existing reservations found (%d IPs) and --fail-if-existing is set. Aborting.", e.Count)
}

func (e *ExistingRecordsError) Unwrap() error { return ErrExistingRecords }

// RangeError reports a legacy range with an endpoint outside its interface network.
type RangeError struct {
	Family    domain.Family
	From      string
	To        string
	Interface string
	CIDR      string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s range %s-%s is not contained within interface subnet %s (%s)",
		e.Family, e.From, e.To, e.Interface, e.CIDR)
}

func (e *RangeError) Unwrap() error { return ErrRangeOutsideSubnet }

// NoInterfaceCIDRError reports a legacy range on an interface with no static network.
type NoInterfaceCIDRError struct {
	Family    domain.Family
	Interface string
}

func (e *NoInterfaceCIDRError) Error() string {
	return fmt.Sprintf("No interface CIDR found for %s interface '%s'", e.Family, e.Interface)
}

func (e *NoInterfaceCIDRError) Unwrap() error { return ErrNoInterfaceCIDR }

// NothingToCreateError reports that subnet creation was requested for a
// family with mappings but no legacy ranges to build subnets from.
type NothingToCreateError struct {
	Backend domain.Backend
	Family  domain.Family
}

func (e *NothingToCreateError) Error() string {
	return fmt.Sprintf("No %s ranges found to create %s subnets. Configure ranges or subnets first.",
		e.Family, e.Backend.DisplayName())
}

func (e *NothingToCreateError) Unwrap() error { return ErrNothingToCreate }

// EnableError reports a backend that could not be switched on although it
// ends up with subnets or ranges.
type EnableError struct {
	Backend domain.Backend
	Family  domain.Family
}

func (e *EnableError) Error() string {
	if e.Backend == domain.BackendDnsmasq {
		return "Failed to enable dnsmasq. Check that <dnsmasq> is present."
	}
	return fmt.Sprintf("Failed to enable Kea %s. Check for missing <general><enabled>.", e.Family)
}

func (e *EnableError) Unwrap() error { return ErrEnableBackend }

// IsBackendConfigError reports whether err means the backend is missing or
// has no subnets, the cases where a scan can still report raw counts.
func IsBackendConfigError(err error) bool {
	return errors.Is(err, ErrBackendNotConfigured) || errors.Is(err, ErrNoBackendSubnets)
}
