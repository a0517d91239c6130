// Package cidr provides the address math used by the migration engine:
// parsing, containment checks, longest-prefix selection, and netmask rendering.
package cidr

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

var (
	// ErrInvalidCIDR is returned when stored CIDR text cannot be parsed.
	ErrInvalidCIDR = errors.New("invalid CIDR notation")
	// ErrInvalidAddress is returned when stored address text cannot be parsed.
	ErrInvalidAddress = errors.New("invalid IP address")
)

// CIDRError describes a malformed prefix.
type CIDRError struct {
	CIDR   string
	Reason string
}

func (e *CIDRError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s (%s)", ErrInvalidCIDR, e.CIDR, e.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidCIDR, e.CIDR)
}

func (e *CIDRError) Unwrap() error { return ErrInvalidCIDR }

// AddrError describes a malformed address.
type AddrError struct {
	Addr string
}

func (e *AddrError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidAddress, e.Addr)
}

func (e *AddrError) Unwrap() error { return ErrInvalidAddress }

// ParsePrefix parses CIDR text such as "10.0.0.0/24" or "2001:db8::/64".
// The prefix is returned as written; host bits are not cleared.
func ParsePrefix(s string) (netip.Prefix, error) {
	p, err := netip.ParsePrefix(strings.TrimSpace(s))
	if err != nil {
		return netip.Prefix{}, &CIDRError{CIDR: s}
	}
	return p, nil
}

// ParseAddr parses a bare IPv4 or IPv6 address.
func ParseAddr(s string) (netip.Addr, error) {
	a, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil || a.Zone() != "" {
		return netip.Addr{}, &AddrError{Addr: s}
	}
	return a, nil
}

// Contains reports whether prefix contains addr. Families never mix:
// an IPv4 address is never inside an IPv6 prefix and vice versa.
func Contains(prefix netip.Prefix, addr netip.Addr) bool {
	if !prefix.IsValid() || !addr.IsValid() {
		return false
	}
	if prefix.Addr().Is4() != addr.Is4() {
		return false
	}
	return prefix.Masked().Contains(addr)
}

// MostSpecific returns the candidate whose prefix contains addr with the
// greatest prefix length. Equal lengths resolve to the earliest candidate.
func MostSpecific[T any](candidates []T, prefixOf func(T) netip.Prefix, addr netip.Addr) (T, bool) {
	var best T
	bestBits := -1
	for _, c := range candidates {
		p := prefixOf(c)
		if !Contains(p, addr) {
			continue
		}
		if p.Bits() > bestBits {
			best = c
			bestBits = p.Bits()
		}
	}
	return best, bestBits >= 0
}

// Netmask converts an IPv4 prefix length to dotted-quad form (24 -> 255.255.255.0).
func Netmask(bits int) (string, error) {
	if bits < 0 || bits > 32 {
		return "", &CIDRError{CIDR: strconv.Itoa(bits), Reason: "prefix length out of range"}
	}
	var mask [4]byte
	for i := 0; i < bits; i++ {
		mask[i/8] |= 0x80 >> (i % 8)
	}
	return netip.AddrFrom4(mask).String(), nil
}

// InterfacePrefix builds the network prefix of an interface from its configured
// address and prefix length text. The returned prefix has host bits cleared.
func InterfacePrefix(addr, bits string) (netip.Prefix, error) {
	a, err := ParseAddr(addr)
	if err != nil {
		return netip.Prefix{}, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(bits))
	if err != nil {
		return netip.Prefix{}, &CIDRError{CIDR: bits, Reason: "prefix length is not a number"}
	}
	p := netip.PrefixFrom(a, n)
	if !p.IsValid() {
		return netip.Prefix{}, &CIDRError{CIDR: bits, Reason: "prefix length out of range"}
	}
	return p.Masked(), nil
}
