package cidr

import (
	"errors"
	"net/netip"
	"testing"
)

func TestParsePrefix(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"ipv4 network", "192.168.1.0/24", "192.168.1.0/24", false},
		{"ipv6 network", "2001:db8::/64", "2001:db8::/64", false},
		{"surrounding whitespace", " 10.0.0.0/8 ", "10.0.0.0/8", false},
		{"missing length", "10.0.0.0", "", true},
		{"length out of range", "10.0.0.0/33", "", true},
		{"garbage", "not-a-cidr", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrefix(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCIDR) {
					t.Fatalf("ParsePrefix(%q) error = %v, want ErrInvalidCIDR", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePrefix(%q) unexpected error: %v", tt.input, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParsePrefix(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseAddr(t *testing.T) {
	if _, err := ParseAddr("192.168.1.10"); err != nil {
		t.Fatalf("ParseAddr(v4) error = %v", err)
	}
	if _, err := ParseAddr("2001:db8::10"); err != nil {
		t.Fatalf("ParseAddr(v6) error = %v", err)
	}
	_, err := ParseAddr("192.168.1.300")
	if !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("ParseAddr(bad) error = %v, want ErrInvalidAddress", err)
	}
	var ae *AddrError
	if !errors.As(err, &ae) || ae.Addr != "192.168.1.300" {
		t.Errorf("expected AddrError carrying the input, got %v", err)
	}
}

func TestContains(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		addr   string
		want   bool
	}{
		{"addr in prefix", "10.0.0.0/24", "10.0.0.100", true},
		{"addr at start", "10.0.0.0/24", "10.0.0.0", true},
		{"addr at end", "10.0.0.0/24", "10.0.0.255", true},
		{"addr outside", "10.0.0.0/24", "10.0.1.0", false},
		{"addr in /32", "10.0.0.5/32", "10.0.0.5", true},
		{"addr not in /32", "10.0.0.5/32", "10.0.0.6", false},
		{"host bits in prefix", "10.0.0.1/24", "10.0.0.9", true},
		{"v6 inside", "2001:db8::/64", "2001:db8::1", true},
		{"v6 outside", "2001:db8::/64", "2001:db8:1::1", false},
		{"v4 addr against v6 prefix", "::/0", "10.0.0.1", false},
		{"v6 addr against v4 prefix", "0.0.0.0/0", "2001:db8::1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := netip.MustParsePrefix(tt.prefix)
			a := netip.MustParseAddr(tt.addr)
			if got := Contains(p, a); got != tt.want {
				t.Errorf("Contains(%s, %s) = %v, want %v", tt.prefix, tt.addr, got, tt.want)
			}
		})
	}
}

func TestContains_Invalid(t *testing.T) {
	if Contains(netip.Prefix{}, netip.MustParseAddr("10.0.0.1")) {
		t.Error("expected false for invalid prefix")
	}
	if Contains(netip.MustParsePrefix("10.0.0.0/8"), netip.Addr{}) {
		t.Error("expected false for invalid addr")
	}
}

type named struct {
	name   string
	prefix netip.Prefix
}

func prefixOf(n named) netip.Prefix { return n.prefix }

func TestMostSpecific(t *testing.T) {
	candidates := []named{
		{"wide", netip.MustParsePrefix("10.0.0.0/8")},
		{"mid", netip.MustParsePrefix("10.1.0.0/16")},
		{"narrow", netip.MustParsePrefix("10.1.2.0/24")},
		{"other", netip.MustParsePrefix("192.168.0.0/16")},
	}
	tests := []struct {
		addr   string
		want   string
		wantOK bool
	}{
		{"10.1.2.3", "narrow", true},
		{"10.1.9.9", "mid", true},
		{"10.9.9.9", "wide", true},
		{"192.168.4.4", "other", true},
		{"172.16.0.1", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			got, ok := MostSpecific(candidates, prefixOf, netip.MustParseAddr(tt.addr))
			if ok != tt.wantOK {
				t.Fatalf("MostSpecific(%s) ok = %v, want %v", tt.addr, ok, tt.wantOK)
			}
			if ok && got.name != tt.want {
				t.Errorf("MostSpecific(%s) = %s, want %s", tt.addr, got.name, tt.want)
			}
		})
	}
}

func TestMostSpecific_TieKeepsFirstDeclared(t *testing.T) {
	candidates := []named{
		{"b-first", netip.MustParsePrefix("10.0.0.0/24")},
		{"a-second", netip.MustParsePrefix("10.0.0.0/24")},
	}
	got, ok := MostSpecific(candidates, prefixOf, netip.MustParseAddr("10.0.0.7"))
	if !ok || got.name != "b-first" {
		t.Fatalf("MostSpecific tie = %q (ok=%v), want b-first", got.name, ok)
	}

	// reversing the input reverses the winner
	candidates[0], candidates[1] = candidates[1], candidates[0]
	got, _ = MostSpecific(candidates, prefixOf, netip.MustParseAddr("10.0.0.7"))
	if got.name != "a-second" {
		t.Fatalf("MostSpecific tie after reorder = %q, want a-second", got.name)
	}
}

func TestNetmask(t *testing.T) {
	tests := []struct {
		bits int
		want string
	}{
		{0, "0.0.0.0"},
		{8, "255.0.0.0"},
		{20, "255.255.240.0"},
		{24, "255.255.255.0"},
		{31, "255.255.255.254"},
		{32, "255.255.255.255"},
	}
	for _, tt := range tests {
		got, err := Netmask(tt.bits)
		if err != nil {
			t.Fatalf("Netmask(%d) error = %v", tt.bits, err)
		}
		if got != tt.want {
			t.Errorf("Netmask(%d) = %s, want %s", tt.bits, got, tt.want)
		}
	}
	for _, bad := range []int{-1, 33} {
		if _, err := Netmask(bad); !errors.Is(err, ErrInvalidCIDR) {
			t.Errorf("Netmask(%d) error = %v, want ErrInvalidCIDR", bad, err)
		}
	}
}

func TestInterfacePrefix(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		bits    string
		want    string
		wantErr error
	}{
		{"v4 lan", "192.168.1.1", "24", "192.168.1.0/24", nil},
		{"v4 odd length", "10.22.1.77", "20", "10.22.0.0/20", nil},
		{"v6 lan", "2001:db8:1::1", "64", "2001:db8:1::/64", nil},
		{"v4 length too long", "192.168.1.1", "33", "", ErrInvalidCIDR},
		{"non numeric length", "192.168.1.1", "abc", "", ErrInvalidCIDR},
		{"bad address", "dhcp", "24", "", ErrInvalidAddress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InterfacePrefix(tt.addr, tt.bits)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("InterfacePrefix(%q, %q) error = %v, want %v", tt.addr, tt.bits, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("InterfacePrefix(%q, %q) unexpected error: %v", tt.addr, tt.bits, err)
			}
			if got.String() != tt.want {
				t.Errorf("InterfacePrefix(%q, %q) = %s, want %s", tt.addr, tt.bits, got, tt.want)
			}
		})
	}
}
