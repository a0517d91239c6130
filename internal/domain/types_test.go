package domain

import "testing"

func TestIsValidBackend(t *testing.T) {
	tests := []struct {
		backend Backend
		valid   bool
	}{
		{BackendKea, true},
		{BackendDnsmasq, true},
		{"isc", false},
		{"", false},
		{"KEA", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			if got := IsValidBackend(tt.backend); got != tt.valid {
				t.Errorf("IsValidBackend(%q) = %v, want %v", tt.backend, got, tt.valid)
			}
		})
	}
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		input   string
		want    Backend
		wantErr bool
	}{
		{"kea", BackendKea, false},
		{"Kea", BackendKea, false},
		{" DNSMASQ ", BackendDnsmasq, false},
		{"", BackendKea, false},
		{"isc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBackend(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBackend(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseBackend(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBackendDisplayName(t *testing.T) {
	if got := BackendKea.DisplayName(); got != "Kea" {
		t.Errorf("Kea display name = %q", got)
	}
	if got := BackendDnsmasq.DisplayName(); got != "dnsmasq" {
		t.Errorf("dnsmasq display name = %q", got)
	}
}

func TestFamilyString(t *testing.T) {
	if IPv4.String() != "DHCPv4" || IPv6.String() != "DHCPv6" {
		t.Errorf("Family strings = %s, %s", IPv4, IPv6)
	}
}

func TestMappingDisplayName(t *testing.T) {
	tests := []struct {
		name string
		m    Mapping
		want string
	}{
		{"hostname wins", Mapping{Hostname: "printer", ClientID: "cid-1"}, "printer"},
		{"client id fallback", Mapping{ClientID: "cid-1"}, "cid-1"},
		{"neither", Mapping{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}
