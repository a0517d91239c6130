package verify

import (
	"errors"
	"strings"
	"testing"

	"dhcpmigrate/internal/configdoc"
	"dhcpmigrate/internal/domain"
	"dhcpmigrate/internal/migrate"
)

const keaXML = `<?xml version="1.0"?>
<opnsense>
  <interfaces>
    <lan><ipaddr>192.168.1.1</ipaddr><subnet>24</subnet></lan>
  </interfaces>
  <dhcpd>
    <lan>
      <staticmap>
        <mac>00:11:22:33:44:55</mac>
        <ipaddr>192.168.1.10</ipaddr>
        <hostname>printer</hostname>
      </staticmap>
    </lan>
  </dhcpd>
  <OPNsense>
    <Kea>
      <dhcp4>
        <subnets>
          <subnet4 uuid="aaaaaaaa-1111-2222-3333-444444444444"><subnet>192.168.1.0/24</subnet></subnet4>
        </subnets>
        <reservations/>
      </dhcp4>
    </Kea>
  </OPNsense>
</opnsense>
`

func mustParse(t *testing.T, s string) *configdoc.Document {
	t.Helper()
	doc, err := configdoc.Parse([]byte(s))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func TestRun_ReportsChanges(t *testing.T) {
	doc := mustParse(t, keaXML)
	before, _ := doc.Canonical()

	res, err := Run(migrate.New(nil), doc, domain.MigrationOptions{Backend: domain.BackendKea})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Changed() {
		t.Fatal("expected changes")
	}
	if res.Stats.ToCreate != 1 {
		t.Errorf("ToCreate = %d, want 1", res.Stats.ToCreate)
	}
	for _, want := range []string{"--- original", "+++ converted", "@@", "+", "<ip_address>192.168.1.10</ip_address>"} {
		if !strings.Contains(res.Diff, want) {
			t.Errorf("diff missing %q:\n%s", want, res.Diff)
		}
	}

	after, _ := doc.Canonical()
	if string(before) != string(after) {
		t.Error("Run modified the input document")
	}
}

func TestRun_NoChangesAfterConvert(t *testing.T) {
	doc := mustParse(t, keaXML)
	opts := domain.MigrationOptions{Backend: domain.BackendKea}
	if _, err := migrate.New(nil).Convert(doc, opts); err != nil {
		t.Fatalf("Convert: %v", err)
	}

	res, err := Run(migrate.New(nil), doc, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Changed() {
		t.Errorf("expected no changes, got:\n%s", res.Diff)
	}
	if res.Stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Stats.Skipped)
	}
}

func TestRun_PropagatesEngineError(t *testing.T) {
	noKea := mustParse(t, strings.NewReplacer("<Kea>", "<Other>", "</Kea>", "</Other>").Replace(keaXML))
	_, err := Run(migrate.New(nil), noKea, domain.MigrationOptions{Backend: domain.BackendKea})
	if !errors.Is(err, migrate.ErrBackendNotConfigured) {
		t.Errorf("err = %v, want ErrBackendNotConfigured", err)
	}
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name    string
		a, b    string
		changed bool
	}{
		{"identical", `<r><x>1</x></r>`, `<r><x>1</x></r>`, false},
		{"whitespace and attribute order", `<r><x b="2" a="1"> 1 </x></r>`, "<r>\n<x a=\"1\" b=\"2\">1</x>\n</r>", false},
		{"text change", `<r><x>1</x></r>`, `<r><x>2</x></r>`, true},
		{"added element", `<r><x>1</x></r>`, `<r><x>1</x><y/></r>`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diff, err := Diff(mustParse(t, tt.a), mustParse(t, tt.b))
			if err != nil {
				t.Fatalf("Diff: %v", err)
			}
			if got := diff != ""; got != tt.changed {
				t.Errorf("changed = %v, want %v:\n%s", got, tt.changed, diff)
			}
		})
	}
}
