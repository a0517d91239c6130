// Package migrate moves legacy ISC DHCP static mappings into a Kea or
// dnsmasq section of the same configuration document.
//
// A run extracts the legacy data, validates it against the interface
// networks, checks the target backend and then either counts what would
// change (Scan) or changes the document in place (Convert). A failed
// Convert may leave the document partly modified; callers discard it.
package migrate

import (
	"errors"
	"fmt"

	"dhcpmigrate/internal/configdoc"
	"dhcpmigrate/internal/domain"
	"dhcpmigrate/internal/extract"
)

// Sink receives the human-readable side channel of a run. Progress lines
// are only produced in verbose mode; warnings are always produced.
type Sink interface {
	Progress(line string)
	Warn(msg string)
}

type discardSink struct{}

func (discardSink) Progress(string) {}
func (discardSink) Warn(string)     {}

// Engine runs migrations. The zero value discards progress and warnings.
// An Engine keeps no state between calls.
type Engine struct {
	Sink Sink
}

// New returns an Engine reporting to sink.
func New(sink Sink) *Engine {
	return &Engine{Sink: sink}
}

// Scan reports what Convert would do with the same document and options
// without modifying the document.
func (e *Engine) Scan(doc *configdoc.Document, opts domain.MigrationOptions) (*domain.MigrationStats, error) {
	return e.run(doc, opts, false)
}

// Convert migrates the legacy mappings into the selected backend, modifying
// doc in place.
func (e *Engine) Convert(doc *configdoc.Document, opts domain.MigrationOptions) (*domain.MigrationStats, error) {
	return e.run(doc, opts, true)
}

// backend is one target representation. Both implementations share the
// extraction and validation done in plan.
type backend interface {
	scan(r *run, p *plan) (*domain.MigrationStats, error)
	convert(r *run, p *plan) (*domain.MigrationStats, error)
}

func backendFor(b domain.Backend) (backend, error) {
	switch b {
	case domain.BackendKea, "":
		return keaBackend{}, nil
	case domain.BackendDnsmasq:
		return dnsmasqBackend{}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", b)
}

func (e *Engine) run(doc *configdoc.Document, opts domain.MigrationOptions, mutate bool) (*domain.MigrationStats, error) {
	if doc == nil {
		return nil, errors.New("migrate: nil document")
	}
	b, err := backendFor(opts.Backend)
	if err != nil {
		return nil, err
	}
	sink := e.Sink
	if sink == nil {
		sink = discardSink{}
	}
	r := &run{root: doc.Root(), opts: opts, sink: sink, mutate: mutate}
	p, err := r.plan()
	if err != nil {
		return nil, err
	}
	if mutate {
		return b.convert(r, p)
	}
	return b.scan(r, p)
}

// run carries the per-call state: the document root, the options and the
// sink. It is discarded when the call returns.
type run struct {
	root   *configdoc.Node
	opts   domain.MigrationOptions
	sink   Sink
	mutate bool
}

func (r *run) progress(format string, args ...any) {
	if r.opts.Verbose {
		r.sink.Progress(fmt.Sprintf(format, args...))
	}
}

func (r *run) warn(format string, args ...any) {
	r.sink.Warn(fmt.Sprintf(format, args...))
}

// plan is everything extracted from the legacy side of the document.
type plan struct {
	mappings   []domain.Mapping
	mappingsV6 []domain.MappingV6
	ranges     []domain.Range
	rangesV6   []domain.Range
	cidrs      []domain.InterfaceCIDR
	cidrsV6    []domain.InterfaceCIDR
	desired    []domain.DesiredSubnet
	desiredV6  []domain.DesiredSubnet
	optionsV4  []domain.OptionsV4
	optionsV6  []domain.OptionsV6
}

// plan extracts the legacy data, builds the desired subnets when subnet
// creation or backend enabling was requested, and validates that every
// mapping sits on the interface it is declared under.
func (r *run) plan() (*plan, error) {
	p := &plan{
		mappings:   extract.Mappings(r.root),
		mappingsV6: extract.MappingsV6(r.root),
		ranges:     extract.Ranges(r.root),
		rangesV6:   extract.RangesV6(r.root),
	}
	var err error
	if p.cidrs, err = extract.InterfaceCIDRs(r.root); err != nil {
		return nil, err
	}
	if p.cidrsV6, err = extract.InterfaceCIDRsV6(r.root); err != nil {
		return nil, err
	}

	if r.opts.CreateSubnets || r.opts.EnableBackend {
		if p.desired, err = buildDesiredSubnets(p.ranges, p.cidrs, domain.IPv4); err != nil {
			return nil, err
		}
		if p.desiredV6, err = buildDesiredSubnets(p.rangesV6, p.cidrsV6, domain.IPv6); err != nil {
			return nil, err
		}
	}
	if r.opts.CreateOptions {
		p.optionsV4 = extract.OptionsV4(r.root)
		p.optionsV6 = extract.OptionsV6(r.root)
	}

	if err := validateMappingInterfaces(p.mappings, p.cidrs); err != nil {
		return nil, err
	}
	if err := validateMappingInterfacesV6(p.mappingsV6, p.cidrsV6); err != nil {
		return nil, err
	}
	return p, nil
}

// creating returns the desired subnets that will actually be written.
func (p *plan) creating(opts domain.MigrationOptions) (v4, v6 []domain.DesiredSubnet) {
	if !opts.CreateSubnets {
		return nil, nil
	}
	return p.desired, p.desiredV6
}

func (p *plan) stats() *domain.MigrationStats {
	return &domain.MigrationStats{
		MappingsFound:   len(p.mappings),
		MappingsV6Found: len(p.mappingsV6),
		RangesFound:     len(p.ranges),
		RangesV6Found:   len(p.rangesV6),
	}
}

func (r *run) processingHeader(p *plan, suffix string) {
	r.progress("")
	r.progress("Processing %d ISC static mappings%s:", len(p.mappings), suffix)
	if len(p.mappingsV6) > 0 {
		r.progress("Processing %d ISC DHCPv6 static mappings%s:", len(p.mappingsV6), suffix)
	}
}

// disableSource turns the legacy service off wherever it is enabled and
// records the interfaces in st.
func (r *run) disableSource(st *domain.MigrationStats) {
	st.SourceDisabledV4 = disableSource(r.root, domain.IPv4)
	st.SourceDisabledV6 = disableSource(r.root, domain.IPv6)
}

// ScanCounts reports what the document holds without validating anything.
// It is the fallback for a scan whose backend is not ready.
func ScanCounts(doc *configdoc.Document, b domain.Backend) *domain.MigrationStats {
	root := doc.Root()
	st := &domain.MigrationStats{
		MappingsFound:   len(extract.Mappings(root)),
		MappingsV6Found: len(extract.MappingsV6(root)),
		RangesFound:     len(extract.Ranges(root)),
		RangesV6Found:   len(extract.RangesV6(root)),
	}
	if b != domain.BackendDnsmasq {
		st.SubnetsFound = len(extract.KeaSubnets(root))
		st.SubnetsV6Found = len(extract.KeaSubnetsV6(root))
	}
	return st
}
