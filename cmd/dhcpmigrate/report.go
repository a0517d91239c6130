package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"dhcpmigrate/internal/audit"
	"dhcpmigrate/internal/domain"
)

func printScanStats(w io.Writer, st *domain.MigrationStats, b domain.Backend) {
	name := b.DisplayName()
	fmt.Fprintf(w, "ISC DHCP static mappings found: %d\n", st.MappingsFound)
	fmt.Fprintf(w, "ISC DHCPv6 static mappings found: %d\n", st.MappingsV6Found)
	fmt.Fprintf(w, "ISC DHCP ranges found: %d\n", st.RangesFound)
	fmt.Fprintf(w, "ISC DHCPv6 ranges found: %d\n", st.RangesV6Found)
	fmt.Fprintf(w, "%s subnet4 entries found: %d\n", name, st.SubnetsFound)
	fmt.Fprintf(w, "%s subnet6 entries found: %d\n", name, st.SubnetsV6Found)
	fmt.Fprintf(w, "Reservations that would be created: %d\n", st.ToCreate)
	fmt.Fprintf(w, "Reservations (v6) that would be created: %d\n", st.ToCreateV6)
	fmt.Fprintf(w, "Reservations skipped (already exist): %d\n", st.Skipped)
	fmt.Fprintf(w, "Reservations skipped (v6): %d\n", st.SkippedV6)
}

func printConvertStats(w io.Writer, st *domain.MigrationStats, b domain.Backend) {
	name := b.DisplayName()
	fmt.Fprintf(w, "ISC DHCP static mappings found: %d\n", st.MappingsFound)
	fmt.Fprintf(w, "ISC DHCPv6 static mappings found: %d\n", st.MappingsV6Found)
	fmt.Fprintf(w, "%s subnet4 entries found: %d\n", name, st.SubnetsFound)
	fmt.Fprintf(w, "%s subnet6 entries found: %d\n", name, st.SubnetsV6Found)
	fmt.Fprintf(w, "Reservations created: %d\n", st.ToCreate)
	fmt.Fprintf(w, "Reservations created (v6): %d\n", st.ToCreateV6)
	fmt.Fprintf(w, "Reservations skipped (already exist): %d\n", st.Skipped)
	fmt.Fprintf(w, "Reservations skipped (v6): %d\n", st.SkippedV6)

	if len(st.InterfacesConfigured) > 0 {
		fmt.Fprintf(w, "Interfaces configured: %s\n", strings.Join(st.InterfacesConfigured, ", "))
	}
	if len(st.SourceDisabledV4) > 0 {
		fmt.Fprintf(w, "ISC DHCP disabled (v4): %s\n", strings.Join(st.SourceDisabledV4, ", "))
	}
	if len(st.SourceDisabledV6) > 0 {
		fmt.Fprintf(w, "ISC DHCP disabled (v6): %s\n", strings.Join(st.SourceDisabledV6, ", "))
	}
	if st.BackendEnabledV4 {
		fmt.Fprintln(w, "Backend DHCP enabled (v4): yes")
	}
	if st.BackendEnabledV6 {
		fmt.Fprintln(w, "Backend DHCP enabled (v6): yes")
	}
}

func printEnabledInterfaces(w io.Writer, v4, v6 []string) {
	if len(v4) > 0 {
		fmt.Fprintf(w, "ISC DHCP enabled interfaces (v4): %s\n", strings.Join(v4, ", "))
	}
	if len(v6) > 0 {
		fmt.Fprintf(w, "ISC DHCP enabled interfaces (v6): %s\n", strings.Join(v6, ", "))
	}
}

// printHistory renders journal entries as an aligned table, newest first.
func printHistory(w io.Writer, runs []*audit.Run, total int) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tCOMMAND\tBACKEND\tOUTCOME\tCREATED\tSKIPPED\tINPUT")
	for _, r := range runs {
		created, skipped := "-", "-"
		if r.Stats != nil {
			created = fmt.Sprintf("%d/%d", r.Stats.ToCreate, r.Stats.ToCreateV6)
			skipped = fmt.Sprintf("%d/%d", r.Stats.Skipped, r.Stats.SkippedV6)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			shortRunID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Command, r.Backend, r.Outcome, created, skipped, r.Input)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if total > len(runs) {
		_, err := fmt.Fprintf(w, "(%d of %d runs shown)\n", len(runs), total)
		return err
	}
	return nil
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
