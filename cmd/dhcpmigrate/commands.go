package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"dhcpmigrate/internal/audit"
	"dhcpmigrate/internal/configdoc"
	"dhcpmigrate/internal/domain"
	"dhcpmigrate/internal/extract"
	"dhcpmigrate/internal/migrate"
	"dhcpmigrate/internal/observability"
	"dhcpmigrate/internal/verify"
)

// errChangesDetected is returned by verify when the conversion would
// modify the document.
var errChangesDetected = errors.New("verify: changes detected")

type app struct {
	logger      observability.Logger
	configPath  string
	cfg         *Config
	journal     audit.Journal
	openJournal func(context.Context, *Config, observability.Logger) audit.Journal
}

func newApp(logger observability.Logger) *app {
	return &app{logger: logger, openJournal: selectJournal}
}

func (a *app) close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.logger.Warn("closing journal", "error", err)
		}
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               "dhcpmigrate",
		Short:             "Migrate ISC DHCP static mappings in an OPNsense config.xml to Kea or dnsmasq",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to YAML config file (optional, can use env vars)")
	root.AddCommand(a.scanCommand(), a.convertCommand(), a.verifyCommand(), a.historyCommand())
	return root
}

// setup loads the configuration, rebuilds the logger from it and opens
// the journal.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logCfg := observability.DefaultConfig()
	if cfg.Log.Level != "" {
		logCfg.Level = cfg.Log.Level
	}
	if cfg.Log.Format != "" {
		logCfg.Format = cfg.Log.Format
	}
	logCfg.Output = cmd.ErrOrStderr()
	a.logger = observability.NewLogger(logCfg)

	if a.journal == nil {
		a.journal = a.openJournal(cmd.Context(), cfg, a.logger)
	}
	return nil
}

// migrationFlags are shared by scan, convert and verify.
type migrationFlags struct {
	input          string
	backend        string
	failIfExisting bool
	createSubnets  bool
	forceSubnets   bool
	createOptions  bool
	forceOptions   bool
	enableBackend  bool
	verbose        bool
}

func (f *migrationFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.input, "in", "i", defaultInput, "path to config.xml")
	fl.StringVarP(&f.backend, "backend", "b", string(domain.BackendKea), "target backend: kea or dnsmasq")
	fl.BoolVar(&f.failIfExisting, "fail-if-existing", false, "abort if the backend already holds reservations or hosts")
	fl.BoolVar(&f.createSubnets, "create-subnets", false, "create Kea subnets or dnsmasq ranges from the ISC ranges")
	fl.BoolVar(&f.forceSubnets, "force-subnets", false, "replace existing subnets or ranges for the same network (requires --create-subnets)")
	fl.BoolVar(&f.createOptions, "create-options", false, "migrate DNS, gateway, domain and NTP options")
	fl.BoolVar(&f.forceOptions, "force-options", false, "overwrite options the backend already has (requires --create-options)")
	fl.BoolVar(&f.enableBackend, "enable-backend", false, "disable ISC DHCP and enable the backend")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "print each mapping as it is processed")
}

// resolve merges flags over the configuration. A flag given on the command
// line wins; boolean defaults from the config can only turn options on.
func (a *app) resolve(cmd *cobra.Command, f *migrationFlags) (string, domain.MigrationOptions, error) {
	flags := cmd.Flags()
	input := a.cfg.Input
	if flags.Changed("in") {
		input = f.input
	}
	backendText := a.cfg.Backend
	if flags.Changed("backend") {
		backendText = f.backend
	}
	backend, err := domain.ParseBackend(backendText)
	if err != nil {
		return "", domain.MigrationOptions{}, err
	}

	d := a.cfg.Defaults
	opts := domain.MigrationOptions{
		Backend:        backend,
		FailIfExisting: f.failIfExisting || d.FailIfExisting,
		CreateSubnets:  f.createSubnets || d.CreateSubnets,
		ForceSubnets:   f.forceSubnets || d.ForceSubnets,
		CreateOptions:  f.createOptions || d.CreateOptions,
		ForceOptions:   f.forceOptions || d.ForceOptions,
		EnableBackend:  f.enableBackend || d.EnableBackend,
		Verbose:        f.verbose || d.Verbose,
	}
	if opts.ForceSubnets && !opts.CreateSubnets {
		return "", opts, errors.New("--force-subnets requires --create-subnets")
	}
	if opts.ForceOptions && !opts.CreateOptions {
		return "", opts, errors.New("--force-options requires --create-options")
	}
	return input, opts, nil
}

// runRecorder carries one run's identity from start to its journal entry.
type runRecorder struct {
	ctx     context.Context
	logger  observability.Logger
	journal audit.Journal
	sink    *observability.Sink
	run     *audit.Run
}

func (a *app) begin(cmd *cobra.Command, command, input string, opts domain.MigrationOptions) *runRecorder {
	id := uuid.New().String()
	ctx := observability.WithCommand(observability.WithRunID(cmd.Context(), id), command)
	logger := observability.FromContext(ctx, a.logger)
	logger.Info("run started", "input", input, "backend", string(opts.Backend))
	return &runRecorder{
		ctx:     ctx,
		logger:  logger,
		journal: a.journal,
		sink:    observability.NewSink(logger, cmd.OutOrStdout(), cmd.ErrOrStderr()),
		run: &audit.Run{
			ID:        id,
			StartedAt: time.Now().UTC(),
			Command:   command,
			Backend:   opts.Backend,
			Input:     input,
			Options:   opts,
		},
	}
}

func (r *runRecorder) finish(stats *domain.MigrationStats, err error) {
	r.run.FinishedAt = time.Now().UTC()
	r.run.Stats = stats
	r.run.Warnings = len(r.sink.Warnings())
	if err != nil {
		r.run.Error = err.Error()
		r.run.Outcome = audit.OutcomeFailed
		if errors.Is(err, errChangesDetected) {
			r.run.Outcome = audit.OutcomeChanged
		}
	}
	if r.journal != nil {
		if jerr := r.journal.Record(r.ctx, r.run); jerr != nil {
			r.logger.Warn("failed to record run in journal", "error", jerr)
		}
	}
	r.logger.Info("run finished", "outcome", r.run.Outcome, "duration", r.run.Duration())
}

func loadInput(path string) (*configdoc.Document, error) {
	doc, err := configdoc.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %s: %w", path, err)
	}
	return doc, nil
}

func (a *app) scanCommand() *cobra.Command {
	f := &migrationFlags{}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Report what convert would do without writing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input, opts, err := a.resolve(cmd, f)
			if err != nil {
				return err
			}
			rec := a.begin(cmd, audit.CommandScan, input, opts)
			stats, err := runScan(cmd.OutOrStdout(), rec.sink, input, opts)
			rec.finish(stats, err)
			return err
		},
	}
	f.bind(cmd)
	return cmd
}

// runScan prints the scan report. When the backend is not set up enough to
// plan, the raw counts are still printed before the error is returned.
func runScan(out io.Writer, sink migrate.Sink, input string, opts domain.MigrationOptions) (*domain.MigrationStats, error) {
	doc, err := loadInput(input)
	if err != nil {
		return nil, err
	}
	stats, err := migrate.New(sink).Scan(doc, opts)
	if err != nil {
		if migrate.IsBackendConfigError(err) {
			counts := migrate.ScanCounts(doc, opts.Backend)
			printScanStats(out, counts, opts.Backend)
			return counts, err
		}
		return nil, err
	}
	if opts.Verbose {
		root := doc.Root()
		printEnabledInterfaces(out,
			extract.EnabledInterfaces(root, domain.IPv4),
			extract.EnabledInterfaces(root, domain.IPv6))
	}
	printScanStats(out, stats, opts.Backend)
	return stats, nil
}

func (a *app) convertCommand() *cobra.Command {
	f := &migrationFlags{}
	var output string
	var force bool
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Write a converted copy of config.xml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input, opts, err := a.resolve(cmd, f)
			if err != nil {
				return err
			}
			rec := a.begin(cmd, audit.CommandConvert, input, opts)
			rec.run.Output = output
			stats, err := runConvert(cmd.OutOrStdout(), rec.sink, input, output, force, opts)
			rec.finish(stats, err)
			return err
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVarP(&output, "out", "o", "", "path for the converted config.xml (must differ from --in)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite the output file if it exists")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runConvert(out io.Writer, sink migrate.Sink, input, output string, force bool, opts domain.MigrationOptions) (*domain.MigrationStats, error) {
	if err := checkDistinctPaths(input, output); err != nil {
		return nil, err
	}
	doc, err := loadInput(input)
	if err != nil {
		return nil, err
	}
	if err := checkOutput(output, force); err != nil {
		return nil, err
	}

	stats, err := migrate.New(sink).Convert(doc, opts)
	if err != nil {
		return nil, err
	}
	err = writeAtomic(output, func(w io.Writer) error {
		_, err := doc.WriteTo(w)
		return err
	})
	if err != nil {
		return stats, err
	}

	fmt.Fprintln(out, "\nMigration completed successfully!")
	printConvertStats(out, stats, opts.Backend)
	fmt.Fprintf(out, "Output written to: %s\n", output)
	return stats, nil
}

func (a *app) verifyCommand() *cobra.Command {
	f := &migrationFlags{}
	var quiet bool
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Convert in memory and show the changes as a unified diff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input, opts, err := a.resolve(cmd, f)
			if err != nil {
				return err
			}
			rec := a.begin(cmd, audit.CommandVerify, input, opts)
			stats, err := runVerify(cmd.OutOrStdout(), rec.sink, input, quiet, opts)
			rec.finish(stats, err)
			return err
		},
	}
	f.bind(cmd)
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only report through the exit status")
	return cmd
}

func runVerify(out io.Writer, sink migrate.Sink, input string, quiet bool, opts domain.MigrationOptions) (*domain.MigrationStats, error) {
	doc, err := loadInput(input)
	if err != nil {
		return nil, err
	}
	res, err := verify.Run(migrate.New(sink), doc, opts)
	if err != nil {
		return nil, err
	}
	if !res.Changed() {
		if !quiet {
			fmt.Fprintln(out, "No changes.")
		}
		return res.Stats, nil
	}
	if !quiet {
		fmt.Fprint(out, res.Diff)
	}
	return res.Stats, errChangesDetected
}

func (a *app) historyCommand() *cobra.Command {
	var (
		limit   int
		command string
		outcome string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded scan, convert and verify runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch command {
			case "", audit.CommandScan, audit.CommandConvert, audit.CommandVerify:
			default:
				return fmt.Errorf("unknown command %q (want scan, convert or verify)", command)
			}
			runs, total, err := a.journal.List(cmd.Context(), audit.ListOptions{
				Limit:   limit,
				Command: command,
				Outcome: outcome,
			})
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			return printHistory(cmd.OutOrStdout(), runs, total)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to show")
	cmd.Flags().StringVar(&command, "command", "", "only show runs of this command (scan, convert, verify)")
	cmd.Flags().StringVar(&outcome, "outcome", "", "only show runs with this outcome (succeeded, failed, changed)")
	return cmd
}
