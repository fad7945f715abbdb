package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ishanwen-byte/plantevolve-go/internal/constants"
	"github.com/ishanwen-byte/plantevolve-go/internal/types"
	"github.com/ishanwen-byte/plantevolve-go/pkg/config"
	"github.com/ishanwen-byte/plantevolve-go/pkg/controller"
	"github.com/ishanwen-byte/plantevolve-go/pkg/export"
	"github.com/ishanwen-byte/plantevolve-go/pkg/operators"
	"github.com/ishanwen-byte/plantevolve-go/pkg/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	configPath  string
	initConfig  string
	listDomains bool
	seed        int64
	attempts    int
	generations int
	population  int
	selection   string
	timeout     int
	outdir      string
	formats     string
	storeKind   string
	verbose     bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet(constants.Name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&opts.initConfig, "init-config", "", "write a default configuration file and exit")
	fs.BoolVar(&opts.listDomains, "list-domains", false, "list domain types and their parameters")
	fs.Int64Var(&opts.seed, "seed", 0, "random seed (0 = random)")
	fs.IntVar(&opts.attempts, "attempts", 0, "maximum attempts")
	fs.IntVar(&opts.generations, "generations", 0, "generations per attempt")
	fs.IntVar(&opts.population, "population", 0, "population size")
	fs.StringVar(&opts.selection, "selection", "", "selection strategy ("+strings.Join(operators.SelectorNames(), ", ")+")")
	fs.IntVar(&opts.timeout, "timeout", 0, "wall clock budget in seconds (0 = none)")
	fs.StringVar(&opts.outdir, "outdir", "", "output directory for exports")
	fs.StringVar(&opts.formats, "format", "", "comma separated export formats ("+strings.Join(export.Formats(), ", ")+")")
	fs.StringVar(&opts.storeKind, "store", "", "result store (none, memory, file, sqlite, badger)")
	fs.BoolVar(&opts.verbose, "verbose", false, "log every generation")
	if err := fs.Parse(args); err != nil {
		return constants.ExitError
	}

	logger := logrus.New()
	logger.SetOutput(stderr)

	if opts.listDomains {
		fmt.Fprint(stdout, config.DomainHelp())
		return constants.ExitSuccess
	}

	if opts.initConfig != "" {
		if err := config.CreateDefaultConfig(opts.initConfig); err != nil {
			logger.WithError(err).Error("Failed to write default configuration")
			return constants.ExitError
		}
		logger.WithField("file", opts.initConfig).Info("Wrote default configuration")
		return constants.ExitSuccess
	}

	manager := config.NewManager()
	if opts.configPath != "" {
		if err := manager.Load(opts.configPath); err != nil {
			logger.WithError(err).Error("Failed to load configuration")
			return constants.ExitError
		}
	}
	cfg := manager.GetConfig()
	applyFlags(fs, &opts, cfg)
	if err := manager.Validate(); err != nil {
		logger.WithError(err).Error("Invalid configuration")
		return constants.ExitError
	}
	if cfg.Evolution.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	c, err := controller.New(*cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to set up evolution")
		return constants.ExitError
	}
	c.SetLogger(logger)
	c.AddListener(controller.NewLogListener(logger))

	result, err := c.Run(ctx)
	if err != nil {
		logger.WithError(err).Error("Evolution failed")
		return constants.ExitError
	}

	writeSummary(stdout, result)

	paths, err := export.WriteFiles(cfg.Output.Dir, constants.DefaultExport, cfg.Output.Formats, result)
	if err != nil {
		logger.WithError(err).Error("Failed to export layout")
		return constants.ExitError
	}
	for _, p := range paths {
		logger.WithField("file", p).Info("Exported layout")
	}

	if err := saveResult(ctx, cfg.Output, result, logger); err != nil {
		logger.WithError(err).Error("Failed to store result")
		return constants.ExitError
	}

	switch {
	case result.Converged():
		return constants.ExitSuccess
	case ctx.Err() != nil:
		return constants.ExitInterrupt
	default:
		return constants.ExitBestEffort
	}
}

// applyFlags copies explicitly set flags over the loaded configuration
func applyFlags(fs *flag.FlagSet, opts *options, cfg *types.Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			cfg.Evolution.Seed = opts.seed
		case "attempts":
			cfg.Evolution.MaxAttempts = opts.attempts
		case "generations":
			cfg.Evolution.Generations = opts.generations
		case "population":
			cfg.Evolution.PopulationSize = opts.population
		case "selection":
			cfg.Evolution.Selection = opts.selection
		case "timeout":
			cfg.Evolution.TimeoutSeconds = opts.timeout
		case "outdir":
			// a derived store path follows the new directory; one set in the
			// file is kept
			if cfg.Output.StorePath == config.DefaultStorePath(cfg.Output) {
				cfg.Output.StorePath = ""
			}
			cfg.Output.Dir = opts.outdir
		case "format":
			cfg.Output.Formats = splitList(opts.formats)
		case "store":
			cfg.Output.Store = opts.storeKind
			cfg.Output.StorePath = ""
		case "verbose":
			cfg.Evolution.Verbose = opts.verbose
		}
	})
}

func saveResult(ctx context.Context, out types.OutputConfig, result types.EvolutionResult, logger *logrus.Logger) error {
	if out.Store == constants.StoreNone || out.Store == constants.StoreMemory {
		return nil
	}

	s, err := store.Open(out.Store, out.StorePath)
	if err != nil {
		return err
	}
	defer s.Close()

	switch backend := s.(type) {
	case *store.FileStore:
		backend.SetLogger(logger)
	case *store.SQLiteStore:
		backend.SetLogger(logger)
	case *store.BadgerStore:
		backend.SetLogger(logger)
	}

	// the run may have been interrupted; saving must still complete
	_, err = s.Save(context.WithoutCancel(ctx), result)
	return err
}

func writeSummary(w io.Writer, r types.EvolutionResult) {
	fmt.Fprintf(w, "Run %s\n", r.RunID)
	fmt.Fprintf(w, "  outcome:  %s\n", r.Outcome)
	fmt.Fprintf(w, "  attempt:  %d of %d\n", r.Attempt, r.MaxAttempts)
	fmt.Fprintf(w, "  fitness:  %.4f (penalty %.4g)\n", r.Fitness, r.Penalty)
	fmt.Fprintf(w, "  plants:   %d\n", r.Best.Len())
	fmt.Fprintf(w, "  elapsed:  %s\n", r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  seed:     %d\n", r.Seed)
	if !r.Converged() {
		fmt.Fprintln(w, "  warning:  layout is a best effort and still has overlaps or plants outside the domain")
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
