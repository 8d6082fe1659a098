// Command codeindex builds, inspects and searches trigram indexes.
//
// Usage:
//
//	codeindex build [-o out.idx] <dir>
//	codeindex search [-regex] [-glob pattern] -i index.idx... <pattern>
//	codeindex search -current [-regex] <pattern>
//	codeindex stat [-json] index.idx...
//	codeindex merge -o out.idx index.idx...
//	codeindex publish -bucket name [-prefix p] [-table t] index.idx
//
// Settings are read from codeindex.yaml in the working directory (or the
// file named by -config) and from CODEINDEX_* environment variables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/codeindex"
	"github.com/hupe1980/codeindex/internal/config"
	codeprom "github.com/hupe1980/codeindex/metrics/prometheus"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"build", "index a directory tree", runBuild},
	{"search", "search one or more indexes", runSearch},
	{"stat", "print index statistics", runStat},
	{"merge", "merge indexes into one", runMerge},
	{"publish", "upload an index to S3 and make it current", runPublish},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	for _, c := range commands {
		if c.name != args[0] {
			continue
		}
		a := &app{stdout: stdout, stderr: stderr}
		err := c.run(ctx, a, args[1:])
		if ferr := a.flushMetrics(); ferr != nil {
			err = errors.Join(err, ferr)
		}
		switch {
		case err == nil:
			return 0
		case errors.Is(err, flag.ErrHelp):
			return 0
		case errors.Is(err, errUsage):
			return 2
		default:
			fmt.Fprintf(stderr, "codeindex %s: %v\n", c.name, err)
			return 1
		}
	}
	usage(stderr)
	return 2
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: codeindex <command> [flags]")
	fmt.Fprintln(w)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.usage)
	}
}

var errUsage = errors.New("usage")

// app carries what every command shares once its flags are parsed.
type app struct {
	stdout, stderr io.Writer

	cfg         *config.Config
	logger      *codeindex.Logger
	metrics     codeindex.MetricsCollector
	registry    *prometheus.Registry
	metricsFile string
}

// flags returns a flag set with the common -config flag.
func (a *app) flags(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	cfgPath := fs.String("config", "", "configuration file")
	return fs, cfgPath
}

// parse parses args and loads the configuration.
func (a *app) parse(fs *flag.FlagSet, cfgPath *string, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	switch cfg.LogFormat {
	case "json":
		a.logger = codeindex.NewLogger(slog.NewJSONHandler(a.stderr, &slog.HandlerOptions{Level: level}))
	default:
		a.logger = codeindex.NewLogger(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
	}

	a.metrics = codeindex.NoopMetricsCollector{}
	if cfg.Metrics != "" {
		a.registry = prometheus.NewRegistry()
		mc, err := codeprom.NewCollector(a.registry, "codeindex")
		if err != nil {
			return err
		}
		a.metrics = mc
		a.metricsFile = cfg.Metrics
	}
	return nil
}

// flushMetrics writes the registry in the text exposition format for the
// node exporter textfile collector.
func (a *app) flushMetrics() error {
	if a.registry == nil {
		return nil
	}
	return prometheus.WriteToTextfile(a.metricsFile, a.registry)
}

func (a *app) searchOptions() []codeindex.Option {
	s := a.cfg.Search
	return []codeindex.Option{
		codeindex.WithLogger(a.logger),
		codeindex.WithMetricsCollector(a.metrics),
		codeindex.WithBatchSize(s.BatchSize),
		codeindex.WithChannelCapacity(s.ChannelCapacity),
		codeindex.WithDebounce(s.Debounce),
		codeindex.WithMaxConcurrentLoads(s.MaxConcurrentLoads),
		codeindex.WithIOLimit(s.IOLimit),
	}
}

// stringList collects a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return fmt.Sprint(*l) }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}
