package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"sigs.k8s.io/yaml"

	"github.com/vic/combnet/pkg/book"
	"github.com/vic/combnet/pkg/icnet"
)

// config is the YAML-file shape; flags override any value set here.
type config struct {
	Capacity uint32 `json:"capacity,omitempty"`
	Workers  int    `json:"workers,omitempty"`
	Trace    int    `json:"trace,omitempty"`
	LogLevel string `json:"logLevel,omitempty"`
}

func defaultConfig() config {
	return config{
		Capacity: 1 << 24,
		LogLevel: "info",
	}
}

func loadConfig(path string, flags *pflag.FlagSet) (config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	if flags.Changed("capacity") {
		cfg.Capacity, _ = flags.GetUint32("capacity")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("trace") {
		cfg.Trace, _ = flags.GetInt("trace")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	return cfg, nil
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "combnet [file]",
		Short: "Reduce an interaction-combinator program to normal form",
		Long: "combnet parses a book of net definitions, reduces the combined net in\n" +
			"parallel, and prints the normal form of every head wire.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	cmd.Flags().Uint32("capacity", 1<<24, "store capacity in slots")
	cmd.Flags().Int("workers", 0, "reduction workers (0 = one per CPU)")
	cmd.Flags().Int("trace", 0, "record the first N rule firings")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().String("config", "", "YAML config file")
	cmd.Flags().Bool("metrics", false, "print prometheus counters after evaluation")
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(cfgPath, cmd.Flags())
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Str("run", uuid.NewString()).Logger()

	var input []byte
	if len(args) > 0 {
		input, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading program: %w", err)
		}
	} else {
		input, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
	}

	net := icnet.New(cfg.Capacity)
	if err := book.Parse(string(input), net); err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	log.Debug().Int("heads", len(net.Heads())).Int("eqns", len(net.Body())).Msg("net built")

	opts := []icnet.Option{icnet.WithLogger(log)}
	if cfg.Workers > 0 {
		opts = append(opts, icnet.WithWorkers(cfg.Workers))
	}
	if cfg.Trace > 0 {
		opts = append(opts, icnet.WithTrace(cfg.Trace))
	}
	rt := icnet.NewRuntime(opts...)

	start := time.Now()
	rt.Eval(net)
	elapsed := time.Since(start)

	for i, rendered := range net.DisplayHeads() {
		fmt.Printf("head %d: %s\n", i, rendered)
	}

	stats := rt.Stats()
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, stats)
	fmt.Fprintf(os.Stderr, "Time: %v\n", elapsed)
	if secs := elapsed.Seconds(); secs > 0 {
		fmt.Fprintf(os.Stderr, "Interactions/sec: %.2f\n", float64(stats.Interactions())/secs)
	}

	if tr := rt.Trace(); tr != nil {
		for _, ev := range tr.Snapshot() {
			fmt.Fprintf(os.Stderr, "step %d: %s (%s, %s)\n", ev.Step, ev.Rule, ev.Left, ev.Right)
		}
	}

	if showMetrics, _ := cmd.Flags().GetBool("metrics"); showMetrics {
		if err := printMetrics(os.Stderr, rt.Stats()); err != nil {
			return err
		}
	}
	return nil
}

func printMetrics(w io.Writer, stats *icnet.GlobalStats) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(icnet.NewStatsCollector(stats)); err != nil {
		return err
	}
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			labels := ""
			for _, l := range m.GetLabel() {
				if labels != "" {
					labels += ","
				}
				labels += fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
			}
			if labels != "" {
				labels = "{" + labels + "}"
			}
			fmt.Fprintf(w, "%s%s %v\n", fam.GetName(), labels, m.GetCounter().GetValue())
		}
	}
	return nil
}
