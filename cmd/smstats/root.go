package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	smstats "github.com/jamesprial/go-smstats"
	"github.com/jamesprial/go-smstats/pkg/types"
)

type options struct {
	configFile  string
	clientID    string
	name        string
	email       string
	maxPage     int
	output      string
	logLevel    string
	logFormat   string
	metricsFile string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "smstats",
		Short:         "Fetch posts from the Supermetrics API and print their statistics",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configFile, "config", "", "YAML config file")
	f.StringVar(&opts.clientID, "client-id", "", "client id sent when registering a token")
	f.StringVar(&opts.name, "name", "", "name sent when registering a token")
	f.StringVar(&opts.email, "email", "", "email sent when registering a token")
	f.IntVar(&opts.maxPage, "max-page", 0, "last page to fetch (default 10)")
	f.StringVar(&opts.output, "output", "json", "output format: json|text")
	f.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug|info|warn|error")
	f.StringVar(&opts.logFormat, "log-format", "text", "log format: text|json")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this file after the run")

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	logger, err := newLogger(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)
	if err != nil {
		return err
	}
	if opts.output != "json" && opts.output != "text" {
		return fmt.Errorf("unsupported output format %q", opts.output)
	}

	loadEnvFiles(logger)

	cfg, err := buildConfig(cmd, opts)
	if err != nil {
		return err
	}
	cfg.Logger = logger

	registry := prometheus.NewRegistry()
	cfg.Metrics = smstats.NewMetrics(registry)

	manager, err := smstats.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	stats, err := manager.GetPostsStats(cmd.Context())
	if opts.metricsFile != "" {
		if werr := prometheus.WriteToTextfile(opts.metricsFile, registry); werr != nil {
			logger.Warn("failed to write metrics", "file", opts.metricsFile, "error", werr)
		}
	}
	if err != nil {
		return err
	}

	if opts.output == "text" {
		return writeText(cmd.OutOrStdout(), stats)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

// buildConfig layers the config file, SMSTATS_* variables and flags, later
// sources winning.
func buildConfig(cmd *cobra.Command, opts *options) (*smstats.Config, error) {
	cfg := &smstats.Config{}
	if opts.configFile != "" {
		loaded, err := smstats.LoadConfig(opts.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := smstats.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("client-id") {
		cfg.ClientID = opts.clientID
	}
	if f.Changed("name") {
		cfg.Name = opts.name
	}
	if f.Changed("email") {
		cfg.Email = opts.email
	}
	if f.Changed("max-page") {
		cfg.MaxPage = opts.maxPage
	}
	return cfg, nil
}

// loadEnvFiles loads .env files from the working directory if present.
// Variables already set in the environment are kept.
func loadEnvFiles(logger *slog.Logger) {
	for _, file := range []string{".env", ".env.local"} {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			logger.Warn("failed to load env file", "file", file, "error", err)
			continue
		}
		logger.Debug("loaded env file", "file", file)
	}
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q", format)
	}
}

func writeText(w io.Writer, stats types.Stats) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Total posts: %d\n", stats.TotalPosts)

	b.WriteString("\nAverage post length per month:\n")
	for _, month := range sortedKeys(stats.AvgPostLengthPerMonth) {
		fmt.Fprintf(&b, "  %s  %.2f\n", month, stats.AvgPostLengthPerMonth[month])
	}

	b.WriteString("\nLongest post per month:\n")
	for _, month := range sortedKeys(stats.LongestPostPerMonth) {
		p := stats.LongestPostPerMonth[month]
		fmt.Fprintf(&b, "  %s  %s by %s (%d characters)\n", month, p.ID, p.FromID, p.Length)
	}

	b.WriteString("\nPosts per week:\n")
	for _, week := range sortedKeys(stats.PostsPerWeek) {
		fmt.Fprintf(&b, "  %s  %d\n", week, stats.PostsPerWeek[week])
	}

	b.WriteString("\nAverage posts per user per month:\n")
	for _, month := range sortedKeys(stats.AvgPostsPerUserPerMonth) {
		fmt.Fprintf(&b, "  %s  %.2f\n", month, stats.AvgPostsPerUserPerMonth[month])
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
