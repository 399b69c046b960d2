package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dm/motion-go/internal/client"
	"github.com/dm/motion-go/internal/config"
	"github.com/dm/motion-go/internal/format"
	"github.com/dm/motion-go/internal/ingress"
	"github.com/dm/motion-go/internal/stream"
	"github.com/dm/motion-go/internal/tui"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: motion [serve] [flags]\n")
	fmt.Fprintf(os.Stderr, "       motion simulate [flags]\n\n")
	fmt.Fprintf(os.Stderr, "examples:\n")
	fmt.Fprintf(os.Stderr, "  motion                               # dashboard + https://0.0.0.0:3000\n")
	fmt.Fprintf(os.Stderr, "  motion serve --no-tls --listen :8080\n")
	fmt.Fprintf(os.Stderr, "  motion serve --headless --config motion.yaml\n")
	fmt.Fprintf(os.Stderr, "  motion simulate --insecure --rate 60 --duration 30s\n\n")
	fmt.Fprintf(os.Stderr, "run 'motion <command> -h' for the flags of a command\n")
}

// splitCommand picks the subcommand from the arguments. A leading flag or no
// arguments at all means serve.
func splitCommand(args []string) (cmd string, rest []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "serve", args
	}
	return args[0], args[1:]
}

func main() {
	cmd, args := splitCommand(os.Args[1:])

	var err error
	switch cmd {
	case "serve":
		err = serveCommand(args)
	case "simulate":
		err = simulateCommand(args)
	case "help":
		usage()
		return
	default:
		usage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// parseServeFlags builds the serve configuration: defaults, then the YAML
// file named by --config, then any flag set explicitly on the command line.
func parseServeFlags(args []string, output io.Writer) (*config.Config, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(output)

	def := config.Default()
	var (
		cfgPath  = fs.String("config", "", "path to a YAML config file")
		listen   = fs.String("listen", def.Listen, "address to accept samples on")
		cert     = fs.String("cert", def.TLS.CertFile, "TLS certificate (PEM)")
		key      = fs.String("key", def.TLS.KeyFile, "TLS private key (PEM)")
		noTLS    = fs.Bool("no-tls", false, "serve plain HTTP")
		static   = fs.String("static", "", "serve the browser page from this directory instead of the built-in one")
		history  = fs.Int("history", def.History, "samples kept for the chart")
		tick     = fs.Duration("tick", def.Tick, "render period")
		headless = fs.Bool("headless", false, "accept samples without showing the dashboard")
		logFile  = fs.String("log-file", def.Log.File, "log file used while the dashboard is shown")
		logLevel = fs.String("log-level", def.Log.Level, "debug, info, warn or error")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		extra := fs.Arg(0)
		if len(extra) > 1 && extra[0] == '-' {
			return nil, fmt.Errorf("flag %q must be placed before any argument", extra)
		}
		return nil, fmt.Errorf("unexpected argument %q", extra)
	}

	cfg := def
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			cfg.Listen = *listen
		case "cert":
			cfg.TLS.CertFile = *cert
		case "key":
			cfg.TLS.KeyFile = *key
		case "no-tls":
			on := !*noTLS
			cfg.TLS.Enabled = &on
		case "static":
			cfg.StaticDir = *static
		case "history":
			cfg.History = *history
		case "tick":
			cfg.Tick = *tick
		case "headless":
			cfg.Headless = *headless
		case "log-file":
			cfg.Log.File = *logFile
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger returns the process logger. While the dashboard owns the
// terminal, logs go to cfg.Log.File; headless runs log to stderr.
func newLogger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Headless {
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, opts)), f, nil
}

// endpointURL is the address shown to the user for the phone to open.
func endpointURL(listen string, tls bool) string {
	scheme := "http"
	if tls {
		scheme = "https"
	}
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return scheme + "://" + listen
	}
	if host == "" {
		host = "0.0.0.0"
	}
	return scheme + "://" + net.JoinHostPort(host, port)
}

func serveCommand(args []string) error {
	cfg, err := parseServeFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	logger, logCloser, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	// Bind before taking over the terminal so address errors are visible.
	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, ln, logger, os.Stderr)
}

// serve accepts samples on ln until ctx is done and, unless cfg.Headless,
// shows the dashboard in the foreground. Quitting the dashboard leaves the
// server running. progOpts are passed to the dashboard program.
func serve(ctx context.Context, cfg *config.Config, ln net.Listener, logger *slog.Logger, stderr io.Writer, progOpts ...tea.ProgramOption) error {
	tx, rx := stream.New()

	opts := ingress.Options{
		StaticDir: cfg.StaticDir,
		Logger:    logger,
	}
	if cfg.TLS.On() {
		opts.CertFile, opts.KeyFile = cfg.TLS.CertFile, cfg.TLS.KeyFile
	}
	srv, err := ingress.New(tx, opts)
	if err != nil {
		ln.Close()
		return err
	}

	served := make(chan error, 1)
	go func() {
		served <- srv.Serve(ctx, ln)
	}()

	endpoint := endpointURL(cfg.Listen, srv.TLSEnabled())
	logger.Info("motion: serving", "endpoint", endpoint, "tls", srv.TLSEnabled(), "headless", cfg.Headless)

	if cfg.Headless {
		rx.Close()
		fmt.Fprintf(stderr, "accepting samples on %s (Ctrl+C to stop)\n", endpoint)
	} else {
		err := tui.Run(ctx, rx, tui.Options{
			Tick:       cfg.Tick,
			HistoryCap: cfg.History,
			Endpoint:   endpoint,
		}, progOpts...)
		switch {
		case err != nil:
			logger.Error("motion: dashboard failed", "err", err)
			fmt.Fprintf(stderr, "dashboard stopped: %v\n", err)
			fmt.Fprintf(stderr, "still accepting samples on %s (Ctrl+C to stop)\n", endpoint)
		case ctx.Err() == nil:
			logger.Info("motion: dashboard closed")
			fmt.Fprintf(stderr, "dashboard closed; still accepting samples on %s (Ctrl+C to stop)\n", endpoint)
		}
	}

	// Select on served too, so a failing server ends the process without a
	// signal.
	select {
	case err := <-served:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		if err := <-served; err != nil {
			return err
		}
	}

	m := srv.Metrics()
	logger.Info("motion: stopped",
		"received", m.Received(),
		"rejected", m.Rejected(),
		"undelivered", m.Undelivered())
	return nil
}

func simulateCommand(args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	var (
		url      = fs.String("url", "https://localhost:3000", "motion endpoint to post to")
		rate     = fs.Float64("rate", client.DefaultSimRate, "samples per second")
		duration = fs.Duration("duration", 0, "stop after this long (0 runs until Ctrl+C)")
		insecure = fs.Bool("insecure", false, "skip TLS certificate verification")
		logLevel = fs.String("log-level", "info", "debug, info, warn or error")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	if *rate <= 0 || *rate > client.MaxSimRate {
		// Also checked by Simulate; failing here skips the endpoint ping.
		return fmt.Errorf("--rate must be in (0, %g]", client.MaxSimRate)
	}
	if *duration < 0 {
		return errors.New("--duration must not be negative")
	}
	level, err := config.ParseLevel(*logLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	c, err := client.NewDefaultClient(client.ClientConfig{
		BaseURL:            *url,
		InsecureSkipVerify: *insecure,
		RequestTimeout:     5 * time.Second,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := client.Simulate(ctx, c, client.SimOptions{
		Rate:     *rate,
		Duration: *duration,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	fmt.Printf("sent %s samples to %s (%s failed)\n",
		format.FormatNumber(stats.Sent), c.BaseURL(), format.FormatNumber(stats.Failed))
	return nil
}
