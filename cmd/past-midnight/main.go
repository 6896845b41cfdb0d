package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Veraticus/past-midnight/pkg/config"
	"github.com/Veraticus/past-midnight/pkg/engine"
	"github.com/Veraticus/past-midnight/pkg/logging"
	"github.com/Veraticus/past-midnight/pkg/modules"
	"github.com/Veraticus/past-midnight/pkg/terminal"
)

// options holds the parsed command line.
type options struct {
	configPath string
	list       bool
	start      string
	timeout    time.Duration
	random     bool
	store      string
	fps        int
	debug      bool
	help       bool

	changed func(name string) bool
}

func parseFlags(args []string) (*options, *flag.FlagSet, error) {
	opts := &options{}
	fs := flag.NewFlagSet("past-midnight", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&opts.configPath, "config", "", "Path to config file")
	fs.BoolVarP(&opts.list, "list", "l", false, "List the available screensavers and exit")
	fs.StringVarP(&opts.start, "start", "s", "", "Start the given screensaver immediately")
	fs.DurationVarP(&opts.timeout, "timeout", "t", 0, "Idle time before the screensaver starts (e.g. 3m)")
	fs.BoolVarP(&opts.random, "random", "r", false, "Pick a random screensaver on every activation")
	fs.StringVar(&opts.store, "store", "", "Settings backend: memory, file or sqlite")
	fs.IntVar(&opts.fps, "fps", 0, "Animation frame rate")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	fs.BoolVarP(&opts.help, "help", "h", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	opts.changed = fs.Changed
	return opts, fs, nil
}

// applyFlags layers explicitly set flags over cfg.
func applyFlags(cfg *config.Config, opts *options) error {
	if opts.changed("timeout") {
		cfg.IdleTimeout = opts.timeout
	}
	if opts.changed("random") {
		random := opts.random
		cfg.RandomMode = &random
	}
	if opts.changed("store") && opts.store != cfg.Store.Backend {
		cfg.Store.Backend = opts.store
		cfg.Store.Path = config.DefaultStorePath(opts.store)
	}
	if opts.changed("fps") {
		cfg.FPS = opts.fps
	}
	if opts.debug {
		cfg.Debug = true
	}
	return config.Validate(cfg)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, fs, err := parseFlags(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		printUsage(os.Stderr, fs)
		return 2
	}

	if opts.help {
		printUsage(os.Stdout, fs)
		return 0
	}

	if opts.list {
		printGallery(os.Stdout, modules.All())
		return 0
	}

	// Load configuration
	var cfg *config.Config
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	// Override config with command line flags
	if err := applyFlags(cfg, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logger := zap.NewNop()
	if cfg.LogFile != "" {
		logger, err = logging.New(cfg.LogFile, cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
			return 1
		}
	}

	streams := Streams{In: os.Stdin, Out: os.Stdout}
	if terminal.IsTerminal(os.Stdout) {
		streams.TTY = os.Stdout
	}

	// Create dependencies
	deps, err := NewDependencies(cfg, streams, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating dependencies: %v\n", err)
		return 1
	}
	defer deps.Close()

	logger.Debug("starting",
		zap.String("store", cfg.Store.Backend),
		zap.String("storePath", cfg.Store.Path),
		zap.Int("fps", cfg.FPS),
		zap.Bool("tty", streams.TTY != nil))

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	app := NewApplication(deps, opts.start)

	// Ensure terminal restoration on panic
	defer func() {
		if r := recover(); r != nil {
			deps.Screen.Restore()
			panic(r)
		}
	}()

	if err := app.Run(ctx); err != nil {
		var notFound *engine.ModuleNotFoundError
		if errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error: %v (see --list)\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "past-midnight - idle-activated terminal screensavers")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: past-midnight [OPTIONS]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Keys: any input stops the screensaver; q quits while idle, ctrl+c always quits")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment Variables:")
	fmt.Fprintln(w, "  PAST_MIDNIGHT_CONFIG          Path to config file")
	fmt.Fprintln(w, "  PAST_MIDNIGHT_IDLE_TIMEOUT    Idle time before activation (e.g. 3m)")
	fmt.Fprintln(w, "  PAST_MIDNIGHT_RANDOM          Random screensaver on every activation (true/false)")
	fmt.Fprintln(w, "  PAST_MIDNIGHT_MODULE          Selected screensaver id")
	fmt.Fprintln(w, "  PAST_MIDNIGHT_STORE           Settings backend: memory, file or sqlite")
	fmt.Fprintln(w, "  PAST_MIDNIGHT_STORE_PATH      Settings file location")
	fmt.Fprintln(w, "  PAST_MIDNIGHT_FPS             Animation frame rate")
	fmt.Fprintln(w, "  PAST_MIDNIGHT_CHECK_INTERVAL  Idle check period (default: 1s)")
	fmt.Fprintln(w, "  PAST_MIDNIGHT_TMUX            Count tmux client activity (default: true)")
	fmt.Fprintln(w, "  PAST_MIDNIGHT_STATUS_LINE     Show the countdown status line (default: true)")
	fmt.Fprintln(w, "  PAST_MIDNIGHT_LOG_FILE        Write JSON logs to this file")
	fmt.Fprintln(w, "  PAST_MIDNIGHT_DEBUG           Enable debug logging (1/true)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration file: ~/.config/past-midnight/config.yaml")
}
