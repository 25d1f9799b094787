package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/softveil/softveil/internal/config"
	"github.com/softveil/softveil/internal/engine"
	"github.com/softveil/softveil/internal/introspect"
	"github.com/softveil/softveil/internal/ipc"
	"github.com/softveil/softveil/internal/overlay"
	"github.com/softveil/softveil/internal/platform"
	"github.com/softveil/softveil/internal/pointer"
	"github.com/softveil/softveil/internal/resolver"
	"github.com/softveil/softveil/internal/x11"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		if len(os.Args) > 2 && (os.Args[2] == "help" || os.Args[2] == "-h" || os.Args[2] == "--help") {
			fmt.Fprintln(os.Stdout, "Usage: softveil daemon")
			os.Exit(0)
		}
		if len(os.Args) > 2 {
			fmt.Fprintln(os.Stderr, "daemon takes no arguments")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Usage: softveil daemon")
			os.Exit(2)
		}
		runDaemon()
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "displays":
		os.Exit(runDisplays(os.Args[2:]))
	case "regions":
		os.Exit(runRegions(os.Args[2:]))
	case "peripherals":
		os.Exit(runPeripherals(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: softveil <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the dimming daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  displays            List overlaid displays")
	fmt.Fprintln(w, "  regions             Show current per-display uncovered regions")
	fmt.Fprintln(w, "  peripherals         Show detected dock/shelf surfaces")
	fmt.Fprintln(w, "  reload              Ask the daemon to reload its configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'softveil <command> --help' for command-specific options.")
}

// newLogger builds the daemon logger: human-readable text on a tty,
// JSON when stderr is redirected.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func runDaemon() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.Logging.Level)
	slog.SetDefault(logger)

	conn, err := x11.NewConnection()
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer conn.Close()

	backend := platform.NewLinuxBackend(conn)
	caps := resolver.Caps(resolver.GenerationForServerRelease(conn.ServerRelease()))

	tint, err := cfg.Overlay.TintValue()
	if err != nil {
		log.Fatalf("Invalid overlay tint: %v", err)
	}
	veil, err := overlay.New(conn, tint, cfg.Overlay.Opacity, logger)
	if err != nil {
		log.Fatalf("Failed to create overlay: %v", err)
	}
	defer veil.Close()

	ctrl := engine.NewController(engine.Options{
		Backend: backend,
		Adapter: introspect.NewX11Adapter(conn),
		Sink:    veil,
		Config:  cfg,
		Caps:    caps,
		Pointer: pointer.NewMonitor(backend),
		OwnPID:  os.Getpid(),
		Log:     logger,
	})

	reloadChan := make(chan struct{}, 1)
	ipcServer, err := ipc.NewServer(ctrl, reloadChan)
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()

	ctrl.Start()
	defer ctrl.Stop()

	logger.Info("softveil daemon started", "profile", cfg.Profile)

	reload := func() {
		newCfg, err := config.Load()
		if err != nil {
			logger.Warn("config reload failed", "error", err)
			return
		}
		ctrl.ApplyConfig(newCfg, caps)
		logger.Info("config reloaded", "profile", newCfg.Profile)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	for {
		select {
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				logger.Info("received SIGHUP, reloading config")
				reload()
			case os.Interrupt, syscall.SIGTERM:
				logger.Info("shutting down softveil daemon")
				return
			}
		case <-reloadChan:
			reload()
		}
	}
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: softveil status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("state:          %s\n", status.State)
	fmt.Printf("profile:        %s\n", status.Profile)
	fmt.Printf("displays:       %d\n", status.DisplayCount)
	fmt.Printf("masks:          %d\n", status.MaskCount)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}

func runDisplays(args []string) int {
	fs := flag.NewFlagSet("displays", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: softveil displays")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	displays, err := ipc.NewClient().GetDisplays()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, d := range displays.Displays {
		fmt.Printf("%d: %s  %gx%g+%g+%g  %.1f Hz\n",
			d.ID, d.Name, d.Width, d.Height, d.X, d.Y, d.RefreshHz)
	}
	return 0
}

func runRegions(args []string) int {
	fs := flag.NewFlagSet("regions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: softveil regions")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show the rectangles currently punched out of the overlay.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	regions, err := ipc.NewClient().GetRegions()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("state: %s\n", regions.State)
	if len(regions.Regions) == 0 {
		fmt.Println("no uncovered regions")
		return 0
	}
	for _, r := range regions.Regions {
		fmt.Printf("display %d: %gx%g+%g+%g  radius %g\n",
			r.Display, r.Width, r.Height, r.X, r.Y, r.CornerRadius)
	}
	return 0
}

func runPeripherals(args []string) int {
	fs := flag.NewFlagSet("peripherals", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: softveil peripherals")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	peripherals, err := ipc.NewClient().GetPeripherals()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if len(peripherals.Peripherals) == 0 {
		fmt.Println("no peripheral surfaces detected")
		return 0
	}
	for _, p := range peripherals.Peripherals {
		hidden := ""
		if p.AutoHidden {
			hidden = "  (auto-hidden)"
		}
		fmt.Printf("display %d: %s at %s edge  %gx%g+%g+%g%s\n",
			p.Display, p.Kind, p.Edge, p.Width, p.Height, p.X, p.Y, hidden)
	}
	return 0
}

func runReload(args []string) int {
	fs := flag.NewFlagSet("reload", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: softveil reload")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("configuration reloaded")
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  softveil config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  softveil config print [--path PATH]")
		return 2
	}

	switch args[0] {
	case "validate":
		return runConfigValidate(args[1:])
	case "print":
		return runConfigPrint(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown config command: %s\n", args[0])
		return 2
	}
}

func configPathFlag(fs *flag.FlagSet) *string {
	return fs.String("path", "", "config file path (default: ~/.config/softveil/config.yaml)")
}

func loadConfigFrom(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

func runConfigValidate(args []string) int {
	fs := flag.NewFlagSet("config validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := configPathFlag(fs)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	if _, err := loadConfigFrom(*path); err != nil {
		fmt.Fprintf(os.Stderr, "invalid: %v\n", err)
		return 1
	}
	fmt.Println("valid")
	return 0
}

func runConfigPrint(args []string) int {
	fs := flag.NewFlagSet("config print", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := configPathFlag(fs)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, err := loadConfigFrom(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	out, err := cfg.Print()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Print(out)
	return 0
}
