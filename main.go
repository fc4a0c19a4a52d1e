package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"parrot/config"
	"parrot/doctor"
	"parrot/log"
	"parrot/metrics"
	"parrot/repeater"
	"parrot/shutdown"
	"parrot/status"
)

var version = "dev"

func main() {
	configPath := pflag.StringP("config", "c", "parrot.toml", "Path to config TOML (missing file = defaults)")
	logPathFlag := pflag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	simFlag := pflag.Bool("sim", false, "Simulate the lines, driven by stdin commands")
	tuiFlag := pflag.Bool("tui", false, "Run with terminal UI")
	doctorFlag := pflag.Bool("doctor", false, "Run interactive line checks and exit")
	setupFlag := pflag.Bool("setup", false, "Select the soundcard input interactively")
	profileFlag := pflag.String("profile", "", "Enable pprof profiling server (e.g., localhost:6060)")
	versionFlag := pflag.Bool("version", false, "Print version and exit")
	pflag.Parse()

	if *versionFlag {
		fmt.Printf("parrot %s\n", version)
		os.Exit(0)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env: %v\n", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *simFlag {
		cfg.Lines.Driver = config.DriverSim
	}
	if *tuiFlag {
		cfg.Status.TUI = true
	}
	cfg.InfluxDB.Token = os.Getenv("PARROT_INFLUX_TOKEN")
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// flag > PARROT_LOG_PATH > logging.dir > OS default
	logFlag := *logPathFlag
	if logFlag == "" && os.Getenv("PARROT_LOG_PATH") == "" {
		logFlag = cfg.Logging.Dir
	}
	logPath, err := log.ResolveDir(logFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	// The TUI and the sim command stream both want the terminal.
	useTUI := cfg.Status.TUI && !*doctorFlag && cfg.Lines.Driver != config.DriverSim &&
		term.IsTerminal(int(os.Stdout.Fd()))
	if cfg.Status.TUI && !useTUI {
		fmt.Fprintln(os.Stderr, "Warning: terminal UI disabled (sim, doctor or no terminal)")
	}

	var console io.Writer
	if !useTUI {
		console = os.Stderr
	}
	if err := log.Init(cfg.Logging.Level, console); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	hw, err := openHardware(cfg, hardwareOptions{selectDevice: *setupFlag})
	if err != nil {
		log.Errorf("hardware init: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *doctorFlag {
		code := doctor.Run(doctor.Rig{
			RX:       hw.drivers.RX,
			Key:      hw.drivers.Key,
			PTT:      hw.drivers.PTT,
			Recorder: hw.drivers.Recorder,
			Player:   hw.drivers.Player,
		}, os.Stdin, os.Stdout)
		hw.Close()
		log.Close()
		os.Exit(code)
	}

	if err := run(cfg, hw, useTUI); err != nil {
		log.Errorf("parrot: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		hw.Close()
		log.Close()
		os.Exit(1)
	}
	hw.Close()
}

func run(cfg config.Config, hw *hardware, useTUI bool) error {
	reg := prometheus.NewRegistry()
	recorders := metrics.Multi{metrics.NewPrometheusRecorder(reg)}
	if cfg.InfluxDB.URL != "" {
		w, closeInflux := metrics.NewInfluxClient(cfg.InfluxDB.URL, cfg.InfluxDB.Token, cfg.InfluxDB.Org, cfg.InfluxDB.Bucket)
		defer closeInflux()
		recorders = append(recorders, metrics.NewInfluxRecorder(w, cfg.InfluxDB.Station))
	}

	hub := status.NewHub()
	board := status.NewBoard(hub)

	opts := []repeater.Option{
		repeater.WithMetrics(recorders),
		repeater.WithStatusSink(board),
	}
	if useTUI {
		opts = append(opts, repeater.WithStatusSink(newTUISink()))
	}
	ctrl := repeater.New(hw.drivers, opts...)

	ctx, stop := shutdown.Context(context.Background())
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	log.SessionStart(hw.lines, hw.backend)

	g.Go(func() error {
		return ctrl.Run(ctx)
	})

	if cfg.Status.Bind != "" {
		srv := status.NewServer(cfg.Status.Bind, board, hub, metrics.HTTPHandler(reg))
		g.Go(func() error {
			hub.Run(ctx)
			return nil
		})
		g.Go(func() error {
			return srv.Run(ctx)
		})
	}

	if useTUI {
		tuiMu.Lock()
		tuiProgram = NewTUIProgram()
		p := tuiProgram
		tuiMu.Unlock()

		g.Go(func() error {
			defer stop()
			_, err := p.Run()
			return err
		})
		g.Go(func() error {
			<-ctx.Done()
			p.Quit()
			return nil
		})
		tuiSend(WiringLineMsg{Text: fmt.Sprintf("lines: %s  recorder: %s", hw.lines, hw.backend)})
	}

	if hw.sim != nil {
		// Not in the group: a pending stdin read must not hold up shutdown.
		go runSim(os.Stdin, os.Stdout, hw.sim, board.Latest, stop)
	}

	err := g.Wait()
	log.SessionEnd(ctrl.Completed())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
