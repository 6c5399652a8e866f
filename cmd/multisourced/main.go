package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"

	"github.com/lanikai/multisource"
	"github.com/lanikai/multisource/internal/config"
	"github.com/lanikai/multisource/internal/logging"
	"github.com/lanikai/multisource/internal/media"
	"github.com/lanikai/multisource/internal/playback"
	"github.com/lanikai/multisource/internal/status"
)

// Populated via -ldflags="-X ...".
var GitRevisionId string

var log = logging.DefaultLogger.WithTag("multisourced")

var (
	flagConfig      string
	flagPosition    time.Duration
	flagBufferAhead time.Duration
	flagInterval    time.Duration
	flagListen      string
	flagLogLevel    string
	flagQuiet       bool
	flagHelp        bool
	flagVersion     bool
)

func init() {
	flag.StringVarP(&flagConfig, "config", "c", "", "TOML composition file")
	flag.DurationVarP(&flagPosition, "position", "p", 0, "Start position")
	flag.DurationVarP(&flagBufferAhead, "buffer-ahead", "b", media.DefaultBufferAhead, "Buffer-ahead window")
	flag.DurationVarP(&flagInterval, "interval", "i", 100*time.Millisecond, "Polling interval")
	flag.StringVarP(&flagListen, "listen", "l", "", "Websocket status address")
	flag.StringVar(&flagLogLevel, "log-level", "", "Logging directives")
	flag.BoolVarP(&flagQuiet, "quiet", "q", false, "Do not print progress")

	flag.BoolVarP(&flagHelp, "help", "h", false, "Print usage information and exit")
	flag.BoolVarP(&flagVersion, "version", "v", false, "Print version information and exit")
}

// loadConfig merges the configuration file with command line flags. Flags
// take precedence.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flag.NArg() > 0 {
		cfg.Sources = flag.Args()
	}
	if flag.CommandLine.Changed("position") {
		cfg.Position = config.Duration(flagPosition)
	}
	if flag.CommandLine.Changed("buffer-ahead") {
		cfg.BufferAhead = config.Duration(flagBufferAhead)
	}
	if flag.CommandLine.Changed("interval") {
		cfg.PollInterval = config.Duration(flagInterval)
	}
	if flag.CommandLine.Changed("listen") {
		cfg.Listen = flagListen
	}
	if flag.CommandLine.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	return cfg, cfg.Validate()
}

func main() {
	flag.Parse()

	if flagHelp {
		help()
		os.Exit(0)
	}
	if flagVersion {
		version()
		os.Exit(0)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "multisourced:", err)
		os.Exit(2)
	}
	if cfg.LogLevel != "" {
		if err := logging.Configure(cfg.LogLevel); err != nil {
			log.Warn("Ignoring log level: %v", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	err = run(ctx, cfg)
	cancel()
	if err != nil && err != context.Canceled {
		log.Error("%v", err)
		os.Exit(1)
	}
}

// run plays the configured composition until it ends or ctx is done.
func run(ctx context.Context, cfg *config.Config) error {
	media.BufferAhead = time.Duration(cfg.BufferAhead)

	src, err := media.OpenMulti(cfg.Sources...)
	if err != nil {
		return err
	}

	var hub *status.Hub
	if cfg.Listen != "" {
		hub = status.NewHub()
		defer hub.Close()
		go func() {
			log.Info("Serving status on %s", cfg.Listen)
			if err := http.ListenAndServe(cfg.Listen, hub); err != nil {
				log.Error("Status server: %v", err)
			}
		}()
	}

	driver := &playback.Driver{
		Source:     src,
		Start:      time.Duration(cfg.Position),
		Interval:   time.Duration(cfg.PollInterval),
		OnPrepared: printTrackGroups,
		Observe: func(s playback.Status) {
			if !flagQuiet {
				printStatus(s)
			}
			if hub != nil {
				if err := hub.Publish(s); err != nil {
					log.Warn("Publish status: %v", err)
				}
			}
		},
	}
	return driver.Run(ctx)
}

func printTrackGroups(src multisource.SampleSource) {
	heading := color.New(color.FgYellow)
	groups := src.TrackGroups()
	heading.Printf("%d track groups, duration %v\n", groups.Len(), src.Duration())
	for i := 0; i < groups.Len(); i++ {
		g := groups.Get(i)
		for j := 0; j < g.Len(); j++ {
			fmt.Printf("  %2d.%d  %v\n", i, j, g.Format(j))
		}
	}
}

func printStatus(s playback.Status) {
	progress := color.New(color.FgCyan)
	progress.Printf("\r%-12v", s.Position)
	fmt.Printf(" buffered %-14v samples %v", s.Buffered, s.Samples)
	if s.Done {
		fmt.Println()
	}
}
