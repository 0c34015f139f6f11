// Command pitchprobe estimates the vocal register of an audio stream.
//
// Usage:
//
//	pitchprobe [flags]
//
// Audio comes from raw mono PCM (-input, "-" for stdin) or from a synthetic
// tone sequence (-tone). One table row is printed per tick.
//
// Examples:
//
//	pitchprobe -tone 110,0,220 -hold 5
//	pitchprobe -method spectral -tone 300 -ticks 10
//	ffmpeg -i voice.wav -f f32le -ac 1 -ar 44100 - | pitchprobe -input -
//	pitchprobe -config pitch.yaml -input voice.s16 -format s16le -reply "hola que tal"
//	pitchprobe -tone 140 -noise 0.05 -ticks 600 -metrics :9464
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-pitch/internal/config"
	"github.com/cwbudde/algo-pitch/internal/observe"
	"github.com/cwbudde/algo-pitch/measure/register"
	"github.com/cwbudde/algo-pitch/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	configPath string
	method     string
	tone       string
	hold       int
	harmonics  int
	amplitude  float64
	noise      float64
	input      string
	format     string
	rate       float64
	frame      int
	ticks      int
	interval   time.Duration
	reply      string
	metrics    string
	verbose    bool
}

func parseFlags(args []string, stderr io.Writer) (*options, map[string]bool, error) {
	fs := flag.NewFlagSet("pitchprobe", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&o.method, "method", "", "estimator: autocorrelation or spectral")
	fs.StringVar(&o.tone, "tone", "", "comma-separated tone sequence in Hz (0 = silence)")
	fs.IntVar(&o.hold, "hold", 1, "ticks each tone of -tone is held")
	fs.IntVar(&o.harmonics, "harmonics", 1, "harmonics per synthetic tone")
	fs.Float64Var(&o.amplitude, "amplitude", 0.5, "synthetic tone amplitude")
	fs.Float64Var(&o.noise, "noise", 0, "white noise amplitude added to the synthetic tone")
	fs.StringVar(&o.input, "input", "", "raw mono PCM file, - for stdin")
	fs.StringVar(&o.format, "format", "f32le", "PCM sample format: f32le or s16le")
	fs.Float64Var(&o.rate, "rate", 0, "sample rate in Hz (overrides config)")
	fs.IntVar(&o.frame, "frame", 0, "frame size in samples (overrides config)")
	fs.IntVar(&o.ticks, "ticks", 0, "stop after this many ticks (0 = until input ends)")
	fs.DurationVar(&o.interval, "interval", 0, "polling interval (overrides config)")
	fs.StringVar(&o.reply, "reply", "", "print synthesis settings for this reply text at the end")
	fs.StringVar(&o.metrics, "metrics", "", "serve Prometheus metrics on this address (overrides config)")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pitchprobe [flags]\n\n")
		fmt.Fprintf(stderr, "Estimates pitch and vocal register from PCM audio or a synthetic tone.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  pitchprobe -tone 110,0,220 -hold 5\n")
		fmt.Fprintf(stderr, "  pitchprobe -method spectral -tone 300 -ticks 10\n")
		fmt.Fprintf(stderr, "  pitchprobe -input voice.f32 -rate 48000\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return o, set, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	o, set, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(o, set)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	logger := cfg.Logger(stderr)

	capture, input, err := buildCapture(o, cfg, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if input != nil {
		// The stream closes the file once it has been opened; this covers
		// the paths that fail before that.
		defer input.Close()
	}

	if err := probe(ctx, o, cfg, capture, logger, stdout); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func loadConfig(o *options, set map[string]bool) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if set["method"] {
		cfg.Method = o.method
	}
	if set["rate"] {
		cfg.Capture.SampleRate = o.rate
	}
	if set["frame"] {
		cfg.Capture.FrameSize = o.frame
	}
	if set["interval"] {
		cfg.Capture.Interval = o.interval
	}
	if set["metrics"] {
		cfg.Metrics.Listen = o.metrics
	}
	if o.verbose {
		cfg.Log.Level = config.LogDebug
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildCapture returns the capture source and, for -input files, the
// opened file so the caller can release it.
func buildCapture(o *options, cfg *config.Config, stdin io.Reader) (session.Capture, io.Closer, error) {
	switch {
	case o.input != "" && o.tone != "":
		return nil, nil, errors.New("-input and -tone are mutually exclusive")
	case o.input != "":
		format, err := session.ParseFormat(o.format)
		if err != nil {
			return nil, nil, err
		}
		if o.input == "-" {
			return &session.ReaderCapture{R: stdin, Rate: cfg.Capture.SampleRate, Fmt: format}, nil, nil
		}
		f, err := os.Open(o.input)
		if err != nil {
			return nil, nil, fmt.Errorf("open input: %w", err)
		}
		return &session.ReaderCapture{R: f, Rate: cfg.Capture.SampleRate, Fmt: format}, f, nil
	default:
		seq, err := parseSequence(o.tone)
		if err != nil {
			return nil, nil, err
		}
		return session.ToneCapture{
			Rate:       cfg.Capture.SampleRate,
			Sequence:   seq,
			HoldFrames: o.hold,
			Amplitude:  o.amplitude,
			Noise:      o.noise,
			Harmonics:  o.harmonics,
			Loop:       o.ticks > 0,
		}, nil, nil
	}
}

func parseSequence(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return []float64{110, 0, 220}, nil
	}

	var seq []float64
	for _, part := range strings.Split(s, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("invalid tone %q", part)
		}
		seq = append(seq, f)
	}
	return seq, nil
}

// probe runs the session and the table printer side by side.
func probe(ctx context.Context, o *options, cfg *config.Config, capture session.Capture, logger *slog.Logger, stdout io.Writer) error {
	est, err := cfg.Estimator()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan session.Update, 16)

	var (
		provider *observe.Provider
		metrics  *session.Metrics
	)
	if cfg.Metrics.Listen != "" {
		provider, err = observe.InitProvider(ctx, observe.ProviderConfig{})
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		defer provider.Shutdown(context.Background())

		if metrics, err = session.NewMetrics(provider.MeterProvider); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	s, err := session.New(capture,
		session.WithEstimator(est),
		session.WithRegister(cfg.RegisterConfig()),
		session.WithCadence(cfg.Cadence()),
		session.WithFrameSize(cfg.Capture.FrameSize),
		session.WithLogger(logger),
		metricsOption(metrics),
		session.OnUpdate(func(u session.Update) {
			select {
			case updates <- u:
			case <-ctx.Done():
			}
			if o.ticks > 0 && u.Tick >= uint64(o.ticks) {
				cancel()
			}
		}),
	)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	sessionDone := make(chan struct{})

	g.Go(func() error {
		defer close(sessionDone)
		defer close(updates)
		err := s.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TICK\tFREQ (Hz)\tLAG\tBIN\tLEVEL\tSTATUS\tLABEL")
		for u := range updates {
			printUpdate(tw, u)
		}
		return tw.Flush()
	})

	if provider != nil {
		g.Go(func() error {
			return serveMetrics(cfg.Metrics.Listen, provider, logger, sessionDone)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	label := s.Label()
	fmt.Fprintf(stdout, "final label: %s (%s)\n", label, label.Gender())

	if o.reply != "" {
		u := register.Reply(o.reply, label)
		fmt.Fprintf(stdout, "reply: %q words=%d pitch=%.1f rate=%.1f volume=%.1f lang=%s\n",
			u.Text, u.Words, u.Pitch, u.Rate, u.Volume, u.Lang)
	}
	return nil
}

func metricsOption(m *session.Metrics) session.Option {
	if m == nil {
		return nil
	}
	return session.WithMetrics(m)
}

// serveMetrics exposes the provider on addr until done is closed.
func serveMetrics(addr string, p *observe.Provider, logger *slog.Logger, done <-chan struct{}) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("serving metrics", "addr", addr)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-done:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func printUpdate(w io.Writer, u session.Update) {
	e := u.Estimate

	freq := "-"
	if e.Voiced || e.Frequency > 0 {
		freq = strconv.FormatFloat(e.Frequency, 'f', 2, 64)
	}

	status := "voiced"
	if !e.Voiced {
		status = e.Reason.String()
	}

	label := u.Label.Gender()
	if u.Changed {
		label += " *"
	}

	fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%.4f\t%s\t%s\n", u.Tick, freq, e.Lag, e.Bin, e.Level, status, label)
}
