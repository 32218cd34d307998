// Host clock tool

package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/mmcloughlin/profile"
	"github.com/pelletier/go-toml/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/hostclock/base/logbase"
	"example.com/hostclock/base/timebase"

	"example.com/hostclock/benchmark"

	"example.com/hostclock/core/calibration"
	ctimebase "example.com/hostclock/core/timebase"

	"example.com/hostclock/driver/clocks"

	"example.com/hostclock/service"
)

const (
	logLevelQuiet = iota
	logLevelDefault
	logLevelVerbose

	sourceProcess = "process"
	sourceOS      = "os"

	defaultTickWidth           = 64
	defaultBenchmarkGoroutines = 8
	defaultBenchmarkReads      = 100_000
	defaultHeadroomThreshold   = 24 * time.Hour
	defaultWatchInterval       = 10 * time.Second
)

type svcConfig struct {
	TickWidth            int     `toml:"tick_width,omitempty"` // 32 or 64
	ScalingNumerator     uint64  `toml:"scaling_numerator,omitempty"`
	ScalingDenominator   uint64  `toml:"scaling_denominator,omitempty"`
	Source               string  `toml:"source,omitempty"`
	LocalMetricsAddr     string  `toml:"local_metrics_address,omitempty"`
	BenchmarkGoroutines  int     `toml:"benchmark_goroutines,omitempty"`
	BenchmarkReads       int     `toml:"benchmark_reads,omitempty"`
	CalibrationSamples   int     `toml:"calibration_samples,omitempty"`
	CalibrationInterval  float64 `toml:"calibration_interval,omitempty"`
	CalibrationTolerance float64 `toml:"calibration_tolerance,omitempty"`
	HeadroomThreshold    float64 `toml:"headroom_threshold,omitempty"`
	WatchInterval        float64 `toml:"watch_interval,omitempty"`
}

func initLogger(logLevel int) {
	var h slog.Handler
	if logLevel == logLevelQuiet {
		h = slog.DiscardHandler
	} else {
		var (
			addSource   bool
			level       slog.Leveler
			replaceAttr func(groups []string, a slog.Attr) slog.Attr
		)
		if logLevel == logLevelVerbose {
			_, f, _, ok := runtime.Caller(0)
			var basepath string
			if ok {
				basepath = filepath.Dir(f)
			}
			addSource = true
			level = slog.LevelDebug
			replaceAttr = func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.SourceKey {
					source := a.Value.Any().(*slog.Source)
					if basepath == "" {
						source.File = filepath.Base(source.File)
					} else {
						relpath, err := filepath.Rel(basepath, source.File)
						if err != nil {
							source.File = filepath.Base(source.File)
						} else {
							source.File = relpath
						}
					}
				}
				return a
			}
		}
		h = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			AddSource:   addSource,
			Level:       level,
			ReplaceAttr: replaceAttr,
		})
	}
	slog.SetDefault(slog.New(h))
}

func showInfo() {
	bi, ok := debug.ReadBuildInfo()
	if ok {
		fmt.Print(bi.String())
	}
}

func runMonitor(cfg svcConfig) {
	if cfg.LocalMetricsAddr != "" {
		http.Handle("/metrics", promhttp.Handler())
		err := http.ListenAndServe(cfg.LocalMetricsAddr, nil)
		logbase.Fatal(slog.Default(), "failed to serve metrics", slog.Any("error", err))
	} else {
		select {}
	}
}

func decodeConfig(raw []byte) (svcConfig, error) {
	var cfg svcConfig
	err := toml.NewDecoder(bytes.NewReader(raw)).DisallowUnknownFields().Decode(&cfg)
	return cfg, err
}

func loadConfig(configFile string) svcConfig {
	if configFile == "" {
		return svcConfig{}
	}
	raw, err := os.ReadFile(configFile)
	if err != nil {
		logbase.Fatal(slog.Default(), "failed to load configuration", slog.Any("error", err))
	}
	cfg, err := decodeConfig(raw)
	if err != nil {
		logbase.Fatal(slog.Default(), "failed to decode configuration", slog.Any("error", err))
	}
	return cfg
}

func tickWidth(cfg svcConfig) int {
	switch cfg.TickWidth {
	case 0:
		return defaultTickWidth
	case 32, 64:
		return cfg.TickWidth
	}
	logbase.Fatal(slog.Default(), "invalid tick width specified in config",
		slog.Int("tick_width", cfg.TickWidth))
	return 0
}

func scalingFactor(cfg svcConfig) timebase.Fraction {
	if cfg.ScalingNumerator == 0 && cfg.ScalingDenominator == 0 {
		return timebase.Nanosecond
	}
	if cfg.ScalingNumerator == 0 || cfg.ScalingDenominator == 0 {
		logbase.Fatal(slog.Default(), "invalid scaling factor specified in config",
			slog.Uint64("scaling_numerator", cfg.ScalingNumerator),
			slog.Uint64("scaling_denominator", cfg.ScalingDenominator))
	}
	return timebase.NewFraction(cfg.ScalingNumerator, cfg.ScalingDenominator)
}

func source(cfg svcConfig) clocks.Source {
	switch cfg.Source {
	case "", sourceProcess:
		return clocks.NewProcessSource()
	case sourceOS:
		return clocks.NewOSSource()
	}
	logbase.Fatal(slog.Default(), "invalid clock source specified in config",
		slog.String("source", cfg.Source))
	return nil
}

func benchmarkConfig(cfg svcConfig) (numGoroutine, numRead int) {
	numGoroutine, numRead = cfg.BenchmarkGoroutines, cfg.BenchmarkReads
	if numGoroutine == 0 {
		numGoroutine = defaultBenchmarkGoroutines
	}
	if numRead == 0 {
		numRead = defaultBenchmarkReads
	}
	if numGoroutine < 0 || numRead < 0 {
		logbase.Fatal(slog.Default(), "invalid benchmark configuration specified in config")
	}
	return
}

func calibrationConfig(cfg svcConfig) (samples int, interval time.Duration, tolerance float64) {
	samples = cfg.CalibrationSamples
	if samples == 0 {
		samples = calibration.DefaultSamples
	}
	interval = calibration.DefaultInterval
	if cfg.CalibrationInterval != 0 {
		interval = time.Duration(cfg.CalibrationInterval * float64(time.Second))
	}
	tolerance = calibration.DefaultTolerance
	if cfg.CalibrationTolerance != 0 {
		tolerance = cfg.CalibrationTolerance
	}
	if samples < calibration.MinSamples || samples > calibration.MaxSamples ||
		interval < 0 || tolerance < 0 {
		logbase.Fatal(slog.Default(), "invalid calibration configuration specified in config")
	}
	return
}

func watchConfig(cfg svcConfig) (threshold, interval time.Duration) {
	threshold = defaultHeadroomThreshold
	if cfg.HeadroomThreshold != 0 {
		threshold = time.Duration(cfg.HeadroomThreshold * float64(time.Second))
	}
	interval = defaultWatchInterval
	if cfg.WatchInterval != 0 {
		interval = time.Duration(cfg.WatchInterval * float64(time.Second))
	}
	if threshold < 0 || interval <= 0 {
		logbase.Fatal(slog.Default(), "invalid watch configuration specified in config")
	}
	return
}

func newClock[T timebase.Ticks](cfg svcConfig, log *slog.Logger) *clocks.HostClock[T] {
	return clocks.NewCustomHostClock[T](log, source(cfg), scalingFactor(cfg))
}

func printNow[T timebase.Ticks](tryNow func() (timebase.Instant[T], error), scale timebase.Fraction, count int) {
	for range count {
		now, err := tryNow()
		if err != nil {
			logbase.Fatal(slog.Default(), "failed to read clock", slog.Any("error", err))
		}
		fmt.Printf("%d,%.9f\n", now.Ticks(), scale.Seconds(uint64(now.Ticks())))
	}
}

func runNow(configFile string, count int) {
	cfg := loadConfig(configFile)
	log := slog.Default()
	switch tickWidth(cfg) {
	case 32:
		clk := clocks.NewMeteredClock[uint32](newClock[uint32](cfg, log))
		printNow(clk.TryNow, clk.ScalingFactor(), count)
	case 64:
		ctimebase.RegisterClock(clocks.NewMeteredClock[uint64](newClock[uint64](cfg, log)))
		printNow(ctimebase.TryNow, ctimebase.ScalingFactor(), count)
	}
}

func runBenchmark(configFile string) {
	cfg := loadConfig(configFile)
	log := slog.Default()
	ctx := context.Background()
	numGoroutine, numRead := benchmarkConfig(cfg)
	switch tickWidth(cfg) {
	case 32:
		clk := clocks.NewMeteredClock[uint32](newClock[uint32](cfg, log))
		benchmark.RunHostClockBenchmark(ctx, log, clk, numGoroutine, numRead, os.Stdout)
	case 64:
		clk := clocks.NewMeteredClock[uint64](newClock[uint64](cfg, log))
		benchmark.RunHostClockBenchmark(ctx, log, clk, numGoroutine, numRead, os.Stdout)
	}
}

func calibrate[T timebase.Ticks](ctx context.Context, log *slog.Logger, clk timebase.Clock[T],
	samples int, interval time.Duration, tolerance float64) {
	r, err := calibration.Calibrate(ctx, log, clk, clocks.NewProcessSource(), samples, interval)
	if err != nil {
		logbase.FatalContext(ctx, log, "failed to calibrate clock", slog.Any("error", err))
	}
	fmt.Printf("%+.9f,%+.9f,%d\n", r.Slope, r.Intercept, r.Samples)
	err = r.Check(tolerance)
	if err != nil {
		logbase.FatalContext(ctx, log, "clock calibration failed", slog.Any("error", err))
	}
}

func runCalibrate(configFile string) {
	cfg := loadConfig(configFile)
	log := slog.Default()
	ctx := context.Background()
	samples, interval, tolerance := calibrationConfig(cfg)
	switch tickWidth(cfg) {
	case 32:
		calibrate(ctx, log, newClock[uint32](cfg, log), samples, interval, tolerance)
	case 64:
		calibrate(ctx, log, newClock[uint64](cfg, log), samples, interval, tolerance)
	}
}

func runWatch(configFile string) {
	cfg := loadConfig(configFile)
	log := slog.Default()
	ctx := context.Background()
	threshold, interval := watchConfig(cfg)
	switch tickWidth(cfg) {
	case 32:
		clk := newClock[uint32](cfg, log)
		service.StartHeadroomWatch(ctx, log, clocks.NewMeteredClock[uint32](clk), clk, threshold, interval)
	case 64:
		clk := newClock[uint64](cfg, log)
		service.StartHeadroomWatch(ctx, log, clocks.NewMeteredClock[uint64](clk), clk, threshold, interval)
	}
	runMonitor(cfg)
}

func exitWithUsage() {
	fmt.Println("<usage>")
	os.Exit(1)
}

func main() {
	var (
		quiet      bool
		verbose    bool
		configFile string
		count      int
	)

	infoFlags := flag.NewFlagSet("info", flag.ExitOnError)
	nowFlags := flag.NewFlagSet("now", flag.ExitOnError)
	benchmarkFlags := flag.NewFlagSet("benchmark", flag.ExitOnError)
	calibrateFlags := flag.NewFlagSet("calibrate", flag.ExitOnError)
	watchFlags := flag.NewFlagSet("watch", flag.ExitOnError)

	nowFlags.BoolVar(&quiet, "quiet", false, "Disable logging")
	nowFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")
	nowFlags.StringVar(&configFile, "config", "", "Config file")
	nowFlags.IntVar(&count, "n", 1, "Number of instants to print")

	benchmarkFlags.BoolVar(&quiet, "quiet", false, "Disable logging")
	benchmarkFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")
	benchmarkFlags.StringVar(&configFile, "config", "", "Config file")
	prof := profile.New(profile.CPUProfile, profile.MemProfile)
	prof.SetFlags(benchmarkFlags)

	calibrateFlags.BoolVar(&quiet, "quiet", false, "Disable logging")
	calibrateFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")
	calibrateFlags.StringVar(&configFile, "config", "", "Config file")

	watchFlags.BoolVar(&quiet, "quiet", false, "Disable logging")
	watchFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")
	watchFlags.StringVar(&configFile, "config", "", "Config file")

	logLevel := func() int {
		if quiet && verbose {
			exitWithUsage()
		}
		if quiet {
			return logLevelQuiet
		}
		if verbose {
			return logLevelVerbose
		}
		return logLevelDefault
	}

	if len(os.Args) < 2 {
		exitWithUsage()
	}

	switch os.Args[1] {
	case infoFlags.Name():
		err := infoFlags.Parse(os.Args[2:])
		if err != nil || infoFlags.NArg() != 0 {
			exitWithUsage()
		}
		showInfo()
	case nowFlags.Name():
		err := nowFlags.Parse(os.Args[2:])
		if err != nil || nowFlags.NArg() != 0 {
			exitWithUsage()
		}
		if count < 1 {
			exitWithUsage()
		}
		initLogger(logLevel())
		runNow(configFile, count)
	case benchmarkFlags.Name():
		err := benchmarkFlags.Parse(os.Args[2:])
		if err != nil || benchmarkFlags.NArg() != 0 {
			exitWithUsage()
		}
		initLogger(logLevel())
		defer prof.Start().Stop()
		runBenchmark(configFile)
	case calibrateFlags.Name():
		err := calibrateFlags.Parse(os.Args[2:])
		if err != nil || calibrateFlags.NArg() != 0 {
			exitWithUsage()
		}
		initLogger(logLevel())
		runCalibrate(configFile)
	case watchFlags.Name():
		err := watchFlags.Parse(os.Args[2:])
		if err != nil || watchFlags.NArg() != 0 {
			exitWithUsage()
		}
		if configFile == "" {
			exitWithUsage()
		}
		initLogger(logLevel())
		runWatch(configFile)
	default:
		exitWithUsage()
	}
}
