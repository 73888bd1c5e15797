// Command analyzer monitors a plant: it decodes the sample frames, derives latency, jitter and frame
// counters, keeps a bounded history and serves all of it over HTTP.
//
// Configuration is read from the TOML file named by ANALYZER_CONFIG, when set. PLANT_HOST,
// PLANT_PORT, HTTP_ADDR and LOG_LEVEL override the file. ENV=development switches to console logs.
package main

import (
	"context"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/arloliu/go-plantnet/analyzer"
	"github.com/arloliu/go-plantnet/config"
	"github.com/arloliu/go-plantnet/httpapi"
	"github.com/arloliu/go-plantnet/logger"
)

var log logger.Logger

func applyEnv(cfg *config.Analyzer) {
	if val := os.Getenv("PLANT_HOST"); val != "" {
		cfg.Host = val
	}
	if val := os.Getenv("PLANT_PORT"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Port = n
		}
	}
	if val := os.Getenv("HTTP_ADDR"); val != "" {
		cfg.HTTP.Addr = val
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Log.Level = val
	}
}

func main() {
	cfg, err := config.LoadAnalyzer(os.Getenv("ANALYZER_CONFIG"))
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", "error", err)
	}

	level, _ := cfg.Log.LogLevel()
	log = logger.NewSlog(level, cfg.Log.AddSource)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sinks, err := cfg.Sinks(ctx)
	if err != nil {
		log.Warn("sinks disabled", "error", err)
		sinks = nil
	}

	acfg, err := analyzer.NewConfig(cfg.Host, cfg.Port, cfg.ConnOptions(log, sinks...)...)
	if err != nil {
		log.Fatal("failed to create analyzer config", "error", err)
	}

	client, err := analyzer.NewClient(acfg)
	if err != nil {
		log.Fatal("failed to create analyzer", "error", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := client.RegisterMetrics(reg); err != nil {
		log.Fatal("failed to register metrics", "error", err)
	}

	if cfg.AutoConnect {
		if err := client.Connect(ctx); err != nil {
			log.Warn("initial connect failed, use POST /api/v1/connect to retry", "error", err)
		}
	}

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		_ = client.Run(ctx)
	}()

	go reportRefresh(ctx, client)

	ln, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		log.Fatal("failed to listen for http", "address", cfg.HTTP.Addr, "error", err)
	}

	opts := []httpapi.Option{
		httpapi.WithLogger(log),
		httpapi.WithGatherer(reg),
		httpapi.WithAllowedOrigins(cfg.HTTP.AllowedOrigins...),
	}
	if !cfg.HTTP.AccessLog {
		opts = append(opts, httpapi.WithAccessLog(io.Discard))
	}

	httpDone := make(chan struct{})
	go func() {
		defer close(httpDone)
		log.Info("http api listening", "address", ln.Addr().String())
		if err := httpapi.Serve(ctx, ln, httpapi.NewHandler(client, opts...), 5*time.Second); err != nil {
			log.Error("http api stopped", "error", err)
		}
	}()

	exitSig := make(chan os.Signal, 1)
	signal.Notify(exitSig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	<-exitSig

	log.Info("exit signal received")

	cancel()
	<-runDone
	<-httpDone
	if err := client.Close(); err != nil {
		log.Warn("close analyzer", "error", err)
	}

	log.Info("shutdown finished")
}

// reportRefresh logs a metrics summary on every refresh signal.
func reportRefresh(ctx context.Context, client *analyzer.Client) {
	refresh, unsubscribe := client.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case <-refresh:
			m := client.Metrics()
			log.Debug("sample received",
				"frames", m.Frames,
				"errors", m.Errors,
				"incomplete", m.Incomplete,
				"mean_latency_ms", float64(m.MeanLatency)/float64(time.Millisecond),
				"mean_jitter_ms", float64(m.MeanJitter)/float64(time.Millisecond),
			)
		}
	}
}
