// Command plant runs the simulated chemical reactor and serves its samples over TCP.
//
// Configuration is read from the TOML file named by PLANT_CONFIG, when set. PLANT_HOST, PLANT_PORT
// and LOG_LEVEL override the file. ENV=development switches to console logs.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arloliu/go-plantnet/config"
	"github.com/arloliu/go-plantnet/httpapi"
	"github.com/arloliu/go-plantnet/logger"
	"github.com/arloliu/go-plantnet/plant"
	"github.com/arloliu/go-plantnet/process"
)

var log logger.Logger

func stateChangeHandler(prevState plant.State, newState plant.State) {
	log.Info("plant state changed", "prevState", prevState, "newState", newState)
}

func applyEnv(cfg *config.Plant) {
	if val := os.Getenv("PLANT_HOST"); val != "" {
		cfg.Host = val
	}
	if val := os.Getenv("PLANT_PORT"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Port = n
		}
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Log.Level = val
	}
}

func main() {
	cfg, err := config.LoadPlant(os.Getenv("PLANT_CONFIG"))
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", "error", err)
	}

	level, _ := cfg.Log.LogLevel()
	log = logger.NewSlog(level, cfg.Log.AddSource)

	engineOpts, err := cfg.EngineOptions()
	if err != nil {
		log.Fatal("invalid process config", "error", err)
	}

	pcfg, err := plant.NewConfig(cfg.Host, cfg.Port, cfg.ConnOptions(log)...)
	if err != nil {
		log.Fatal("failed to create plant config", "error", err)
	}

	srv, err := plant.NewServer(pcfg, process.NewEngine(engineOpts...))
	if err != nil {
		log.Fatal("failed to create plant server", "error", err)
	}
	srv.AddStateHandler(stateChangeHandler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Listen(ctx); err != nil {
		log.Fatal("failed to listen", "address", pcfg.Address(), "error", err)
	}

	if cfg.MetricsAddr != "" {
		serveMetrics(ctx, srv, cfg.MetricsAddr)
	}

	serveDone := make(chan struct{})
	go func() {
		defer close(serveDone)
		if err := srv.Serve(ctx); err != nil && !errors.Is(err, plant.ErrServerClosed) {
			log.Error("plant server stopped", "error", err)
		}
	}()

	exitSig := make(chan os.Signal, 1)
	signal.Notify(exitSig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-exitSig:
		log.Info("exit signal received")
	case <-serveDone:
	}

	cancel()
	_ = srv.Close()
	<-serveDone

	log.Info("shutdown finished")
}

func serveMetrics(ctx context.Context, srv *plant.Server, addr string) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := srv.RegisterMetrics(reg); err != nil {
		log.Fatal("failed to register metrics", "error", err)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal("failed to listen for metrics", "address", addr, "error", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	go func() {
		log.Info("metrics listening", "address", ln.Addr().String())
		if err := httpapi.Serve(ctx, ln, mux, 5*time.Second); err != nil {
			log.Error("metrics server stopped", "error", err)
		}
	}()
}
