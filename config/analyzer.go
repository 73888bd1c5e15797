package config

import (
	"context"
	"time"

	"github.com/arloliu/go-plantnet/analyzer"
	"github.com/arloliu/go-plantnet/logger"
	"github.com/arloliu/go-plantnet/sink"
)

// Analyzer configures the analyzer binary.
type Analyzer struct {
	Name         string   `toml:"name"`
	Host         string   `toml:"host"`
	Port         int      `toml:"port"`
	DialTimeout  Duration `toml:"dial_timeout"`
	RecvTimeout  Duration `toml:"recv_timeout"`
	IdleInterval Duration `toml:"idle_interval"`
	WriteTimeout Duration `toml:"write_timeout"`
	HistorySize  int      `toml:"history_size"`
	WindowSize   int      `toml:"window_size"`
	SinkTimeout  Duration `toml:"sink_timeout"`

	// AutoConnect connects once at startup. Later reconnections are explicit.
	AutoConnect bool `toml:"auto_connect"`

	HTTP  HTTP  `toml:"http"`
	Redis Redis `toml:"redis"`
	Kafka Kafka `toml:"kafka"`
	Log   Log   `toml:"log"`
}

// HTTP configures the HTTP API of the analyzer.
type HTTP struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
	AccessLog      bool     `toml:"access_log"`
}

// Redis configures the Redis sink.
type Redis struct {
	Enabled  bool     `toml:"enabled"`
	Addr     string   `toml:"addr"`
	Password string   `toml:"password"`
	DB       int      `toml:"db"`
	Prefix   string   `toml:"prefix"`
	TTL      Duration `toml:"ttl"`
}

// Kafka configures the Kafka sink.
type Kafka struct {
	Enabled bool     `toml:"enabled"`
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
}

// DefaultAnalyzer returns the default analyzer configuration.
func DefaultAnalyzer() Analyzer {
	return Analyzer{
		Name:         "reactor",
		Host:         analyzer.DefaultHost,
		Port:         analyzer.DefaultPort,
		DialTimeout:  Duration{time.Second},
		RecvTimeout:  Duration{100 * time.Millisecond},
		IdleInterval: Duration{10 * time.Millisecond},
		WriteTimeout: Duration{time.Second},
		HistorySize:  analyzer.DefaultHistorySize,
		WindowSize:   analyzer.DefaultHistorySize,
		SinkTimeout:  Duration{500 * time.Millisecond},
		AutoConnect:  true,
		HTTP:         HTTP{Addr: "127.0.0.1:8080", AccessLog: true},
		Redis:        Redis{Addr: "127.0.0.1:6379", Prefix: "plantnet", TTL: Duration{time.Hour}},
		Kafka:        Kafka{Brokers: []string{"127.0.0.1:9092"}, Topic: "plantnet.samples"},
		Log:          Log{Level: "info"},
	}
}

// LoadAnalyzer reads the analyzer configuration at path on top of the defaults. An empty path
// returns the defaults.
func LoadAnalyzer(path string) (Analyzer, error) {
	cfg := DefaultAnalyzer()
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Analyzer{}, err
		}
	}

	return cfg, cfg.Validate()
}

// Validate checks the values that the analyzer options do not check themselves.
func (a Analyzer) Validate() error {
	if a.Host == "" {
		return invalid("host is empty")
	}
	if a.Port < 1 || a.Port > 65535 {
		return invalid("port %d out of range", a.Port)
	}
	if _, err := a.Log.LogLevel(); err != nil {
		return invalid("log level: %v", err)
	}
	if a.Redis.Enabled && a.Redis.Addr == "" {
		return invalid("redis.addr is empty")
	}
	if a.Kafka.Enabled && (len(a.Kafka.Brokers) == 0 || a.Kafka.Topic == "") {
		return invalid("kafka needs brokers and a topic")
	}

	return nil
}

// ConnOptions converts a to analyzer client options.
func (a Analyzer) ConnOptions(l logger.Logger, sinks ...sink.Sink) []analyzer.ConnOption {
	opts := []analyzer.ConnOption{
		analyzer.WithName(a.Name),
		analyzer.WithDialTimeout(a.DialTimeout.Duration),
		analyzer.WithRecvTimeout(a.RecvTimeout.Duration),
		analyzer.WithIdleInterval(a.IdleInterval.Duration),
		analyzer.WithWriteTimeout(a.WriteTimeout.Duration),
		analyzer.WithHistorySize(a.HistorySize),
		analyzer.WithWindowSize(a.WindowSize),
		analyzer.WithSinkTimeout(a.SinkTimeout.Duration),
		analyzer.WithLogger(l),
	}
	if len(sinks) > 0 {
		opts = append(opts, analyzer.WithSinks(sinks...))
	}

	return opts
}

// Sinks creates the enabled sinks. On error, the sinks created so far are closed.
func (a Analyzer) Sinks(ctx context.Context) ([]sink.Sink, error) {
	var sinks []sink.Sink

	if a.Redis.Enabled {
		s, err := sink.NewRedisSink(ctx, sink.RedisOptions{
			Addr:        a.Redis.Addr,
			Password:    a.Redis.Password,
			DB:          a.Redis.DB,
			Prefix:      a.Redis.Prefix,
			TTL:         a.Redis.TTL.Duration,
			HistorySize: a.HistorySize,
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}

	if a.Kafka.Enabled {
		s, err := sink.NewKafkaSink(sink.KafkaOptions{Brokers: a.Kafka.Brokers, Topic: a.Kafka.Topic})
		if err != nil {
			for _, s := range sinks {
				_ = s.Close()
			}
			return nil, err
		}
		sinks = append(sinks, s)
	}

	return sinks, nil
}
