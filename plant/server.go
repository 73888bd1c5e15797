package plant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/arloliu/go-plantnet/frame"
	"github.com/arloliu/go-plantnet/internal/pool"
	"github.com/arloliu/go-plantnet/logger"
	"github.com/arloliu/go-plantnet/process"
)

// Server publishes the samples of a process engine to one TCP client at a time and applies the
// commands it receives.
type Server struct {
	cfg    *Config
	logger logger.Logger

	engineMu sync.Mutex
	engine   *process.Engine

	listenerMutex sync.Mutex
	listener      net.Listener

	connMutex sync.Mutex
	conn      net.Conn

	stateMgr stateMgr
	metrics  Metrics
	shutdown atomic.Bool
}

// NewServer creates a server that drives engine with the parameters of cfg.
func NewServer(cfg *Config, engine *process.Engine) (*Server, error) {
	if cfg == nil {
		return nil, ErrConnConfigNil
	}
	if engine == nil {
		return nil, ErrEngineNil
	}

	cfg.mu.RLock()
	l := cfg.logger
	cfg.mu.RUnlock()

	return &Server{
		cfg:    cfg,
		engine: engine,
		logger: l.With("process", cfg.Name()),
	}, nil
}

// Listen binds the listen socket. A bind failure is returned as is.
func (s *Server) Listen(ctx context.Context) error {
	s.listenerMutex.Lock()
	defer s.listenerMutex.Unlock()

	if s.listener != nil {
		return nil
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.cfg.Address())
	if err != nil {
		return err
	}
	s.listener = listener
	s.logger.Info("plant listening", "address", listener.Addr().String())
	s.stateMgr.to(ListeningState)

	return nil
}

// ListenAndServe binds the listen socket and runs Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(ctx); err != nil {
		return err
	}

	return s.Serve(ctx)
}

// Serve runs the accept and serve loop until ctx is done or Close is called.
//
// It returns nil when ctx is done, ErrServerClosed after Close.
func (s *Server) Serve(ctx context.Context) error {
	if s.getListener() == nil {
		return ErrNotListening
	}
	defer s.stateMgr.to(StoppedState)

	for {
		if s.shutdown.Load() {
			return ErrServerClosed
		}
		if ctx.Err() != nil {
			return nil
		}

		s.stateMgr.to(AwaitingClientState)

		conn, err := s.accept()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if s.shutdown.Load() {
				return ErrServerClosed
			}

			s.logger.Error("failed to accept connection", "method", "Serve", "error", err)
			if pool.Sleep(ctx, s.cfg.acceptErrorBackoff) != nil {
				return nil
			}

			continue
		}

		s.serveSession(ctx, conn)
	}
}

// Close stops the server: the listen socket and the current client connection are closed and
// Serve returns ErrServerClosed.
func (s *Server) Close() error {
	if !s.shutdown.CompareAndSwap(false, true) {
		return nil
	}

	s.connMutex.Lock()
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.connMutex.Unlock()

	s.listenerMutex.Lock()
	defer s.listenerMutex.Unlock()
	if s.listener == nil {
		s.stateMgr.to(StoppedState)
		return nil
	}

	return s.listener.Close()
}

// Addr returns the bound listen address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if l := s.getListener(); l != nil {
		return l.Addr()
	}

	return nil
}

// State returns the current server state.
func (s *Server) State() State {
	return s.stateMgr.State()
}

// AddStateHandler registers handlers invoked on every state change.
func (s *Server) AddStateHandler(handlers ...StateChangeHandler) {
	s.stateMgr.AddHandler(handlers...)
}

// Metrics returns the server metrics.
func (s *Server) Metrics() *Metrics {
	return &s.metrics
}

// Actuators returns the current actuator states of the engine, keyed by wire name.
func (s *Server) Actuators() map[string]bool {
	s.engineMu.Lock()
	defer s.engineMu.Unlock()

	return s.engine.Actuators()
}

// Faulted reports whether the sensor of v is faulted.
func (s *Server) Faulted(v process.Variable) bool {
	s.engineMu.Lock()
	defer s.engineMu.Unlock()

	sensor := s.engine.Sensor(v)
	return sensor != nil && sensor.Faulted()
}

func (s *Server) getListener() net.Listener {
	s.listenerMutex.Lock()
	defer s.listenerMutex.Unlock()

	return s.listener
}

// accept waits for one client for at most the accept timeout.
func (s *Server) accept() (net.Conn, error) {
	listener := s.getListener()
	if listener == nil {
		return nil, net.ErrClosed
	}

	if dl, ok := listener.(interface{ SetDeadline(time.Time) error }); ok {
		if err := dl.SetDeadline(time.Now().Add(s.cfg.acceptTimeout)); err != nil {
			s.logger.Error("failed to set deadline for listener", "method", "accept", "error", err)
		}
	}

	return listener.Accept()
}

func (s *Server) serveSession(ctx context.Context, conn net.Conn) {
	sessionID := uuid.NewString()
	log := s.logger.With("session", sessionID, "remote_address", conn.RemoteAddr().String())

	s.connMutex.Lock()
	s.conn = conn
	s.connMutex.Unlock()

	defer func() {
		s.connMutex.Lock()
		s.conn = nil
		s.connMutex.Unlock()
		_ = conn.Close()
		s.metrics.resetConnRetryGauge()
		log.Info("session closed")
	}()

	s.metrics.incSessionCount()
	s.stateMgr.to(ServingState)
	log.Info("client connected")

	reader := frame.NewReader(conn)
	errCount := 0

	for ctx.Err() == nil && !s.shutdown.Load() {
		start := time.Now()

		err := s.cycle(conn, reader, log)
		if err != nil {
			errCount++
			s.metrics.incConnErrCount()
			s.metrics.incConnRetryGauge()

			if errCount > s.cfg.maxRetries {
				log.Warn("too many consecutive connection errors, dropping session",
					"method", "serveSession", "error", err, "errors", errCount)
				return
			}

			log.Warn("connection error, retrying", "method", "serveSession", "error", err, "attempt", errCount)
			if pool.Sleep(ctx, s.cfg.retryBackoff) != nil {
				return
			}

			continue
		}

		if errCount > 0 {
			errCount = 0
			s.metrics.resetConnRetryGauge()
		}

		if pool.Sleep(ctx, s.cfg.cyclePeriod-time.Since(start)) != nil {
			return
		}
	}
}

// cycle advances the engine, sends one sample frame and polls for one command frame.
// Only connection errors are returned.
func (s *Server) cycle(conn net.Conn, reader *frame.Reader, log logger.Logger) error {
	s.engineMu.Lock()
	sample := s.engine.Advance(s.cfg.cyclePeriod)
	s.engineMu.Unlock()

	data, err := frame.EncodeSample(sample)
	if err != nil {
		// samples built by the engine always encode
		log.Error("failed to encode sample", "method", "cycle", "error", err)
		return nil
	}

	if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.writeTimeout)); err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	n, err := conn.Write(data)
	if err != nil {
		return fmt.Errorf("%w: write: %w", ErrConnection, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: zero bytes written", ErrConnection)
	}
	s.metrics.incFrameSendCount()
	s.metrics.addByteSendCount(n)

	raw, err := reader.ReadFrame(s.cfg.commandTimeout)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil
		}
		if errors.Is(err, frame.ErrHeaderMismatch) {
			s.metrics.incCommandRejectedCount()
			log.Warn("dropped bytes to resynchronize on frame header", "method", "cycle", "error", err)

			return nil
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: closed by peer", ErrConnection)
		}

		return fmt.Errorf("%w: read: %w", ErrConnection, err)
	}

	s.handleCommand(raw, log)

	return nil
}

func (s *Server) handleCommand(raw []byte, log logger.Logger) {
	cmd, err := frame.DecodeCommand(raw)
	if err != nil {
		s.metrics.incCommandRejectedCount()
		log.Warn("invalid command frame", "method", "handleCommand", "error", err)

		return
	}

	s.engineMu.Lock()
	err = s.engine.Apply(cmd)
	s.engineMu.Unlock()

	if err != nil {
		s.metrics.incCommandRejectedCount()
		log.Warn("command rejected", "method", "handleCommand", "command", cmd.String(), "error", err)

		return
	}

	s.metrics.incCommandAppliedCount()
	log.Info("command applied", "command", cmd.String())
}
