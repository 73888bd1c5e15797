package httpapi

import (
	"bytes"

	"github.com/arloliu/go-plantnet/logger"
)

// logWriter turns access log lines into info logs.
type logWriter struct {
	logger logger.Logger
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.logger.Info("http access", "line", string(bytes.TrimRight(p, "\n")))
	return len(p), nil
}

// recoveryLogger adapts Logger to handlers.RecoveryHandlerLogger.
type recoveryLogger struct {
	logger logger.Logger
}

func (l *recoveryLogger) Println(v ...any) {
	l.logger.Error("http handler panic", "panic", v)
}
