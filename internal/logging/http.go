package logging

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// RequestFormatter writes chi access logs through logrus.
type RequestFormatter struct {
	Logger logrus.FieldLogger
}

// RequestLogger is chi's RequestLogger backed by l.
func RequestLogger(l logrus.FieldLogger) func(http.Handler) http.Handler {
	return chimw.RequestLogger(&RequestFormatter{Logger: l})
}

func (f *RequestFormatter) NewLogEntry(r *http.Request) chimw.LogEntry {
	fields := logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"remote": r.RemoteAddr,
	}
	if id := chimw.GetReqID(r.Context()); id != "" {
		fields["request_id"] = id
	}
	return &requestEntry{log: f.Logger.WithFields(fields)}
}

type requestEntry struct {
	log logrus.FieldLogger
}

func (e *requestEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ any) {
	entry := e.log.WithFields(logrus.Fields{
		"status":     status,
		"bytes":      bytes,
		"elapsed_ms": float64(elapsed.Microseconds()) / 1000,
	})
	switch {
	case status >= 500:
		entry.Error("request")
	case status >= 400:
		entry.Warn("request")
	default:
		entry.Info("request")
	}
}

func (e *requestEntry) Panic(v any, stack []byte) {
	e.log.WithFields(logrus.Fields{"panic": v, "stack": string(stack)}).Error("request panicked")
}
