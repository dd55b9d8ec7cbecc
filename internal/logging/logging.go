// Package logging configures the process logger and the HTTP access log.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing to stderr at level, formatted as "json" or
// "text".
func New(level, format string) (*logrus.Logger, error) {
	return NewWithOutput(level, format, os.Stderr)
}

func NewWithOutput(level, format string, out io.Writer) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetOutput(out)

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	l.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("log format %q: want json or text", format)
	}

	l.AddHook(&MaskHook{Fields: DefaultMaskedFields})
	return l, nil
}

// DefaultMaskedFields are field names whose values never reach the output.
var DefaultMaskedFields = []string{"password", "confirm_password", "validator", "token", "remember_me", "cookie"}

// MaskHook replaces the value of sensitive fields before an entry is written.
type MaskHook struct {
	Fields []string
}

func (h *MaskHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *MaskHook) Fire(e *logrus.Entry) error {
	for key := range e.Data {
		for _, f := range h.Fields {
			if strings.EqualFold(key, f) {
				e.Data[key] = "***"
				break
			}
		}
	}
	return nil
}
