// internal/logging/logrus.go
package logging

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Setter mutates the root logger.
type Setter func(*logrus.Logger) error

var root = struct {
	logger *logrus.Logger
	mutex  *sync.Mutex
}{
	logger: func() *logrus.Logger {
		l := logrus.New()
		l.SetOutput(os.Stderr)
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
		return l
	}(),
	mutex: &sync.Mutex{},
}

// Logger is the logging contract every component receives.
type Logger interface {
	logrus.FieldLogger
}

// New returns a logger tagged with the owning component.
func New(component string, setters ...Setter) Logger {
	for _, setter := range setters {
		// no errors handling for now
		_ = Set(setter)
	}
	return root.logger.WithField("component", component)
}

// Set applies setter to the root logger.
func Set(setter Setter) error {
	root.mutex.Lock()
	err := setter(root.logger)
	root.mutex.Unlock()
	return err
}

// Level parses lvl and sets it on the root logger. Unknown levels fall back
// to info.
func Level(lvl string) Setter {
	l, err := logrus.ParseLevel(lvl)
	if err != nil {
		root.logger.WithError(err).Errorf("unable to parse provided level %q", lvl)
		l = logrus.InfoLevel
	}
	return func(r *logrus.Logger) error {
		r.SetLevel(l)
		return nil
	}
}

// Format selects "json" or "text" output.
func Format(format string) Setter {
	return func(r *logrus.Logger) error {
		switch format {
		case "json":
			r.SetFormatter(&logrus.JSONFormatter{})
		default:
			r.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		}
		return nil
	}
}
