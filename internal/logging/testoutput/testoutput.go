package testoutput

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/tamzrod/lanwatch/internal/logging"
)

// New returns a writer that writes strings (assuming lines) to the testing
// logger.
func New(t testing.TB) io.Writer {
	return &testoutput{t}
}

// Logger returns a component logger whose output is interlaced with the test
// output. Each call builds a private logrus.Logger so parallel tests do not
// share a sink.
func Logger(t testing.TB, component string) logging.Logger {
	l := logrus.New()
	l.SetOutput(New(t))
	l.SetLevel(logrus.DebugLevel)
	return l.WithField("component", component)
}

type testoutput struct {
	t testing.TB
}

func (l *testoutput) Write(p []byte) (n int, err error) {
	l.t.Logf("%s", p)
	return len(p), nil
}
