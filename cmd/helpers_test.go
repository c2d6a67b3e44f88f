package cmd

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"evalgo.org/contentupgrade/internal/config"
	"evalgo.org/contentupgrade/internal/logging"
)

func TestMain(m *testing.M) {
	logging.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// testConfig returns the default configuration with the journal in a temp dir.
func testConfig(t *testing.T, mutate func(v *viper.Viper)) *config.Config {
	t.Helper()

	v := viper.New()
	config.SetDefaults(v)
	v.Set("journal.dir", t.TempDir())
	if mutate != nil {
		mutate(v)
	}

	cfg, err := config.Load(v)
	require.NoError(t, err)
	return cfg
}

// newTestServer wires an app and its echo instance from cfg.
func newTestServer(t *testing.T, cfg *config.Config) (*app, *echo.Echo) {
	t.Helper()

	a, err := newApp(cfg, quietLogger(), true)
	require.NoError(t, err)

	e := newServer(a)
	e.Logger.SetOutput(io.Discard)
	return a, e
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// doRequest performs a request against e and returns the recorder.
func doRequest(e *echo.Echo, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func statusText(rec *httptest.ResponseRecorder) string {
	return http.StatusText(rec.Code) + ": " + rec.Body.String()
}
