package logger

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/RajshekharX12/as/internal/logger/config"
)

func TestNewZapLog(t *testing.T) {
	zl, err := NewZapLog(config.Config{LogLevel: "debug"})
	require.NoError(t, err)
	require.True(t, zl.Core().Enabled(zapcore.DebugLevel))

	_, err = NewZapLog(config.Config{LogLevel: "loud"})
	require.Error(t, err)

	_, err = NewZapLog(config.Config{LogLevel: "info", Encoding: "console"})
	require.NoError(t, err)
}

func TestRequestLogMdlw(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	zaplog := zap.New(core)

	h := RequestLogMdlw(zaplog, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Equal(t, `{"amount":5}`, string(body))
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short"))
	}))

	r := httptest.NewRequest(http.MethodPost, "/api/balance/credit", strings.NewReader(`{"amount":5}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusTeapot, w.Code)
	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "got incoming HTTP request", entries[0].Message)
	require.Equal(t, "/api/balance/credit", entries[0].ContextMap()["path"])
	require.Equal(t, int64(http.StatusTeapot), entries[1].ContextMap()["code"])
	require.Equal(t, int64(5), entries[1].ContextMap()["length"])
	require.Equal(t, "short", entries[1].ContextMap()["body"])
}

func TestRequestLogMdlwHealthIsDebug(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	h := chimw.RequestID(RequestLogMdlw(zap.New(core), false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Zero(t, logs.Len())

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/engine/status", nil))
	entries := logs.All()
	require.Len(t, entries, 2)
	require.NotEmpty(t, entries[0].ContextMap()["request_id"])
	require.NotContains(t, entries[1].ContextMap(), "body")
}
