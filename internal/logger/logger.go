package logger

import (
	"bytes"
	"io"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/RajshekharX12/as/internal/logger/config"
)

func NewZapLog(cfg config.Config) (*zap.Logger, error) {
	// преобразуем текстовый уровень логирования в zap.AtomicLevel
	lvl, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zapcfg := zap.NewProductionConfig()
	zapcfg.Level = lvl
	if cfg.Encoding != "" {
		zapcfg.Encoding = cfg.Encoding
	}
	zapcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// покупки и отказы не должны теряться при выборке
	zapcfg.Sampling = nil
	return zapcfg.Build()
}

// middleware-логер для входящих HTTP-запросов.
// Проверки /health пишутся на уровне debug.
func RequestLogMdlw(zaplog *zap.Logger, logBodies bool) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			level := zapcore.InfoLevel
			if r.URL.Path == "/health" {
				level = zapcore.DebugLevel
			}
			reqlog := zaplog.With(zap.String("request_id", chimw.GetReqID(r.Context())))

			fields := []zap.Field{
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method),
			}
			if logBodies && r.Body != nil {
				bodyBytes, _ := io.ReadAll(r.Body)
				r.Body.Close()
				r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
				fields = append(fields, zap.ByteString("body", bodyBytes))
			}
			reqlog.Log(level, "got incoming HTTP request", fields...)

			wl := newResponseWriterLogger(w)

			handlerStart := time.Now()
			h.ServeHTTP(wl, r)

			fields = []zap.Field{
				zap.Int("code", wl.statusCode),
				zap.Int("length", wl.length),
				zap.Duration("duration", time.Since(handlerStart)),
			}
			if logBodies {
				fields = append(fields, zap.ByteString("body", wl.body))
			}
			reqlog.Log(level, "send HTTP response", fields...)
		})
	}
}

type responseWriterLogger struct {
	http.ResponseWriter
	statusCode int
	length     int
	body       []byte
}

func newResponseWriterLogger(w http.ResponseWriter) *responseWriterLogger {
	return &responseWriterLogger{ResponseWriter: w, statusCode: http.StatusOK}
}

func (wl *responseWriterLogger) WriteHeader(code int) {
	wl.statusCode = code
	wl.ResponseWriter.WriteHeader(code)
}

func (wl *responseWriterLogger) Write(b []byte) (n int, err error) {
	wl.body = append(wl.body, b...)
	n, err = wl.ResponseWriter.Write(b)
	wl.length += n
	return
}
