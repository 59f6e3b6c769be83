package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

// Fields são os dados estruturados anexados a uma entrada de log.
type Fields = map[string]interface{}

// Logger define a interface para logging estruturado.
// A aplicação (Handler, Service, Repository) deve depender apenas desta interface.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error)
	Fatal(msg string, err error)
	// WithFields cria um novo logger com os campos já anexados.
	WithFields(fields map[string]interface{}) Logger
}

// Options configura o logger base.
type Options struct {
	Level  string    // "debug", "info", "warn", "error"
	Writer io.Writer // padrão: os.Stdout
	Pretty bool      // saída colorida (tint) para desenvolvimento; JSON caso contrário
}

// SlogLogger é a implementação concreta da interface Logger sobre log/slog.
type SlogLogger struct {
	logger *slog.Logger
	exit   func(code int)
}

// NewLogger cria um logger JSON no nível informado.
func NewLogger(level string) Logger {
	return New(Options{Level: level})
}

// New cria um logger a partir das opções.
func New(opts Options) Logger {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	level := ParseLevel(opts.Level)

	var handler slog.Handler
	if opts.Pretty {
		handler = tint.NewHandler(opts.Writer, &tint.Options{
			Level:      level,
			TimeFormat: "2006-01-02 15:04:05",
		})
	} else {
		handler = slog.NewJSONHandler(opts.Writer, &slog.HandlerOptions{Level: level})
	}

	return &SlogLogger{logger: slog.New(handler), exit: os.Exit}
}

// ParseLevel converte o nível textual; desconhecido vira info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func toAttrs(fields map[string]interface{}) []any {
	attrs := make([]any, 0, len(fields))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

func (l *SlogLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, toAttrs(fields)...)
}

func (l *SlogLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, toAttrs(fields)...)
}

func (l *SlogLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, toAttrs(fields)...)
}

func (l *SlogLogger) Error(msg string, err error) {
	if err != nil {
		l.logger.Error(msg, slog.String("error", err.Error()))
		return
	}
	l.logger.Error(msg)
}

// Fatal registra o erro e encerra o processo.
func (l *SlogLogger) Fatal(msg string, err error) {
	l.Error(msg, err)
	l.exit(1)
}

func (l *SlogLogger) WithFields(fields map[string]interface{}) Logger {
	return &SlogLogger{logger: l.logger.With(toAttrs(fields)...), exit: l.exit}
}
