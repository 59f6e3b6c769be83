package logger

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
)

// FluentPoster é o subconjunto do cliente Fluentd que usamos (facilita testes).
type FluentPoster interface {
	Post(tag string, message interface{}) error
}

// FluentLogger envia cada entrada para o Fluentd com a tag "<prefixo>.<nível>".
type FluentLogger struct {
	client   FluentPoster
	prefix   string
	fields   map[string]interface{}
	minLevel slog.Level
}

// NewFluentClient abre a conexão com o agente Fluentd.
func NewFluentClient(host string, port int) (*fluent.Fluent, error) {
	client, err := fluent.New(fluent.Config{
		FluentHost: host,
		FluentPort: port,
		Async:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar no Fluentd em %s:%d: %w", host, port, err)
	}
	return client, nil
}

// NewFluentLogger cria o logger; tagPrefix costuma ser o nome do serviço.
func NewFluentLogger(client FluentPoster, tagPrefix string, level string) (*FluentLogger, error) {
	if client == nil {
		return nil, fmt.Errorf("fluent client não pode ser nil")
	}
	return &FluentLogger{
		client:   client,
		prefix:   tagPrefix,
		fields:   map[string]interface{}{},
		minLevel: ParseLevel(level),
	}, nil
}

func (f *FluentLogger) post(level slog.Level, msg string, fields map[string]interface{}, err error) {
	if level < f.minLevel {
		return
	}
	data := make(map[string]interface{}, len(f.fields)+len(fields)+4)
	for k, v := range f.fields {
		data[k] = v
	}
	for k, v := range fields {
		data[k] = v
	}
	data["level"] = level.String()
	data["message"] = msg
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	if err != nil {
		data["error"] = err.Error()
	}
	// Falha no envio não pode derrubar a requisição
	_ = f.client.Post(f.prefix+"."+level.String(), data)
}

func (f *FluentLogger) Debug(msg string, fields map[string]interface{}) {
	f.post(slog.LevelDebug, msg, fields, nil)
}

func (f *FluentLogger) Info(msg string, fields map[string]interface{}) {
	f.post(slog.LevelInfo, msg, fields, nil)
}

func (f *FluentLogger) Warn(msg string, fields map[string]interface{}) {
	f.post(slog.LevelWarn, msg, fields, nil)
}

func (f *FluentLogger) Error(msg string, err error) {
	f.post(slog.LevelError, msg, nil, err)
}

// Fatal apenas registra; quem encerra o processo é o logger principal.
func (f *FluentLogger) Fatal(msg string, err error) {
	f.post(slog.LevelError, msg, map[string]interface{}{"fatal": true}, err)
}

func (f *FluentLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(f.fields)+len(fields))
	for k, v := range f.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &FluentLogger{client: f.client, prefix: f.prefix, fields: merged, minLevel: f.minLevel}
}
