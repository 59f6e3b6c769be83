package logger

import "fmt"

// MultiLogger replica cada entrada em todos os loggers.
// O Fatal é repassado por último ao primeiro logger, que é quem encerra o processo.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger exige pelo menos um logger.
func NewMultiLogger(loggers ...Logger) (Logger, error) {
	if len(loggers) == 0 {
		return nil, fmt.Errorf("multilogger: pelo menos um logger é necessário")
	}
	if len(loggers) == 1 {
		return loggers[0], nil
	}
	return &MultiLogger{loggers: loggers}, nil
}

func (m *MultiLogger) Debug(msg string, fields map[string]interface{}) {
	for _, l := range m.loggers {
		l.Debug(msg, fields)
	}
}

func (m *MultiLogger) Info(msg string, fields map[string]interface{}) {
	for _, l := range m.loggers {
		l.Info(msg, fields)
	}
}

func (m *MultiLogger) Warn(msg string, fields map[string]interface{}) {
	for _, l := range m.loggers {
		l.Warn(msg, fields)
	}
}

func (m *MultiLogger) Error(msg string, err error) {
	for _, l := range m.loggers {
		l.Error(msg, err)
	}
}

func (m *MultiLogger) Fatal(msg string, err error) {
	for _, l := range m.loggers[1:] {
		l.Fatal(msg, err)
	}
	m.loggers[0].Fatal(msg, err)
}

func (m *MultiLogger) WithFields(fields map[string]interface{}) Logger {
	enriched := make([]Logger, 0, len(m.loggers))
	for _, l := range m.loggers {
		enriched = append(enriched, l.WithFields(fields))
	}
	return &MultiLogger{loggers: enriched}
}
