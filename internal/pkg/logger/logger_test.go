package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPoster struct {
	mock.Mock
}

func (m *MockPoster) Post(tag string, message interface{}) error {
	return m.Called(tag, message).Error(0)
}

func TestSlogLogger_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "info", Writer: &buf})

	log.Debug("ignorado", nil)
	log.WithFields(Fields{"request_id": "r-1"}).Info("Requisição concluída", Fields{"status": 200})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Requisição concluída", entry["msg"])
	assert.Equal(t, "r-1", entry["request_id"])
	assert.Equal(t, 200.0, entry["status"])
	assert.NotContains(t, buf.String(), "ignorado")
}

func TestSlogLogger_FatalExits(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "debug", Writer: &buf}).(*SlogLogger)
	code := -1
	l.exit = func(c int) { code = c }

	l.Fatal("Falha ao conectar ao banco de dados.", errors.New("refused"))

	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), `"error":"refused"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", ParseLevel(" Debug ").String())
	assert.Equal(t, "WARN", ParseLevel("warn").String())
	assert.Equal(t, "INFO", ParseLevel("qualquer").String())
}

func TestFluentLogger(t *testing.T) {
	poster := new(MockPoster)
	fl, err := NewFluentLogger(poster, "gomarket", "info")
	require.NoError(t, err)

	poster.On("Post", "gomarket.ERROR", mock.MatchedBy(func(m interface{}) bool {
		data := m.(map[string]interface{})
		return data["message"] == "Erro de Servidor" && data["error"] == "boom" && data["service"] == "api"
	})).Return(nil).Once()

	fl.Debug("abaixo do nível", nil)
	fl.WithFields(Fields{"service": "api"}).Error("Erro de Servidor", errors.New("boom"))

	poster.AssertExpectations(t)
	poster.AssertNumberOfCalls(t, "Post", 1)

	_, err = NewFluentLogger(nil, "gomarket", "info")
	assert.Error(t, err)
}

func TestMultiLogger(t *testing.T) {
	_, err := NewMultiLogger()
	assert.Error(t, err)

	var buf bytes.Buffer
	single := New(Options{Writer: &buf})
	l, err := NewMultiLogger(single)
	require.NoError(t, err)
	assert.Same(t, single, l)

	poster := new(MockPoster)
	poster.On("Post", "gomarket.WARN", mock.Anything).Return(errors.New("fluentd fora")).Once()
	fl, _ := NewFluentLogger(poster, "gomarket", "debug")

	multi, err := NewMultiLogger(single, fl)
	require.NoError(t, err)
	multi.Warn("Rate limit indisponível", nil)

	assert.Contains(t, buf.String(), "Rate limit indisponível")
	poster.AssertExpectations(t)
}

func TestFromContext(t *testing.T) {
	fallback := NewLogger("debug")
	assert.Same(t, fallback, FromContext(context.Background(), fallback))

	scoped := fallback.WithFields(Fields{"request_id": "r-9"})
	ctx := IntoContext(context.Background(), scoped)
	assert.Same(t, scoped, FromContext(ctx, fallback))
}
