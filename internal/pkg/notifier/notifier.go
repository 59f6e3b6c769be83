// Package notifier publica pedidos de e-mail para o serviço de envio via RabbitMQ.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"gomarket/internal/pkg/logger"
)

// Templates conhecidos pelo serviço de e-mail.
const (
	TemplatePasswordReset = "password-reset"
	TemplateWelcome       = "welcome"
)

// Email é o pedido de envio publicado no exchange.
type Email struct {
	Template string            `json:"template"`
	To       string            `json:"to"`
	Data     map[string]string `json:"data"`
}

// Publisher é o contrato usado pelos serviços.
type Publisher interface {
	PublishEmail(ctx context.Context, email Email) error
}

// AMQPPublisher publica em um exchange topic com routing key "email.<template>".
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      logger.Logger
}

// NewAMQPPublisher conecta, abre o canal e declara o exchange (durável, topic).
func NewAMQPPublisher(url, exchange string, log logger.Logger) (*AMQPPublisher, error) {
	if exchange == "" {
		return nil, fmt.Errorf("notifier: exchange não pode ser vazio")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("notifier: falha ao conectar ao RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("notifier: falha ao abrir canal: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("notifier: falha ao declarar exchange '%s': %w", exchange, err)
	}

	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange, log: log}, nil
}

// PublishEmail publica a mensagem persistente. Não há re-tentativa aqui.
func (p *AMQPPublisher) PublishEmail(ctx context.Context, email Email) error {
	body, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("notifier: falha ao serializar e-mail: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now(),
	}

	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil || p.conn.IsClosed() {
		return fmt.Errorf("notifier: conexão com o RabbitMQ fechada")
	}

	routingKey := "email." + email.Template
	if err := p.channel.PublishWithContext(publishCtx, p.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("notifier: falha ao publicar '%s': %w", routingKey, err)
	}

	p.log.Debug("E-mail enfileirado", map[string]interface{}{"template": email.Template, "routing_key": routingKey})
	return nil
}

// Close fecha canal e conexão.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			firstErr = err
		}
		p.channel = nil
	}
	if p.conn != nil && !p.conn.IsClosed() {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// LogPublisher é usado quando AMQP_URL não está configurada: só registra o pedido.
type LogPublisher struct {
	Log logger.Logger
}

func (p LogPublisher) PublishEmail(ctx context.Context, email Email) error {
	p.Log.Warn("RabbitMQ não configurado; e-mail não enviado", map[string]interface{}{
		"template": email.Template,
	})
	return nil
}
