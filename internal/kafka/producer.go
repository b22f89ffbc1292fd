package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"minicab/internal/config"
	"minicab/internal/logger"
	"minicab/internal/models"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Producer представляет продюсер событий Kafka
type Producer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
	topics   *config.Topics
}

// NewProducer создает нового продюсера Kafka
func NewProducer(cfg *config.KafkaConfig, log *logger.Logger) (*Producer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.Info("Successfully connected to Kafka")

	return &Producer{
		producer: producer,
		log:      log,
		topics:   &cfg.Topics,
	}, nil
}

// Close закрывает продюсера
func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}

// publishEvent сериализует событие и отправляет его в топик
func (p *Producer) publishEvent(topic string, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.ID.String()),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message to topic %s: %w", topic, err)
	}

	p.log.WithFields(map[string]interface{}{
		"topic":     topic,
		"partition": partition,
		"offset":    offset,
		"type":      event.Type,
	}).Debug("Event published")

	return nil
}

// PublishBookingCreated публикует событие об успешном бронировании
func (p *Producer) PublishBookingCreated(booking *models.Booking) error {
	event := models.Event{
		ID:        uuid.New(),
		Type:      models.EventTypeBookingCreated,
		Timestamp: time.Now(),
		Data: models.BookingCreatedData{
			BookingID:     booking.ID,
			UserName:      booking.UserName,
			Pickup:        booking.Pickup,
			Destination:   booking.Destination,
			Fare:          booking.Fare,
			PricingPolicy: booking.PricingPolicy,
		},
	}
	return p.publishEvent(p.topics.Bookings, event)
}

// PublishBookingFailed публикует событие о неудачной попытке бронирования
func (p *Producer) PublishBookingFailed(userName, reason string) error {
	event := models.Event{
		ID:        uuid.New(),
		Type:      models.EventTypeBookingFailed,
		Timestamp: time.Now(),
		Data: models.BookingFailedData{
			UserName: userName,
			Reason:   reason,
		},
	}
	return p.publishEvent(p.topics.Bookings, event)
}

// PublishPaymentProcessed публикует событие об обработанном платеже
func (p *Producer) PublishPaymentProcessed(bookingID uuid.UUID, method models.PaymentMethodName, amount float64) error {
	event := models.Event{
		ID:        uuid.New(),
		Type:      models.EventTypePaymentProcessed,
		Timestamp: time.Now(),
		Data: models.PaymentProcessedData{
			BookingID: bookingID,
			Method:    method,
			Amount:    amount,
		},
	}
	return p.publishEvent(p.topics.Payments, event)
}
