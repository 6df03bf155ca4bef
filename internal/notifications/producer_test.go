package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBookingNotification() *EmailNotification {
	return NewNotificationBuilder().
		WithType(NotificationTypeBookingConfirmed).
		WithRecipient(uuid.New(), "ada@example.com", "Ada Lovelace").
		WithBookingContext(uuid.New()).
		WithEventContext(uuid.New()).
		WithTemplateData(map[string]interface{}{
			"event_title":       "Go Conference",
			"booking_reference": "BKABC123",
			"ticket_quantity":   2,
		}).
		Build()
}

func TestKafkaPublisherPublish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	notification := newBookingNotification()

	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got EmailNotification
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.ID != notification.ID {
			return errors.New("unexpected notification id")
		}
		if got.Status != NotificationStatusQueued {
			return errors.New("notification should be queued")
		}
		return nil
	})

	publisher := NewKafkaPublisherWithProducer(producer, "booking-notifications")
	require.NoError(t, publisher.Publish(context.Background(), notification))
	assert.Equal(t, NotificationStatusQueued, notification.Status)
	require.NoError(t, publisher.Close())
}

func TestKafkaPublisherPublishFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := NewKafkaPublisherWithProducer(producer, "booking-notifications")
	notification := newBookingNotification()

	err := publisher.Publish(context.Background(), notification)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	assert.Equal(t, NotificationStatusFailed, notification.Status)
	require.NotNil(t, notification.LastError)
	require.NoError(t, publisher.Close())
}

func TestCreateHeaders(t *testing.T) {
	notification := newBookingNotification()
	headers := createHeaders(notification)

	values := make(map[string]string, len(headers))
	for _, h := range headers {
		values[string(h.Key)] = string(h.Value)
	}
	assert.Equal(t, string(NotificationTypeBookingConfirmed), values["notification_type"])
	assert.Equal(t, notification.BookingID.String(), values["booking_id"])
	assert.Equal(t, notification.EventID.String(), values["event_id"])
}

func TestSubjectFor(t *testing.T) {
	assert.Equal(t, "Booking confirmed for Go Conference",
		SubjectFor(NotificationTypeBookingConfirmed, map[string]interface{}{"event_title": "Go Conference"}))
	assert.Equal(t, "Your booking has been cancelled", SubjectFor(NotificationTypeBookingCancelled, nil))
	assert.Equal(t, "Your payment did not go through", SubjectFor(NotificationTypePaymentFailed, nil))
}
