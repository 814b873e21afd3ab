package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// StartReservationConsumer connects to RabbitMQ, declares the two
// reservation queues, and appends each event to logs/reservations.log
// as one line.  It runs a reconnect loop with exponential backoff and
// never returns under normal operation; failed messages are rejected
// without requeue so a poison message cannot spin the consumer.
func StartReservationConsumer(url string) {
	log := logrus.WithField("component", "consumer")
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.WithError(err).Warnf("broker dial failed; retrying in %s", backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(conn); err != nil {
			log.WithError(err).Warn("consume loop ended; reconnecting")
			_ = conn.Close()
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logrus.WithError(err).Warn("set QoS failed")
	}

	for _, name := range []string{confirmedQueue, cancelledQueue} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
	}

	confirmed, err := ch.Consume(confirmedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", confirmedQueue, err)
	}
	cancelled, err := ch.Consume(cancelledQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", cancelledQueue, err)
	}

	for {
		select {
		case d, ok := <-confirmed:
			if !ok {
				return errors.New("confirmed deliveries channel closed")
			}
			settle(d, handleConfirmed(d.Body))
		case d, ok := <-cancelled:
			if !ok {
				return errors.New("cancelled deliveries channel closed")
			}
			settle(d, handleCancelled(d.Body))
		}
	}
}

func settle(d amqp.Delivery, err error) {
	if err != nil {
		logrus.WithError(err).Warn("handle message failed")
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

func handleConfirmed(body []byte) error {
	var ev ReservationConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	line := fmt.Sprintf("[%s] confirmed | code=%s | reservation_id=%d | product_id=%d | pickup_hotel=%d | drop_hotel=%d | qty=%d | price=%d cents | deposit=%d cents | email=%s\n",
		ev.ConfirmedAt, ev.Code, ev.ReservationID, ev.ProductID, ev.PickupHotelID, ev.DropHotelID,
		ev.Quantity, ev.PriceCents, ev.DepositCents, ev.UserEmail)
	return appendLog(line)
}

func handleCancelled(body []byte) error {
	var ev ReservationCancelledEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	line := fmt.Sprintf("[%s] cancelled | code=%s | reservation_id=%d | reason=%s | email=%s\n",
		ev.CancelledAt, ev.Code, ev.ReservationID, ev.Reason, ev.UserEmail)
	return appendLog(line)
}

func appendLog(line string) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join("logs", "reservations.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
