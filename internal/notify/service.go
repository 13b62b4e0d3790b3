// Package notify turns committed ledger events into push notifications for
// the user they concern.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	kafkax "github.com/ariefcatur/go-eservice-ledger/internal/kafka"
	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
	kafkago "github.com/segmentio/kafka-go"
)

// Notification is one push message addressed to a user.
type Notification struct {
	UserID string
	Title  string
	Body   string
	Data   map[string]string
}

type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// Deduper records which event ids were already handled.
type Deduper interface {
	FirstSeen(ctx context.Context, id string) (bool, error)
	Forget(ctx context.Context, id string) error
}

type Service struct {
	Dedup  Deduper // optional
	Sender Sender
	Logger *slog.Logger
}

// HandleEvent is installed as the consumer handler. A nil return lets the
// consumer commit the message.
func (s *Service) HandleEvent(ctx context.Context, m kafkago.Message) error {
	// 1) decode envelope; a poison message is skipped, not retried forever
	env, err := kafkax.DecodeEnvelope(m.Value)
	if err != nil {
		s.log().Warn("skip undecodable event", "topic", m.Topic, "offset", m.Offset, "error", err)
		return nil
	}

	// 2) build the notification, ignoring event types we don't announce
	n, ok, err := Build(env)
	if err != nil {
		s.log().Warn("skip malformed event", "event_id", env.EventID, "event_type", env.EventType, "error", err)
		return nil
	}
	if !ok || n.UserID == "" {
		return nil
	}

	// 3) dedup via event id
	if s.Dedup != nil {
		first, err := s.Dedup.FirstSeen(ctx, env.EventID)
		if err != nil {
			s.log().Warn("dedup unavailable", "event_id", env.EventID, "error", err)
		} else if !first {
			return nil
		}
	}

	// 4) send; on failure release the dedup mark so redelivery can retry
	if err := s.Sender.Send(ctx, n); err != nil {
		if s.Dedup != nil {
			_ = s.Dedup.Forget(ctx, env.EventID)
		}
		return fmt.Errorf("send %s for %s: %w", env.EventType, env.EventID, err)
	}
	s.log().Info("notification sent", "event_id", env.EventID, "event_type", env.EventType, "user_id", n.UserID)
	return nil
}

func (s *Service) log() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Build renders the notification for env. ok is false for event types that
// are not announced to users.
func Build(env ledger.Envelope) (n Notification, ok bool, err error) {
	data := map[string]string{"eventType": env.EventType, "eventId": env.EventID}

	switch env.EventType {
	case ledger.EventOrderPlaced:
		p, err := kafkax.UnwrapPayload[ledger.OrderPlacedPayload](env.Payload)
		if err != nil {
			return n, false, err
		}
		data["orderId"] = p.OrderID
		data["balance"] = strconv.FormatInt(p.BalanceAfter, 10)
		return Notification{
			UserID: p.UserID,
			Title:  "Order placed",
			Body:   fmt.Sprintf("%s ordered for ৳%d. Balance: ৳%d", p.ServiceTitle, p.Price, p.BalanceAfter),
			Data:   data,
		}, true, nil

	case ledger.EventOrderStatusChanged:
		p, err := kafkax.UnwrapPayload[ledger.OrderStatusChangedPayload](env.Payload)
		if err != nil {
			return n, false, err
		}
		data["orderId"] = p.OrderID
		data["status"] = string(p.To)
		return Notification{
			UserID: p.UserID,
			Title:  "Order update",
			Body:   fmt.Sprintf("%s is now %s", p.ServiceTitle, p.To),
			Data:   data,
		}, true, nil

	case ledger.EventRechargeApproved:
		p, err := kafkax.UnwrapPayload[ledger.RechargeApprovedPayload](env.Payload)
		if err != nil {
			return n, false, err
		}
		data["rechargeId"] = p.RechargeID
		data["balance"] = strconv.FormatInt(p.BalanceAfter, 10)
		return Notification{
			UserID: p.UserID,
			Title:  "Recharge approved",
			Body:   fmt.Sprintf("৳%d added. Balance: ৳%d", p.Amount, p.BalanceAfter),
			Data:   data,
		}, true, nil
	}
	return n, false, nil
}
