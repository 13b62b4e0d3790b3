package notify

import (
	"context"
	"log/slog"

	"firebase.google.com/go/v4/messaging"
)

// FCMSender publishes to the per-user topic "user-<uid>" that the client
// subscribes to after sign-in.
type FCMSender struct {
	Client *messaging.Client
}

func TopicFor(userID string) string { return "user-" + userID }

func (f *FCMSender) Send(ctx context.Context, n Notification) error {
	_, err := f.Client.Send(ctx, &messaging.Message{
		Topic: TopicFor(n.UserID),
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
	})
	return err
}

// LogSender writes notifications to the log. Used when FCM is not configured.
type LogSender struct {
	Logger *slog.Logger
}

func (l *LogSender) Send(ctx context.Context, n Notification) error {
	l.Logger.InfoContext(ctx, "notification", "user_id", n.UserID, "title", n.Title, "body", n.Body)
	return nil
}
