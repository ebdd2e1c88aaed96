// Package fcm delivers notifications through Firebase Cloud Messaging.
package fcm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/and161185/notyfai/internal/model"
	"github.com/and161185/notyfai/internal/notify"
)

// ErrNoCredentials is returned on the first send when no service account is configured.
var ErrNoCredentials = errors.New("fcm: FIREBASE_SERVICE_ACCOUNT is required for push notifications")

// Client is the part of *messaging.Client the sender uses.
type Client interface {
	Send(ctx context.Context, m *messaging.Message) (string, error)
}

// Sender is a notify.Sender backed by FCM. The Firebase app is created on the
// first send and reused afterwards; a failed initialization is retried on the next send.
type Sender struct {
	serviceAccount string

	mu     sync.Mutex
	client Client
	newFn  func(ctx context.Context, credentials []byte) (Client, error)
}

// New returns a sender for a service account given as inline JSON or as a path to a JSON file.
func New(serviceAccount string) *Sender {
	return &Sender{serviceAccount: strings.TrimSpace(serviceAccount), newFn: newMessaging}
}

// NewWithClient returns a sender using an already constructed client.
func NewWithClient(c Client) *Sender {
	return &Sender{client: c}
}

// Send implements notify.Sender.
func (s *Sender) Send(ctx context.Context, to model.PushToken, n notify.Notification) error {
	c, err := s.messaging(ctx)
	if err != nil {
		return err
	}
	if _, err := c.Send(ctx, Message(to, n)); err != nil {
		if messaging.IsUnregistered(err) {
			return fmt.Errorf("fcm: %w: %v", notify.ErrUnregistered, err)
		}
		return fmt.Errorf("fcm: %w", err)
	}
	return nil
}

// Message builds the FCM message for one device with the platform's default sound.
func Message(to model.PushToken, n notify.Notification) *messaging.Message {
	m := &messaging.Message{
		Token:        to.Token,
		Notification: &messaging.Notification{Title: n.Title, Body: n.Body},
	}
	switch to.Platform {
	case model.PlatformIOS:
		m.APNS = &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{Aps: &messaging.Aps{Sound: "default"}},
		}
	case model.PlatformAndroid:
		m.Android = &messaging.AndroidConfig{
			Notification: &messaging.AndroidNotification{Sound: "default"},
		}
	}
	return m
}

func (s *Sender) messaging(ctx context.Context) (Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	creds, err := loadServiceAccount(s.serviceAccount)
	if err != nil {
		return nil, err
	}
	c, err := s.newFn(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("fcm: init: %w", err)
	}
	s.client = c
	return c, nil
}

func loadServiceAccount(v string) ([]byte, error) {
	if v == "" {
		return nil, ErrNoCredentials
	}
	if strings.HasPrefix(v, "{") {
		return []byte(v), nil
	}
	b, err := os.ReadFile(v)
	if err != nil {
		return nil, fmt.Errorf("fcm: read service account: %w", err)
	}
	return b, nil
}

func newMessaging(ctx context.Context, creds []byte) (Client, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsJSON(creds))
	if err != nil {
		return nil, err
	}
	return app.Messaging(ctx)
}
