// Package notify fans a hook event out to every device of the instance owner.
package notify

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/notyfai/internal/metrics"
	"github.com/and161185/notyfai/internal/model"
)

// ErrUnregistered marks a send that failed because the device token is permanently invalid.
// Senders wrap it; only such tokens are pruned.
var ErrUnregistered = errors.New("push: token not registered")

// Notification is the visible content of a push message.
type Notification struct {
	Title string
	Body  string
}

// Sender delivers one message to one device.
type Sender interface {
	Send(ctx context.Context, to model.PushToken, n Notification) error
}

// TokenStore is the part of the push token repository fan-out needs.
type TokenStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PushToken, error)
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error
}

// DefaultBody is used when the instance has no name.
const DefaultBody = "Cursor"

// Content returns the notification for an event kind.
func Content(kind model.EventKind, instanceName string) Notification {
	body := instanceName
	if body == "" {
		body = DefaultBody
	}
	switch kind {
	case model.EventStop:
		return Notification{Title: "Cursor stopped", Body: body}
	case model.EventBeforeShellExecution, model.EventBeforeMCPExecution:
		return Notification{Title: "Cursor awaiting for action", Body: body}
	default:
		return Notification{Title: "Cursor event", Body: body}
	}
}

// Notifier sends notifications and prunes dead device tokens.
type Notifier struct {
	tokens TokenStore
	sender Sender
	log    *zap.Logger

	wg sync.WaitGroup
}

// New constructs a Notifier.
func New(tokens TokenStore, sender Sender, log *zap.Logger) *Notifier {
	return &Notifier{tokens: tokens, sender: sender, log: log}
}

// Notify delivers d to all devices of its owner and waits for every send to settle.
// Failures are logged, never returned.
func (n *Notifier) Notify(ctx context.Context, d model.Delivery) {
	log := n.log.With(zap.Stringer("user", d.UserID), zap.String("event", string(d.Kind)))

	tokens, err := n.tokens.ListByUser(ctx, d.UserID)
	if err != nil {
		log.Warn("push tokens lookup failed", zap.Error(err))
		return
	}
	if len(tokens) == 0 {
		log.Info("no push tokens for user")
		return
	}

	msg := Content(d.Kind, d.InstanceName)
	log.Info("sending push", zap.Int("devices", len(tokens)))

	var (
		g     errgroup.Group
		mu    sync.Mutex
		stale []uuid.UUID
	)
	for _, t := range tokens {
		// every goroutine returns nil: one failed device must not cancel the others
		g.Go(func() error {
			err := n.sender.Send(ctx, t, msg)
			switch {
			case err == nil:
				metrics.PushSendsTotal.WithLabelValues(string(t.Platform), "ok").Inc()
			case errors.Is(err, ErrUnregistered):
				metrics.PushSendsTotal.WithLabelValues(string(t.Platform), "unregistered").Inc()
				mu.Lock()
				stale = append(stale, t.ID)
				mu.Unlock()
			default:
				metrics.PushSendsTotal.WithLabelValues(string(t.Platform), "error").Inc()
				log.Error("push send failed", zap.String("token", tokenPrefix(t.Token)), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(stale) == 0 {
		return
	}
	if err := n.tokens.DeleteByIDs(ctx, stale); err != nil {
		log.Warn("stale token cleanup failed", zap.Int("count", len(stale)), zap.Error(err))
		return
	}
	metrics.PushTokensPruned.Add(float64(len(stale)))
	log.Info("removed stale push tokens", zap.Int("count", len(stale)))
}

// Dispatch runs Notify in the background, detached from the caller's context.
func (n *Notifier) Dispatch(ctx context.Context, d model.Delivery) {
	ctx = context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				n.log.Error("panic in push fan-out",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
				)
			}
		}()
		n.Notify(ctx, d)
	}()
}

// Wait blocks until background fan-outs finish or ctx is done.
func (n *Notifier) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func tokenPrefix(tok string) string {
	if len(tok) > 20 {
		return tok[:20]
	}
	return tok
}
