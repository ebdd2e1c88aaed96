package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/notyfai/internal/errs"
	"github.com/and161185/notyfai/internal/metrics"
	"github.com/and161185/notyfai/internal/model"
	"github.com/and161185/notyfai/internal/repository"
)

// ErrEventNotStored reports that an otherwise valid webhook could not be persisted.
var ErrEventNotStored = errors.New("failed to store event")

// TokenVerifier checks signed instance tokens. Implemented by *hooktoken.Signer.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// HookInput is one webhook request as seen by the pipeline.
type HookInput struct {
	Token       string // query "token" or header "x-notyfai-token"
	Body        []byte
	EventHeader string // header "x-cursor-event", used when the body names no event
}

// HookService ingests Cursor webhook deliveries.
type HookService interface {
	// Ingest authorizes and stores one delivery. The returned Delivery feeds notification fan-out.
	Ingest(ctx context.Context, in HookInput) (model.Delivery, error)
}

type HookServiceImpl struct {
	verifier  TokenVerifier
	instances repository.InstanceRepository
	events    repository.EventRepository
	log       *zap.Logger
	now       func() time.Time
}

// NewHookService constructs HookService.
func NewHookService(v TokenVerifier, instances repository.InstanceRepository, events repository.EventRepository, log *zap.Logger) *HookServiceImpl {
	return &HookServiceImpl{verifier: v, instances: instances, events: events, log: log, now: time.Now}
}

// Ingest runs the webhook pipeline: token, instance state, payload, event row, liveness.
func (s *HookServiceImpl) Ingest(ctx context.Context, in HookInput) (model.Delivery, error) {
	if in.Token == "" {
		return model.Delivery{}, errs.ErrMissingToken
	}
	rawID, err := s.verifier.Verify(in.Token)
	if err != nil {
		return model.Delivery{}, errs.ErrInvalidToken
	}
	instanceID, err := uuid.FromString(rawID)
	if err != nil {
		return model.Delivery{}, errs.ErrNotFound
	}

	inst, err := s.instances.Lookup(ctx, instanceID)
	if err != nil {
		return model.Delivery{}, err
	}
	if inst.Revoked {
		return model.Delivery{}, errs.ErrRevoked
	}

	payload, fields := parsePayload(in.Body)
	kind := model.NormalizeEvent(eventName(fields, in.EventHeader))

	ev := model.CursorEvent{InstanceID: instanceID, Kind: kind, Payload: payload}
	if err := s.events.Insert(ctx, ev); err != nil {
		s.log.Error("cursor event insert failed", zap.Stringer("instance", instanceID), zap.Error(err))
		return model.Delivery{}, fmt.Errorf("%w: %v", ErrEventNotStored, err)
	}
	metrics.HookEventsTotal.WithLabelValues(string(kind)).Inc()

	if err := s.instances.TouchLastEvent(ctx, instanceID, s.now().UTC()); err != nil {
		s.log.Warn("last_event_at update failed", zap.Stringer("instance", instanceID), zap.Error(err))
	}

	return model.Delivery{
		UserID:       inst.UserID,
		InstanceID:   instanceID,
		Kind:         kind,
		InstanceName: inst.DisplayName(),
	}, nil
}

var emptyObject = json.RawMessage(`{}`)

// parsePayload keeps a JSON object body verbatim; anything else becomes {}.
func parsePayload(body []byte) (json.RawMessage, map[string]json.RawMessage) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return emptyObject, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return emptyObject, nil
	}
	return json.RawMessage(trimmed), fields
}

// eventName prefers a non-null hook_event_name in the body over the header.
// Non-string values yield "" and therefore normalize to unknown.
func eventName(fields map[string]json.RawMessage, header string) string {
	raw, ok := fields["hook_event_name"]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return header
	}
	var name string
	_ = json.Unmarshal(raw, &name)
	return name
}
