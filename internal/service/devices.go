package service

import (
	"context"
	"strings"

	"github.com/and161185/notyfai/internal/model"
	"github.com/and161185/notyfai/internal/repository"
)

// DeviceService manages push registrations of the caller's devices.
type DeviceService interface {
	// Register upserts a device token for the caller.
	Register(ctx context.Context, p model.Principal, token, platform string) error
	// Unregister removes a device token of the caller.
	Unregister(ctx context.Context, p model.Principal, token string) error
}

type DeviceServiceImpl struct {
	tokens repository.PushTokenRepository
}

// NewDeviceService constructs DeviceService.
func NewDeviceService(tokens repository.PushTokenRepository) *DeviceServiceImpl {
	return &DeviceServiceImpl{tokens: tokens}
}

// Register validates token and platform, then upserts on (user, token).
func (s *DeviceServiceImpl) Register(ctx context.Context, p model.Principal, token, platform string) error {
	if strings.TrimSpace(token) == "" {
		return InputError("token is required")
	}
	pl := model.Platform(platform)
	if !pl.Valid() {
		return InputError("platform must be ios or android")
	}
	return s.tokens.Upsert(ctx, p.UserID, token, pl)
}

// Unregister deletes the caller's registration of token.
func (s *DeviceServiceImpl) Unregister(ctx context.Context, p model.Principal, token string) error {
	if strings.TrimSpace(token) == "" {
		return InputError("token is required")
	}
	return s.tokens.Remove(ctx, p.UserID, token)
}
