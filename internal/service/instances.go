package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/notyfai/internal/errs"
	"github.com/and161185/notyfai/internal/model"
	"github.com/and161185/notyfai/internal/repository"
)

// HookScript is the command every generated hook entry runs.
const HookScript = "./scripts/notyfai-send.sh"

// TokenSigner issues signed instance tokens. Implemented by *hooktoken.Signer.
type TokenSigner interface {
	Sign(instanceID string) string
}

// HookCommand is one entry of a Cursor hooks.json event list.
type HookCommand struct {
	Command string `json:"command"`
}

// HooksFile is the content of ~/.cursor/hooks.json.
type HooksFile struct {
	Version int                      `json:"version"`
	Hooks   map[string][]HookCommand `json:"hooks"`
}

// HookSetup is everything a client needs to point Cursor at an instance.
type HookSetup struct {
	InstanceID  string    `json:"instance_id"`
	HookURL     string    `json:"hook_url"`
	HooksJSON   HooksFile `json:"hooks_json"`
	CopyCommand string    `json:"copy_command"`
	EnvVar      string    `json:"env_var"`
}

// InstanceService manages a user's instances.
type InstanceService interface {
	// List returns the caller's instances, newest first.
	List(ctx context.Context, p model.Principal) ([]model.Instance, error)
	// Create registers a new instance; an empty name is stored as NULL.
	Create(ctx context.Context, p model.Principal, name string) (*model.Instance, error)
	// Delete removes an instance and its events.
	Delete(ctx context.Context, p model.Principal, id string) error
	// HookSetup returns the signed webhook URL and hook configuration of an instance.
	HookSetup(ctx context.Context, p model.Principal, id string) (*HookSetup, error)
}

type InstanceServiceImpl struct {
	repo    repository.InstanceRepository
	signer  TokenSigner
	baseURL string
}

// NewInstanceService constructs InstanceService. baseURL is the public origin of this server.
func NewInstanceService(repo repository.InstanceRepository, signer TokenSigner, baseURL string) *InstanceServiceImpl {
	return &InstanceServiceImpl{repo: repo, signer: signer, baseURL: strings.TrimRight(baseURL, "/")}
}

// List delegates to the repository under the caller's identity.
func (s *InstanceServiceImpl) List(ctx context.Context, p model.Principal) ([]model.Instance, error) {
	return s.repo.List(ctx, p)
}

// Create trims the name and inserts the instance.
func (s *InstanceServiceImpl) Create(ctx context.Context, p model.Principal, name string) (*model.Instance, error) {
	var n *string
	if name = strings.TrimSpace(name); name != "" {
		n = &name
	}
	return s.repo.Create(ctx, p, n)
}

// Delete removes the caller's instance; malformed ids are simply not found.
func (s *InstanceServiceImpl) Delete(ctx context.Context, p model.Principal, id string) error {
	iid, err := uuid.FromString(id)
	if err != nil {
		return errs.ErrNotFound
	}
	return s.repo.Delete(ctx, p, iid)
}

// HookSetup builds the hook configuration for one of the caller's instances.
func (s *InstanceServiceImpl) HookSetup(ctx context.Context, p model.Principal, id string) (*HookSetup, error) {
	iid, err := uuid.FromString(id)
	if err != nil {
		return nil, errs.ErrNotFound
	}
	in, err := s.repo.Get(ctx, p, iid)
	if err != nil {
		return nil, err
	}

	hookURL := fmt.Sprintf("%s/api/hooks/cursor?token=%s", s.baseURL, url.QueryEscape(s.signer.Sign(in.ID.String())))

	hooks := make(map[string][]HookCommand, len(model.KnownEvents))
	for _, k := range model.KnownEvents {
		hooks[string(k)] = []HookCommand{{Command: HookScript}}
	}

	return &HookSetup{
		InstanceID:  in.ID.String(),
		HookURL:     hookURL,
		HooksJSON:   HooksFile{Version: 1, Hooks: hooks},
		CopyCommand: fmt.Sprintf("echo '%s' > ~/.cursor/notyfai-url", hookURL),
		EnvVar:      fmt.Sprintf("NOTYFAI_HOOK_URL='%s'", hookURL),
	}, nil
}
