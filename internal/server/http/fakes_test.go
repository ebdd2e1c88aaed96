package httpserver

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/notyfai/internal/errs"
	"github.com/and161185/notyfai/internal/model"
	"github.com/and161185/notyfai/internal/service"
)

var (
	_ service.AuthService     = (*fakeAuth)(nil)
	_ service.InstanceService = (*fakeInstances)(nil)
	_ service.HookService     = (*fakeHooks)(nil)
	_ service.DeviceService   = (*fakeDevices)(nil)
	_ Dispatcher              = (*fakeDispatcher)(nil)
)

var testUser = uuid.Must(uuid.FromString("9b2f3b4e-8f7a-4b1d-9a63-2f0e5c1d7a10"))

type fakeAuth struct {
	session *model.Session
	user    json.RawMessage
	err     error
	lastIP  string
}

func (f *fakeAuth) Authenticate(_ context.Context, cred string) (model.Principal, error) {
	if cred != "good" {
		return model.Principal{}, errs.ErrUnauthorized
	}
	return model.Principal{UserID: testUser, AccessToken: cred}, nil
}

func (f *fakeAuth) SendOTP(context.Context, string) error { return f.err }

func (f *fakeAuth) VerifyOTP(_ context.Context, _, _, ip string) (*model.Session, error) {
	f.lastIP = ip
	return f.session, f.err
}

func (f *fakeAuth) SignUp(context.Context, string, string) (*model.Session, json.RawMessage, error) {
	return f.session, f.user, f.err
}

func (f *fakeAuth) SignIn(_ context.Context, _, _, ip string) (*model.Session, error) {
	f.lastIP = ip
	return f.session, f.err
}

func (f *fakeAuth) SignInWithGoogle(context.Context, string) (*model.Session, error) {
	return f.session, f.err
}

func (f *fakeAuth) Refresh(context.Context, string) (*model.Session, error) {
	return f.session, f.err
}

type fakeInstances struct {
	list    []model.Instance
	created *model.Instance
	setup   *service.HookSetup
	err     error

	gotName string
	gotID   string
	gotUser uuid.UUID
}

func (f *fakeInstances) List(_ context.Context, p model.Principal) ([]model.Instance, error) {
	f.gotUser = p.UserID
	return f.list, f.err
}

func (f *fakeInstances) Create(_ context.Context, p model.Principal, name string) (*model.Instance, error) {
	f.gotUser, f.gotName = p.UserID, name
	return f.created, f.err
}

func (f *fakeInstances) Delete(_ context.Context, p model.Principal, id string) error {
	f.gotUser, f.gotID = p.UserID, id
	return f.err
}

func (f *fakeInstances) HookSetup(_ context.Context, p model.Principal, id string) (*service.HookSetup, error) {
	f.gotUser, f.gotID = p.UserID, id
	return f.setup, f.err
}

type fakeHooks struct {
	got      service.HookInput
	delivery model.Delivery
	err      error
}

func (f *fakeHooks) Ingest(_ context.Context, in service.HookInput) (model.Delivery, error) {
	f.got = in
	return f.delivery, f.err
}

type fakeDevices struct {
	registered []string
	removed    []string
	err        error
}

func (f *fakeDevices) Register(_ context.Context, _ model.Principal, token, platform string) error {
	if token == "" {
		return service.InputError("token is required")
	}
	if !model.Platform(platform).Valid() {
		return service.InputError("platform must be ios or android")
	}
	if f.err != nil {
		return f.err
	}
	f.registered = append(f.registered, token+"/"+platform)
	return nil
}

func (f *fakeDevices) Unregister(_ context.Context, _ model.Principal, token string) error {
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, token)
	return nil
}

type fakeDispatcher struct {
	mu  sync.Mutex
	got []model.Delivery
}

func (f *fakeDispatcher) Dispatch(_ context.Context, d model.Delivery) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, d)
}
