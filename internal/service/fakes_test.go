package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/notyfai/internal/errs"
	"github.com/and161185/notyfai/internal/limiter"
	"github.com/and161185/notyfai/internal/model"
	"github.com/and161185/notyfai/internal/repository"
)

type fakeInstances struct {
	mu       sync.Mutex
	byID     map[uuid.UUID]*model.Instance
	touched  map[uuid.UUID]time.Time
	touchErr error
	lookErr  error
}

var _ repository.InstanceRepository = (*fakeInstances)(nil)

func newFakeInstances(in ...*model.Instance) *fakeInstances {
	f := &fakeInstances{byID: map[uuid.UUID]*model.Instance{}, touched: map[uuid.UUID]time.Time{}}
	for _, i := range in {
		f.byID[i.ID] = i
	}
	return f
}

func (f *fakeInstances) List(_ context.Context, p model.Principal) ([]model.Instance, error) {
	out := []model.Instance{}
	for _, i := range f.byID {
		if i.UserID == p.UserID {
			out = append(out, *i)
		}
	}
	return out, nil
}

func (f *fakeInstances) Create(_ context.Context, p model.Principal, name *string) (*model.Instance, error) {
	in := &model.Instance{ID: uuid.Must(uuid.NewV4()), UserID: p.UserID, Name: name, CreatedAt: time.Now()}
	f.byID[in.ID] = in
	return in, nil
}

func (f *fakeInstances) Get(_ context.Context, p model.Principal, id uuid.UUID) (*model.Instance, error) {
	in, ok := f.byID[id]
	if !ok || in.UserID != p.UserID {
		return nil, errs.ErrNotFound
	}
	c := *in
	return &c, nil
}

func (f *fakeInstances) Delete(_ context.Context, p model.Principal, id uuid.UUID) error {
	in, ok := f.byID[id]
	if !ok || in.UserID != p.UserID {
		return errs.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeInstances) Lookup(_ context.Context, id uuid.UUID) (*model.Instance, error) {
	if f.lookErr != nil {
		return nil, f.lookErr
	}
	in, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *in
	return &c, nil
}

func (f *fakeInstances) TouchLastEvent(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.touchErr != nil {
		return f.touchErr
	}
	f.touched[id] = at
	return nil
}

type fakeEvents struct {
	rows []model.CursorEvent
	err  error
}

var _ repository.EventRepository = (*fakeEvents)(nil)

func (f *fakeEvents) Insert(_ context.Context, ev model.CursorEvent) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, ev)
	return nil
}

type fakePushTokens struct {
	upserts []model.PushToken
	removed []string
	err     error
}

var _ repository.PushTokenRepository = (*fakePushTokens)(nil)

func (f *fakePushTokens) Upsert(_ context.Context, userID uuid.UUID, token string, p model.Platform) error {
	if f.err != nil {
		return f.err
	}
	f.upserts = append(f.upserts, model.PushToken{UserID: userID, Token: token, Platform: p})
	return nil
}

func (f *fakePushTokens) Remove(_ context.Context, _ uuid.UUID, token string) error {
	f.removed = append(f.removed, token)
	return f.err
}

func (f *fakePushTokens) ListByUser(context.Context, uuid.UUID) ([]model.PushToken, error) {
	return f.upserts, nil
}

func (f *fakePushTokens) DeleteByIDs(context.Context, []uuid.UUID) error { return nil }

type fakeIDP struct {
	user    *model.User
	userErr error

	session *model.Session
	signErr error

	otpErr error
	calls  int
}

var _ IdentityProvider = (*fakeIDP)(nil)

func (f *fakeIDP) GetUser(context.Context, string) (*model.User, error) {
	f.calls++
	if f.userErr != nil {
		return nil, f.userErr
	}
	return f.user, nil
}
func (f *fakeIDP) SendOTP(context.Context, string) error { f.calls++; return f.otpErr }
func (f *fakeIDP) VerifyOTP(context.Context, string, string) (*model.Session, error) {
	f.calls++
	return f.session, f.signErr
}
func (f *fakeIDP) SignUp(context.Context, string, string) (*model.Session, json.RawMessage, error) {
	f.calls++
	return f.session, nil, f.signErr
}
func (f *fakeIDP) SignInWithPassword(context.Context, string, string) (*model.Session, error) {
	f.calls++
	return f.session, f.signErr
}
func (f *fakeIDP) SignInWithIDToken(context.Context, string, string) (*model.Session, error) {
	f.calls++
	return f.session, f.signErr
}
func (f *fakeIDP) Refresh(context.Context, string) (*model.Session, error) {
	f.calls++
	return f.session, f.signErr
}

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	successErr error

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return l.successErr
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}
