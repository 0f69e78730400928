package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"psup-auth/internal/event"
	profiledomain "psup-auth/internal/profilefield/domain"
	roledomain "psup-auth/internal/role/domain"
	sessiondomain "psup-auth/internal/session/domain"
	"psup-auth/internal/settings"
	userdomain "psup-auth/internal/user/domain"
)

type memUserRepo struct {
	mu   sync.Mutex
	byID map[string]*userdomain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: make(map[string]*userdomain.User)}
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Create(_ context.Context, u *userdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Username == u.Username {
			return errors.New("duplicate username")
		}
	}
	r.byID[u.ID] = u
	return nil
}

type prefKey struct{ userID, name string }

type memPrefRepo struct {
	mu sync.Mutex
	m  map[prefKey]string
}

func newMemPrefRepo() *memPrefRepo {
	return &memPrefRepo{m: make(map[prefKey]string)}
}

func (r *memPrefRepo) Get(_ context.Context, userID, name string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.m[prefKey{userID, name}]
	return v, ok, nil
}

func (r *memPrefRepo) Set(_ context.Context, userID, name, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[prefKey{userID, name}] = value
	return nil
}

func (r *memPrefRepo) Unset(_ context.Context, userID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, prefKey{userID, name})
	return nil
}

type fieldKey struct {
	userID string
	field  profiledomain.Field
}

// memProfileRepo stores identifier records and answers identifier lookups against users.
type memProfileRepo struct {
	mu    sync.Mutex
	m     map[fieldKey]string
	users *memUserRepo
}

func newMemProfileRepo(users *memUserRepo) *memProfileRepo {
	return &memProfileRepo{m: make(map[fieldKey]string), users: users}
}

func (r *memProfileRepo) Get(_ context.Context, userID string, field profiledomain.Field) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.m[fieldKey{userID, field}]
	return v, ok, nil
}

func (r *memProfileRepo) Set(_ context.Context, userID string, field profiledomain.Field, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[fieldKey{userID, field}] = value
	return nil
}

func (r *memProfileRepo) FindUserIDByPsupID(ctx context.Context, auth, psupID, session string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range r.m {
		if k.field != profiledomain.FieldPsupID || v != psupID {
			continue
		}
		if r.m[fieldKey{k.userID, profiledomain.FieldPsupSession}] != session {
			continue
		}
		if u, _ := r.users.GetByID(ctx, k.userID); u != nil && u.Auth == auth {
			return u.ID, nil
		}
	}
	return "", nil
}

type memRoleRepo struct {
	mu          sync.Mutex
	roles       map[int64]*roledomain.Role
	assignments []*roledomain.Assignment
}

func (r *memRoleRepo) GetByID(_ context.Context, id int64) (*roledomain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roles[id], nil
}

func (r *memRoleRepo) Assign(_ context.Context, a *roledomain.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assignments = append(r.assignments, a)
	return nil
}

type staticSettings struct {
	s settings.Settings
}

func (f staticSettings) Load(context.Context, settings.Settings) (settings.Settings, error) {
	return f.s, nil
}

type memSessionRepo struct {
	mu sync.Mutex
	m  map[string]*sessiondomain.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{m: make(map[string]*sessiondomain.Session)}
}

func (r *memSessionRepo) GetByID(_ context.Context, id string) (*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[id], nil
}

func (r *memSessionRepo) Create(_ context.Context, s *sessiondomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s2 := *s
	r.m[s.ID] = &s2
	return nil
}

func (r *memSessionRepo) Revoke(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[id]; ok && s.RevokedAt == nil {
		t := time.Now()
		s.RevokedAt = &t
	}
	return nil
}

func (r *memSessionRepo) UpdateLastSeen(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[id]; ok {
		s.LastSeenAt = &at
	}
	return nil
}

func (r *memSessionRepo) SetWantsURL(_ context.Context, id, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[id]; ok {
		s.WantsURL = url
	}
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*userdomain.User
	err  error
}

func (n *recordingNotifier) Resend(_ context.Context, u *userdomain.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, u)
	return nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []event.Event
}

func (s *recordingSink) Emit(_ context.Context, e event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) named(name string) []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []event.Event
	for _, e := range s.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
