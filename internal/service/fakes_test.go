package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/biswajit-debnath/control-room/internal/model"
)

var errStorageDown = errors.New("storage unavailable")

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int]*model.User
	nextID int
	err    error
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[int]*model.User{}, nextID: 1}
	for _, u := range users {
		if u.ID == 0 {
			u.ID = r.nextID
		}
		if u.ID >= r.nextID {
			r.nextID = u.ID + 1
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Upsert(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, u := range r.users {
		if u.Phone == user.Phone {
			user.ID = u.ID
			r.users[u.ID] = user
			return nil
		}
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByPhone(_ context.Context, phone string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Phone == phone {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id int) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.users[id], nil
}

func (r *fakeUserRepo) FindAll(_ context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := []model.User{}
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUserRepo) FindByRole(_ context.Context, role model.Role) ([]model.EODUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := []model.EODUser{}
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, model.EODUser{ID: u.ID, Name: u.Name, Phone: u.Phone})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]model.Session
	err      error
	deleted  []string
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]model.Session{}}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.sessions[s.Token]; ok {
		return errors.New("duplicate session token")
	}
	r.sessions[s.Token] = *s
	return nil
}

func (r *fakeSessionRepo) FindByToken(_ context.Context, token string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	s, ok := r.sessions[token]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	delete(r.sessions, token)
	r.deleted = append(r.deleted, token)
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	var n int64
	for token, s := range r.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(r.sessions, token)
			n++
		}
	}
	return n, nil
}

func (r *fakeSessionRepo) has(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[token]
	return ok
}

type fakeActivityRepo struct {
	mu         sync.Mutex
	activities []model.Activity
	err        error
}

func (r *fakeActivityRepo) Create(_ context.Context, a *model.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	a.ID = int64(len(r.activities) + 1)
	r.activities = append(r.activities, *a)
	return nil
}

// fakeOperationRepo keeps records in memory. Sign applies the same
// "only if still unsigned" condition as the SQL update, under a mutex.
type fakeOperationRepo struct {
	mu         sync.Mutex
	ops        map[int64]*model.Operation
	activities []model.Activity
	nextID     int64
	err        error
	signCalls  int
}

func newFakeOperationRepo(ops ...model.Operation) *fakeOperationRepo {
	r := &fakeOperationRepo{ops: map[int64]*model.Operation{}, nextID: 1}
	for i := range ops {
		op := ops[i]
		if op.ID == 0 {
			op.ID = r.nextID
		}
		if op.ID >= r.nextID {
			r.nextID = op.ID + 1
		}
		r.ops[op.ID] = &op
	}
	return r
}

func (r *fakeOperationRepo) Create(_ context.Context, op *model.Operation, audit func(*model.Operation) *model.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	op.ID = r.nextID
	r.nextID++
	stored := *op
	r.ops[op.ID] = &stored
	if audit != nil {
		if a := audit(op); a != nil {
			r.activities = append(r.activities, *a)
		}
	}
	return nil
}

func (r *fakeOperationRepo) FindByID(_ context.Context, id int64) (*model.Operation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	op, ok := r.ops[id]
	if !ok {
		return nil, nil
	}
	cp := *op
	return &cp, nil
}

func (r *fakeOperationRepo) FindAll(_ context.Context, f model.OperationFilters) ([]model.Operation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := []model.Operation{}
	for _, op := range r.ops {
		if f.Shift != nil && op.Shift != *f.Shift {
			continue
		}
		if f.From != nil && op.OperationDate.Before(*f.From) {
			continue
		}
		if f.To != nil && !op.OperationDate.Before(*f.To) {
			continue
		}
		out = append(out, *op)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OperationDate.Equal(out[j].OperationDate) {
			return out[i].OperationDate.After(out[j].OperationDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeOperationRepo) Sign(_ context.Context, id int64, sig model.Signature, audit *model.Activity) (*model.Operation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signCalls++
	if r.err != nil {
		return nil, r.err
	}
	op, ok := r.ops[id]
	if !ok || op.Signature.SignerName != nil {
		return nil, nil
	}
	op.Signature = sig
	op.UpdatedAt = *sig.SignedAt
	if audit != nil {
		r.activities = append(r.activities, *audit)
	}
	cp := *op
	return &cp, nil
}

type recordedEvent struct {
	queue   string
	payload any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, queue string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, recordedEvent{queue: queue, payload: payload})
	return nil
}

func (p *fakePublisher) Close() error { return nil }
