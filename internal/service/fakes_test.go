package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"securelink/internal/cache"
	"securelink/internal/entities"
	"securelink/internal/logging"
	"securelink/internal/repository"
)

var testLogger = logging.Discard()

// fakeLinkRepo is an in-memory LinkRepository with per-method call counters.
type fakeLinkRepo struct {
	mu     sync.Mutex
	links  map[string]*entities.Link // by id
	visits []*entities.Visit
	calls  map[string]int

	createErr error // returned by Create when set
	visitErr  error // returned by RecordVisit when set
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{
		links: make(map[string]*entities.Link),
		calls: make(map[string]int),
	}
}

func (r *fakeLinkRepo) called(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method]
}

func (r *fakeLinkRepo) add(link *entities.Link) *entities.Link {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *link
	r.links[link.ID] = &cp
	return link
}

func (r *fakeLinkRepo) get(id string) *entities.Link {
	r.mu.Lock()
	defer r.mu.Unlock()
	link, ok := r.links[id]
	if !ok {
		return nil
	}
	cp := *link
	return &cp
}

func (r *fakeLinkRepo) visitCount(linkID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, v := range r.visits {
		if v.LinkID == linkID {
			n++
		}
	}
	return n
}

func (r *fakeLinkRepo) Create(ctx context.Context, link *entities.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["Create"]++
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.links {
		if existing.ShortCode == link.ShortCode {
			return repository.ErrDuplicate
		}
	}
	cp := *link
	cp.Clicks = 0
	r.links[link.ID] = &cp
	link.Clicks = 0
	return nil
}

func (r *fakeLinkRepo) FindByShortCode(ctx context.Context, shortCode string) (*entities.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["FindByShortCode"]++
	for _, link := range r.links {
		if link.ShortCode == shortCode {
			cp := *link
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeLinkRepo) FindByID(ctx context.Context, id string) (*entities.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["FindByID"]++
	link, ok := r.links[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *link
	return &cp, nil
}

func (r *fakeLinkRepo) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["ListByOwner"]++
	out := make([]*entities.Link, 0)
	for _, link := range r.links {
		if link.OwnedBy(ownerID) {
			cp := *link
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeLinkRepo) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	links, _ := r.ListByOwner(ctx, ownerID)
	return int64(len(links)), nil
}

func (r *fakeLinkRepo) Update(ctx context.Context, link *entities.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["Update"]++
	existing, ok := r.links[link.ID]
	if !ok || link.OwnerID == nil || !existing.OwnedBy(*link.OwnerID) {
		return repository.ErrNotFound
	}
	existing.Title = link.Title
	existing.PasswordHash = link.PasswordHash
	existing.ExpiryTime = link.ExpiryTime
	return nil
}

func (r *fakeLinkRepo) Delete(ctx context.Context, id, ownerID string) ([]string, error) {
	return r.DeleteMany(ctx, []string{id}, ownerID)
}

func (r *fakeLinkRepo) DeleteMany(ctx context.Context, ids []string, ownerID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["DeleteMany"]++
	codes := make([]string, 0)
	for _, id := range ids {
		link, ok := r.links[id]
		if !ok || !link.OwnedBy(ownerID) {
			continue
		}
		codes = append(codes, link.ShortCode)
		delete(r.links, id)
		kept := r.visits[:0]
		for _, v := range r.visits {
			if v.LinkID != id {
				kept = append(kept, v)
			}
		}
		r.visits = kept
	}
	return codes, nil
}

func (r *fakeLinkRepo) ClaimUnowned(ctx context.Context, shortCodes []string, ownerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["ClaimUnowned"]++
	wanted := make(map[string]bool, len(shortCodes))
	for _, c := range shortCodes {
		wanted[c] = true
	}
	var n int64
	for _, link := range r.links {
		if wanted[link.ShortCode] && link.OwnerID == nil {
			owner := ownerID
			link.OwnerID = &owner
			n++
		}
	}
	return n, nil
}

func (r *fakeLinkRepo) RecordVisit(ctx context.Context, visit *entities.Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["RecordVisit"]++
	if r.visitErr != nil {
		return r.visitErr
	}
	link, ok := r.links[visit.LinkID]
	if !ok {
		return repository.ErrNotFound
	}
	link.Clicks++
	cp := *visit
	r.visits = append(r.visits, &cp)
	return nil
}

func (r *fakeLinkRepo) ListVisits(ctx context.Context, linkID string) ([]*entities.Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entities.Visit, 0)
	for _, v := range r.visits {
		if v.LinkID == linkID {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type fakeDomainRepo struct {
	mu      sync.Mutex
	domains map[string]*entities.Domain
}

func newFakeDomainRepo(domains ...*entities.Domain) *fakeDomainRepo {
	r := &fakeDomainRepo{domains: make(map[string]*entities.Domain)}
	for _, d := range domains {
		r.domains[d.ID] = d
	}
	return r
}

func (r *fakeDomainRepo) Create(ctx context.Context, domain *entities.Domain) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.domains {
		if d.Hostname == domain.Hostname {
			return repository.ErrDuplicate
		}
	}
	cp := *domain
	r.domains[domain.ID] = &cp
	return nil
}

func (r *fakeDomainRepo) FindByID(ctx context.Context, id string) (*entities.Domain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.domains[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDomainRepo) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Domain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entities.Domain, 0)
	for _, d := range r.domains {
		if d.OwnerID == ownerID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeDomainRepo) MarkVerified(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.domains[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.Verified = true
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entities.User
}

func newFakeUserRepo(users ...*entities.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*entities.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	t := at
	u.LastLogin = &t
	return nil
}

// memCache is an in-memory cache.Cache; expiration is ignored.
type memCache struct {
	mu      sync.Mutex
	data    map[string]string
	deletes int
	failGet bool
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string]string)}
}

func (m *memCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return "", errors.New("connection refused")
	}
	v, ok := m.data[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return v, nil
}

func (m *memCache) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
		m.deletes++
	}
	return nil
}

func (m *memCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return m.Set(ctx, key, string(data), expiration)
}

func (m *memCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := m.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func (m *memCache) Ping(ctx context.Context) error { return nil }
func (m *memCache) Close() error                   { return nil }

func (m *memCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

var _ cache.Cache = (*memCache)(nil)
var _ repository.LinkRepository = (*fakeLinkRepo)(nil)
var _ repository.DomainRepository = (*fakeDomainRepo)(nil)
var _ repository.UserRepository = (*fakeUserRepo)(nil)
