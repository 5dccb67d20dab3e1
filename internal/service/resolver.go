package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"securelink/internal/cache"
	"securelink/internal/entities"
	"securelink/internal/metrics"
	"securelink/internal/repository"
)

// Outcome is the terminal state of one resolution.
type Outcome int

const (
	OutcomeResolved Outcome = iota
	OutcomeNotFound
	OutcomeExpired
	OutcomePasswordRequired
	OutcomePasswordRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeResolved:
		return "resolved"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeExpired:
		return "expired"
	case OutcomePasswordRequired:
		return "password_required"
	case OutcomePasswordRejected:
		return "password_rejected"
	default:
		return "unknown"
	}
}

// ResolveRequest is what the resolver needs from an inbound request.
type ResolveRequest struct {
	Code      string
	Password  *string // nil or empty when nothing was submitted
	UserAgent string
	Referrer  string
}

// Resolution is the result of a resolution. OriginalURL is set only for OutcomeResolved,
// ExpiredAt only for OutcomeExpired.
type Resolution struct {
	Outcome     Outcome
	ShortCode   string
	OriginalURL string
	ExpiredAt   *time.Time
}

// Resolver decides what a short code resolves to and records the visit on success.
type Resolver interface {
	Resolve(ctx context.Context, req ResolveRequest) (*Resolution, error)
}

// LinkLookup finds links by short code.
type LinkLookup interface {
	FindByShortCode(ctx context.Context, shortCode string) (*entities.Link, error)
}

// linkSnapshot is the cached subset of a link needed to resolve it.
type linkSnapshot struct {
	ID           string     `json:"id"`
	OriginalURL  string     `json:"originalUrl"`
	ExpiryTime   *time.Time `json:"expiryTime,omitempty"`
	PasswordHash *string    `json:"passwordHash,omitempty"`
}

func linkCacheKey(shortCode string) string {
	return "link:" + shortCode
}

type resolver struct {
	links    LinkLookup
	visits   VisitRecorder
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewResolver creates a resolver. cacheClient may be nil.
func NewResolver(links LinkLookup, visits VisitRecorder, cacheClient cache.Cache, cacheTTL time.Duration, logger *slog.Logger, m *metrics.Metrics) Resolver {
	return &resolver{
		links:    links,
		visits:   visits,
		cache:    cacheClient,
		cacheTTL: cacheTTL,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

func (r *resolver) Resolve(ctx context.Context, req ResolveRequest) (*Resolution, error) {
	if req.Code == "" {
		return nil, ErrCodeRequired
	}

	snap, err := r.lookup(ctx, req.Code)
	if errors.Is(err, repository.ErrNotFound) {
		return r.finish(&Resolution{Outcome: OutcomeNotFound, ShortCode: req.Code}), nil
	}
	if err != nil {
		return nil, internal("failed to look up link", err)
	}

	if snap.ExpiryTime != nil && r.now().After(*snap.ExpiryTime) {
		return r.finish(&Resolution{Outcome: OutcomeExpired, ShortCode: req.Code, ExpiredAt: snap.ExpiryTime}), nil
	}

	if snap.PasswordHash != nil && *snap.PasswordHash != "" {
		if req.Password == nil || *req.Password == "" {
			return r.finish(&Resolution{Outcome: OutcomePasswordRequired, ShortCode: req.Code}), nil
		}
		if bcrypt.CompareHashAndPassword([]byte(*snap.PasswordHash), []byte(*req.Password)) != nil {
			return r.finish(&Resolution{Outcome: OutcomePasswordRejected, ShortCode: req.Code}), nil
		}
	}

	r.visits.Record(ctx, snap.ID, req.UserAgent, req.Referrer)

	return r.finish(&Resolution{Outcome: OutcomeResolved, ShortCode: req.Code, OriginalURL: snap.OriginalURL}), nil
}

func (r *resolver) finish(res *Resolution) *Resolution {
	r.metrics.ObserveResolution(res.Outcome.String())
	return res
}

// lookup reads the link snapshot from the cache, falling back to the store and
// refilling the cache. Cache failures only cost the fast path.
func (r *resolver) lookup(ctx context.Context, code string) (*linkSnapshot, error) {
	key := linkCacheKey(code)

	if r.cache != nil {
		var snap linkSnapshot
		err := r.cache.GetJSON(ctx, key, &snap)
		switch {
		case err == nil:
			r.metrics.ObserveCache("hit")
			return &snap, nil
		case errors.Is(err, cache.ErrCacheMiss):
			r.metrics.ObserveCache("miss")
		default:
			r.metrics.ObserveCache("error")
			r.logger.Warn("cache read failed", "key", key, "error", err)
		}
	}

	link, err := r.links.FindByShortCode(ctx, code)
	if err != nil {
		return nil, err
	}

	snap := &linkSnapshot{
		ID:           link.ID,
		OriginalURL:  link.OriginalURL,
		ExpiryTime:   link.ExpiryTime,
		PasswordHash: link.PasswordHash,
	}
	if r.cache != nil {
		if err := r.cache.SetJSON(ctx, key, snap, r.cacheTTL); err != nil {
			r.logger.Warn("cache write failed", "key", key, "error", err)
		}
	}
	return snap, nil
}
