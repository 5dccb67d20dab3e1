package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"securelink/internal/cache"
	"securelink/internal/entities"
	"securelink/internal/metrics"
	"securelink/internal/models"
	"securelink/internal/repository"
)

const (
	// MaxBatchSize caps bulk create and bulk delete.
	MaxBatchSize = 100
	// MaxSyncSize caps the short codes accepted by one claim.
	MaxSyncSize = 1000
)

const (
	maxCodeAttempts      = 5
	recentVisitsLimit    = 50
	topReferrersLimit    = 10
	defaultAnalyticsDays = 30

	// maxExpiry caps expiryMinutes; larger values would overflow time.Duration.
	maxExpiry = 100 * 365 * 24 * time.Hour
)

// reservedAliases would be shadowed by system routes under / and /api.
var reservedAliases = map[string]bool{
	"api":     true,
	"health":  true,
	"metrics": true,
	"auth":    true,
	"links":   true,
	"domains": true,
}

// LinkService defines the interface for link business logic
type LinkService interface {
	Create(ctx context.Context, req *models.CreateLinkRequest, who Identity) (*models.LinkResponse, error)
	BulkCreate(ctx context.Context, urls []string, who Identity) (*models.BulkCreateResponse, error)
	Claim(ctx context.Context, shortCodes []string, ownerID string) (int64, error)
	Delete(ctx context.Context, linkID, ownerID string) error
	BulkDelete(ctx context.Context, linkIDs []string, ownerID string) (int64, error)
	List(ctx context.Context, ownerID string) ([]*models.LinkResponse, error)
	Get(ctx context.Context, linkID, ownerID string) (*models.LinkResponse, error)
	Update(ctx context.Context, linkID, ownerID string, req *models.UpdateLinkRequest) (*models.LinkResponse, error)
	Analytics(ctx context.Context, linkID, ownerID string, days int) (*models.LinkAnalyticsResponse, error)
	ExportCSV(ctx context.Context, ownerID string, w io.Writer) error
}

// LinkServiceConfig carries the tunables of the creation pipeline
type LinkServiceConfig struct {
	BaseURL    string // origin of short URLs, without trailing slash
	CodeLength int
	SearchURL  string // prefix of the search fallback, query is appended
}

type linkService struct {
	links   repository.LinkRepository
	domains repository.DomainRepository
	cache   cache.Cache
	cfg     LinkServiceConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newCode func() (string, error)
}

// NewLinkService creates a new link service. cacheClient may be nil.
func NewLinkService(
	links repository.LinkRepository,
	domains repository.DomainRepository,
	cacheClient cache.Cache,
	cfg LinkServiceConfig,
	logger *slog.Logger,
	m *metrics.Metrics,
) LinkService {
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = DefaultCodeLength
	}
	if cfg.SearchURL == "" {
		cfg.SearchURL = "https://www.google.com/search?q="
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	svc := &linkService{
		links:   links,
		domains: domains,
		cache:   cacheClient,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
	svc.newCode = func() (string, error) { return GenerateCode(svc.cfg.CodeLength) }
	return svc
}

// Create runs the creation pipeline: validate and normalize the URL, screen it,
// pick a short code, bind an optional verified domain, compute expiry and persist.
func (s *linkService) Create(ctx context.Context, req *models.CreateLinkRequest, who Identity) (*models.LinkResponse, error) {
	raw := req.OriginalURL
	if strings.TrimSpace(raw) == "" {
		return nil, ErrMissingURL
	}

	originalURL := normalizeURL(raw, s.cfg.SearchURL)

	if isFlagged(raw) {
		return nil, ErrFlaggedMalicious
	}

	now := s.now().UTC()
	link := &entities.Link{
		ID:          uuid.NewString(),
		OriginalURL: originalURL,
		Title:       nonEmpty(req.Title),
		ExpiryTime:  s.expiryFor(req, now),
		CreatedAt:   now,
	}

	ownerID, identified := who.OwnerID()
	if identified {
		link.OwnerID = &ownerID
	}

	alias := ""
	if req.CustomAlias != nil {
		alias = strings.TrimSpace(*req.CustomAlias)
	}
	if alias != "" {
		if err := ValidateAlias(alias); err != nil {
			return nil, err
		}
		if reservedAliases[strings.ToLower(alias)] {
			return nil, ErrAliasTaken
		}
	}

	if identified && req.DomainID != nil && *req.DomainID != "" {
		domainID, err := s.verifiedDomain(ctx, *req.DomainID, ownerID)
		if err != nil {
			return nil, err
		}
		link.DomainID = domainID
	}

	if req.Password != nil && *req.Password != "" {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		link.PasswordHash = hash
	}

	if alias != "" {
		if err := s.insertWithAlias(ctx, link, alias); err != nil {
			return nil, err
		}
	} else {
		if err := s.insertWithGeneratedCode(ctx, link); err != nil {
			return nil, err
		}
	}

	s.metrics.ObserveLinkCreated(identified)
	s.logger.Info("link created", "short_code", link.ShortCode, "owned", identified, "protected", link.Protected())

	return s.toResponse(link), nil
}

// insertWithAlias stores link under a caller-chosen code. The unique index decides
// concurrent races for the same alias.
func (s *linkService) insertWithAlias(ctx context.Context, link *entities.Link, alias string) error {
	_, err := s.links.FindByShortCode(ctx, alias)
	if err == nil {
		return ErrAliasTaken
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return internal("failed to check alias", err)
	}

	link.ShortCode = alias
	if err := s.links.Create(ctx, link); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrAliasTaken
		}
		return internal("failed to create link", err)
	}
	return nil
}

// insertWithGeneratedCode retries on collision with a fresh code.
func (s *linkService) insertWithGeneratedCode(ctx context.Context, link *entities.Link) error {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return internal("failed to generate short code", err)
		}
		if reservedAliases[strings.ToLower(code)] {
			continue
		}

		link.ShortCode = code
		err = s.links.Create(ctx, link)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return internal("failed to create link", err)
		}
		s.logger.Debug("generated short code collided", "short_code", code, "attempt", attempt)
	}
	return ErrCodesExhausted
}

// verifiedDomain returns domainID when it names a verified domain of ownerID, nil otherwise.
func (s *linkService) verifiedDomain(ctx context.Context, domainID, ownerID string) (*string, error) {
	if _, err := uuid.Parse(domainID); err != nil {
		return nil, nil
	}

	domain, err := s.domains.FindByID(ctx, domainID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, internal("failed to look up domain", err)
	}
	if domain.OwnerID != ownerID || !domain.Verified {
		return nil, nil
	}
	return &domain.ID, nil
}

// expiryFor gives expiryMinutes precedence over a parseable customExpiryDate.
func (s *linkService) expiryFor(req *models.CreateLinkRequest, now time.Time) *time.Time {
	if req.ExpiryMinutes != nil && *req.ExpiryMinutes > 0 {
		ttl := maxExpiry
		if *req.ExpiryMinutes < maxExpiry.Minutes() {
			ttl = time.Duration(*req.ExpiryMinutes * float64(time.Minute))
		}
		t := now.Add(ttl)
		return &t
	}
	if req.CustomExpiryDate != nil {
		if t, ok := parseTime(*req.CustomExpiryDate); ok {
			return &t
		}
	}
	return nil
}

func (s *linkService) BulkCreate(ctx context.Context, urls []string, who Identity) (*models.BulkCreateResponse, error) {
	if len(urls) == 0 {
		return nil, ErrNoItems.withMessage("URLs array is required")
	}
	if len(urls) > MaxBatchSize {
		return nil, ErrTooManyItems.withMessage("maximum %d URLs allowed per request", MaxBatchSize)
	}

	resp := &models.BulkCreateResponse{
		Success: true,
		Links:   make([]*models.LinkResponse, 0, len(urls)),
		Errors:  make([]models.BulkError, 0),
	}
	for _, u := range urls {
		link, err := s.Create(ctx, &models.CreateLinkRequest{OriginalURL: u}, who)
		if err != nil {
			resp.Errors = append(resp.Errors, models.BulkError{URL: u, Error: err.Error()})
			continue
		}
		resp.Links = append(resp.Links, link)
	}
	resp.Created = len(resp.Links)
	resp.Failed = len(resp.Errors)
	return resp, nil
}

// Claim assigns ownerID to the ownerless links among shortCodes. Links owned by
// anyone, ownerID included, are left alone.
func (s *linkService) Claim(ctx context.Context, shortCodes []string, ownerID string) (int64, error) {
	if len(shortCodes) > MaxSyncSize {
		return 0, ErrTooManyItems.withMessage("maximum %d short codes allowed per request", MaxSyncSize)
	}

	codes := make([]string, 0, len(shortCodes))
	seen := make(map[string]bool, len(shortCodes))
	for _, code := range shortCodes {
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return 0, nil
	}

	claimed, err := s.links.ClaimUnowned(ctx, codes, ownerID)
	if err != nil {
		return 0, internal("failed to claim links", err)
	}
	if claimed > 0 {
		s.logger.Info("links claimed", "owner_id", ownerID, "count", claimed)
	}
	return claimed, nil
}

func (s *linkService) Delete(ctx context.Context, linkID, ownerID string) error {
	if _, err := s.ownedLink(ctx, linkID, ownerID); err != nil {
		return err
	}

	codes, err := s.links.Delete(ctx, linkID, ownerID)
	if err != nil {
		return internal("failed to delete link", err)
	}
	// ownership changed between the check and the delete
	if len(codes) == 0 {
		return ErrLinkNotFound
	}
	s.invalidate(ctx, codes...)
	return nil
}

// BulkDelete deletes the links among linkIDs owned by ownerID and skips the rest.
func (s *linkService) BulkDelete(ctx context.Context, linkIDs []string, ownerID string) (int64, error) {
	if len(linkIDs) > MaxBatchSize {
		return 0, ErrTooManyItems.withMessage("maximum %d links per request", MaxBatchSize)
	}
	if len(linkIDs) == 0 {
		return 0, ErrNoItems.withMessage("link IDs array is required")
	}

	ids := make([]string, 0, len(linkIDs))
	for _, id := range linkIDs {
		if _, err := uuid.Parse(id); err == nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	codes, err := s.links.DeleteMany(ctx, ids, ownerID)
	if err != nil {
		return 0, internal("failed to delete links", err)
	}
	s.invalidate(ctx, codes...)
	return int64(len(codes)), nil
}

func (s *linkService) List(ctx context.Context, ownerID string) ([]*models.LinkResponse, error) {
	links, err := s.links.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, internal("failed to list links", err)
	}

	responses := make([]*models.LinkResponse, len(links))
	for i, link := range links {
		responses[i] = s.toResponse(link)
	}
	return responses, nil
}

func (s *linkService) Get(ctx context.Context, linkID, ownerID string) (*models.LinkResponse, error) {
	link, err := s.ownedLink(ctx, linkID, ownerID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(link), nil
}

func (s *linkService) Update(ctx context.Context, linkID, ownerID string, req *models.UpdateLinkRequest) (*models.LinkResponse, error) {
	link, err := s.ownedLink(ctx, linkID, ownerID)
	if err != nil {
		return nil, err
	}

	if req.Title.Set {
		link.Title = nonEmpty(req.Title.Value)
	}

	if req.Password.Set {
		link.PasswordHash = nil
		if req.Password.Value != nil && *req.Password.Value != "" {
			hash, err := hashPassword(*req.Password.Value)
			if err != nil {
				return nil, err
			}
			link.PasswordHash = hash
		}
	}

	if req.ExpiryTime.Set {
		link.ExpiryTime = nil
		if value := nonEmpty(req.ExpiryTime.Value); value != nil {
			t, ok := parseTime(*value)
			if !ok {
				return nil, ErrInvalidExpiry.withMessage("invalid date format, use ISO 8601 (e.g. 2024-12-31T23:59:59Z)")
			}
			// Allow a 2-second buffer to account for network latency and processing time
			if t.Before(s.now().Add(-2 * time.Second)) {
				return nil, ErrInvalidExpiry
			}
			link.ExpiryTime = &t
		}
	}

	if err := s.links.Update(ctx, link); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, internal("failed to update link", err)
	}
	s.invalidate(ctx, link.ShortCode)

	return s.toResponse(link), nil
}

func (s *linkService) Analytics(ctx context.Context, linkID, ownerID string, days int) (*models.LinkAnalyticsResponse, error) {
	link, err := s.ownedLink(ctx, linkID, ownerID)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = defaultAnalyticsDays
	}

	visits, err := s.links.ListVisits(ctx, link.ID)
	if err != nil {
		return nil, internal("failed to load visits", err)
	}

	resp := &models.LinkAnalyticsResponse{
		LinkID:      link.ID,
		ShortCode:   link.ShortCode,
		TotalClicks: link.Clicks,
		Devices: map[string]int{
			string(entities.DeviceDesktop): 0,
			string(entities.DeviceMobile):  0,
			string(entities.DeviceTablet):  0,
		},
		TopReferrers: make([]models.ReferrerCount, 0),
		DailyClicks:  make([]models.DailyCount, 0, days),
		RecentVisits: make([]*models.VisitResponse, 0, recentVisitsLimit),
	}

	// one bucket per UTC day, oldest first, ending today
	today := s.now().UTC().Truncate(24 * time.Hour)
	first := today.AddDate(0, 0, -(days - 1))
	daily := make(map[string]int, days)
	referrers := make(map[string]int)

	for i, visit := range visits {
		resp.Devices[string(visit.Device)]++
		referrers[visit.Referrer]++

		created := visit.CreatedAt.UTC()
		if !created.Before(first) {
			daily[created.Format("2006-01-02")]++
		}
		if i < recentVisitsLimit {
			resp.RecentVisits = append(resp.RecentVisits, &models.VisitResponse{
				Device:    string(visit.Device),
				Referrer:  visit.Referrer,
				UserAgent: visit.UserAgent,
				Timestamp: visit.CreatedAt,
			})
		}
	}

	for d := first; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		resp.DailyClicks = append(resp.DailyClicks, models.DailyCount{Date: key, Count: daily[key]})
	}

	for referrer, count := range referrers {
		resp.TopReferrers = append(resp.TopReferrers, models.ReferrerCount{Referrer: referrer, Count: count})
	}
	sort.Slice(resp.TopReferrers, func(i, j int) bool {
		a, b := resp.TopReferrers[i], resp.TopReferrers[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Referrer < b.Referrer
	})
	if len(resp.TopReferrers) > topReferrersLimit {
		resp.TopReferrers = resp.TopReferrers[:topReferrersLimit]
	}

	return resp, nil
}

// ExportCSV writes the owner's links as CSV, newest first.
func (s *linkService) ExportCSV(ctx context.Context, ownerID string, w io.Writer) error {
	links, err := s.links.ListByOwner(ctx, ownerID)
	if err != nil {
		return internal("failed to list links", err)
	}

	cw := csv.NewWriter(w)
	header := []string{"id", "shortCode", "shortUrl", "originalUrl", "title", "clicks", "protected", "expiryTime", "createdAt"}
	if err := cw.Write(header); err != nil {
		return internal("failed to write csv", err)
	}

	for _, link := range links {
		title, expiry := "", ""
		if link.Title != nil {
			title = *link.Title
		}
		if link.ExpiryTime != nil {
			expiry = link.ExpiryTime.UTC().Format(time.RFC3339)
		}
		record := []string{
			link.ID,
			link.ShortCode,
			s.shortURL(link.ShortCode),
			link.OriginalURL,
			title,
			strconv.FormatInt(link.Clicks, 10),
			strconv.FormatBool(link.Protected()),
			expiry,
			link.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return internal("failed to write csv", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return internal("failed to write csv", err)
	}
	return nil
}

// ownedLink loads a link and checks that ownerID owns it.
func (s *linkService) ownedLink(ctx context.Context, linkID, ownerID string) (*entities.Link, error) {
	if _, err := uuid.Parse(linkID); err != nil {
		return nil, ErrLinkNotFound
	}

	link, err := s.links.FindByID(ctx, linkID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, internal("failed to find link", err)
	}
	if !link.OwnedBy(ownerID) {
		return nil, ErrForbidden
	}
	return link, nil
}

// invalidate drops cached resolution snapshots. Failures are logged only; the
// entries expire with the cache TTL.
func (s *linkService) invalidate(ctx context.Context, shortCodes ...string) {
	if s.cache == nil || len(shortCodes) == 0 {
		return
	}

	keys := make([]string, len(shortCodes))
	for i, code := range shortCodes {
		keys[i] = linkCacheKey(code)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.metrics.ObserveCache("error")
		s.logger.Warn("cache invalidation failed", "keys", len(keys), "error", err)
	}
}

func (s *linkService) shortURL(code string) string {
	return fmt.Sprintf("%s/%s", s.cfg.BaseURL, code)
}

func (s *linkService) toResponse(link *entities.Link) *models.LinkResponse {
	expired := link.ExpiredAt(s.now())
	return &models.LinkResponse{
		ID:          link.ID,
		ShortCode:   link.ShortCode,
		ShortURL:    s.shortURL(link.ShortCode),
		OriginalURL: link.OriginalURL,
		Title:       link.Title,
		Protected:   link.Protected(),
		ExpiryTime:  link.ExpiryTime,
		Clicks:      link.Clicks,
		DomainID:    link.DomainID,
		CreatedAt:   link.CreatedAt,
		IsExpired:   expired,
		IsActive:    !expired,
	}
}

// parseTime accepts RFC 3339 and the zone-less forms browsers send from date inputs,
// which are read as UTC.
func parseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// hashPassword bcrypt-hashes a link password. Passwords are taken verbatim, whitespace included.
func hashPassword(password string) (*string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internal("failed to hash password", err)
	}
	hashed := string(hash)
	return &hashed, nil
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
