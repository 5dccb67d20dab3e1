package service

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"securelink/internal/entities"
	"securelink/internal/metrics"
)

var (
	tabletUA  = regexp.MustCompile(`(?i)ipad|tablet|playbook|silk|kindle`)
	androidUA = regexp.MustCompile(`(?i)android`)
	mobileUA  = regexp.MustCompile(`(?i)mobile|android|iphone|ipod|blackberry|opera mini|iemobile|windows phone`)
)

// ClassifyDevice derives the device class from a user agent. Tablet patterns are
// checked first because tablet user agents also match the generic Android pattern.
// Android without "Mobile" is a tablet by Android's own UA convention.
func ClassifyDevice(userAgent string) entities.Device {
	if tabletUA.MatchString(userAgent) {
		return entities.DeviceTablet
	}
	if androidUA.MatchString(userAgent) && !strings.Contains(strings.ToLower(userAgent), "mobile") {
		return entities.DeviceTablet
	}
	if mobileUA.MatchString(userAgent) {
		return entities.DeviceMobile
	}
	return entities.DeviceDesktop
}

// VisitStore persists a visit together with the click increment.
type VisitStore interface {
	RecordVisit(ctx context.Context, visit *entities.Visit) error
}

// VisitRecorder records successful resolutions. Failures are logged and swallowed.
type VisitRecorder interface {
	Record(ctx context.Context, linkID, userAgent, referrer string)
}

type visitRecorder struct {
	store   VisitStore
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewVisitRecorder creates a recorder whose writes are bounded by timeout and survive
// cancellation of the request that triggered them.
func NewVisitRecorder(store VisitStore, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) VisitRecorder {
	return &visitRecorder{
		store:   store,
		timeout: timeout,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

func (r *visitRecorder) Record(ctx context.Context, linkID, userAgent, referrer string) {
	if referrer == "" {
		referrer = "Direct"
	}
	if userAgent == "" {
		userAgent = "Unknown"
	}

	visit := &entities.Visit{
		ID:        uuid.NewString(),
		LinkID:    linkID,
		Device:    ClassifyDevice(userAgent),
		Referrer:  referrer,
		UserAgent: userAgent,
		CreatedAt: r.now().UTC(),
	}

	ctx = context.WithoutCancel(ctx)
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if err := r.store.RecordVisit(ctx, visit); err != nil {
		r.metrics.ObserveVisitFailure()
		r.logger.Warn("failed to record visit", "link_id", linkID, "error", err)
	}
}
