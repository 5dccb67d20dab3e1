package models

import "time"

// LinkResponse is a link as exposed to API callers. It never carries the password,
// only whether one is set.
type LinkResponse struct {
	ID          string     `json:"id"`
	ShortCode   string     `json:"shortCode"`
	ShortURL    string     `json:"shortUrl"`
	OriginalURL string     `json:"originalUrl"`
	Title       *string    `json:"title"`
	Protected   bool       `json:"protected"`
	ExpiryTime  *time.Time `json:"expiryTime"`
	Clicks      int64      `json:"clicks"`
	DomainID    *string    `json:"domainId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	IsExpired   bool       `json:"isExpired"`
	IsActive    bool       `json:"isActive"`
}

// CreateLinkResponse represents the response after creating a short link
type CreateLinkResponse struct {
	Success  bool         `json:"success"`
	Link     LinkResponse `json:"link"`
	ShortURL string       `json:"shortUrl"`
	Message  string       `json:"message"`
}

type LinkListResponse struct {
	Success bool            `json:"success"`
	Links   []*LinkResponse `json:"links"`
}

type SyncLinksResponse struct {
	Success     bool  `json:"success"`
	SyncedCount int64 `json:"syncedCount"`
}

type BulkDeleteResponse struct {
	Success bool   `json:"success"`
	Deleted int64  `json:"deleted"`
	Message string `json:"message"`
}

// BulkCreateResponse reports per-URL outcomes; one failure does not stop the batch
type BulkCreateResponse struct {
	Success bool            `json:"success"`
	Created int             `json:"created"`
	Failed  int             `json:"failed"`
	Links   []*LinkResponse `json:"links"`
	Errors  []BulkError     `json:"errors"`
}

type BulkError struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// ResolveResponse is the JSON form of a successful resolution
type ResolveResponse struct {
	RedirectURL string `json:"redirectUrl"`
}

// LinkAnalyticsResponse summarises the visits of one link
type LinkAnalyticsResponse struct {
	LinkID       string           `json:"linkId"`
	ShortCode    string           `json:"shortCode"`
	TotalClicks  int64            `json:"totalClicks"`
	Devices      map[string]int   `json:"devices"`
	TopReferrers []ReferrerCount  `json:"topReferrers"`
	DailyClicks  []DailyCount     `json:"dailyClicks"`
	RecentVisits []*VisitResponse `json:"recentVisits"`
}

type ReferrerCount struct {
	Referrer string `json:"referrer"`
	Count    int    `json:"count"`
}

type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD, UTC
	Count int    `json:"count"`
}

type VisitResponse struct {
	Device    string    `json:"device"`
	Referrer  string    `json:"referrer"`
	UserAgent string    `json:"userAgent"`
	Timestamp time.Time `json:"timestamp"`
}
