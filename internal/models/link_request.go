package models

// CreateLinkRequest represents the request body for creating a short link.
// Validation happens in the creation pipeline, so nothing here is bound as required.
type CreateLinkRequest struct {
	OriginalURL      string   `json:"originalUrl"`
	CustomAlias      *string  `json:"customAlias,omitempty"`
	Title            *string  `json:"title,omitempty"`
	Password         *string  `json:"password,omitempty"`
	ExpiryMinutes    *float64 `json:"expiryMinutes,omitempty"`
	CustomExpiryDate *string  `json:"customExpiryDate,omitempty"`
	DomainID         *string  `json:"domainId,omitempty"`
}

// UpdateLinkRequest is a partial update; absent fields are left alone and null clears.
type UpdateLinkRequest struct {
	Title      Optional[string] `json:"title"`
	Password   Optional[string] `json:"password"`
	ExpiryTime Optional[string] `json:"expiryTime"`
}

// SyncLinksRequest carries the short codes a guest created before signing in
type SyncLinksRequest struct {
	ShortCodes []string `json:"shortCodes"`
}

type BulkDeleteRequest struct {
	LinkIDs []string `json:"linkIds"`
}

type BulkCreateRequest struct {
	URLs []string `json:"urls"`
}

// UnlockRequest is the optional body of a resolution request
type UnlockRequest struct {
	Password string `json:"password" form:"password"`
}
