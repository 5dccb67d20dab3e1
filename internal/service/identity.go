package service

import (
	"context"
	"log/slog"
	"time"

	"securelink/internal/jwt"
	"securelink/internal/repository"
)

// Identity is the caller of an operation: either anonymous or an identified account.
type Identity struct {
	ownerID string
}

// Anonymous is the identity of callers without a usable credential.
var Anonymous = Identity{}

// Identified returns the identity of the account ownerID.
func Identified(ownerID string) Identity {
	return Identity{ownerID: ownerID}
}

// OwnerID returns the account id and true for identified callers.
func (i Identity) OwnerID() (string, bool) {
	return i.ownerID, i.ownerID != ""
}

func (i Identity) IsAnonymous() bool {
	return i.ownerID == ""
}

// TokenVerifier validates bearer tokens. *jwt.JWTService implements it.
type TokenVerifier interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// IdentityResolver turns a bearer token into an Identity. It never fails: any problem
// with the token or the account lookup yields Anonymous.
type IdentityResolver interface {
	Resolve(ctx context.Context, bearerToken string) Identity
}

type identityResolver struct {
	tokens  TokenVerifier
	users   repository.UserRepository
	timeout time.Duration
	logger  *slog.Logger
}

// NewIdentityResolver creates a resolver that also checks the account still exists,
// bounding the lookup by timeout.
func NewIdentityResolver(tokens TokenVerifier, users repository.UserRepository, timeout time.Duration, logger *slog.Logger) IdentityResolver {
	return &identityResolver{
		tokens:  tokens,
		users:   users,
		timeout: timeout,
		logger:  logger,
	}
}

func (r *identityResolver) Resolve(ctx context.Context, bearerToken string) Identity {
	if bearerToken == "" {
		return Anonymous
	}

	claims, err := r.tokens.ValidateToken(bearerToken)
	if err != nil {
		r.logger.Debug("bearer token rejected", "error", err)
		return Anonymous
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	user, err := r.users.FindByID(ctx, claims.UserID)
	if err != nil {
		r.logger.Debug("token subject not usable", "user_id", claims.UserID, "error", err)
		return Anonymous
	}
	return Identified(user.ID)
}
