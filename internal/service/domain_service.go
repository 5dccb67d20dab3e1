package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"securelink/internal/entities"
	"securelink/internal/models"
	"securelink/internal/repository"
)

const txtRecordPrefix = "securelink-verification="

var hostnamePattern = regexp.MustCompile(`^(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z0-9][a-z0-9-]{0,61}[a-z0-9]$`)

//go:generate mockgen -source=domain_service.go -destination=mock_txt_resolver_test.go -package=service TXTResolver

// TXTResolver looks up DNS TXT records. *net.Resolver implements it.
type TXTResolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// DomainService manages custom domains and their DNS ownership proof
type DomainService interface {
	List(ctx context.Context, ownerID string) ([]*models.DomainResponse, error)
	Add(ctx context.Context, ownerID, hostname string) (*models.DomainResponse, error)
	Verify(ctx context.Context, ownerID, domainID string) (*models.VerifyDomainResponse, error)
}

type domainService struct {
	domains repository.DomainRepository
	dns     TXTResolver
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewDomainService creates a domain service; TXT lookups are bounded by dnsTimeout.
func NewDomainService(domains repository.DomainRepository, dns TXTResolver, dnsTimeout time.Duration, logger *slog.Logger) DomainService {
	return &domainService{
		domains: domains,
		dns:     dns,
		timeout: dnsTimeout,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *domainService) List(ctx context.Context, ownerID string) ([]*models.DomainResponse, error) {
	domains, err := s.domains.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, internal("failed to list domains", err)
	}

	responses := make([]*models.DomainResponse, len(domains))
	for i, d := range domains {
		responses[i] = toDomainResponse(d)
	}
	return responses, nil
}

// Add registers hostname for ownerID and issues the TXT token that proves ownership.
func (s *domainService) Add(ctx context.Context, ownerID, hostname string) (*models.DomainResponse, error) {
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	if hostname == "" {
		return nil, ErrInvalidDomain.withMessage("domain is required")
	}
	if len(hostname) > 253 || !hostnamePattern.MatchString(hostname) {
		return nil, ErrInvalidDomain
	}

	token := make([]byte, 16)
	if _, err := rand.Read(token); err != nil {
		return nil, internal("failed to generate verification token", err)
	}

	domain := &entities.Domain{
		ID:        uuid.NewString(),
		Hostname:  hostname,
		OwnerID:   ownerID,
		TXTRecord: txtRecordPrefix + hex.EncodeToString(token),
		CreatedAt: s.now().UTC(),
	}
	if err := s.domains.Create(ctx, domain); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDomainTaken
		}
		return nil, internal("failed to create domain", err)
	}

	s.logger.Info("domain added", "domain", hostname, "owner_id", ownerID)
	return toDomainResponse(domain), nil
}

// Verify checks the domain's TXT records for its token. Hostnames starting with
// "demo-" are accepted without a lookup.
func (s *domainService) Verify(ctx context.Context, ownerID, domainID string) (*models.VerifyDomainResponse, error) {
	if domainID == "" {
		return nil, ErrInvalidDomain.withMessage("domain ID is required")
	}
	if _, err := uuid.Parse(domainID); err != nil {
		return nil, ErrDomainNotFound
	}

	domain, err := s.domains.FindByID(ctx, domainID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrDomainNotFound
	}
	if err != nil {
		return nil, internal("failed to find domain", err)
	}
	if domain.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	if domain.Verified {
		return &models.VerifyDomainResponse{Success: true, Verified: true, Message: "Domain already verified"}, nil
	}

	if !strings.HasPrefix(domain.Hostname, "demo-") {
		if err := s.checkTXT(ctx, domain); err != nil {
			return nil, err
		}
	}

	if err := s.domains.MarkVerified(ctx, domain.ID); err != nil {
		return nil, internal("failed to mark domain verified", err)
	}
	s.logger.Info("domain verified", "domain", domain.Hostname)
	return &models.VerifyDomainResponse{Success: true, Verified: true}, nil
}

func (s *domainService) checkTXT(ctx context.Context, domain *entities.Domain) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	records, err := s.dns.LookupTXT(ctx, domain.Hostname)
	if err != nil {
		s.logger.Warn("TXT lookup failed", "domain", domain.Hostname, "error", err)
		return ErrDomainUnverified.withMessage("DNS lookup failed, please check the domain name")
	}
	for _, record := range records {
		if strings.TrimSpace(record) == domain.TXTRecord {
			return nil
		}
	}
	return ErrDomainUnverified
}

func toDomainResponse(d *entities.Domain) *models.DomainResponse {
	return &models.DomainResponse{
		ID:        d.ID,
		Domain:    d.Hostname,
		TXTRecord: d.TXTRecord,
		Verified:  d.Verified,
		CreatedAt: d.CreatedAt,
	}
}
