package tenant

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

// Servicer verifies tenant credentials for the auth middleware.
type Servicer interface {
	Verify(ctx context.Context, tenantID int64, apiKey string) (*Pharmacy, error)
}

type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With("component", "tenant_service"),
	}
}

// Verify loads the pharmacy and compares the supplied API key against the
// stored bcrypt hash.
func (s *Service) Verify(ctx context.Context, tenantID int64, apiKey string) (*Pharmacy, error) {
	p, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidAPIKey
		}
		return nil, fmt.Errorf("load pharmacy %d: %w", tenantID, err)
	}

	if !p.IsActive {
		return nil, ErrInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(p.APIKeyHash), []byte(apiKey)); err != nil {
		s.log.Debug("api key mismatch", "tenant_id", tenantID)
		return nil, ErrInvalidAPIKey
	}

	return p, nil
}

// HashAPIKey produces the stored form of a freshly issued key.
func HashAPIKey(apiKey string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash api key: %w", err)
	}
	return string(hash), nil
}
