package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) GetByID(ctx context.Context, id int64) (*Pharmacy, error) {
	args := m.Called(ctx, id)
	var p *Pharmacy
	if v := args.Get(0); v != nil {
		p = v.(*Pharmacy)
	}
	return p, args.Error(1)
}

func activePharmacy(t *testing.T, apiKey string) *Pharmacy {
	t.Helper()
	hash, err := HashAPIKey(apiKey)
	require.NoError(t, err)
	return &Pharmacy{
		ID:         1,
		Name:       "Central Pharmacy",
		APIKeyHash: hash,
		IsActive:   true,
	}
}

func TestService_Verify_ValidKey(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, slog.Default())

	repo.On("GetByID", mock.Anything, int64(1)).Return(activePharmacy(t, "secret-key"), nil)

	p, err := svc.Verify(context.Background(), 1, "secret-key")

	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
}

func TestService_Verify_WrongKey(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, slog.Default())

	repo.On("GetByID", mock.Anything, int64(1)).Return(activePharmacy(t, "secret-key"), nil)

	_, err := svc.Verify(context.Background(), 1, "not-the-key")

	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestService_Verify_UnknownTenant(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, slog.Default())

	// Unknown tenant and wrong key are indistinguishable to the caller.
	repo.On("GetByID", mock.Anything, int64(42)).Return(nil, ErrNotFound)

	_, err := svc.Verify(context.Background(), 42, "secret-key")

	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestService_Verify_DeactivatedTenant(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, slog.Default())

	p := activePharmacy(t, "secret-key")
	p.IsActive = false
	repo.On("GetByID", mock.Anything, int64(1)).Return(p, nil)

	_, err := svc.Verify(context.Background(), 1, "secret-key")

	assert.ErrorIs(t, err, ErrInactive)
}
