package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanjshine99/care-app-backend/internal/domain"
	"github.com/sanjshine99/care-app-backend/internal/store/memstore"
)

func TestGetReturnsDefaultsWhenUnset(t *testing.T) {
	repo := memstore.NewSettings()
	s := New(repo)

	v, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), v)
}

func TestSaveRejectsBadWeightSum(t *testing.T) {
	repo := memstore.NewSettings()
	s := New(repo)

	bad := domain.DefaultSettings()
	bad.PreferredCaregiverWeight = 0.9
	bad.DistanceWeight = 0.9
	bad.AvailabilityWeight = 0.9

	err := s.Save(context.Background(), bad)
	assert.Error(t, err)
}

func TestSaveRejectsBadWorkingHours(t *testing.T) {
	repo := memstore.NewSettings()
	s := New(repo)

	bad := domain.DefaultSettings()
	bad.WorkingHoursStart = bad.WorkingHoursEnd

	err := s.Save(context.Background(), bad)
	assert.Error(t, err)
}

func TestGetReflectsSaveImmediately(t *testing.T) {
	repo := memstore.NewSettings()
	s := New(repo)

	updated := domain.DefaultSettings()
	updated.MaxDistanceKM = 42

	err := s.Save(context.Background(), updated)
	require.NoError(t, err)

	v, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(42), v.MaxDistanceKM)
}

func TestGetServesCachedValueAfterRepoChangesBehindItsBack(t *testing.T) {
	repo := memstore.NewSettings()
	s := New(repo)

	first, err := s.Get(context.Background())
	require.NoError(t, err)

	direct := first
	direct.MaxDistanceKM = 999
	require.NoError(t, repo.Save(context.Background(), direct))

	cached, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.MaxDistanceKM, cached.MaxDistanceKM)
}
