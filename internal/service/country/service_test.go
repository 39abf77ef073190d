package country

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dealbridge-billing/internal/pkg/breaker"
	xerrors "dealbridge-billing/internal/pkg/errors"
)

func testBreaker() breaker.Config {
	return breaker.Config{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureThreshold: 3}
}

func TestListFetchesSortsAndCaches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"name":{"common":"Kenya"}},{"name":{"common":"Ghana"}},{"name":{"common":""}}]`))
	}))
	defer srv.Close()

	db, mock := redismock.NewClientMock()
	mock.ExpectGet(cacheKey).RedisNil()
	mock.ExpectSet(cacheKey, `["Ghana","Kenya"]`, cacheTTL).SetVal("OK")

	svc := NewService(srv.URL, db, testBreaker(), zap.NewNop())
	names, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Ghana", "Kenya"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListServesCache(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet(cacheKey).SetVal(`["Rwanda"]`)

	svc := NewService("http://unused.invalid", db, testBreaker(), zap.NewNop())
	names, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Rwanda"}, names)
}

func TestListFallsBackWhenDirectoryFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	db, mock := redismock.NewClientMock()
	mock.ExpectGet(cacheKey).RedisNil()

	svc := NewService(srv.URL, db, testBreaker(), zap.NewNop())
	names, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Fallback, names)
}

func TestCanonical(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := NewService("", db, testBreaker(), zap.NewNop())

	mock.ExpectGet(cacheKey).RedisNil()
	got, err := svc.Canonical(context.Background(), "  kenya ")
	require.NoError(t, err)
	assert.Equal(t, "Kenya", got)

	mock.ExpectGet(cacheKey).RedisNil()
	_, err = svc.Canonical(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, xerrors.ErrValidation)

	_, err = svc.Canonical(context.Background(), "")
	assert.ErrorIs(t, err, xerrors.ErrValidation)
}

func TestCanonicalFailsWhileDirectoryIsDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	db, mock := redismock.NewClientMock()
	svc := NewService(srv.URL, db, testBreaker(), zap.NewNop())

	// Portugal is missing from Fallback but must not be rejected as unknown.
	mock.ExpectGet(cacheKey).RedisNil()
	_, err := svc.Canonical(context.Background(), "Portugal")
	assert.ErrorIs(t, err, xerrors.ErrDownstream)
	assert.NotErrorIs(t, err, xerrors.ErrValidation)

	mock.ExpectGet(cacheKey).RedisNil()
	_, err = svc.Canonical(context.Background(), "Kenya")
	assert.ErrorIs(t, err, xerrors.ErrDownstream)

	mock.ExpectGet(cacheKey).SetVal(`["Kenya","Portugal"]`)
	got, err := svc.Canonical(context.Background(), "portugal")
	require.NoError(t, err)
	assert.Equal(t, "Portugal", got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
