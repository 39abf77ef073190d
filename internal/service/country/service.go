// internal/service/country/service.go
package country

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"dealbridge-billing/internal/pkg/breaker"
	xerrors "dealbridge-billing/internal/pkg/errors"
)

const (
	cacheKey     = "billing:countries"
	cacheTTL     = 24 * time.Hour
	fetchTimeout = 5 * time.Second
)

// Fallback is the country list when no directory URL is configured. List
// also serves it while a configured directory is unreachable.
var Fallback = []string{
	"Egypt", "Ethiopia", "Ghana", "Kenya", "Morocco", "Nigeria", "Rwanda",
	"South Africa", "Tanzania", "Uganda", "United Kingdom", "United States",
}

type Service struct {
	url    string
	http   *http.Client
	redis  *redis.Client
	cb     *gobreaker.CircuitBreaker[[]string]
	logger *zap.Logger
}

func NewService(url string, rdb *redis.Client, cfg breaker.Config, logger *zap.Logger) *Service {
	return &Service{
		url:    url,
		http:   &http.Client{Timeout: fetchTimeout},
		redis:  rdb,
		cb:     breaker.New[[]string]("countries", cfg, logger, nil),
		logger: logger,
	}
}

// List returns country names sorted alphabetically.
func (s *Service) List(ctx context.Context) ([]string, error) {
	names, err := s.directory(ctx)
	if err != nil {
		s.logger.Warn("country directory unavailable, using fallback list", zap.Error(err))
		return Fallback, nil
	}
	return names, nil
}

// Canonical returns the directory spelling of name, matched case-insensitively.
// It fails with ErrDownstream rather than judging name against the fallback
// list while a configured directory is unreachable and nothing is cached.
func (s *Service) Canonical(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: country is required", xerrors.ErrValidation)
	}
	names, err := s.directory(ctx)
	if err != nil {
		return "", err
	}
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: unknown country %q", xerrors.ErrValidation, name)
}

func (s *Service) directory(ctx context.Context) ([]string, error) {
	if cached, ok := s.cached(ctx); ok {
		return cached, nil
	}

	if s.url == "" {
		return Fallback, nil
	}

	names, err := s.cb.Execute(func() ([]string, error) {
		return s.fetch(ctx)
	})
	if err != nil {
		if !errors.Is(err, xerrors.ErrDownstream) {
			err = xerrors.Downstream("countries", err)
		}
		return nil, err
	}

	if data, err := json.Marshal(names); err == nil {
		if err := s.redis.Set(ctx, cacheKey, string(data), cacheTTL).Err(); err != nil {
			s.logger.Warn("failed to cache countries", zap.Error(err))
		}
	}
	return names, nil
}

func (s *Service) cached(ctx context.Context) ([]string, bool) {
	raw, err := s.redis.Get(ctx, cacheKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("country cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil || len(names) == 0 {
		return nil, false
	}
	return names, true
}

type restCountry struct {
	Name struct {
		Common string `json:"common"`
	} `json:"name"`
}

func (s *Service) fetch(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, xerrors.Downstream("countries.fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, xerrors.Downstream("countries.fetch", fmt.Errorf("status %d", resp.StatusCode))
	}

	var payload []restCountry
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, xerrors.Downstream("countries.decode", err)
	}

	names := make([]string, 0, len(payload))
	for _, c := range payload {
		if c.Name.Common != "" {
			names = append(names, c.Name.Common)
		}
	}
	if len(names) == 0 {
		return nil, xerrors.Downstream("countries.fetch", errors.New("empty country list"))
	}
	sort.Strings(names)
	return names, nil
}
