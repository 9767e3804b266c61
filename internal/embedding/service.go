package embedding

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/tieup-bill-verifier/internal/domain"
)

// embedder is the provider seam; satisfied by *Provider and by test
// fakes.
type embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Stats counts cache behavior across a verification run.
type Stats struct {
	HotHits       int64 `json:"hot_hits"`
	StoreHits     int64 `json:"store_hits"`
	WarmHits      int64 `json:"warm_hits"`
	Misses        int64 `json:"misses"`
	ProviderCalls int64 `json:"provider_calls"`
}

// Service embeds texts through a tiered cache: LRU hot tier, persistent
// store, optional Redis warm tier, then the provider. Provider calls go
// through a circuit breaker; a failed batch returns an error and caches
// nothing, so a flaky provider can never poison the cache with partial
// results.
type Service struct {
	provider  embedder
	store     Store
	warm      *RedisTier
	hot       *lru.Cache[string, []float32]
	breaker   *gobreaker.CircuitBreaker
	batchSize int
	logger    *logrus.Logger

	mu    sync.Mutex
	stats Stats
}

// ServiceConfig configures the embedding service.
type ServiceConfig struct {
	BatchSize   int
	HotTierSize int
}

// NewService creates the embedding service. warm may be nil.
func NewService(provider embedder, store Store, warm *RedisTier, config ServiceConfig, logger *logrus.Logger) (*Service, error) {
	if config.BatchSize <= 0 {
		config.BatchSize = 32
	}
	if config.HotTierSize <= 0 {
		config.HotTierSize = 2048
	}

	hot, err := lru.New[string, []float32](config.HotTierSize)
	if err != nil {
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "embedding-provider",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Service{
		provider:  provider,
		store:     store,
		warm:      warm,
		hot:       hot,
		breaker:   breaker,
		batchSize: config.BatchSize,
		logger:    logger,
	}, nil
}

// EmbedOne embeds a single text.
func (s *Service) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts, returning one vector per input in input
// order. Duplicate texts cost one provider slot; cached texts cost none.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, domain.ErrEmptyInput
	}

	results := make([][]float32, len(texts))

	// Deduplicate by cache key; one key may back several input positions.
	missKeys := make([]string, 0)
	missTexts := make([]string, 0)
	missPositions := make(map[string][]int)

	for i, text := range texts {
		key := Key(text)
		if vec, ok := s.lookup(ctx, key); ok {
			results[i] = vec
			continue
		}
		if _, seen := missPositions[key]; !seen {
			missKeys = append(missKeys, key)
			missTexts = append(missTexts, text)
		}
		missPositions[key] = append(missPositions[key], i)
	}

	if len(missKeys) == 0 {
		return results, nil
	}

	s.mu.Lock()
	s.stats.Misses += int64(len(missKeys))
	s.mu.Unlock()

	for start := 0; start < len(missTexts); start += s.batchSize {
		end := start + s.batchSize
		if end > len(missTexts) {
			end = len(missTexts)
		}
		chunk := missTexts[start:end]
		chunkKeys := missKeys[start:end]

		vectors, err := s.callProvider(ctx, chunk)
		if err != nil {
			return nil, err
		}

		for j, vec := range vectors {
			key := chunkKeys[j]
			s.put(ctx, key, vec)
			for _, pos := range missPositions[key] {
				results[pos] = vec
			}
		}
	}

	return results, nil
}

// lookup checks hot, persistent, and warm tiers, promoting hits into the
// hot tier.
func (s *Service) lookup(ctx context.Context, key string) ([]float32, bool) {
	if vec, ok := s.hot.Get(key); ok {
		s.count(func(st *Stats) { st.HotHits++ })
		return vec, true
	}
	if vec, ok := s.store.Get(key); ok {
		s.hot.Add(key, vec)
		s.count(func(st *Stats) { st.StoreHits++ })
		return vec, true
	}
	if s.warm != nil {
		if vec, ok := s.warm.Get(ctx, key); ok {
			s.hot.Add(key, vec)
			s.store.Put(key, vec)
			s.count(func(st *Stats) { st.WarmHits++ })
			return vec, true
		}
	}
	return nil, false
}

// put writes a fresh vector through all tiers.
func (s *Service) put(ctx context.Context, key string, vec []float32) {
	s.hot.Add(key, vec)
	s.store.Put(key, vec)
	if s.warm != nil {
		s.warm.Set(ctx, key, vec)
	}
}

// callProvider invokes the provider through the circuit breaker. An open
// breaker reads as provider unavailability.
func (s *Service) callProvider(ctx context.Context, texts []string) ([][]float32, error) {
	s.count(func(st *Stats) { st.ProviderCalls++ })

	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.provider.Embed(ctx, texts)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, domain.NewUnavailable("embedding", err)
		}
		s.logger.WithFields(logrus.Fields{
			"batch_size": len(texts),
			"error":      err,
		}).Warn("Embedding provider call failed")
		return nil, err
	}
	return result.([][]float32), nil
}

// Flush persists the store. Call after index construction and at the end
// of a run rather than per write.
func (s *Service) Flush() error {
	return s.store.Save()
}

// Stats returns a snapshot of cache counters.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Service) count(fn func(*Stats)) {
	s.mu.Lock()
	fn(&s.stats)
	s.mu.Unlock()
}
