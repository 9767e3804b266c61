package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/tieup-bill-verifier/internal/domain"
)

// completer is the model client seam; satisfied by *Client and by test
// fakes.
type completer interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

const promptTemplate = `You are a medical billing auditor.

Decide if these two terms refer to the same medical service.

Term A: %q
Term B: %q

Answer ONLY in JSON:
{
  "match": true|false,
  "confidence": 0.0-1.0,
  "normalized_name": ""
}

No explanations. No extra text.`

const (
	modelAutoMatch  = "auto_match"
	modelAutoReject = "auto_reject"
)

// Stats counts router activity.
type Stats struct {
	PrimaryCalls   int64 `json:"primary_calls"`
	SecondaryCalls int64 `json:"secondary_calls"`
	CacheHits      int64 `json:"cache_hits"`
	AutoMatches    int64 `json:"auto_matches"`
	AutoRejects    int64 `json:"auto_rejects"`
}

// Router decides borderline pairs. Similarity at or above the auto-match
// threshold accepts without a model call, similarity below the lower
// bound rejects without one; the band between goes to the primary model
// with secondary fallback on failure or low confidence. Every outcome is
// cached, including failures, keyed by the case-insensitive text pair.
type Router struct {
	client         completer
	primaryModel   string
	secondaryModel string

	autoMatchThreshold float64
	lowerBound         float64
	confidenceFloor    float64

	cache  *lru.Cache[string, domain.Judgement]
	logger *logrus.Logger

	mu    sync.Mutex
	stats Stats
}

// RouterConfig configures the verification router.
type RouterConfig struct {
	PrimaryModel       string
	SecondaryModel     string
	AutoMatchThreshold float64
	LowerBound         float64
	ConfidenceFloor    float64
	CacheSize          int
}

// NewRouter creates a router over a completion client.
func NewRouter(client completer, config RouterConfig, logger *logrus.Logger) (*Router, error) {
	if config.PrimaryModel == "" {
		config.PrimaryModel = "phi3:mini"
	}
	if config.SecondaryModel == "" {
		config.SecondaryModel = "qwen2.5:3b"
	}
	if config.AutoMatchThreshold == 0 {
		config.AutoMatchThreshold = 0.85
	}
	if config.LowerBound == 0 {
		config.LowerBound = 0.70
	}
	if config.ConfidenceFloor == 0 {
		config.ConfidenceFloor = 0.70
	}
	if config.CacheSize <= 0 {
		config.CacheSize = 4096
	}

	cache, err := lru.New[string, domain.Judgement](config.CacheSize)
	if err != nil {
		return nil, err
	}

	return &Router{
		client:             client,
		primaryModel:       config.PrimaryModel,
		secondaryModel:     config.SecondaryModel,
		autoMatchThreshold: config.AutoMatchThreshold,
		lowerBound:         config.LowerBound,
		confidenceFloor:    config.ConfidenceFloor,
		cache:              cache,
		logger:             logger,
	}, nil
}

// Judge decides whether billText and candidateText name the same
// service. similarity is the raw embedding similarity of the pair; it
// drives the short-circuits and is reported as confidence for them.
func (r *Router) Judge(ctx context.Context, billText, candidateText string, similarity float64) domain.Judgement {
	key := cacheKey(billText, candidateText)
	if cached, ok := r.cache.Get(key); ok {
		r.count(func(s *Stats) { s.CacheHits++ })
		return cached
	}

	if similarity >= r.autoMatchThreshold {
		judgement := domain.Judgement{
			Match:          true,
			Confidence:     similarity,
			NormalizedName: candidateText,
			Model:          modelAutoMatch,
		}
		r.cache.Add(key, judgement)
		r.count(func(s *Stats) { s.AutoMatches++ })
		return judgement
	}

	if similarity < r.lowerBound {
		judgement := domain.Judgement{
			Match:      false,
			Confidence: similarity,
			Model:      modelAutoReject,
		}
		r.cache.Add(key, judgement)
		r.count(func(s *Stats) { s.AutoRejects++ })
		return judgement
	}

	prompt := fmt.Sprintf(promptTemplate, billText, candidateText)

	r.count(func(s *Stats) { s.PrimaryCalls++ })
	judgement, primaryErr := r.ask(ctx, r.primaryModel, prompt)
	if primaryErr == nil && judgement.Valid() && judgement.Confidence >= r.confidenceFloor {
		r.cache.Add(key, judgement)
		return judgement
	}

	r.logger.WithFields(logrus.Fields{
		"primary_model": r.primaryModel,
		"error":         primaryErr,
		"confidence":    judgement.Confidence,
	}).Warn("Primary verification model failed or low confidence, falling back")

	r.count(func(s *Stats) { s.SecondaryCalls++ })
	judgement, secondaryErr := r.ask(ctx, r.secondaryModel, prompt)
	if secondaryErr != nil {
		judgement = domain.Judgement{
			Model: r.secondaryModel,
			Err:   secondaryErr.Error(),
		}
	}

	// Failures are cached too: a pair both models cannot judge will not
	// improve within one run.
	r.cache.Add(key, judgement)
	return judgement
}

// ask calls one model and parses its answer.
func (r *Router) ask(ctx context.Context, model, prompt string) (domain.Judgement, error) {
	raw, err := r.client.Complete(ctx, model, prompt)
	if err != nil {
		return domain.Judgement{Model: model}, err
	}
	return parseJudgement(raw, model)
}

// parseJudgement extracts the JSON object from a model response. Models
// sometimes wrap the JSON in prose, so everything outside the first "{"
// and the last "}" is discarded.
func parseJudgement(raw, model string) (domain.Judgement, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return domain.Judgement{Model: model}, domain.NewParseError(model, "no JSON object in response")
	}

	var parsed struct {
		Match          *bool    `json:"match"`
		Confidence     *float64 `json:"confidence"`
		NormalizedName string   `json:"normalized_name"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return domain.Judgement{Model: model}, domain.NewParseError(model, err.Error())
	}
	if parsed.Match == nil || parsed.Confidence == nil {
		return domain.Judgement{Model: model}, domain.NewParseError(model, "missing match or confidence field")
	}

	return domain.Judgement{
		Match:          *parsed.Match,
		Confidence:     *parsed.Confidence,
		NormalizedName: parsed.NormalizedName,
		Model:          model,
	}, nil
}

// ClearCache drops all cached judgements.
func (r *Router) ClearCache() {
	r.cache.Purge()
}

// CacheLen returns the number of cached judgements.
func (r *Router) CacheLen() int {
	return r.cache.Len()
}

// Stats returns a snapshot of router counters.
func (r *Router) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *Router) count(fn func(*Stats)) {
	r.mu.Lock()
	fn(&r.stats)
	r.mu.Unlock()
}

// cacheKey builds the case-insensitive pair key.
func cacheKey(a, b string) string {
	return strings.ToLower(a) + "\x1f" + strings.ToLower(b)
}
