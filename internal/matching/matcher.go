package matching

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tieup-bill-verifier/internal/domain"
	"github.com/tieup-bill-verifier/internal/index"
	"github.com/tieup-bill-verifier/internal/normalize"
)

// Embedder is the embedding service seam used by the matcher.
type Embedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Stats counts cascade activity for a verification run.
type Stats struct {
	HospitalQueries int64 `json:"hospital_queries"`
	CategoryQueries int64 `json:"category_queries"`
	ItemQueries     int64 `json:"item_queries"`
	AutoMatches     int64 `json:"auto_matches"`
	Verifies        int64 `json:"verifies"`
	Rejects         int64 `json:"rejects"`
}

// candidateEntry pairs an indexed item with its precomputed extraction.
type candidateEntry struct {
	item       *domain.Item
	extraction domain.CoreExtraction
}

// categoryIndex is the per-(hospital, category) item index.
type categoryIndex struct {
	name    string
	class   domain.CategoryClass
	idx     *index.FlatIndex
	entries map[string]*candidateEntry
}

// hospitalIndex is the per-hospital slice of the cascade: its category
// index plus one item index per category.
type hospitalIndex struct {
	name       string
	sheet      *domain.RateSheet
	categories *index.FlatIndex
	byCategory map[string]*categoryIndex
}

// Matcher resolves bill text down the hospital -> category -> item
// cascade over in-process flat indices. Indices are built once from the
// rate sheets and are immutable afterwards.
type Matcher struct {
	embedder Embedder
	scorer   *Scorer
	cfg      *domain.MatchingConfig
	dim      int
	logger   *logrus.Logger

	mu        sync.RWMutex
	hospitals *index.FlatIndex
	byName    map[string]*hospitalIndex

	statsMu sync.Mutex
	stats   Stats
}

// NewMatcher creates a matcher; BuildIndexes must run before any Match
// call.
func NewMatcher(embedder Embedder, cfg *domain.MatchingConfig, dim int, logger *logrus.Logger) *Matcher {
	return &Matcher{
		embedder: embedder,
		scorer:   NewScorer(cfg),
		cfg:      cfg,
		dim:      dim,
		logger:   logger,
		byName:   make(map[string]*hospitalIndex),
	}
}

// BuildIndexes validates and indexes the rate sheets. Each sheet costs
// one embedding batch covering its hospital name, category names, and
// item core texts.
func (m *Matcher) BuildIndexes(ctx context.Context, sheets []domain.RateSheet) error {
	hospitals := index.NewFlatIndex(m.dim)
	byName := make(map[string]*hospitalIndex, len(sheets))

	for si := range sheets {
		sheet := &sheets[si]
		if err := sheet.Validate(); err != nil {
			return err
		}

		texts := []string{normalize.HospitalName(sheet.HospitalName)}
		for ci := range sheet.Categories {
			texts = append(texts, normalize.CategoryName(sheet.Categories[ci].Name))
			for ii := range sheet.Categories[ci].Items {
				texts = append(texts, normalize.MedicalCore(sheet.Categories[ci].Items[ii].Name))
			}
		}

		vectors, err := m.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to index rate sheet %q: %w", sheet.HospitalName, err)
		}

		hi := &hospitalIndex{
			name:       sheet.HospitalName,
			sheet:      sheet,
			categories: index.NewFlatIndex(m.dim),
			byCategory: make(map[string]*categoryIndex, len(sheet.Categories)),
		}
		hospitals.Add(sheet.HospitalName, vectors[0])

		cursor := 1
		for ci := range sheet.Categories {
			category := &sheet.Categories[ci]
			hi.categories.Add(category.Name, vectors[cursor])
			cursor++

			cidx := &categoryIndex{
				name:    category.Name,
				class:   domain.ResolveCategoryClass(category.Name),
				idx:     index.NewFlatIndex(m.dim),
				entries: make(map[string]*candidateEntry, len(category.Items)),
			}
			for ii := range category.Items {
				item := &category.Items[ii]
				cidx.idx.Add(item.Name, vectors[cursor])
				cidx.entries[item.Name] = &candidateEntry{
					item:       item,
					extraction: normalize.Extract(item.Name),
				}
				cursor++
			}
			hi.byCategory[strings.ToLower(category.Name)] = cidx
		}

		byName[strings.ToLower(sheet.HospitalName)] = hi
		m.logger.WithFields(logrus.Fields{
			"hospital":   sheet.HospitalName,
			"categories": len(sheet.Categories),
		}).Info("Indexed rate sheet")
	}

	m.mu.Lock()
	m.hospitals = hospitals
	m.byName = byName
	m.mu.Unlock()
	return nil
}

// MatchHospital resolves a bill's hospital name to the closest indexed
// rate sheet. The best hit always wins; there is no threshold at this
// level because a bill must verify against some contracted sheet.
func (m *Matcher) MatchHospital(ctx context.Context, name string) (string, float64, error) {
	m.count(func(s *Stats) { s.HospitalQueries++ })

	m.mu.RLock()
	hospitals := m.hospitals
	m.mu.RUnlock()
	if hospitals == nil || hospitals.Len() == 0 {
		return "", 0, domain.ErrIndexNotBuilt
	}

	vec, err := m.embedder.EmbedOne(ctx, normalize.HospitalName(name))
	if err != nil {
		return "", 0, err
	}

	hit, ok := hospitals.Best(vec)
	if !ok {
		return "", 0, domain.ErrIndexNotBuilt
	}
	return hit.Label, hit.Similarity, nil
}

// MatchCategory resolves a bill category against a hospital's rate-sheet
// categories. An exact name match short-circuits at similarity 1.0;
// otherwise the best semantic hit must clear the category threshold or
// the category stays unresolved (ok=false, no error).
func (m *Matcher) MatchCategory(ctx context.Context, hospital, category string) (string, float64, bool, error) {
	m.count(func(s *Stats) { s.CategoryQueries++ })

	hi, err := m.hospital(hospital)
	if err != nil {
		return "", 0, false, err
	}

	if resolved := hi.sheet.CategoryByName(category); resolved != nil {
		return resolved.Name, 1.0, true, nil
	}

	vec, err := m.embedder.EmbedOne(ctx, normalize.CategoryName(category))
	if err != nil {
		return "", 0, false, err
	}

	hit, ok := hi.categories.Best(vec)
	if !ok {
		return "", 0, false, nil
	}
	if hit.Similarity < m.cfg.CategoryThreshold {
		return hit.Label, hit.Similarity, false, nil
	}
	return hit.Label, hit.Similarity, true, nil
}

// Categories returns the hospital's rate-sheet category names in sheet
// order, for cross-category reconciliation.
func (m *Matcher) Categories(hospital string) []string {
	hi, err := m.hospital(hospital)
	if err != nil {
		return nil
	}
	names := make([]string, len(hi.sheet.Categories))
	for i := range hi.sheet.Categories {
		names[i] = hi.sheet.Categories[i].Name
	}
	return names
}

// MatchItem matches one bill line against the items of searchCategory.
// billCategory selects the constraint policy; it differs from
// searchCategory only during reconciliation retries. Candidates failing
// hard constraints are rejected regardless of similarity; survivors are
// re-ranked by fused score and the best is calibrated into the outcome.
func (m *Matcher) MatchItem(ctx context.Context, hospital, billCategory, searchCategory, billText string) (*domain.MatchDecision, error) {
	m.count(func(s *Stats) { s.ItemQueries++ })

	hi, err := m.hospital(hospital)
	if err != nil {
		return nil, err
	}

	billExt := normalize.Extract(billText)
	if billExt.CoreText == "" {
		return nil, domain.ErrEmptyInput
	}

	cidx, ok := hi.byCategory[strings.ToLower(searchCategory)]
	if !ok || cidx.idx.Len() == 0 {
		m.count(func(s *Stats) { s.Rejects++ })
		return &domain.MatchDecision{
			Outcome:     domain.Reject,
			Category:    searchCategory,
			FailureCode: domain.RejectNotInTieup,
		}, nil
	}

	vec, err := m.embedder.EmbedOne(ctx, billExt.CoreText)
	if err != nil {
		return nil, err
	}

	k := m.cfg.TopK
	if k > cidx.idx.Len() {
		k = cidx.idx.Len()
	}
	hits := cidx.idx.Search(vec, k)

	catCfg := domain.ConfigForCategory(billCategory)

	candidates := make([]domain.CandidateMatch, 0, len(hits))
	var best *domain.CandidateMatch
	var bestBreakdown domain.ScoreBreakdown

	for _, hit := range hits {
		entry := cidx.entries[hit.Label]
		candidate := domain.CandidateMatch{
			Name:       hit.Label,
			Category:   cidx.name,
			Similarity: hit.Similarity,
			Extraction: entry.extraction,
			Item:       entry.item,
		}

		valid, code := ValidateConstraints(billExt, entry.extraction, cidx.class, catCfg)
		if !valid {
			candidate.RejectionReason = code
			candidates = append(candidates, candidate)
			continue
		}

		breakdown := m.scorer.Score(billExt, entry.extraction, hit.Similarity, catCfg.Class)
		candidates = append(candidates, candidate)
		if best == nil || breakdown.Fused > bestBreakdown.Fused {
			best = &candidates[len(candidates)-1]
			bestBreakdown = breakdown
		}
	}

	if best == nil {
		// Every retrieved candidate violated a hard constraint; surface
		// the code and similarity of the nearest one.
		code := domain.RejectLowSimilarity
		similarity := 0.0
		if len(candidates) > 0 {
			code = candidates[0].RejectionReason
			similarity = candidates[0].Similarity
		}
		m.count(func(s *Stats) { s.Rejects++ })
		return &domain.MatchDecision{
			Outcome:     domain.Reject,
			Confidence:  similarity,
			Category:    cidx.name,
			FailureCode: code,
			Candidates:  candidates,
		}, nil
	}

	outcome, confidence := m.scorer.Calibrate(bestBreakdown, catCfg)
	decision := &domain.MatchDecision{
		Outcome:    outcome,
		Confidence: confidence,
		Category:   cidx.name,
		Breakdown:  &bestBreakdown,
		Candidates: candidates,
	}

	switch outcome {
	case domain.Reject:
		decision.FailureCode = domain.RejectLowSimilarity
		m.count(func(s *Stats) { s.Rejects++ })
	case domain.AutoMatch:
		best.Accepted = true
		decision.MatchedName = best.Name
		decision.MatchedItem = best.Item
		m.count(func(s *Stats) { s.AutoMatches++ })
	case domain.Verify:
		// Proposal only; acceptance is the verification router's call.
		decision.MatchedName = best.Name
		decision.MatchedItem = best.Item
		m.count(func(s *Stats) { s.Verifies++ })
	}

	return decision, nil
}

// Stats returns a snapshot of cascade counters.
func (m *Matcher) Stats() Stats {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return m.stats
}

func (m *Matcher) hospital(name string) (*hospitalIndex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hi, ok := m.byName[strings.ToLower(name)]
	if !ok {
		return nil, domain.ErrIndexNotBuilt
	}
	return hi, nil
}

func (m *Matcher) count(fn func(*Stats)) {
	m.statsMu.Lock()
	fn(&m.stats)
	m.statsMu.Unlock()
}
