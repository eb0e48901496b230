package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/lueurxax/reading-bot/internal/core/domain"
	apperrors "github.com/lueurxax/reading-bot/internal/core/errors"
)

// Store is a thread-safe in-memory implementation of ports.SaveLog,
// ports.NewsletterStore and ports.SummaryCache.
type Store struct {
	mu        sync.RWMutex
	saves     []domain.SaveRecord
	runs      []domain.NewsletterRun
	summaries map[string]domain.ArticleSummary

	// RecordSaveFn allows overriding RecordSave behavior.
	RecordSaveFn func(ctx context.Context, rec domain.SaveRecord) error
}

// NewStore creates an empty mock store.
func NewStore() *Store {
	return &Store{summaries: make(map[string]domain.ArticleSummary)}
}

// RecordSave appends to the in-memory save log.
func (s *Store) RecordSave(ctx context.Context, rec domain.SaveRecord) error {
	if s.RecordSaveFn != nil {
		return s.RecordSaveFn(ctx, rec)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.saves = append(s.saves, rec)

	return nil
}

// LastNewsletterRun returns the latest recorded run.
func (s *Store) LastNewsletterRun(_ context.Context) (domain.NewsletterRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.runs) == 0 {
		return domain.NewsletterRun{}, apperrors.ErrNotFound
	}

	return s.runs[len(s.runs)-1], nil
}

// RecordNewsletterRun appends a run.
func (s *Store) RecordNewsletterRun(_ context.Context, run domain.NewsletterRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = append(s.runs, run)

	return nil
}

// Saves returns a copy of the recorded save log.
func (s *Store) Saves() []domain.SaveRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.SaveRecord(nil), s.saves...)
}

// Runs returns a copy of the recorded newsletter runs.
func (s *Store) Runs() []domain.NewsletterRun {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.NewsletterRun(nil), s.runs...)
}

// Summaries returns the cached entries for urls.
func (s *Store) Summaries(_ context.Context, urls []string) (map[string]domain.ArticleSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.ArticleSummary, len(urls))

	for _, u := range urls {
		if sum, ok := s.summaries[u]; ok {
			out[u] = sum
		}
	}

	return out, nil
}

// SaveSummary stores or replaces a summary.
func (s *Store) SaveSummary(_ context.Context, summary domain.ArticleSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.summaries[summary.URL] = summary

	return nil
}

// TopSummaries returns up to limit summaries by descending score.
func (s *Store) TopSummaries(_ context.Context, limit int) ([]domain.ArticleSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ArticleSummary, 0, len(s.summaries))
	for _, sum := range s.summaries {
		out = append(out, sum)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}

		return out[i].URL < out[j].URL
	})

	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

// SummaryCount returns the number of cached summaries.
func (s *Store) SummaryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.summaries)
}
