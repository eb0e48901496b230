package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lueurxax/reading-bot/internal/core/domain"
)

// Archive is a thread-safe in-memory implementation of ports.Archive.
type Archive struct {
	mu       sync.RWMutex
	nextID   int64
	articles []domain.Article
	saves    int

	// Now supplies CreatedAt for saved articles. Defaults to time.Now.
	Now func() time.Time

	// FindByURLFn allows overriding FindByURL behavior.
	FindByURLFn func(ctx context.Context, rawURL string) (int64, bool, error)

	// SaveFn allows overriding Save behavior.
	SaveFn func(ctx context.Context, rawURL string, tags []string) (domain.Article, error)

	// ListFn allows overriding List behavior.
	ListFn func(ctx context.Context, q domain.ArticleQuery) ([]domain.Article, error)
}

// NewArchive creates an empty mock archive.
func NewArchive() *Archive {
	return &Archive{Now: time.Now}
}

// Add seeds an article directly, assigning an id when it has none.
func (a *Archive) Add(article domain.Article) domain.Article {
	a.mu.Lock()
	defer a.mu.Unlock()

	if article.ID == 0 {
		a.nextID++
		article.ID = a.nextID
	} else if article.ID > a.nextID {
		a.nextID = article.ID
	}

	a.articles = append(a.articles, article)

	return article
}

// FindByURL looks the URL up among stored articles.
func (a *Archive) FindByURL(ctx context.Context, rawURL string) (int64, bool, error) {
	if a.FindByURLFn != nil {
		return a.FindByURLFn(ctx, rawURL)
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, art := range a.articles {
		if art.URL == rawURL {
			return art.ID, true, nil
		}
	}

	return 0, false, nil
}

// Save stores a new article.
func (a *Archive) Save(ctx context.Context, rawURL string, tags []string) (domain.Article, error) {
	if a.SaveFn != nil {
		return a.SaveFn(ctx, rawURL, tags)
	}

	a.mu.Lock()
	a.saves++
	a.mu.Unlock()

	return a.Add(domain.Article{
		URL:       rawURL,
		Title:     rawURL,
		Tags:      append([]string(nil), tags...),
		CreatedAt: a.Now(),
	}), nil
}

// List filters stored articles by tag and creation time, newest first.
func (a *Archive) List(ctx context.Context, q domain.ArticleQuery) ([]domain.Article, error) {
	if a.ListFn != nil {
		return a.ListFn(ctx, q)
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []domain.Article

	for _, art := range a.articles {
		if art.CreatedAt.Before(q.Since) || !hasAnyTag(art, q.Tags) {
			continue
		}

		out = append(out, art)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}

	return out, nil
}

// Articles returns a copy of every stored article.
func (a *Archive) Articles() []domain.Article {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return append([]domain.Article(nil), a.articles...)
}

// SaveCount returns how many times Save stored an article.
func (a *Archive) SaveCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.saves
}

func hasAnyTag(art domain.Article, tags []string) bool {
	if len(tags) == 0 {
		return true
	}

	for _, t := range tags {
		if art.HasTag(t) {
			return true
		}
	}

	return false
}
