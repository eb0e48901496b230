package mocks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lueurxax/reading-bot/internal/core/domain"
	"github.com/lueurxax/reading-bot/internal/core/ports"
)

var (
	_ ports.Archive         = (*Archive)(nil)
	_ ports.ChatClient      = (*Chat)(nil)
	_ ports.SaveLog         = (*Store)(nil)
	_ ports.NewsletterStore = (*Store)(nil)
	_ ports.SummaryCache    = (*Store)(nil)
)

func TestArchive_ListFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	a := NewArchive()
	a.Add(domain.Article{URL: "https://a", Tags: []string{"ai"}, CreatedAt: base.Add(-48 * time.Hour)})
	a.Add(domain.Article{URL: "https://b", Tags: []string{"AI"}, CreatedAt: base.Add(time.Hour)})
	a.Add(domain.Article{URL: "https://c", Tags: []string{"news"}, CreatedAt: base.Add(2 * time.Hour)})
	a.Add(domain.Article{URL: "https://d", Tags: []string{"ai"}, CreatedAt: base.Add(3 * time.Hour)})

	got, err := a.List(ctx, domain.ArticleQuery{Tags: []string{"ai"}, Since: base})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "https://d", got[0].URL)
	require.Equal(t, "https://b", got[1].URL)

	id, found, err := a.FindByURL(ctx, "https://c")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(3), id)
}

func TestStore_LastRun(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.LastNewsletterRun(ctx)
	require.Error(t, err)

	run := domain.NewsletterRun{RunAt: time.Unix(100, 0), ArticleCount: 3, ChannelID: "C1"}
	require.NoError(t, s.RecordNewsletterRun(ctx, run))

	got, err := s.LastNewsletterRun(ctx)
	require.NoError(t, err)
	require.Equal(t, run, got)
}
