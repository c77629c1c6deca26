package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-pulse/aggregator"
	"news-pulse/models"
	"news-pulse/ranking"
	"news-pulse/snapshotcache"
)

type fakeAggregator struct {
	mu       sync.Mutex
	calls    int
	snap     models.FeedSnapshot
	err      error
	profiles []*ranking.Profile
	started  chan struct{}
	release  chan struct{}
}

func (f *fakeAggregator) Run(ctx context.Context, req models.FeedRequest, profile *ranking.Profile) (models.FeedSnapshot, error) {
	f.mu.Lock()
	f.calls++
	f.profiles = append(f.profiles, profile)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.snap, f.err
}

func (f *fakeAggregator) Sources() []models.Source {
	return []models.Source{{Name: "wire", Format: models.FormatRSS}}
}

func (f *fakeAggregator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeClusterStore struct {
	active   []models.StoryCluster
	err      error
	saved    [][]models.StoryCluster
	since    time.Time
	language string

	// echo serves saved clusters back per language instead of active
	echo   bool
	byLang map[string][]models.StoryCluster
}

func (f *fakeClusterStore) ActiveClusters(_ context.Context, language string, since time.Time, _ int) ([]models.StoryCluster, error) {
	f.since, f.language = since, language
	if f.echo {
		return f.byLang[language], f.err
	}
	return f.active, f.err
}

func (f *fakeClusterStore) SaveClusters(_ context.Context, language string, clusters []models.StoryCluster, _ time.Time) error {
	f.saved = append(f.saved, clusters)
	if f.byLang == nil {
		f.byLang = map[string][]models.StoryCluster{}
	}
	f.byLang[language] = clusters
	return nil
}

type fakePrefs struct {
	prefs *models.Preferences
	err   error
}

func (f fakePrefs) Preferences(context.Context, string) (*models.Preferences, error) {
	return f.prefs, f.err
}

type fakePublisher struct {
	mu        sync.Mutex
	refreshes []string
	refreshed []models.FeedSnapshot
}

func (f *fakePublisher) PublishRefreshRequested(_ context.Context, key string, _ models.FeedRequest, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes = append(f.refreshes, key)
	return nil
}

func (f *fakePublisher) PublishSnapshotRefreshed(_ context.Context, snap models.FeedSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, snap)
	return nil
}

var now = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type harness struct {
	svc       *FeedService
	agg       *fakeAggregator
	cache     *snapshotcache.FallbackCache
	store     *snapshotcache.MemoryStore
	publisher *fakePublisher
	clock     time.Time
}

func newHarness(agg *fakeAggregator, clusters ClusterStore, prefs PreferenceProvider) *harness {
	h := &harness{agg: agg, store: snapshotcache.NewMemoryStore(), publisher: &fakePublisher{}, clock: now}
	clock := func() time.Time { return h.clock }
	h.cache = snapshotcache.New(h.store, snapshotcache.Options{Now: clock})
	h.svc = NewFeedService(agg, h.cache, ranking.New(ranking.DefaultWeights()), clusters, prefs, h.publisher,
		FeedOptions{DefaultPageSize: 20, MaxPageSize: 100, Now: clock})
	return h
}

func clusterOf(id string, published time.Time) models.StoryCluster {
	return models.StoryCluster{
		ID:                  "c-" + id,
		Title:               "Story " + id,
		Link:                "https://example.com/" + id,
		ArticleCount:        1,
		SourceCount:         1,
		Sources:             []string{"wire"},
		EarliestPublishedAt: published,
		LatestPublishedAt:   published,
		Articles:            []models.NormalizedArticle{{ID: id, Title: "Story " + id}},
	}
}

func liveSnapshot(n int) models.FeedSnapshot {
	s := models.FeedSnapshot{ID: "live-1", CreatedAt: now, Origin: models.OriginLive}
	for i := 0; i < n; i++ {
		s.Clusters = append(s.Clusters, clusterOf(fmt.Sprint(i), now.Add(-time.Hour)))
	}
	return s
}

func generalRequest() models.FeedRequest {
	return models.FeedRequest{Mode: models.ModeGeneral, Language: "en"}
}

func TestGetFeed_LiveSuccessStoresSnapshot(t *testing.T) {
	h := newHarness(&fakeAggregator{snap: liveSnapshot(3)}, nil, nil)

	res := h.svc.GetFeed(context.Background(), generalRequest())

	assert.Equal(t, models.OriginLive, res.Snapshot.Origin)
	assert.Len(t, res.Snapshot.Clusters, 3)
	assert.Empty(t, res.Hint)

	cached, err := h.cache.Get(context.Background(), "general|en|")
	require.NoError(t, err)
	assert.Equal(t, "live-1", cached.ID)
	require.Len(t, h.publisher.refreshed, 1)
	assert.Equal(t, "general|en|", h.publisher.refreshed[0].Key)
}

func TestGetFeed_FailureServesRecentCacheAsFallback(t *testing.T) {
	agg := &fakeAggregator{snap: liveSnapshot(2)}
	h := newHarness(agg, nil, nil)
	h.svc.GetFeed(context.Background(), generalRequest())

	agg.snap, agg.err = models.FeedSnapshot{}, aggregator.ErrAggregationFailed
	h.clock = now.Add(4 * time.Minute)
	res := h.svc.GetFeed(context.Background(), generalRequest())

	assert.Equal(t, models.OriginFallback, res.Snapshot.Origin)
	assert.Len(t, res.Snapshot.Clusters, 2)
	assert.Empty(t, res.Hint)

	// serving the fallback must not relabel the stored snapshot
	stored, ok, err := h.store.Load(context.Background(), "general|en|")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.OriginLive, stored.Origin)
}

func TestGetFeed_FallbackIsCutToPageSize(t *testing.T) {
	agg := &fakeAggregator{snap: liveSnapshot(30)}
	h := newHarness(agg, nil, nil)
	_, err := h.svc.Refresh(context.Background(), models.FeedRequest{Language: "en", PageSize: 100})
	require.NoError(t, err)

	agg.snap, agg.err = models.FeedSnapshot{}, aggregator.ErrAggregationFailed
	h.clock = now.Add(time.Minute)
	res := h.svc.GetFeed(context.Background(), models.FeedRequest{Language: "en", PageSize: 5})

	assert.Equal(t, models.OriginFallback, res.Snapshot.Origin)
	require.Len(t, res.Snapshot.Clusters, 5)
	assert.Equal(t, "c-0", res.Snapshot.Clusters[0].ID)

	stored, _, _ := h.store.Load(context.Background(), "general|en|")
	assert.Len(t, stored.Clusters, 30)
}

func TestGetFeed_FailureWithStaleCacheIsEmptyWithHint(t *testing.T) {
	agg := &fakeAggregator{snap: liveSnapshot(2)}
	h := newHarness(agg, nil, nil)
	h.svc.GetFeed(context.Background(), generalRequest())

	agg.snap, agg.err = models.FeedSnapshot{}, fmt.Errorf("%w: 0 of 3 sources", aggregator.ErrAggregationFailed)
	h.clock = now.Add(6 * time.Minute)
	res := h.svc.GetFeed(context.Background(), generalRequest())

	assert.Empty(t, res.Snapshot.Clusters)
	assert.NotNil(t, res.Snapshot.Clusters)
	assert.Equal(t, UnreachableHint, res.Hint)
	assert.Equal(t, []string{"general|en|"}, h.publisher.refreshes)
}

func TestGetFeed_FailureLeavesCacheUntouched(t *testing.T) {
	agg := &fakeAggregator{snap: liveSnapshot(1)}
	h := newHarness(agg, nil, nil)
	h.svc.GetFeed(context.Background(), generalRequest())
	before, _, _ := h.store.Load(context.Background(), "general|en|")

	agg.snap, agg.err = models.FeedSnapshot{}, aggregator.ErrAggregationFailed
	h.svc.GetFeed(context.Background(), generalRequest())

	after, _, _ := h.store.Load(context.Background(), "general|en|")
	assert.Equal(t, before, after)
	assert.Equal(t, 1, h.store.Len())
}

func TestGetFeed_EmptyLiveResultIsNotCached(t *testing.T) {
	h := newHarness(&fakeAggregator{snap: liveSnapshot(0)}, nil, nil)

	res := h.svc.GetFeed(context.Background(), models.FeedRequest{Topics: []string{"cricket"}})

	assert.Empty(t, res.Snapshot.Clusters)
	assert.Empty(t, res.Hint)
	assert.Zero(t, h.store.Len())
}

func TestGetFeed_ServesMaterializedClusters(t *testing.T) {
	store := &fakeClusterStore{active: []models.StoryCluster{
		clusterOf("old", now.Add(-20*time.Hour)),
		clusterOf("new", now.Add(-time.Hour)),
	}}
	agg := &fakeAggregator{snap: liveSnapshot(1)}
	h := newHarness(agg, store, nil)

	res := h.svc.GetFeed(context.Background(), generalRequest())

	assert.Equal(t, models.OriginStore, res.Snapshot.Origin)
	require.Len(t, res.Snapshot.Clusters, 2)
	assert.Equal(t, "c-new", res.Snapshot.Clusters[0].ID)
	assert.Greater(t, res.Snapshot.Clusters[0].BaseScore, res.Snapshot.Clusters[1].BaseScore)
	assert.Equal(t, now.Add(-10*time.Minute), store.since)
	assert.Equal(t, "en", store.language)
	assert.Zero(t, agg.Calls())
}

func TestGetFeed_StoreServesOnlyTheRequestedLanguage(t *testing.T) {
	store := &fakeClusterStore{echo: true}
	german := liveSnapshot(1)
	german.Clusters[0].Title = "Bundestag beschliesst Haushalt"
	agg := &fakeAggregator{snap: german}
	h := newHarness(agg, store, nil)

	de := h.svc.GetFeed(context.Background(), models.FeedRequest{Language: "de"})
	require.Equal(t, models.OriginLive, de.Snapshot.Origin)

	agg.snap = liveSnapshot(2)
	en := h.svc.GetFeed(context.Background(), generalRequest())

	assert.Equal(t, models.OriginLive, en.Snapshot.Origin)
	assert.Equal(t, 2, agg.Calls())
	for _, c := range en.Snapshot.Clusters {
		assert.NotEqual(t, "Bundestag beschliesst Haushalt", c.Title)
	}

	again := h.svc.GetFeed(context.Background(), models.FeedRequest{Language: "DE"})
	assert.Equal(t, models.OriginStore, again.Snapshot.Origin)
	require.Len(t, again.Snapshot.Clusters, 1)
	assert.Equal(t, "Bundestag beschliesst Haushalt", again.Snapshot.Clusters[0].Title)
}

func TestGetFeed_StoreDropsClustersSharingArticles(t *testing.T) {
	// the same story saved under its old id and again after an earlier article joined it
	older := clusterOf("a", now.Add(-2*time.Hour))
	merged := clusterOf("b", now.Add(-3*time.Hour))
	merged.LatestPublishedAt = now.Add(-2 * time.Hour)
	merged.ArticleCount = 2
	merged.Articles = append(merged.Articles, older.Articles...)
	store := &fakeClusterStore{active: []models.StoryCluster{older, merged, clusterOf("x", now.Add(-time.Hour))}}
	h := newHarness(&fakeAggregator{}, store, nil)

	res := h.svc.GetFeed(context.Background(), generalRequest())

	require.Equal(t, models.OriginStore, res.Snapshot.Origin)
	ids := make([]string, 0, len(res.Snapshot.Clusters))
	for _, c := range res.Snapshot.Clusters {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []string{"c-b", "c-x"}, ids)
}

func TestGetFeed_EmptyStoreFallsThroughToLiveAndMaterializes(t *testing.T) {
	store := &fakeClusterStore{}
	agg := &fakeAggregator{snap: liveSnapshot(2)}
	h := newHarness(agg, store, nil)

	res := h.svc.GetFeed(context.Background(), generalRequest())

	assert.Equal(t, models.OriginLive, res.Snapshot.Origin)
	assert.Equal(t, 1, agg.Calls())
	require.Len(t, store.saved, 1)
	assert.Len(t, store.saved[0], 2)
}

func TestGetFeed_TopicRequestsSkipStore(t *testing.T) {
	store := &fakeClusterStore{active: []models.StoryCluster{clusterOf("x", now)}}
	agg := &fakeAggregator{snap: liveSnapshot(1)}
	h := newHarness(agg, store, nil)

	h.svc.GetFeed(context.Background(), models.FeedRequest{Topics: []string{"Tech"}})

	assert.Equal(t, 1, agg.Calls())
	assert.Empty(t, store.saved)
}

func TestGetFeed_PreferenceFailureDegrades(t *testing.T) {
	agg := &fakeAggregator{snap: liveSnapshot(1)}
	h := newHarness(agg, nil, fakePrefs{err: errors.New("timeout")})

	res := h.svc.GetFeed(context.Background(), models.FeedRequest{
		Mode:   models.ModePersonalized,
		UserID: "u1",
		Topics: []string{"markets"},
	})

	assert.Equal(t, models.OriginLive, res.Snapshot.Origin)
	require.Len(t, agg.profiles, 1)
	require.NotNil(t, agg.profiles[0])
	assert.Equal(t, []string{"markets"}, agg.profiles[0].Interests)
	assert.Empty(t, agg.profiles[0].Categories)
}

func TestGetFeed_PreferencesFeedProfile(t *testing.T) {
	agg := &fakeAggregator{snap: liveSnapshot(1)}
	h := newHarness(agg, nil, fakePrefs{prefs: &models.Preferences{
		UserID:     "u1",
		Categories: []string{"business"},
		Location:   models.Location{Country: "in"},
	}})

	h.svc.GetFeed(context.Background(), models.FeedRequest{Mode: models.ModePersonalized, UserID: "u1"})

	require.NotNil(t, agg.profiles[0])
	assert.Equal(t, []string{"business"}, agg.profiles[0].Categories)
	assert.Equal(t, "in", agg.profiles[0].Location.Country)
}

func TestGetFeed_GeneralRequestHasNoProfile(t *testing.T) {
	agg := &fakeAggregator{snap: liveSnapshot(1)}
	h := newHarness(agg, nil, fakePrefs{prefs: &models.Preferences{Categories: []string{"health"}}})

	h.svc.GetFeed(context.Background(), generalRequest())

	assert.Nil(t, agg.profiles[0])
}

func TestGetFeed_ConcurrentIdenticalRequestsShareOneRun(t *testing.T) {
	agg := &fakeAggregator{
		snap:    liveSnapshot(1),
		started: make(chan struct{}, 10),
		release: make(chan struct{}),
	}
	h := newHarness(agg, nil, nil)

	var wg sync.WaitGroup
	results := make([]FeedResult, 4)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = h.svc.GetFeed(context.Background(), generalRequest())
	}()
	<-agg.started
	for i := 1; i < len(results); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = h.svc.GetFeed(context.Background(), generalRequest())
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(agg.release)
	wg.Wait()

	assert.Equal(t, 1, agg.Calls())
	for _, r := range results {
		assert.Equal(t, "live-1", r.Snapshot.ID)
	}
}

func TestRefresh_ReturnsAggregationError(t *testing.T) {
	h := newHarness(&fakeAggregator{err: aggregator.ErrAggregationFailed}, nil, nil)

	_, err := h.svc.Refresh(context.Background(), generalRequest())

	assert.ErrorIs(t, err, aggregator.ErrAggregationFailed)
	assert.Zero(t, h.store.Len())
}
