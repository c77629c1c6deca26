package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"news-pulse/aggregator"
	"news-pulse/config"
	"news-pulse/models"
	"news-pulse/ranking"
	"news-pulse/snapshotcache"
	"news-pulse/trace"
)

// ErrPersonalizationUnavailable wraps preference lookup failures. It is only
// logged; the request continues unpersonalized.
var ErrPersonalizationUnavailable = errors.New("personalization unavailable")

// UnreachableHint accompanies an empty feed served after a failed run with no
// usable cached snapshot.
const UnreachableHint = "news sources are unreachable right now; the backend may be unavailable"

type Aggregator interface {
	Run(ctx context.Context, req models.FeedRequest, profile *ranking.Profile) (models.FeedSnapshot, error)
	Sources() []models.Source
}

// ClusterStore is the long-term store of materialized clusters.
type ClusterStore interface {
	ActiveClusters(ctx context.Context, language string, since time.Time, limit int) ([]models.StoryCluster, error)
	SaveClusters(ctx context.Context, language string, clusters []models.StoryCluster, materializedAt time.Time) error
}

type PreferenceProvider interface {
	Preferences(ctx context.Context, userID string) (*models.Preferences, error)
}

type EventPublisher interface {
	PublishRefreshRequested(ctx context.Context, key string, req models.FeedRequest, reason string) error
	PublishSnapshotRefreshed(ctx context.Context, snap models.FeedSnapshot) error
}

type FeedOptions struct {
	DefaultPageSize    int
	MaxPageSize        int
	MaterializedMaxAge time.Duration
	Now                func() time.Time
}

// FeedResult is what a caller gets back for every feed request. Hint is set
// only when the feed is empty because nothing could be fetched.
type FeedResult struct {
	Snapshot models.FeedSnapshot `json:"snapshot"`
	Hint     string              `json:"hint,omitempty"`
}

// FeedService orchestrates the store path, live aggregation and the cache
// fallback. ClusterStore, PreferenceProvider and EventPublisher are optional.
type FeedService struct {
	agg       Aggregator
	cache     *snapshotcache.FallbackCache
	ranker    *ranking.Ranker
	clusters  ClusterStore
	prefs     PreferenceProvider
	publisher EventPublisher
	opts      FeedOptions
	group     singleflight.Group
}

func NewFeedService(agg Aggregator, cache *snapshotcache.FallbackCache, ranker *ranking.Ranker, clusters ClusterStore, prefs PreferenceProvider, publisher EventPublisher, opts FeedOptions) *FeedService {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = aggregator.DefaultPageSize
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = 100
	}
	if opts.MaterializedMaxAge <= 0 {
		opts.MaterializedMaxAge = 10 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &FeedService{
		agg:       agg,
		cache:     cache,
		ranker:    ranker,
		clusters:  clusters,
		prefs:     prefs,
		publisher: publisher,
		opts:      opts,
	}
}

func (s *FeedService) Sources() []models.Source {
	return s.agg.Sources()
}

// GetFeed never fails: it returns a live feed, a materialized one, a recent
// cached one, or an empty feed with a hint.
func (s *FeedService) GetFeed(ctx context.Context, req models.FeedRequest) FeedResult {
	req = req.Normalize(s.opts.DefaultPageSize, s.opts.MaxPageSize)
	key := snapshotcache.Key(req)
	fields := config.Fields{
		"request_id": trace.RequestIDFromContext(ctx),
		"key":        key,
	}

	if snap, ok := s.fromStore(ctx, req, key); ok {
		fields["origin"] = snap.Origin
		fields["clusters"] = len(snap.Clusters)
		config.InfoWithFields("feed served", fields)
		return FeedResult{Snapshot: snap}
	}

	profile := s.profile(ctx, req)
	snap, err := s.live(ctx, key, req, profile)
	if err == nil && len(snap.Clusters) > 0 {
		fields["origin"] = snap.Origin
		fields["clusters"] = len(snap.Clusters)
		config.InfoWithFields("feed served", fields)
		return FeedResult{Snapshot: snap}
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	cached, cerr := s.cache.Get(ctx, key)
	if cerr == nil {
		// the key does not carry the page size; the worker caches at the maximum
		if len(cached.Clusters) > req.PageSize {
			cached.Clusters = cached.Clusters[:req.PageSize]
		}
		cached.Origin = models.OriginFallback
		fields["origin"] = cached.Origin
		fields["age"] = cached.Age(s.opts.Now()).Round(time.Second).String()
		config.WarnWithFields("feed served from cache fallback", fields)
		return FeedResult{Snapshot: cached}
	}

	if err == nil {
		// live run succeeded with nothing left after filtering
		config.InfoWithFields("feed empty", fields)
		return FeedResult{Snapshot: snap}
	}

	config.ErrorWithFields("feed unavailable", fields)
	s.requestRefresh(ctx, key, req, err.Error())
	return FeedResult{
		Snapshot: models.FeedSnapshot{
			ID:        uuid.NewString(),
			Key:       key,
			Clusters:  []models.StoryCluster{},
			CreatedAt: s.opts.Now().UTC(),
			Origin:    models.OriginFallback,
		},
		Hint: UnreachableHint,
	}
}

// Refresh runs a live aggregation and, on a non-empty result, stores it. It
// returns the aggregation error so background callers can retry.
func (s *FeedService) Refresh(ctx context.Context, req models.FeedRequest) (models.FeedSnapshot, error) {
	req = req.Normalize(s.opts.DefaultPageSize, s.opts.MaxPageSize)
	return s.live(ctx, snapshotcache.Key(req), req, s.profile(ctx, req))
}

func (s *FeedService) live(ctx context.Context, key string, req models.FeedRequest, profile *ranking.Profile) (models.FeedSnapshot, error) {
	flightKey := key + "#" + strconv.Itoa(req.PageSize)
	v, err, shared := s.group.Do(flightKey, func() (any, error) {
		snap, err := s.agg.Run(ctx, req, profile)
		if err != nil {
			return models.FeedSnapshot{}, err
		}
		snap.Key = key
		if len(snap.Clusters) > 0 {
			s.persist(ctx, key, req, snap)
		}
		return snap, nil
	})
	if shared {
		config.DebugWithFields("live run shared", config.Fields{"key": key})
	}
	if err != nil {
		return models.FeedSnapshot{}, err
	}
	return v.(models.FeedSnapshot), nil
}

func (s *FeedService) persist(ctx context.Context, key string, req models.FeedRequest, snap models.FeedSnapshot) {
	if err := s.cache.Store(ctx, key, snap); err != nil {
		config.WarnWithFields("snapshot cache write failed", config.Fields{"key": key, "error": err.Error()})
	}
	if s.clusters != nil && !req.Personalized() && len(req.Topics) == 0 {
		if err := s.clusters.SaveClusters(ctx, req.Language, snap.Clusters, snap.CreatedAt); err != nil {
			config.WarnWithFields("cluster materialization failed", config.Fields{"key": key, "error": err.Error()})
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishSnapshotRefreshed(ctx, snap); err != nil {
			config.WarnWithFields("publish snapshot refreshed failed", config.Fields{"key": key, "error": err.Error()})
		}
	}
}

// fromStore serves general requests without topics from recently
// materialized clusters, re-ranked for now.
func (s *FeedService) fromStore(ctx context.Context, req models.FeedRequest, key string) (models.FeedSnapshot, bool) {
	if s.clusters == nil || req.Personalized() || len(req.Topics) > 0 {
		return models.FeedSnapshot{}, false
	}
	now := s.opts.Now()
	stored, err := s.clusters.ActiveClusters(ctx, req.Language, now.Add(-s.opts.MaterializedMaxAge), s.opts.MaxPageSize)
	if err != nil {
		config.WarnWithFields("cluster store read failed", config.Fields{"key": key, "error": err.Error()})
		return models.FeedSnapshot{}, false
	}
	ranked := s.ranker.Rank(distinctStories(stored), now, nil, req.PageSize)
	if len(ranked) == 0 {
		return models.FeedSnapshot{}, false
	}
	return models.FeedSnapshot{
		ID:        uuid.NewString(),
		Key:       key,
		Clusters:  ranked,
		CreatedAt: now.UTC(),
		Origin:    models.OriginStore,
	}, true
}

// distinctStories keeps one cluster per story when stored clusters share
// articles, preferring the one with more members. A story whose earliest
// article changed between runs is stored under two ids.
func distinctStories(clusters []models.StoryCluster) []models.StoryCluster {
	ordered := make([]models.StoryCluster, len(clusters))
	copy(ordered, clusters)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.ArticleCount != b.ArticleCount {
			return a.ArticleCount > b.ArticleCount
		}
		if !a.LatestPublishedAt.Equal(b.LatestPublishedAt) {
			return a.LatestPublishedAt.After(b.LatestPublishedAt)
		}
		return a.ID < b.ID
	})

	seen := map[string]bool{}
	out := make([]models.StoryCluster, 0, len(ordered))
next:
	for _, c := range ordered {
		for _, a := range c.Articles {
			if seen[a.ID] {
				continue next
			}
		}
		for _, a := range c.Articles {
			seen[a.ID] = true
		}
		out = append(out, c)
	}
	return out
}

func (s *FeedService) profile(ctx context.Context, req models.FeedRequest) *ranking.Profile {
	if !req.Personalized() {
		return nil
	}
	var prefs *models.Preferences
	if s.prefs != nil && req.UserID != "" {
		p, err := s.prefs.Preferences(ctx, req.UserID)
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrPersonalizationUnavailable, err)
			config.WarnWithFields("preferences lookup failed", config.Fields{
				"user_id": req.UserID,
				"error":   err.Error(),
			})
		} else {
			prefs = p
		}
	}
	return ranking.NewProfile(req, prefs)
}

func (s *FeedService) requestRefresh(ctx context.Context, key string, req models.FeedRequest, reason string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRefreshRequested(ctx, key, req, reason); err != nil {
		config.WarnWithFields("publish refresh request failed", config.Fields{"key": key, "error": err.Error()})
	}
}
