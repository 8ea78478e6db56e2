package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/keithrincon/picklebookie-sub000/internal/geo"
	"github.com/keithrincon/picklebookie-sub000/internal/models"
)

// ApproxLabel marks posts without coordinates in a location-less feed
const ApproxLabel = "Approx"

// FeedItem is a post annotated with its distance from the viewer
type FeedItem struct {
	*models.Post
	Distance      *float64 `json:"distance"`
	LocationLabel string   `json:"location_label,omitempty"`
}

// BuildFeed orders posts by date and annotates them for viewer.
//
// With no viewer location every distance is null and nothing is filtered.
// With a viewer location, posts without coordinates count as infinitely far
// and are dropped along with posts beyond radiusMiles.
func BuildFeed(posts []*models.Post, viewer *geo.Coordinates, radiusMiles float64) []FeedItem {
	sorted := make([]*models.Post, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	items := make([]FeedItem, 0, len(sorted))
	for _, p := range sorted {
		if viewer == nil {
			item := FeedItem{Post: p}
			if !p.HasCoordinates() {
				item.LocationLabel = ApproxLabel
			}
			items = append(items, item)
			continue
		}

		if !p.HasCoordinates() {
			continue
		}
		d := geo.DistanceMiles(*viewer, geo.Coordinates{Lat: *p.Latitude, Lng: *p.Longitude})
		if d > radiusMiles {
			continue
		}
		items = append(items, FeedItem{Post: p, Distance: &d})
	}
	return items
}

// FeedService builds the distance-aware post feed
type FeedService struct {
	posts  PostStore
	radius float64
}

// NewFeedService creates a feed service with the given proximity radius
func NewFeedService(posts PostStore, radiusMiles float64) *FeedService {
	return &FeedService{posts: posts, radius: radiusMiles}
}

// LoadPosts returns every post ordered by date
func (s *FeedService) LoadPosts(ctx context.Context) ([]*models.Post, error) {
	posts, err := s.posts.ListByDate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}
	return posts, nil
}

// Render builds the feed for viewer from an already loaded set of posts
func (s *FeedService) Render(posts []*models.Post, viewer *geo.Coordinates) []FeedItem {
	return BuildFeed(posts, viewer, s.radius)
}

// Feed returns the current feed for viewer (nil when the location is unknown)
func (s *FeedService) Feed(ctx context.Context, viewer *geo.Coordinates) ([]FeedItem, error) {
	posts, err := s.LoadPosts(ctx)
	if err != nil {
		return nil, err
	}
	return s.Render(posts, viewer), nil
}
