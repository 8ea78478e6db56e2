package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/keithrincon/picklebookie-sub000/internal/events"
	"github.com/keithrincon/picklebookie-sub000/internal/models"
)

// memStore is an in-memory stand-in for the PostgreSQL repositories.
// Follow mutations update counters under the same lock, like the edge transaction.
type memStore struct {
	mu      sync.Mutex
	users   map[string]*models.User
	follows map[string]*models.Follow
	posts   map[string]*models.Post
	prefs   map[string]*models.Preferences

	failCountFor map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		users:        make(map[string]*models.User),
		follows:      make(map[string]*models.Follow),
		posts:        make(map[string]*models.Post),
		prefs:        make(map[string]*models.Preferences),
		failCountFor: make(map[string]bool),
	}
}

func (m *memStore) addUser(u *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *memStore) user(id string) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.users[id]
}

type memUsers struct{ *memStore }

func (r memUsers) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return models.NewConflictError("email is already registered")
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", models.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user not found: %w", models.ErrNotFound)
}

func (r memUsers) UpdateProfile(ctx context.Context, userID, displayName, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user not found: %w", models.ErrNotFound)
	}
	u.DisplayName, u.Username = displayName, username
	return nil
}

func (r memUsers) UpdatePushToken(ctx context.Context, userID string, token *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user not found: %w", models.ErrNotFound)
	}
	u.PushToken = token
	return nil
}

func (r memUsers) UpdatePhotoURL(ctx context.Context, userID, photoURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user not found: %w", models.ErrNotFound)
	}
	u.PhotoURL = photoURL
	return nil
}

func (r memUsers) SearchByUsernamePrefix(ctx context.Context, prefix string, limit int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, u := range r.users {
		if strings.HasPrefix(u.Username, prefix) {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memUsers) ListIDs(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r memUsers) SetFollowCounts(ctx context.Context, userID string, followers, following int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user not found: %w", models.ErrNotFound)
	}
	u.FollowerCount, u.FollowingCount = followers, following
	return nil
}

type memFollows struct{ *memStore }

func (r memFollows) Upsert(ctx context.Context, follow *models.Follow) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, existed := r.follows[follow.ID]
	cp := *follow
	r.follows[follow.ID] = &cp
	if existed {
		return false, nil
	}
	if u, ok := r.users[follow.FollowerID]; ok {
		u.FollowingCount++
	}
	if u, ok := r.users[follow.FollowedID]; ok {
		u.FollowerCount++
	}
	return true, nil
}

func (r memFollows) Delete(ctx context.Context, followerID, followedID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := models.FollowID(followerID, followedID)
	if _, ok := r.follows[id]; !ok {
		return false, nil
	}
	delete(r.follows, id)
	if u, ok := r.users[followerID]; ok && u.FollowingCount > 0 {
		u.FollowingCount--
	}
	if u, ok := r.users[followedID]; ok && u.FollowerCount > 0 {
		u.FollowerCount--
	}
	return true, nil
}

func (r memFollows) Exists(ctx context.Context, followerID, followedID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.follows[models.FollowID(followerID, followedID)]
	return ok, nil
}

func (r memFollows) CountFollowers(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCountFor[userID] {
		return 0, errors.New("count failed")
	}
	n := 0
	for _, f := range r.follows {
		if f.FollowingID == userID {
			n++
		}
	}
	return n, nil
}

func (r memFollows) CountFollowing(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, f := range r.follows {
		if f.FollowerID == userID {
			n++
		}
	}
	return n, nil
}

func (r memFollows) ListFollowers(ctx context.Context, userID string, limit int) ([]*models.Follow, error) {
	return r.list(func(f *models.Follow) bool { return f.FollowingID == userID }, limit), nil
}

func (r memFollows) ListFollowing(ctx context.Context, userID string, limit int) ([]*models.Follow, error) {
	return r.list(func(f *models.Follow) bool { return f.FollowerID == userID }, limit), nil
}

func (r memFollows) list(match func(*models.Follow) bool, limit int) []*models.Follow {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Follow
	for _, f := range r.follows {
		if match(f) {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

type memPosts struct{ *memStore }

func copyPost(p *models.Post) *models.Post {
	cp := *p
	cp.JoinedPlayers = append([]string{}, p.JoinedPlayers...)
	return &cp
}

func (r memPosts) Create(ctx context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[post.ID] = copyPost(post)
	return nil
}

func (r memPosts) GetByID(ctx context.Context, id string) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, fmt.Errorf("post not found: %w", models.ErrNotFound)
	}
	return copyPost(p), nil
}

func (r memPosts) ListByDate(ctx context.Context) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Post, 0, len(r.posts))
	for _, p := range r.posts {
		out = append(out, copyPost(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r memPosts) ListByUser(ctx context.Context, userID string) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Post
	for _, p := range r.posts {
		if p.UserID == userID {
			out = append(out, copyPost(p))
		}
	}
	return out, nil
}

func (r memPosts) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return fmt.Errorf("post not found: %w", models.ErrNotFound)
	}
	delete(r.posts, id)
	return nil
}

func (r memPosts) AddPlayer(ctx context.Context, postID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return false, nil
	}
	for _, id := range p.JoinedPlayers {
		if id == userID {
			return false, nil
		}
	}
	p.JoinedPlayers = append(p.JoinedPlayers, userID)
	return true, nil
}

func (r memPosts) RemovePlayer(ctx context.Context, postID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return false, nil
	}
	for i, id := range p.JoinedPlayers {
		if id == userID {
			p.JoinedPlayers = append(p.JoinedPlayers[:i], p.JoinedPlayers[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r memPosts) ListExpiredIDs(ctx context.Context, today string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, p := range r.posts {
		if p.Date < today {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r memPosts) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := r.posts[id]; ok {
			delete(r.posts, id)
			n++
		}
	}
	return n, nil
}

type memPrefs struct{ *memStore }

func (r memPrefs) Get(ctx context.Context, userID string) (*models.Preferences, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prefs[userID]
	if !ok {
		return nil, fmt.Errorf("preferences not found: %w", models.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (r memPrefs) Upsert(ctx context.Context, p *models.Preferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.prefs[p.UserID] = &cp
	return nil
}

// publisherStub records published events
type publisherStub struct {
	mu        sync.Mutex
	published []events.FollowCreated
	err       error
}

func (p *publisherStub) PublishFollowCreated(ctx context.Context, evt events.FollowCreated) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.published = append(p.published, evt)
	return fmt.Sprintf("%d-0", len(p.published)), nil
}

type sentPush struct {
	token, title, body string
}

// senderStub records pushes
type senderStub struct {
	mu   sync.Mutex
	sent []sentPush
	err  error
}

func (s *senderStub) Send(ctx context.Context, token, title, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentPush{token: token, title: title, body: body})
	return nil
}

// memDeduper is an in-memory Deduper
type memDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (d *memDeduper) MarkSeen(ctx context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen == nil {
		d.seen = make(map[string]bool)
	}
	if d.seen[key] {
		return false, nil
	}
	d.seen[key] = true
	return true, nil
}

// feedNotifierStub counts PostsChanged calls
type feedNotifierStub struct {
	mu    sync.Mutex
	calls int
}

func (f *feedNotifierStub) PostsChanged() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
}

func (f *feedNotifierStub) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
