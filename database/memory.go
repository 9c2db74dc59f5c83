package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"aura/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is a process-local Store for development and tests. It keeps
// the same observable semantics as MongoStore; follow/unfollow are atomic
// here since everything runs under one lock.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[primitive.ObjectID]*models.User
	posts         map[primitive.ObjectID]*models.Post
	reels         map[primitive.ObjectID]*models.Reel
	subscriptions map[primitive.ObjectID]*models.PushSubscription
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[primitive.ObjectID]*models.User),
		posts:         make(map[primitive.ObjectID]*models.Post),
		reels:         make(map[primitive.ObjectID]*models.Reel),
		subscriptions: make(map[primitive.ObjectID]*models.PushSubscription),
	}
}

func (m *MemoryStore) Ping(context.Context) error       { return nil }
func (m *MemoryStore) Disconnect(context.Context) error { return nil }

func (m *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return ErrDuplicateUsername
		}
	}

	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.Normalize()
	m.users[u.ID] = cloneUser(u)
	return nil
}

func (m *MemoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) FindUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *MemoryStore) UpdateProfile(_ context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if update.Bio != nil {
		u.Bio = *update.Bio
	}
	if update.Fullname != nil {
		u.Fullname = *update.Fullname
	}
	if update.ProfilePic != nil {
		u.ProfilePic = *update.ProfilePic
	}
	return cloneUser(u), nil
}

func (m *MemoryStore) SearchUsernames(_ context.Context, prefix string) ([]models.UserSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix = strings.ToLower(prefix)
	users := []models.UserSummary{}
	for _, u := range m.users {
		if strings.HasPrefix(strings.ToLower(u.Username), prefix) {
			users = append(users, models.UserSummary{ID: u.ID, Username: u.Username})
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (m *MemoryStore) UserSummaries(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[primitive.ObjectID]models.UserSummary, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result[id] = models.UserSummary{ID: u.ID, Username: u.Username}
		}
	}
	return result, nil
}

func (m *MemoryStore) Follow(_ context.Context, follower, followee primitive.ObjectID) error {
	if follower == followee {
		return ErrSelfFollow
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	from, ok := m.users[follower]
	if !ok {
		return ErrNotFound
	}
	to, ok := m.users[followee]
	if !ok {
		return ErrNotFound
	}
	if containsID(from.IsFollowing, followee) {
		return ErrAlreadyFollowing
	}

	from.IsFollowing = append(from.IsFollowing, followee)
	if !containsID(to.FollowedBy, follower) {
		to.FollowedBy = append(to.FollowedBy, follower)
	}
	return nil
}

func (m *MemoryStore) Unfollow(_ context.Context, follower, followee primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if from, ok := m.users[follower]; ok {
		from.IsFollowing = removeID(from.IsFollowing, followee)
	}
	if to, ok := m.users[followee]; ok {
		to.FollowedBy = removeID(to.FollowedBy, follower)
	}
	return nil
}

func (m *MemoryStore) CreatePost(_ context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt, p.UpdatedAt = now, now
	if p.LikedBy == nil {
		p.LikedBy = []primitive.ObjectID{}
	}
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	m.posts[p.ID] = clonePost(p)
	return nil
}

func (m *MemoryStore) PostByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePost(p), nil
}

func (m *MemoryStore) PostsByUser(_ context.Context, userID primitive.ObjectID) ([]models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	posts := []models.Post{}
	for _, p := range m.posts {
		if p.UserID == userID {
			posts = append(posts, *clonePost(p))
		}
	}
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts, nil
}

func (m *MemoryStore) DeletePost(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[id]; !ok {
		return ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *MemoryStore) TogglePostLike(_ context.Context, postID, userID primitive.ObjectID) (models.LikeState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[postID]
	if !ok {
		return models.LikeState{}, ErrNotFound
	}

	if containsID(p.LikedBy, userID) {
		p.LikedBy = removeID(p.LikedBy, userID)
		if p.Likes > 0 {
			p.Likes--
		}
	} else {
		p.LikedBy = append(p.LikedBy, userID)
		p.Likes++
	}
	p.UpdatedAt = time.Now()
	return models.LikeState{Liked: containsID(p.LikedBy, userID), Count: p.Likes}, nil
}

func (m *MemoryStore) PostLikeState(_ context.Context, postID, userID primitive.ObjectID) (models.LikeState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.posts[postID]
	if !ok {
		return models.LikeState{}, ErrNotFound
	}
	return models.LikeState{Liked: containsID(p.LikedBy, userID), Count: p.Likes}, nil
}

func (m *MemoryStore) AddPostComment(_ context.Context, postID primitive.ObjectID, c models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[postID]
	if !ok {
		return ErrNotFound
	}
	p.Comments = append(p.Comments, c)
	p.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) PostComments(_ context.Context, postID primitive.ObjectID) ([]models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.posts[postID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]models.Comment{}, p.Comments...), nil
}

func (m *MemoryStore) CreateReel(_ context.Context, r *models.Reel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	r.CreatedAt, r.UpdatedAt = now, now
	if r.Likes == nil {
		r.Likes = []primitive.ObjectID{}
	}
	if r.Comments == nil {
		r.Comments = []models.Comment{}
	}
	m.reels[r.ID] = cloneReel(r)
	return nil
}

func (m *MemoryStore) ReelByID(_ context.Context, id primitive.ObjectID) (*models.Reel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.reels[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneReel(r), nil
}

func (m *MemoryStore) ListReels(_ context.Context, owner *primitive.ObjectID) ([]models.Reel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reels := []models.Reel{}
	for _, r := range m.reels {
		if owner == nil || r.UserID == *owner {
			reels = append(reels, *cloneReel(r))
		}
	}
	sort.SliceStable(reels, func(i, j int) bool { return reels[i].CreatedAt.After(reels[j].CreatedAt) })
	return reels, nil
}

func (m *MemoryStore) DeleteReel(_ context.Context, id primitive.ObjectID) (*models.Reel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reels[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.reels, id)
	return r, nil
}

func (m *MemoryStore) ToggleReelLike(_ context.Context, reelID, userID primitive.ObjectID) (models.LikeState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reels[reelID]
	if !ok {
		return models.LikeState{}, ErrNotFound
	}

	if containsID(r.Likes, userID) {
		r.Likes = removeID(r.Likes, userID)
	} else {
		r.Likes = append(r.Likes, userID)
	}
	r.UpdatedAt = time.Now()
	return models.LikeState{Liked: containsID(r.Likes, userID), Count: len(r.Likes)}, nil
}

func (m *MemoryStore) ReelLikeState(_ context.Context, reelID, userID primitive.ObjectID) (models.LikeState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.reels[reelID]
	if !ok {
		return models.LikeState{}, ErrNotFound
	}
	return models.LikeState{Liked: containsID(r.Likes, userID), Count: len(r.Likes)}, nil
}

func (m *MemoryStore) AddReelComment(_ context.Context, reelID primitive.ObjectID, c models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reels[reelID]
	if !ok {
		return ErrNotFound
	}
	r.Comments = append(r.Comments, c)
	r.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) ReelComments(_ context.Context, reelID primitive.ObjectID) ([]models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.reels[reelID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]models.Comment{}, r.Comments...), nil
}

func (m *MemoryStore) SavePushSubscription(_ context.Context, sub *models.PushSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *sub
	if existing, ok := m.subscriptions[sub.UserID]; ok {
		stored.ID = existing.ID
	} else if stored.ID.IsZero() {
		stored.ID = primitive.NewObjectID()
	}
	m.subscriptions[sub.UserID] = &stored
	return nil
}

func (m *MemoryStore) FindPushSubscription(_ context.Context, userID primitive.ObjectID) (*models.PushSubscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, ok := m.subscriptions[userID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *sub
	return &copied, nil
}

func (m *MemoryStore) DeletePushSubscription(_ context.Context, userID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.subscriptions, userID)
	return nil
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.FollowedBy = append([]primitive.ObjectID{}, u.FollowedBy...)
	c.IsFollowing = append([]primitive.ObjectID{}, u.IsFollowing...)
	c.ProfilePic.Data = append([]byte(nil), u.ProfilePic.Data...)
	return &c
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.LikedBy = append([]primitive.ObjectID{}, p.LikedBy...)
	c.Comments = append([]models.Comment{}, p.Comments...)
	c.Image.Data = append([]byte(nil), p.Image.Data...)
	return &c
}

func cloneReel(r *models.Reel) *models.Reel {
	c := *r
	c.Likes = append([]primitive.ObjectID{}, r.Likes...)
	c.Comments = append([]models.Comment{}, r.Comments...)
	return &c
}
