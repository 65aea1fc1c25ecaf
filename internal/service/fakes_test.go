package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/repository"
)

// memStore is an in-memory stand-in for the database shared by the fake
// repositories below. Conditional writes are atomic under mu, like the
// single-statement updates of the SQL repositories.
type memStore struct {
	mu        sync.Mutex
	nextID    int64
	schedules map[int64]*models.PostSchedule
	posts     map[int64]*models.Post
	accounts  map[int64]*models.SocialAccount
	assets    map[int64][]*models.MediaAsset
	activity  []models.ActivityLog
	postMedia []models.PostMedia

	postWrites int
	listErr    error
	afterList  func()
}

func newMemStore() *memStore {
	return &memStore{
		nextID:    100,
		schedules: map[int64]*models.PostSchedule{},
		posts:     map[int64]*models.Post{},
		accounts:  map[int64]*models.SocialAccount{},
		assets:    map[int64][]*models.MediaAsset{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addPost(p *models.Post) *models.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		p.ID = m.id()
	}
	if p.Status == "" {
		p.Status = models.PostStatusPending
	}
	m.posts[p.ID] = p
	return p
}

func (m *memStore) addAccount(a *models.SocialAccount) *models.SocialAccount {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == 0 {
		a.ID = m.id()
	}
	m.accounts[a.ID] = a
	return a
}

func (m *memStore) addAsset(postID int64, a *models.MediaAsset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == 0 {
		a.ID = m.id()
	}
	m.assets[postID] = append(m.assets[postID], a)
}

func (m *memStore) addSchedule(s *models.PostSchedule) *models.PostSchedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == 0 {
		s.ID = m.id()
	}
	if s.Status == "" {
		s.Status = models.ScheduleStatusPending
	}
	m.schedules[s.ID] = s
	return s
}

func (m *memStore) schedule(id int64) models.PostSchedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.schedules[id]
}

func (m *memStore) post(id int64) models.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.posts[id]
}

func (m *memStore) setScheduleStatus(id int64, status models.ScheduleStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[id].Status = status
}

func (m *memStore) activityActions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, a := range m.activity {
		out = append(out, a.Action+":"+a.Outcome)
	}
	return out
}

type memScheduleRepo struct{ m *memStore }

func (r memScheduleRepo) Create(ctx context.Context, tx *sql.Tx, s *models.PostSchedule) (int64, error) {
	cp := *s
	return r.m.addSchedule(&cp).ID, nil
}

func (r memScheduleRepo) GetByID(ctx context.Context, id int64) (*models.PostSchedule, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.schedules[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r memScheduleRepo) ListDue(ctx context.Context, cutoff time.Time, limit int) ([]*models.PostSchedule, error) {
	r.m.mu.Lock()
	if r.m.listErr != nil {
		r.m.mu.Unlock()
		return nil, r.m.listErr
	}
	var due []*models.PostSchedule
	for _, s := range r.m.schedules {
		if s.Status == models.ScheduleStatusPending && !s.ScheduledAt.After(cutoff) {
			cp := *s
			due = append(due, &cp)
		}
	}
	hook := r.m.afterList
	r.m.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].ScheduledAt.Equal(due[j].ScheduledAt) {
			return due[i].ID < due[j].ID
		}
		return due[i].ScheduledAt.Before(due[j].ScheduledAt)
	})
	if limit <= 0 {
		return nil, nil
	}
	if len(due) > limit {
		due = due[:limit]
	}

	if hook != nil {
		hook()
	}
	return due, nil
}

func (r memScheduleRepo) ClaimPending(ctx context.Context, ids []int64) ([]int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var claimed []int64
	for _, id := range ids {
		if s, ok := r.m.schedules[id]; ok && s.Status == models.ScheduleStatusPending {
			s.Status = models.ScheduleStatusPublishing
			claimed = append(claimed, id)
		}
	}
	return claimed, nil
}

func (r memScheduleRepo) GetStatus(ctx context.Context, id int64) (models.ScheduleStatus, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.schedules[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	return s.Status, nil
}

func (r memScheduleRepo) transition(id int64, from models.ScheduleStatus, apply func(s *models.PostSchedule)) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.schedules[id]
	if !ok || s.Status != from {
		return repository.ErrStaleSchedule
	}
	apply(s)
	return nil
}

func (r memScheduleRepo) MarkPublished(ctx context.Context, id int64, externalPostID string, publishedAt time.Time) error {
	return r.transition(id, models.ScheduleStatusPublishing, func(s *models.PostSchedule) {
		s.Status = models.ScheduleStatusPublished
		s.ExternalPostID = externalPostID
		s.PublishedAt = &publishedAt
		s.ErrorMessage = ""
	})
}

func (r memScheduleRepo) MarkRetry(ctx context.Context, id int64, retryCount int, nextAttempt time.Time, errorMessage string) error {
	return r.transition(id, models.ScheduleStatusPublishing, func(s *models.PostSchedule) {
		s.Status = models.ScheduleStatusPending
		s.RetryCount = retryCount
		s.ScheduledAt = nextAttempt
		s.ErrorMessage = errorMessage
	})
}

func (r memScheduleRepo) MarkFailed(ctx context.Context, id int64, errorMessage string) error {
	return r.transition(id, models.ScheduleStatusPublishing, func(s *models.PostSchedule) {
		s.Status = models.ScheduleStatusFailed
		s.ErrorMessage = errorMessage
	})
}

func (r memScheduleRepo) CancelPending(ctx context.Context, id int64, reason string) error {
	return r.transition(id, models.ScheduleStatusPending, func(s *models.PostSchedule) {
		s.Status = models.ScheduleStatusFailed
		s.ErrorMessage = reason
	})
}

func (r memScheduleRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.PostSchedule, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.PostSchedule
	for _, s := range r.m.schedules {
		if s.PostID == postID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memPostRepo struct{ m *memStore }

func (r memPostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r memPostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	cp := *post
	return r.m.addPost(&cp).ID, nil
}

func (r memPostRepo) UpdateStatus(ctx context.Context, tx *sql.Tx, postID int64, status models.PostStatus, publishedAt *time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.posts[postID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Status = status
	if p.PublishedAt == nil && publishedAt != nil {
		t := *publishedAt
		p.PublishedAt = &t
	}
	r.m.postWrites++
	return nil
}

type memAccountRepo struct{ m *memStore }

func (r memAccountRepo) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r memAccountRepo) ListByIDs(ctx context.Context, ids []int64) ([]*models.SocialAccount, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.SocialAccount
	for _, id := range ids {
		if a, ok := r.m.accounts[id]; ok {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memPostMediaRepo struct{ m *memStore }

func (r memPostMediaRepo) Create(ctx context.Context, tx *sql.Tx, pm *models.PostMedia) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.postMedia = append(r.m.postMedia, *pm)
	return nil
}

func (r memPostMediaRepo) ListAssetsByPostID(ctx context.Context, postID int64) ([]*models.MediaAsset, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return append([]*models.MediaAsset(nil), r.m.assets[postID]...), nil
}

type memActivityRepo struct{ m *memStore }

func (r memActivityRepo) Create(ctx context.Context, al *models.ActivityLog) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	al.ID = r.m.id()
	r.m.activity = append(r.m.activity, *al)
	return al.ID, nil
}

func (r memActivityRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.ActivityLog, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.ActivityLog
	for i := range r.m.activity {
		if r.m.activity[i].PostID == postID {
			cp := r.m.activity[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

// fakeMedia accepts every URL except those listed in missing and classifies
// by MIME prefix.
type fakeMedia struct {
	missing map[string]error
	panics  bool
}

func (f *fakeMedia) Probe(ctx context.Context, asset *models.MediaAsset) error {
	if f.panics {
		panic("probe exploded")
	}
	if err, ok := f.missing[asset.FileURL]; ok {
		return err
	}
	return nil
}

func (f *fakeMedia) Classify(asset *models.MediaAsset) models.MediaKind {
	switch {
	case strings.HasPrefix(asset.FileType, "image/"):
		return models.MediaKindImage
	case strings.HasPrefix(asset.FileType, "video/"):
		return models.MediaKindVideo
	}
	return models.MediaKindUnknown
}

type fakePublisher struct {
	calls   atomic.Int32
	publish func(ctx context.Context, data models.PublishData) models.PublishResult
}

func (p *fakePublisher) Publish(ctx context.Context, data models.PublishData) models.PublishResult {
	p.calls.Add(1)
	return p.publish(ctx, data)
}

func succeedWith(id string) *fakePublisher {
	return &fakePublisher{publish: func(ctx context.Context, data models.PublishData) models.PublishResult {
		return models.PublishResult{Success: true, ExternalPostID: id}
	}}
}

func failWith(msg string) *fakePublisher {
	return &fakePublisher{publish: func(ctx context.Context, data models.PublishData) models.PublishResult {
		return models.PublishFailure(msg, nil)
	}}
}

type fakeFactory map[string]*fakePublisher

func (f fakeFactory) ForAccount(account *models.SocialAccount) (Publisher, error) {
	p, ok := f[account.Platform]
	if !ok {
		return nil, ErrUnsupportedProvider
	}
	return p, nil
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type plainCreds struct{}

func (plainCreds) Decrypt(s string) (string, error) {
	return strings.TrimPrefix(s, "enc:"), nil
}

type validatorFunc func(ctx context.Context, postID int64) models.ValidationResult

func (f validatorFunc) Validate(ctx context.Context, postID int64) models.ValidationResult {
	return f(ctx, postID)
}
