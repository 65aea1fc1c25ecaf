package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/maheshrc27/postflow/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPostService(t *testing.T, store *memStore) (PostService, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	pr := memPostRepo{store}
	sr := memScheduleRepo{store}
	svc := NewPostService(db, pr, sr, memAccountRepo{store}, memPostMediaRepo{store}, memActivityRepo{store},
		NewReconcilerService(pr, sr, func() time.Time { return baseTime }),
		NewActivityRecorder(memActivityRepo{store}, time.Second))
	return svc, mock
}

func TestCreateDraft(t *testing.T) {
	store := newMemStore()
	svc, mock := newTestPostService(t, store)

	mock.ExpectBegin()
	mock.ExpectCommit()

	id, err := svc.CreateDraft(context.Background(), 7, 1, &transfer.PostCreation{
		Content:  "launch day",
		AssetIDs: []int64{31, 30},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	post := store.post(id)
	assert.Equal(t, models.PostStatusDraft, post.Status)
	assert.Equal(t, int64(7), post.UserID)
	assert.Equal(t, int64(1), post.WorkspaceID)
	assert.Equal(t, []models.PostMedia{
		{PostID: id, AssetID: 31, DisplayOrder: 0},
		{PostID: id, AssetID: 30, DisplayOrder: 1},
	}, store.postMedia)
}

func TestCreateDraft_RequiresContentOrMedia(t *testing.T) {
	store := newMemStore()
	svc, mock := newTestPostService(t, store)

	_, err := svc.CreateDraft(context.Background(), 7, 1, &transfer.PostCreation{Content: "  "})
	assert.True(t, errors.Is(err, ErrInvalidPost))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchedulePost_CreatesOneSchedulePerAccount(t *testing.T) {
	store := newMemStore()
	svc, mock := newTestPostService(t, store)

	post := store.addPost(&models.Post{WorkspaceID: 1, Content: "hi", Status: models.PostStatusDraft})
	a := store.addAccount(&models.SocialAccount{WorkspaceID: 1, Platform: models.PlatformFacebook})
	b := store.addAccount(&models.SocialAccount{WorkspaceID: 1, Platform: models.PlatformZalo})

	mock.ExpectBegin()
	mock.ExpectCommit()

	ids, err := svc.SchedulePost(context.Background(), 1, &transfer.ScheduleRequest{
		PostID:        post.ID,
		AccountIDs:    []int64{a.ID, b.ID, a.ID},
		ScheduledTime: "2026-03-02T10:30:00Z",
	})
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.NoError(t, mock.ExpectationsWereMet())

	schedules, err := svc.ListSchedules(context.Background(), 1, post.ID)
	require.NoError(t, err)
	require.Len(t, schedules, 2)
	for _, s := range schedules {
		assert.Equal(t, models.ScheduleStatusPending, s.Status)
		assert.Equal(t, time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC), s.ScheduledAt)
	}
	assert.Equal(t, models.PostStatusPending, store.post(post.ID).Status)
}

func TestSchedulePost_RejectsForeignAccount(t *testing.T) {
	store := newMemStore()
	svc, mock := newTestPostService(t, store)

	post := store.addPost(&models.Post{WorkspaceID: 1, Content: "hi"})
	foreign := store.addAccount(&models.SocialAccount{WorkspaceID: 2, Platform: models.PlatformFacebook})

	_, err := svc.SchedulePost(context.Background(), 1, &transfer.ScheduleRequest{
		PostID:        post.ID,
		AccountIDs:    []int64{foreign.ID},
		ScheduledTime: "2026-03-02T10:30",
	})
	assert.True(t, errors.Is(err, ErrInvalidScheduleRequest))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchedulePost_ValidatesRequest(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestPostService(t, store)
	post := store.addPost(&models.Post{WorkspaceID: 1, Content: "hi"})

	_, err := svc.SchedulePost(context.Background(), 1, &transfer.ScheduleRequest{PostID: post.ID, ScheduledTime: "2026-03-02T10:30"})
	assert.True(t, errors.Is(err, ErrInvalidScheduleRequest))

	_, err = svc.SchedulePost(context.Background(), 1, &transfer.ScheduleRequest{PostID: post.ID, AccountIDs: []int64{1}, ScheduledTime: "tomorrow"})
	assert.True(t, errors.Is(err, ErrInvalidScheduleRequest))

	_, err = svc.SchedulePost(context.Background(), 2, &transfer.ScheduleRequest{PostID: post.ID, AccountIDs: []int64{1}, ScheduledTime: "2026-03-02T10:30"})
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestCancelSchedule(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestPostService(t, store)

	post := store.addPost(&models.Post{WorkspaceID: 1, Content: "hi"})
	pending := store.addSchedule(&models.PostSchedule{PostID: post.ID, AccountID: 1})

	require.NoError(t, svc.CancelSchedule(context.Background(), 1, pending.ID))

	got := store.schedule(pending.ID)
	assert.Equal(t, models.ScheduleStatusFailed, got.Status)
	assert.Equal(t, "cancelled", got.ErrorMessage)
	assert.Equal(t, models.PostStatusFailed, store.post(post.ID).Status)

	activity, err := svc.ListActivity(context.Background(), 1, post.ID)
	require.NoError(t, err)
	require.Len(t, activity, 1)
	assert.Equal(t, models.ActivityActionCancel, activity[0].Action)

	err = svc.CancelSchedule(context.Background(), 1, pending.ID)
	assert.True(t, errors.Is(err, ErrScheduleNotPending))
}

func TestCancelSchedule_OtherWorkspace(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestPostService(t, store)

	post := store.addPost(&models.Post{WorkspaceID: 1, Content: "hi"})
	pending := store.addSchedule(&models.PostSchedule{PostID: post.ID, AccountID: 1})

	err := svc.CancelSchedule(context.Background(), 9, pending.ID)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
	assert.Equal(t, models.ScheduleStatusPending, store.schedule(pending.ID).Status)
}
