package service

import (
	"context"
	"testing"
	"time"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator(store *memStore, media MediaService) ValidatorService {
	return NewValidatorService(
		memPostRepo{store},
		memScheduleRepo{store},
		memAccountRepo{store},
		memPostMediaRepo{store},
		media,
		NewActivityRecorder(memActivityRepo{store}, time.Second),
		func() time.Time { return baseTime },
	)
}

func TestValidate_ValidPost(t *testing.T) {
	store := newMemStore()
	post, schedules := seedPost(store, baseTime, models.PlatformFacebook, models.PlatformInstagram)

	res := newTestValidator(store, &fakeMedia{}).Validate(context.Background(), post.ID)

	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	require.NotNil(t, res.Post)
	assert.Equal(t, post.ID, res.Post.ID)
	assert.Len(t, res.Accounts, 2)
	assert.NotNil(t, res.Account(schedules[1].AccountID))
	require.Len(t, res.Media, 1)
	assert.Equal(t, models.MediaKindImage, res.Media[0].Kind)
	assert.Equal(t, []string{"validate:success"}, store.activityActions())
}

func TestValidate_MissingPost(t *testing.T) {
	store := newMemStore()

	res := newTestValidator(store, &fakeMedia{}).Validate(context.Background(), 404)

	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors, "post 404 not found")
	assert.Nil(t, res.Post)
	assert.Equal(t, []string{"validate:failure"}, store.activityActions())
}

func TestValidate_EmptyPost(t *testing.T) {
	store := newMemStore()
	post := store.addPost(&models.Post{WorkspaceID: 1, Content: "   "})
	acc := store.addAccount(&models.SocialAccount{Platform: models.PlatformFacebook, AccessToken: "enc:t"})
	store.addSchedule(&models.PostSchedule{PostID: post.ID, AccountID: acc.ID})

	res := newTestValidator(store, &fakeMedia{}).Validate(context.Background(), post.ID)

	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors[0], "has no content or media")
}

func TestValidate_UnresolvableAccountIsWarning(t *testing.T) {
	store := newMemStore()
	post, _ := seedPost(store, baseTime, models.PlatformFacebook)
	store.addSchedule(&models.PostSchedule{PostID: post.ID, AccountID: 9999})

	res := newTestValidator(store, &fakeMedia{}).Validate(context.Background(), post.ID)

	assert.True(t, res.Valid)
	assert.Contains(t, res.Warnings, "account 9999 could not be resolved")
	assert.Len(t, res.Accounts, 1)
}

func TestValidate_NoResolvableAccount(t *testing.T) {
	store := newMemStore()
	post := store.addPost(&models.Post{WorkspaceID: 1, Content: "hi"})
	store.addSchedule(&models.PostSchedule{PostID: post.ID, AccountID: 9999})

	res := newTestValidator(store, &fakeMedia{}).Validate(context.Background(), post.ID)

	assert.False(t, res.Valid)
	assert.Contains(t, res.Warnings, "account 9999 could not be resolved")
	assert.Len(t, res.Errors, 1)
}

func TestValidate_Credentials(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(a *models.SocialAccount)
		valid     bool
		errorPart string
		warnPart  string
	}{
		{"expired", func(a *models.SocialAccount) { a.TokenExpiresAt = baseTime.Add(-time.Minute) }, false, "expired", ""},
		{"expiring soon", func(a *models.SocialAccount) { a.TokenExpiresAt = baseTime.Add(2 * time.Hour) }, true, "", "expires at"},
		{"missing credential", func(a *models.SocialAccount) { a.AccessToken = "" }, false, "no stored credential", ""},
		{"disconnected account", func(a *models.SocialAccount) { a.AccountStatus = "disconnected" }, false, "is disconnected", ""},
		{"no expiry recorded", func(a *models.SocialAccount) { a.TokenExpiresAt = time.Time{} }, true, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			post, schedules := seedPost(store, baseTime, models.PlatformFacebook)
			tt.mutate(store.accounts[schedules[0].AccountID])

			res := newTestValidator(store, &fakeMedia{}).Validate(context.Background(), post.ID)

			assert.Equal(t, tt.valid, res.Valid)
			if tt.errorPart != "" {
				require.Len(t, res.Errors, 1)
				assert.Contains(t, res.Errors[0], tt.errorPart)
			}
			if tt.warnPart != "" {
				require.Len(t, res.Warnings, 1)
				assert.Contains(t, res.Warnings[0], tt.warnPart)
			}
		})
	}
}

func TestValidate_InaccessibleMedia(t *testing.T) {
	store := newMemStore()
	post, _ := seedPost(store, baseTime, models.PlatformFacebook)
	media := &fakeMedia{missing: map[string]error{"https://cdn.example.com/a.jpg": ErrMediaNotFound}}

	res := newTestValidator(store, media).Validate(context.Background(), post.ID)

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "is not accessible")
	assert.Nil(t, res.Media)
}

func TestValidate_PlatformConstraints(t *testing.T) {
	store := newMemStore()
	post := store.addPost(&models.Post{WorkspaceID: 1, Content: "text only"})
	acc := store.addAccount(&models.SocialAccount{Platform: models.PlatformInstagram, AccessToken: "enc:t", AccountStatus: models.AccountStatusActive})
	store.addSchedule(&models.PostSchedule{PostID: post.ID, AccountID: acc.ID})

	res := newTestValidator(store, &fakeMedia{}).Validate(context.Background(), post.ID)

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "instagram requires at least one image or video")
}

func TestValidate_UnsupportedProvider(t *testing.T) {
	store := newMemStore()
	post := store.addPost(&models.Post{WorkspaceID: 1, Content: "hi"})
	acc := store.addAccount(&models.SocialAccount{Platform: "myspace", AccessToken: "enc:t"})
	store.addSchedule(&models.PostSchedule{PostID: post.ID, AccountID: acc.ID})

	res := newTestValidator(store, &fakeMedia{}).Validate(context.Background(), post.ID)

	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors[0], `unsupported provider "myspace"`)
}

func TestValidate_PanickingCheckBecomesError(t *testing.T) {
	store := newMemStore()
	post, _ := seedPost(store, baseTime, models.PlatformFacebook)

	res := newTestValidator(store, &fakeMedia{panics: true}).Validate(context.Background(), post.ID)

	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors, "media_access: internal error")
}

func TestCheckPlatformRule(t *testing.T) {
	image := models.MediaItem{URL: "a.jpg", Kind: models.MediaKindImage}
	video := models.MediaItem{URL: "b.mp4", Kind: models.MediaKindVideo}

	assert.Empty(t, checkPlatformRule(models.PlatformFacebook, "hi", nil))
	assert.Empty(t, checkPlatformRule(models.PlatformZalo, "hi", []models.MediaItem{image, video}))
	assert.Empty(t, checkPlatformRule(models.PlatformYoutube, "", []models.MediaItem{video}))

	assert.NotEmpty(t, checkPlatformRule(models.PlatformFacebook, "hi", []models.MediaItem{image, video}))
	assert.NotEmpty(t, checkPlatformRule(models.PlatformYoutube, "", []models.MediaItem{image}))
	assert.NotEmpty(t, checkPlatformRule(models.PlatformTiktok, "hi", nil))
	assert.NotEmpty(t, checkPlatformRule(models.PlatformInstagram, string(make([]rune, 2201)), []models.MediaItem{image}))
	assert.NotEmpty(t, checkPlatformRule(models.PlatformInstagram, "hi", []models.MediaItem{{URL: "c.bin", Kind: models.MediaKindUnknown}}))
}
