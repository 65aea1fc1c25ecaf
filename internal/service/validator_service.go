package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/repository"
)

const credentialExpiryWarning = 24 * time.Hour

type ValidatorService interface {
	// Validate never fails: problems, including internal errors, come back
	// as entries in Errors.
	Validate(ctx context.Context, postID int64) models.ValidationResult
}

type validatorService struct {
	pr       repository.PostRepository
	sr       repository.ScheduleRepository
	ar       repository.SocialAccountRepository
	pm       repository.PostMediaRepository
	media    MediaService
	activity ActivityRecorder
	now      func() time.Time
}

func NewValidatorService(
	pr repository.PostRepository,
	sr repository.ScheduleRepository,
	ar repository.SocialAccountRepository,
	pm repository.PostMediaRepository,
	media MediaService,
	activity ActivityRecorder,
	now func() time.Time) ValidatorService {
	if now == nil {
		now = time.Now
	}
	return &validatorService{
		pr:       pr,
		sr:       sr,
		ar:       ar,
		pm:       pm,
		media:    media,
		activity: activity,
		now:      now,
	}
}

// validation is the state shared by the checks of one Validate call.
type validation struct {
	postID   int64
	post     *models.Post
	assets   []*models.MediaAsset
	accounts []*models.SocialAccount
	media    []models.MediaItem
	errors   []string
	warnings []string
}

func (v *validation) fail(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validation) warn(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

type validationCheck struct {
	name string
	run  func(ctx context.Context, v *validation) error
}

func (s *validatorService) checks() []validationCheck {
	return []validationCheck{
		{"post_content", s.checkPostContent},
		{"destination_accounts", s.checkDestinationAccounts},
		{"credentials", s.checkCredentials},
		{"media_access", s.checkMediaAccess},
		{"platform_constraints", s.checkPlatformConstraints},
	}
}

func (s *validatorService) Validate(ctx context.Context, postID int64) models.ValidationResult {
	v := &validation{postID: postID}
	for _, check := range s.checks() {
		s.runCheck(ctx, check, v)
	}

	result := models.ValidationResult{
		Valid:    len(v.errors) == 0,
		Errors:   v.errors,
		Warnings: v.warnings,
	}
	if result.Valid {
		result.Post = v.post
		result.Accounts = v.accounts
		result.Media = v.media
	}

	s.record(ctx, v, result)
	return result
}

func (s *validatorService) runCheck(ctx context.Context, check validationCheck, v *validation) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("validation check panicked", "check", check.name, "post_id", v.postID, "panic", r)
			v.fail("%s: internal error", check.name)
		}
	}()

	if err := check.run(ctx, v); err != nil {
		slog.Warn("validation check failed", "check", check.name, "post_id", v.postID, "error", err)
		v.fail("%s: %v", check.name, err)
	}
}

func (s *validatorService) record(ctx context.Context, v *validation, result models.ValidationResult) {
	if s.activity == nil {
		return
	}
	entry := models.ActivityLog{
		PostID:  v.postID,
		Action:  models.ActivityActionValidate,
		Outcome: models.ActivityOutcomeSuccess,
	}
	if v.post != nil {
		entry.UserID = v.post.UserID
	}
	if !result.Valid {
		entry.Outcome = models.ActivityOutcomeFailure
		entry.ErrorMessage = strings.Join(result.Errors, "; ")
	}
	s.activity.Record(ctx, entry)
}

func (s *validatorService) checkPostContent(ctx context.Context, v *validation) error {
	post, err := s.pr.GetByID(ctx, v.postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			v.fail("post %d not found", v.postID)
			return nil
		}
		return err
	}
	v.post = post

	assets, err := s.pm.ListAssetsByPostID(ctx, post.ID)
	if err != nil {
		return err
	}
	v.assets = assets

	if strings.TrimSpace(post.Content) == "" && len(assets) == 0 {
		v.fail("post %d has no content or media", post.ID)
	}
	return nil
}

func (s *validatorService) checkDestinationAccounts(ctx context.Context, v *validation) error {
	if v.post == nil {
		return nil
	}

	schedules, err := s.sr.ListByPostID(ctx, v.post.ID)
	if err != nil {
		return err
	}

	seen := make(map[int64]bool, len(schedules))
	ids := make([]int64, 0, len(schedules))
	for _, sc := range schedules {
		if !seen[sc.AccountID] {
			seen[sc.AccountID] = true
			ids = append(ids, sc.AccountID)
		}
	}
	if len(ids) == 0 {
		v.fail("post %d has no destination accounts", v.post.ID)
		return nil
	}

	accounts, err := s.ar.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}

	found := make(map[int64]*models.SocialAccount, len(accounts))
	for _, acc := range accounts {
		found[acc.ID] = acc
	}
	for _, id := range ids {
		acc, ok := found[id]
		if !ok {
			v.warn("account %d could not be resolved", id)
			continue
		}
		v.accounts = append(v.accounts, acc)
	}

	if len(v.accounts) == 0 {
		v.fail("no destination account of post %d could be resolved", v.post.ID)
	}
	return nil
}

func (s *validatorService) checkCredentials(ctx context.Context, v *validation) error {
	now := s.now()
	for _, acc := range v.accounts {
		if acc.AccessToken == "" {
			v.fail("account %d (%s) has no stored credential", acc.ID, acc.Platform)
			continue
		}
		if acc.AccountStatus != "" && acc.AccountStatus != models.AccountStatusActive {
			v.fail("account %d (%s) is %s", acc.ID, acc.Platform, acc.AccountStatus)
			continue
		}
		if acc.TokenExpiresAt.IsZero() {
			continue
		}
		if !acc.TokenExpiresAt.After(now) {
			v.fail("credential of account %d (%s) expired at %s", acc.ID, acc.Platform, acc.TokenExpiresAt.Format(time.RFC3339))
		} else if acc.TokenExpiresAt.Before(now.Add(credentialExpiryWarning)) {
			v.warn("credential of account %d (%s) expires at %s", acc.ID, acc.Platform, acc.TokenExpiresAt.Format(time.RFC3339))
		}
	}
	return nil
}

func (s *validatorService) checkMediaAccess(ctx context.Context, v *validation) error {
	for _, asset := range v.assets {
		if err := s.media.Probe(ctx, asset); err != nil {
			v.fail("media %d is not accessible: %v", asset.ID, err)
			continue
		}
		v.media = append(v.media, models.MediaItem{
			URL:  asset.FileURL,
			Kind: s.media.Classify(asset),
		})
	}
	return nil
}

func (s *validatorService) checkPlatformConstraints(ctx context.Context, v *validation) error {
	if v.post == nil || len(v.media) != len(v.assets) {
		return nil
	}
	for _, acc := range v.accounts {
		for _, problem := range checkPlatformRule(acc.Platform, v.post.Content, v.media) {
			v.fail("account %d: %s", acc.ID, problem)
		}
	}
	return nil
}
