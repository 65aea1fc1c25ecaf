package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/maheshrc27/postflow/internal/service"
	"github.com/maheshrc27/postflow/pkg/utils"
)

// Pipeline is the publishing pipeline wired against Postgres, shared by the
// server and the one-shot CLI.
type Pipeline struct {
	Scheduler  service.SchedulerService
	Validator  service.ValidatorService
	Reconciler service.ReconcilerService
	Posts      service.PostService
}

func NewPipeline(ctx context.Context, cfg *config.Config, db *sql.DB) (*Pipeline, error) {
	cipher, err := utils.NewTokenCipher([]byte(cfg.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("credential cipher: %w", err)
	}

	var head service.HeadObjectAPI
	if cfg.R2.AccountID != "" && cfg.R2.BucketName != "" {
		r2, err := service.NewR2Client(ctx, cfg.R2)
		if err != nil {
			return nil, err
		}
		head = r2
	}

	postRepo := repository.NewPostRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	postMediaRepo := repository.NewPostMediaRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	httpClient := &http.Client{Timeout: cfg.Scheduler.PublishTimeout}
	probeClient := &http.Client{Timeout: 15 * time.Second}

	activity := service.NewActivityRecorder(activityRepo, cfg.Scheduler.ActivityTimeout)
	media := service.NewMediaService(cfg.R2, head, probeClient)
	validator := service.NewValidatorService(postRepo, scheduleRepo, socialAccountRepo, postMediaRepo, media, activity, nil)
	reconciler := service.NewReconcilerService(postRepo, scheduleRepo, nil)
	publishers := service.NewPublisherFactory(cfg.Platforms, cipher, httpClient)

	return &Pipeline{
		Scheduler:  service.NewSchedulerService(scheduleRepo, validator, publishers, reconciler, activity, service.SchedulerOptionsFromConfig(cfg.Scheduler)),
		Validator:  validator,
		Reconciler: reconciler,
		Posts:      service.NewPostService(db, postRepo, scheduleRepo, socialAccountRepo, postMediaRepo, activityRepo, reconciler, activity),
	}, nil
}
