package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/transfer"
)

// instagramPublisher creates a media container and publishes it. Instagram
// has no text-only posts.
type instagramPublisher struct {
	accountPublisher
	pollInterval time.Duration
	maxPolls     int
}

func (p *instagramPublisher) Publish(ctx context.Context, data models.PublishData) models.PublishResult {
	if len(data.Media) == 0 {
		return models.PublishFailure("instagram", ErrMediaRequired)
	}

	token, err := p.accessToken(ctx)
	if err != nil {
		return models.PublishFailure("instagram credential", err)
	}

	meta := models.NewMetadata()
	meta.Set(models.MetaPlatform, models.PlatformInstagram)

	var containerID string
	if len(data.Media) == 1 {
		containerID, err = p.createContainer(ctx, token, singleMediaPayload(data.Media[0], data.Content))
	} else {
		var children []string
		children, err = p.createCarouselItems(ctx, token, data.Media)
		if err == nil {
			meta.Set(models.MetaChildrenIDs, children)
			containerID, err = p.createContainer(ctx, token, map[string]any{
				"media_type": "CAROUSEL",
				"caption":    data.Content,
				"children":   strings.Join(children, ","),
			})
		}
	}
	if err != nil {
		return models.PublishFailure("instagram container creation failed", err)
	}
	meta.Set(models.MetaContainerID, containerID)

	if data.HasVideo() {
		if err := p.waitForContainer(ctx, token, containerID); err != nil {
			return models.PublishFailure("instagram container not ready", err)
		}
	}

	mediaID, err := p.publishContainer(ctx, token, containerID)
	if err != nil {
		return models.PublishFailure("instagram publish failed", err)
	}

	return models.PublishResult{Success: true, ExternalPostID: mediaID, Metadata: meta}
}

func singleMediaPayload(item models.MediaItem, caption string) map[string]any {
	if item.Kind == models.MediaKindVideo {
		return map[string]any{
			"media_type": "REELS",
			"video_url":  item.URL,
			"caption":    caption,
		}
	}
	return map[string]any{
		"image_url": item.URL,
		"caption":   caption,
	}
}

func (p *instagramPublisher) createCarouselItems(ctx context.Context, token string, media []models.MediaItem) ([]string, error) {
	ids := make([]string, 0, len(media))
	for _, item := range media {
		payload := map[string]any{"is_carousel_item": true}
		if item.Kind == models.MediaKindVideo {
			payload["media_type"] = "VIDEO"
			payload["video_url"] = item.URL
		} else {
			payload["image_url"] = item.URL
		}

		id, err := p.createContainer(ctx, token, payload)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (p *instagramPublisher) createContainer(ctx context.Context, token string, payload map[string]any) (string, error) {
	payload["access_token"] = token

	var result transfer.GraphObjectResponse
	if err := doJSON(ctx, p.client, http.MethodPost, p.endpoint(p.account.AccountID, "media"), nil, payload, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", errors.New("no media ID returned from Instagram")
	}
	return result.ID, nil
}

// waitForContainer polls a video container until Instagram finished
// processing it.
func (p *instagramPublisher) waitForContainer(ctx context.Context, token, containerID string) error {
	statusURL := p.endpoint(containerID) + "?" + url.Values{
		"fields":       {"status_code"},
		"access_token": {token},
	}.Encode()

	for i := 0; i < p.maxPolls; i++ {
		var status transfer.GraphContainerStatus
		if err := doJSON(ctx, p.client, http.MethodGet, statusURL, nil, nil, &status); err != nil {
			return err
		}

		switch status.StatusCode {
		case "FINISHED", "PUBLISHED":
			return nil
		case "ERROR", "EXPIRED":
			return fmt.Errorf("container %s status %s", containerID, status.StatusCode)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.pollInterval):
		}
	}
	return fmt.Errorf("container %s still processing after %d checks", containerID, p.maxPolls)
}

func (p *instagramPublisher) publishContainer(ctx context.Context, token, containerID string) (string, error) {
	payload := map[string]string{
		"creation_id":  containerID,
		"access_token": token,
	}

	var result transfer.GraphObjectResponse
	if err := doJSON(ctx, p.client, http.MethodPost, p.endpoint(p.account.AccountID, "media_publish"), nil, payload, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", errors.New("no media ID returned from Instagram publish")
	}
	return result.ID, nil
}
