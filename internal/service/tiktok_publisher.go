package service

import (
	"context"
	"net/http"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/transfer"
)

const defaultTiktokPrivacy = "PUBLIC_TO_EVERYONE"

// tiktokPublisher uses the Content Posting API with PULL_FROM_URL sources:
// a single video goes through video/init, photos through content/init.
type tiktokPublisher struct {
	accountPublisher
}

func (p *tiktokPublisher) Publish(ctx context.Context, data models.PublishData) models.PublishResult {
	if len(data.Media) == 0 {
		return models.PublishFailure("tiktok", ErrMediaRequired)
	}

	token, err := p.accessToken(ctx)
	if err != nil {
		return models.PublishFailure("tiktok credential", err)
	}

	privacy := data.Metadata.String(models.MetaPrivacy)
	if privacy == "" {
		privacy = defaultTiktokPrivacy
	}

	var (
		endpoint string
		payload  any
	)
	if data.HasVideo() {
		endpoint = "post/publish/video/init/"
		payload = transfer.VideoUploadRequest{
			PostInfo: transfer.VideoPostInfo{
				Title:                 truncateRunes(data.Content, 2200),
				PrivacyLevel:          privacy,
				VideoCoverTimestampMs: 1000,
			},
			SourceInfo: transfer.VideoSourceInfo{
				Source:   "PULL_FROM_URL",
				VideoURL: data.Media[0].URL,
			},
		}
	} else {
		endpoint = "post/publish/content/init/"
		title := data.Title
		if title == "" {
			title = truncateRunes(data.Content, 90)
		}
		payload = transfer.PhotoUploadRequest{
			PostInfo: transfer.PhotoPostInfo{
				Title:        title,
				Description:  data.Content,
				PrivacyLevel: privacy,
				AutoAddMusic: true,
			},
			SourceInfo: transfer.PhotoSourceInfo{
				Source:      "PULL_FROM_URL",
				PhotoImages: data.MediaURLs(),
			},
			PostMode:  "DIRECT_POST",
			MediaType: "PHOTO",
		}
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	var result transfer.TikTokUploadResponse
	if err := doJSON(ctx, p.client, http.MethodPost, p.endpoint(endpoint), header, payload, &result); err != nil {
		return models.PublishFailure("tiktok publish failed", err)
	}
	if result.Error.Code != "" && result.Error.Code != "ok" {
		return models.PublishFailure("tiktok error "+result.Error.Code+": "+result.Error.Message, nil)
	}
	if result.Data.PublishID == "" {
		return models.PublishFailure("tiktok returned no publish id", nil)
	}

	meta := models.NewMetadata()
	meta.Set(models.MetaPlatform, models.PlatformTiktok)
	meta.Set(models.MetaEndpoint, endpoint)
	meta.Set(models.MetaPublishID, result.Data.PublishID)
	meta.Set(models.MetaPrivacy, privacy)

	return models.PublishResult{Success: true, ExternalPostID: result.Data.PublishID, Metadata: meta}
}
