package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/maheshrc27/postflow/internal/models"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const youtubeTitleLength = 100

// youtubePublisher uploads exactly one video, streamed from its media URL.
type youtubePublisher struct {
	accountPublisher
}

func (p *youtubePublisher) Publish(ctx context.Context, data models.PublishData) models.PublishResult {
	if len(data.Media) != 1 || data.Media[0].Kind != models.MediaKindVideo {
		return models.PublishFailure("youtube requires exactly one video", nil)
	}

	token, err := p.accessToken(ctx)
	if err != nil {
		return models.PublishFailure("youtube credential", err)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if p.baseURL != "" {
		opts = append(opts, option.WithEndpoint(p.baseURL))
	}
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return models.PublishFailure("error creating youtube service", err)
	}

	videoID, err := p.upload(ctx, svc, data)
	if err != nil {
		return models.PublishFailure("youtube upload failed", err)
	}

	meta := models.NewMetadata()
	meta.Set(models.MetaPlatform, models.PlatformYoutube)
	meta.Set(models.MetaEndpoint, "videos.insert")
	meta.Set(models.MetaPermalink, "https://youtu.be/"+videoID)

	return models.PublishResult{Success: true, ExternalPostID: videoID, Metadata: meta}
}

func (p *youtubePublisher) upload(ctx context.Context, svc *youtube.Service, data models.PublishData) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, data.Media[0].URL, nil)
	if err != nil {
		return "", fmt.Errorf("error creating download request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error downloading video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected download status: %d", resp.StatusCode)
	}

	title := data.Title
	if title == "" {
		title = truncateRunes(data.Content, youtubeTitleLength)
	}
	privacy := data.Metadata.String(models.MetaPrivacy)
	if privacy == "" {
		privacy = "public"
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       title,
			Description: data.Content,
			CategoryId:  "22",
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: privacy,
		},
	}

	uploaded, err := svc.Videos.Insert([]string{"snippet", "status"}, video).Media(resp.Body).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if uploaded.Id == "" {
		return "", errors.New("no video id returned from youtube")
	}
	return uploaded.Id, nil
}
