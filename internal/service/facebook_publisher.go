package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/transfer"
)

// facebookPublisher posts to a Page through the Graph API. Text goes to
// /feed, a single image to /photos, several images are uploaded unpublished
// and attached to one /feed post, and a video goes to /videos.
type facebookPublisher struct {
	accountPublisher
}

func (p *facebookPublisher) Publish(ctx context.Context, data models.PublishData) models.PublishResult {
	if data.HasVideo() && len(data.Media) > 1 {
		return models.PublishFailure("facebook cannot combine a video with other media", nil)
	}

	token, err := p.accessToken(ctx)
	if err != nil {
		return models.PublishFailure("facebook credential", err)
	}

	meta := models.NewMetadata()
	meta.Set(models.MetaPlatform, models.PlatformFacebook)

	var id string
	switch {
	case len(data.Media) == 0:
		meta.Set(models.MetaEndpoint, "feed")
		id, err = p.feed(ctx, token, data, nil)
	case data.HasVideo():
		meta.Set(models.MetaEndpoint, "videos")
		id, err = p.video(ctx, token, data)
	case len(data.Media) == 1:
		meta.Set(models.MetaEndpoint, "photos")
		id, err = p.photo(ctx, token, data.Media[0].URL, data.Content, true)
	default:
		meta.Set(models.MetaEndpoint, "feed")
		var children []string
		children, err = p.uploadUnpublished(ctx, token, data)
		if err == nil {
			meta.Set(models.MetaChildrenIDs, children)
			id, err = p.feed(ctx, token, data, children)
		}
	}
	if err != nil {
		return models.PublishFailure("facebook publish failed", err)
	}
	if id == "" {
		return models.PublishFailure("facebook returned no post id", nil)
	}

	return models.PublishResult{Success: true, ExternalPostID: id, Metadata: meta}
}

func (p *facebookPublisher) feed(ctx context.Context, token string, data models.PublishData, children []string) (string, error) {
	payload := map[string]any{
		"message":      data.Content,
		"access_token": token,
	}
	if link := data.Metadata.String(models.MetaLink); link != "" {
		payload["link"] = link
	}
	if len(children) > 0 {
		attached := make([]transfer.GraphAttachedMedia, 0, len(children))
		for _, c := range children {
			attached = append(attached, transfer.GraphAttachedMedia{MediaFBID: c})
		}
		payload["attached_media"] = attached
	}

	var result transfer.GraphObjectResponse
	if err := doJSON(ctx, p.client, http.MethodPost, p.endpoint(p.account.AccountID, "feed"), nil, payload, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

func (p *facebookPublisher) photo(ctx context.Context, token, url, caption string, published bool) (string, error) {
	payload := map[string]any{
		"url":          url,
		"published":    published,
		"access_token": token,
	}
	if caption != "" {
		payload["caption"] = caption
	}

	var result transfer.GraphObjectResponse
	if err := doJSON(ctx, p.client, http.MethodPost, p.endpoint(p.account.AccountID, "photos"), nil, payload, &result); err != nil {
		return "", err
	}
	if published && result.PostID != "" {
		return result.PostID, nil
	}
	return result.ID, nil
}

func (p *facebookPublisher) uploadUnpublished(ctx context.Context, token string, data models.PublishData) ([]string, error) {
	ids := make([]string, 0, len(data.Media))
	for _, m := range data.Media {
		id, err := p.photo(ctx, token, m.URL, "", false)
		if err != nil {
			return nil, err
		}
		if id == "" {
			return nil, errors.New("no photo id returned from facebook")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (p *facebookPublisher) video(ctx context.Context, token string, data models.PublishData) (string, error) {
	payload := map[string]any{
		"file_url":     data.Media[0].URL,
		"description":  data.Content,
		"access_token": token,
	}
	if data.Title != "" {
		payload["title"] = data.Title
	}

	var result transfer.GraphObjectResponse
	if err := doJSON(ctx, p.client, http.MethodPost, p.endpoint(p.account.AccountID, "videos"), nil, payload, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}
