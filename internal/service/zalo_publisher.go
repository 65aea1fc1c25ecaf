package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/transfer"
)

const zaloTitleLength = 150

// zaloPublisher creates an Official Account article. Zalo answers 200 for
// most failures and reports them in the error field of the envelope.
type zaloPublisher struct {
	accountPublisher
}

func (p *zaloPublisher) Publish(ctx context.Context, data models.PublishData) models.PublishResult {
	token, err := p.accessToken(ctx)
	if err != nil {
		return models.PublishFailure("zalo credential", err)
	}

	article := p.article(data)
	header := http.Header{}
	header.Set("access_token", token)

	var result transfer.ZaloResponse
	if err := doJSON(ctx, p.client, http.MethodPost, p.endpoint("create"), header, article, &result); err != nil {
		return models.PublishFailure("zalo publish failed", err)
	}
	if result.Error != 0 {
		return models.PublishFailure(fmt.Sprintf("zalo error %d: %s", result.Error, result.Message), nil)
	}

	externalID := result.Data.ID
	if externalID == "" {
		externalID = result.Data.Token
	}
	if externalID == "" {
		return models.PublishFailure("zalo returned no article id", nil)
	}

	meta := models.NewMetadata()
	meta.Set(models.MetaPlatform, models.PlatformZalo)
	meta.Set(models.MetaEndpoint, "article/create")
	if result.Data.Token != "" {
		meta.Set(models.MetaArticleToken, result.Data.Token)
	}
	meta.Set(models.MetaTitle, article.Title)

	return models.PublishResult{Success: true, ExternalPostID: externalID, Metadata: meta}
}

func (p *zaloPublisher) article(data models.PublishData) transfer.ZaloArticleRequest {
	title := data.Title
	if title == "" {
		title = truncateRunes(data.Content, zaloTitleLength)
	}

	cover := transfer.ZaloArticleCover{CoverType: "photo", Status: "hide"}
	body := make([]transfer.ZaloArticleBlock, 0, len(data.Media)+1)
	if data.Content != "" {
		body = append(body, transfer.ZaloArticleBlock{Type: "text", Content: data.Content})
	}
	for _, m := range data.Media {
		switch m.Kind {
		case models.MediaKindVideo:
			body = append(body, transfer.ZaloArticleBlock{Type: "video", URL: m.URL})
		default:
			if cover.PhotoURL == "" {
				cover.PhotoURL = m.URL
				cover.Status = "show"
			}
			body = append(body, transfer.ZaloArticleBlock{Type: "image", URL: m.URL})
		}
	}

	return transfer.ZaloArticleRequest{
		Type:        "normal",
		Title:       title,
		Author:      p.account.AccountName,
		Cover:       cover,
		Description: truncateRunes(data.Content, 300),
		Body:        body,
		Status:      "show",
		Comment:     "show",
	}
}
