package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/transfer"
	"golang.org/x/time/rate"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrMediaRequired       = errors.New("media is required")
)

const maxResponseBytes = 1 << 20

// Publisher pushes one normalized post to one destination account. Publish
// never returns a Go error: every failure is reported through the result.
type Publisher interface {
	Publish(ctx context.Context, data models.PublishData) models.PublishResult
}

type PublisherFactory interface {
	ForAccount(account *models.SocialAccount) (Publisher, error)
}

// CredentialDecrypter turns a stored credential into the bearer token sent to
// the platform. *utils.TokenCipher satisfies it.
type CredentialDecrypter interface {
	Decrypt(encryptedData string) (string, error)
}

type publisherFactory struct {
	platforms config.Platforms
	creds     CredentialDecrypter
	client    *http.Client
	limiters  map[string]*rate.Limiter
}

func NewPublisherFactory(platforms config.Platforms, creds CredentialDecrypter, client *http.Client) PublisherFactory {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	rps := platforms.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}

	limiters := make(map[string]*rate.Limiter, len(platformRules))
	for provider := range platformRules {
		limiters[provider] = rate.NewLimiter(rate.Limit(rps), rps)
	}

	return &publisherFactory{
		platforms: platforms,
		creds:     creds,
		client:    client,
		limiters:  limiters,
	}
}

func (f *publisherFactory) ForAccount(account *models.SocialAccount) (Publisher, error) {
	if account == nil {
		return nil, errors.New("account is nil")
	}

	base := accountPublisher{
		account: account,
		creds:   f.creds,
		client:  f.client,
		limiter: f.limiters[account.Platform],
	}

	switch account.Platform {
	case models.PlatformFacebook:
		base.baseURL = f.platforms.FacebookGraphURL
		return &facebookPublisher{base}, nil
	case models.PlatformInstagram:
		base.baseURL = f.platforms.InstagramGraphURL
		return &instagramPublisher{accountPublisher: base, pollInterval: 5 * time.Second, maxPolls: 24}, nil
	case models.PlatformZalo:
		base.baseURL = f.platforms.ZaloOpenAPIURL
		return &zaloPublisher{base}, nil
	case models.PlatformTiktok:
		base.baseURL = f.platforms.TiktokOpenAPIURL
		return &tiktokPublisher{base}, nil
	case models.PlatformYoutube:
		base.baseURL = f.platforms.YoutubeAPIURL
		return &youtubePublisher{base}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, account.Platform)
	}
}

// accountPublisher carries what every adapter needs for a single call.
type accountPublisher struct {
	account *models.SocialAccount
	creds   CredentialDecrypter
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

// accessToken decrypts the stored credential and waits for a rate limiter
// slot. It is called once per Publish, right before the first request.
func (p *accountPublisher) accessToken(ctx context.Context) (string, error) {
	if p.account.AccessToken == "" {
		return "", errors.New("account has no stored credential")
	}
	token, err := p.creds.Decrypt(p.account.AccessToken)
	if err != nil {
		return "", fmt.Errorf("decrypt credential: %w", err)
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}
	return token, nil
}

func (p *accountPublisher) endpoint(parts ...string) string {
	return strings.TrimRight(p.baseURL, "/") + "/" + strings.Join(parts, "/")
}

// RemoteError is a non-2xx answer from a platform API.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	var graph transfer.GraphErrorResponse
	if err := json.Unmarshal([]byte(e.Body), &graph); err == nil && graph.Error.Message != "" {
		return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, graph.Error.Message)
	}
	body := e.Body
	if len(body) > 256 {
		body = body[:256]
	}
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, body)
}

// doJSON sends payload as JSON and decodes a 2xx body into out.
func doJSON(ctx context.Context, client *http.Client, method, url string, header http.Header, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("error marshalling payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RemoteError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("error parsing response: %w", err)
		}
	}
	return nil
}

func truncateRunes(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n])
}
