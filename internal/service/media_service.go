package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/h2non/filetype"
	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/models"
)

var ErrMediaNotFound = errors.New("media not found")

// HeadObjectAPI is the slice of the S3 client the media probe needs.
type HeadObjectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

type MediaService interface {
	// Probe checks that the asset can be fetched by a platform.
	Probe(ctx context.Context, asset *models.MediaAsset) error
	Classify(asset *models.MediaAsset) models.MediaKind
}

type mediaService struct {
	r2     config.R2
	s3     HeadObjectAPI
	client *http.Client
}

// NewMediaService probes bucket objects through s3 and any other URL with an
// HTTP HEAD. s3 may be nil when no bucket is configured.
func NewMediaService(r2 config.R2, s3 HeadObjectAPI, client *http.Client) MediaService {
	if client == nil {
		client = http.DefaultClient
	}
	return &mediaService{r2: r2, s3: s3, client: client}
}

// NewR2Client builds an S3 client pointed at the Cloudflare R2 account.
func NewR2Client(ctx context.Context, r2 config.R2) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r2.AccessKey, r2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("load r2 config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r2.AccountID))
	}), nil
}

func (m *mediaService) Probe(ctx context.Context, asset *models.MediaAsset) error {
	if asset == nil || asset.FileURL == "" {
		return errors.New("media has no url")
	}

	if key, ok := m.bucketKey(asset); ok {
		_, err := m.s3.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(m.r2.BucketName),
			Key:    aws.String(key),
		})
		if err != nil {
			var nf *types.NotFound
			if errors.As(err, &nf) {
				return fmt.Errorf("%w: %s", ErrMediaNotFound, key)
			}
			return fmt.Errorf("head object %s: %w", key, err)
		}
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, asset.FileURL, nil)
	if err != nil {
		return fmt.Errorf("invalid media url: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request error: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return fmt.Errorf("%w: %s", ErrMediaNotFound, asset.FileURL)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, asset.FileURL)
	}
	return nil
}

// bucketKey reports the object key when the asset lives in the configured
// bucket.
func (m *mediaService) bucketKey(asset *models.MediaAsset) (string, bool) {
	if m.s3 == nil || m.r2.BucketName == "" || m.r2.PublicURL == "" {
		return "", false
	}
	prefix := strings.TrimRight(m.r2.PublicURL, "/") + "/"
	if !strings.HasPrefix(asset.FileURL, prefix) {
		return "", false
	}
	if asset.FileName != "" {
		return asset.FileName, true
	}
	return strings.TrimPrefix(asset.FileURL, prefix), true
}

func (m *mediaService) Classify(asset *models.MediaAsset) models.MediaKind {
	if asset == nil {
		return models.MediaKindUnknown
	}
	if kind := kindFromMIME(asset.FileType); kind != models.MediaKindUnknown {
		return kind
	}
	return kindFromURL(asset.FileURL)
}

func kindFromMIME(mime string) models.MediaKind {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if mime == "" || !filetype.IsMIMESupported(mime) {
		return models.MediaKindUnknown
	}
	switch {
	case strings.HasPrefix(mime, "image/"):
		return models.MediaKindImage
	case strings.HasPrefix(mime, "video/"):
		return models.MediaKindVideo
	}
	return models.MediaKindUnknown
}

func kindFromURL(raw string) models.MediaKind {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
	if ext == "" {
		return models.MediaKindUnknown
	}

	t := filetype.GetType(ext)
	if t == filetype.Unknown {
		return models.MediaKindUnknown
	}
	switch t.MIME.Type {
	case "image":
		return models.MediaKindImage
	case "video":
		return models.MediaKindVideo
	}
	return models.MediaKindUnknown
}
