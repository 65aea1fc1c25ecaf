package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHeadObject struct {
	keys map[string]bool
	seen []string
}

func (f *fakeHeadObject) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	key := aws.ToString(params.Key)
	f.seen = append(f.seen, aws.ToString(params.Bucket)+"/"+key)
	if !f.keys[key] {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestMediaService_ProbeBucketObject(t *testing.T) {
	head := &fakeHeadObject{keys: map[string]bool{"abc123": true}}
	svc := NewMediaService(config.R2{BucketName: "media", PublicURL: "https://pub.r2.dev"}, head, nil)

	err := svc.Probe(context.Background(), &models.MediaAsset{FileName: "abc123", FileURL: "https://pub.r2.dev/abc123"})
	require.NoError(t, err)
	assert.Equal(t, []string{"media/abc123"}, head.seen)

	err = svc.Probe(context.Background(), &models.MediaAsset{FileName: "gone", FileURL: "https://pub.r2.dev/gone"})
	assert.True(t, errors.Is(err, ErrMediaNotFound))
}

func TestMediaService_ProbeForeignURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		switch r.URL.Path {
		case "/ok.jpg":
			w.WriteHeader(http.StatusOK)
		case "/private.jpg":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	head := &fakeHeadObject{}
	svc := NewMediaService(config.R2{BucketName: "media", PublicURL: "https://pub.r2.dev"}, head, srv.Client())

	assert.NoError(t, svc.Probe(context.Background(), &models.MediaAsset{FileURL: srv.URL + "/ok.jpg"}))
	assert.True(t, errors.Is(svc.Probe(context.Background(), &models.MediaAsset{FileURL: srv.URL + "/missing.jpg"}), ErrMediaNotFound))
	assert.Error(t, svc.Probe(context.Background(), &models.MediaAsset{FileURL: srv.URL + "/private.jpg"}))
	assert.Error(t, svc.Probe(context.Background(), &models.MediaAsset{}))
	assert.Empty(t, head.seen)
}

func TestMediaService_Classify(t *testing.T) {
	svc := NewMediaService(config.R2{}, nil, nil)

	tests := []struct {
		asset models.MediaAsset
		want  models.MediaKind
	}{
		{models.MediaAsset{FileType: "image/jpeg"}, models.MediaKindImage},
		{models.MediaAsset{FileType: "video/mp4"}, models.MediaKindVideo},
		{models.MediaAsset{FileURL: "https://cdn.example.com/clip.MOV?sig=1"}, models.MediaKindVideo},
		{models.MediaAsset{FileURL: "https://cdn.example.com/photo.png"}, models.MediaKindImage},
		{models.MediaAsset{FileURL: "https://cdn.example.com/blob"}, models.MediaKindUnknown},
		{models.MediaAsset{FileType: "application/pdf", FileURL: "https://cdn.example.com/doc.pdf"}, models.MediaKindUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, svc.Classify(&tt.asset), "%+v", tt.asset)
	}
}
