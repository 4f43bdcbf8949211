package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ikkim/dishshot-intake/internal/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestValidateFileSize(t *testing.T) {
	assert.NoError(t, ValidateFileSize(10, 10))
	assert.ErrorIs(t, ValidateFileSize(11, 10), ErrFileTooLarge)
}

func TestValidateContentType(t *testing.T) {
	assert.NoError(t, ValidateContentType("image/png", AllowedImageTypes))
	assert.ErrorIs(t, ValidateContentType("application/pdf", AllowedImageTypes), ErrContentTypeBlocked)
	assert.NoError(t, ValidateContentType("application/pdf", AllowedBrandingTypes))
}

func TestInspectImage(t *testing.T) {
	w, h, err := InspectImage("image/png", pngBytes(t, 4, 3))
	require.NoError(t, err)
	assert.Equal(t, 4, w)
	assert.Equal(t, 3, h)

	_, _, err = InspectImage("image/jpeg", []byte("not an image"))
	assert.ErrorIs(t, err, ErrUndecodableImage)

	_, _, err = InspectImage("image/webp", []byte("opaque"))
	assert.NoError(t, err)
}

func TestMemoryStorage(t *testing.T) {
	m := NewMemoryStorage("https://cdn.example.com/")
	ctx := context.Background()

	require.NoError(t, m.Upload(ctx, "a/b.jpg", form.File{Name: "b.jpg", Data: []byte{1}}))
	assert.Error(t, m.Upload(ctx, "a/b.jpg", form.File{}))
	assert.Equal(t, "https://cdn.example.com/a/b.jpg", m.PublicURL("a/b.jpg"))

	f, ok := m.Object("a/b.jpg")
	require.True(t, ok)
	assert.Equal(t, "b.jpg", f.Name)
	assert.Equal(t, []string{"a/b.jpg"}, m.Keys())
}

func TestS3Storage_PublicURL(t *testing.T) {
	s := NewS3Storage("ap-northeast-2", "food-images", "key", "secret", "")
	assert.Equal(t, "https://food-images.s3.ap-northeast-2.amazonaws.com/x/y.png", s.PublicURL("x/y.png"))

	s = NewS3Storage("ap-northeast-2", "food-images", "key", "secret", "https://cdn.example.com/")
	assert.Equal(t, "https://cdn.example.com/x/y.png", s.PublicURL("x/y.png"))
}

// fakeS3 accepts a key once and answers 412 when a conditional write finds it taken.
type fakeS3 struct {
	mu          sync.Mutex
	keys        map[string]bool
	ifNoneMatch []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ifNoneMatch = append(f.ifNoneMatch, r.Header.Get("If-None-Match"))
	if f.keys[r.URL.Path] && r.Header.Get("If-None-Match") == "*" {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusPreconditionFailed)
		w.Write([]byte(`<Error><Code>PreconditionFailed</Code><Message>At least one of the pre-conditions you specified did not hold</Message></Error>`))
		return
	}
	f.keys[r.URL.Path] = true
	w.WriteHeader(http.StatusOK)
}

func TestS3Storage_UploadNeverOverwrites(t *testing.T) {
	fake := &fakeS3{keys: map[string]bool{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := s3.NewFromConfig(aws.Config{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("key", "secret", ""),
	}, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(srv.URL)
		o.UsePathStyle = true
	})
	s := &S3Storage{client: client, bucket: "food-images", region: "us-east-1"}
	file := form.File{Name: "a.jpg", ContentType: "image/jpeg", Data: []byte{1, 2, 3}}

	require.NoError(t, s.Upload(context.Background(), "public/cafe/42-a.jpg", file))
	assert.Error(t, s.Upload(context.Background(), "public/cafe/42-a.jpg", file))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.NotEmpty(t, fake.ifNoneMatch)
	for _, h := range fake.ifNoneMatch {
		assert.Equal(t, "*", h)
	}
}
