package s3

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func offlineClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient("http://localhost:9000", false, "key", "secret", "premises-images", "", nil)
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	t.Run("requires endpoint and bucket", func(t *testing.T) {
		_, err := NewClient("  ", false, "k", "s", "b", "", nil)
		assert.Error(t, err)

		_, err = NewClient("http://localhost:9000", false, "k", "s", "  ", "", nil)
		assert.Error(t, err)
	})

	t.Run("falls back to the endpoint as public base", func(t *testing.T) {
		c := offlineClient(t)
		url := c.objectURL("premises/u-1/a.png")
		assert.Equal(t, "http://localhost:9000/premises-images/premises/u-1/a.png", url)
	})
}

func TestUploadListingImageValidation(t *testing.T) {
	ctx := context.Background()
	c := offlineClient(t)

	t.Run("empty payload", func(t *testing.T) {
		_, err := c.UploadListingImage(ctx, "u-1", "a.png", nil)
		assert.ErrorIs(t, err, ErrEmptyImage)
	})

	t.Run("oversized payload", func(t *testing.T) {
		_, err := c.UploadListingImage(ctx, "u-1", "a.png", make([]byte, MaxImageSizeBytes+1))
		assert.ErrorIs(t, err, ErrImageTooLarge)
	})

	t.Run("content type is sniffed, not trusted", func(t *testing.T) {
		_, err := c.UploadListingImage(ctx, "u-1", "fake.png", []byte("plain text pretending to be an image"))
		assert.ErrorIs(t, err, ErrUnsupportedImage)
	})
}

func TestListingImageKey(t *testing.T) {
	t.Run("layout is premises/owner/uuid.ext", func(t *testing.T) {
		key := listingImageKey("u-1", "photo.jpeg", "image/png")
		parts := strings.Split(key, "/")
		require.Len(t, parts, 3)
		assert.Equal(t, "premises", parts[0])
		assert.Equal(t, "u-1", parts[1])
		assert.True(t, strings.HasSuffix(parts[2], ".png"), "sniffed type wins over the filename")
	})

	t.Run("filename extension is the fallback", func(t *testing.T) {
		assert.True(t, strings.HasSuffix(listingImageKey("u-1", "scan.TIFF", "image/tiff"), ".tiff"))
		assert.True(t, strings.HasSuffix(listingImageKey("u-1", "blob", "application/x-thing"), ".img"))
	})

	t.Run("owner ids cannot smuggle path separators", func(t *testing.T) {
		key := listingImageKey("../../etc", "a.png", "image/png")
		assert.Equal(t, 2, strings.Count(key, "/"))
		assert.True(t, strings.HasPrefix(key, "premises/etc/"))
	})

	t.Run("blank owners are bucketed as anonymous", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(listingImageKey("  ", "a.png", "image/png"), "premises/anonymous/"))
	})
}

func TestAllowedImageType(t *testing.T) {
	assert.True(t, allowedImageType("image/PNG"))
	assert.True(t, allowedImageType("image/webp"))
	assert.False(t, allowedImageType("image/gif"))
	assert.False(t, allowedImageType("text/plain"))
}

func TestNoopUploader(t *testing.T) {
	_, err := NoopUploader{}.UploadListingImage(context.Background(), "u-1", "a.png", bytes.Clone(pngHeader))
	assert.Error(t, err)
}
