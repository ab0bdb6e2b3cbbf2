package service

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"facegram/internal/models"
	"facegram/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "golang.org/x/image/webp"
)

// oversizedPNG is a valid 1x1 PNG whose header claims w x h pixels.
func oversizedPNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	data := testutil.TinyPNG(t, 1, 1)
	// Signature (8), IHDR length (4), type (4), then width and height.
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func newUploadService(t *testing.T, maxMB int) (*UploadService, string) {
	t.Helper()
	dir := t.TempDir()
	return NewUploadService(NewLocalStorage(dir), maxMB), dir
}

func tinyGIF(t *testing.T) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{color.Black, color.White})
	buf := bytes.NewBuffer(nil)
	require.NoError(t, gif.Encode(buf, img, nil))
	return buf.Bytes()
}

func TestUploadService_SaveImage(t *testing.T) {
	svc, dir := newUploadService(t, 2)
	ctx := context.Background()

	t.Run("PNG Becomes WebP", func(t *testing.T) {
		p, err := svc.SaveImage(ctx, UploadFile{Filename: "cat.PNG", Content: testutil.TinyPNG(t, 8, 6)})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(p, "/uploads/"))
		assert.Equal(t, ".webp", path.Ext(p))

		data, err := os.ReadFile(filepath.Join(dir, path.Base(p)))
		require.NoError(t, err)
		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, "webp", format)
		assert.Equal(t, 8, cfg.Width)
	})

	t.Run("Large Image Downscaled", func(t *testing.T) {
		p, err := svc.SaveImage(ctx, UploadFile{Filename: "wide.png", Content: testutil.TinyPNG(t, 2000, 1000)})
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(dir, path.Base(p)))
		require.NoError(t, err)
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, MaxImageEdge, cfg.Width)
		assert.Equal(t, 800, cfg.Height)
	})

	t.Run("GIF Kept As Is", func(t *testing.T) {
		original := tinyGIF(t)
		p, err := svc.SaveImage(ctx, UploadFile{Filename: "anim.gif", Content: original})
		require.NoError(t, err)
		assert.Equal(t, ".gif", path.Ext(p))
		data, err := os.ReadFile(filepath.Join(dir, path.Base(p)))
		require.NoError(t, err)
		assert.Equal(t, original, data)
	})

	rejected := []struct {
		name string
		file UploadFile
	}{
		{"Wrong Extension", UploadFile{Filename: "cat.txt", Content: testutil.TinyPNG(t, 2, 2)}},
		{"Not An Image", UploadFile{Filename: "fake.png", Content: []byte("definitely not a png")}},
		{"Empty", UploadFile{Filename: "empty.png"}},
		{"Declared Dimensions Too Large", UploadFile{Filename: "bomb.png", Content: oversizedPNG(t, 40000, 40000)}},
	}
	for _, tc := range rejected {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SaveImage(ctx, tc.file)
			require.Error(t, err)
			assert.Equal(t, "Error: Images only!", models.AsAppError(err).Message)
		})
	}
}

func TestUploadService_Limits(t *testing.T) {
	svc, dir := newUploadService(t, 1)
	ctx := context.Background()

	_, err := svc.SaveImage(ctx, UploadFile{Filename: "big.png", Content: make([]byte, svc.MaxBytes()+1)})
	assert.Equal(t, "File too large", models.AsAppError(err).Message)

	files := make([]UploadFile, MaxImagesPerPost+1)
	_, err = svc.SaveImages(ctx, files)
	assert.True(t, models.IsCode(err, models.CodeValidation))

	_, err = svc.SaveImages(ctx, []UploadFile{
		{Filename: "ok.png", Content: testutil.TinyPNG(t, 2, 2)},
		{Filename: "bad.png", Content: []byte("nope")},
	})
	require.Error(t, err)
	entries, err := os.ReadDir(dir)
	if err == nil {
		assert.Empty(t, entries, "earlier files are removed when a later one fails")
	}

	paths, err := svc.SaveImages(ctx, []UploadFile{
		{Filename: "a.png", Content: testutil.TinyPNG(t, 2, 2)},
		{Filename: "b.jpg", Content: testutil.TinyPNG(t, 3, 3)},
	})
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}
