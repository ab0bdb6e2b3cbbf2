package service

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"facegram/internal/models"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultUploadMaxMB = 2
	MaxImageEdge       = 1600
	MaxImagePixels     = 40_000_000
	WebPQuality        = 80
)

var (
	errImagesOnly   = models.NewValidationError("Error: Images only!")
	allowedImageExt = map[string]struct{}{".jpeg": {}, ".jpg": {}, ".png": {}, ".gif": {}, ".webp": {}}
)

// Storage persists processed files and returns the public path they are served at.
type Storage interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Delete(ctx context.Context, name string) error
}

// LocalStorage writes files under Dir and serves them below PublicPrefix.
type LocalStorage struct {
	Dir          string
	PublicPrefix string
}

// NewLocalStorage returns a LocalStorage rooted at dir, served at /uploads.
func NewLocalStorage(dir string) *LocalStorage {
	return &LocalStorage{Dir: dir, PublicPrefix: "/uploads"}
}

func (s *LocalStorage) Save(_ context.Context, name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o750); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(s.Dir, filepath.Base(name)), data, 0o600); err != nil {
		return "", err
	}
	return path.Join(s.PublicPrefix, filepath.Base(name)), nil
}

func (s *LocalStorage) Delete(_ context.Context, name string) error {
	err := os.Remove(filepath.Join(s.Dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// UploadFile is one image received in a multipart form.
type UploadFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// UploadService filters, normalizes and stores user images.
type UploadService struct {
	storage  Storage
	maxBytes int64
}

// NewUploadService returns an UploadService accepting files up to maxMB megabytes.
func NewUploadService(storage Storage, maxMB int) *UploadService {
	if maxMB <= 0 {
		maxMB = DefaultUploadMaxMB
	}
	return &UploadService{storage: storage, maxBytes: int64(maxMB) * 1024 * 1024}
}

// MaxBytes is the per-file size limit.
func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

// SaveImages stores every file and returns their public paths. Files
// already written are removed when a later one is rejected.
func (s *UploadService) SaveImages(ctx context.Context, files []UploadFile) ([]string, error) {
	if len(files) > MaxImagesPerPost {
		return nil, models.NewValidationError("Too many images")
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		p, err := s.SaveImage(ctx, f)
		if err != nil {
			s.Remove(ctx, paths...)
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// SaveImage validates one image, downsizes stills wider or taller than
// MaxImageEdge, re-encodes them as WebP and stores the result. GIFs are
// stored unchanged so animation survives.
func (s *UploadService) SaveImage(ctx context.Context, f UploadFile) (string, error) {
	if int64(len(f.Content)) > s.maxBytes {
		return "", models.NewValidationError("File too large")
	}
	if len(f.Content) == 0 {
		return "", errImagesOnly
	}
	ext := strings.ToLower(filepath.Ext(f.Filename))
	if _, ok := allowedImageExt[ext]; !ok {
		return "", errImagesOnly
	}
	if !isAllowedImageMIME(http.DetectContentType(f.Content)) {
		return "", errImagesOnly
	}

	// Reject declared dimensions before decoding allocates the pixel buffer.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(f.Content))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return "", errImagesOnly
	}

	decoded, format, err := image.Decode(bytes.NewReader(f.Content))
	if err != nil {
		return "", errImagesOnly
	}

	if format == "gif" {
		return s.store(ctx, uuid.NewString()+".gif", f.Content)
	}

	encoded, err := encodeWebP(resizeToFit(decoded, MaxImageEdge), WebPQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return s.store(ctx, uuid.NewString()+".webp", encoded)
}

// Remove deletes previously stored files by their public paths, ignoring failures.
func (s *UploadService) Remove(ctx context.Context, publicPaths ...string) {
	for _, p := range publicPaths {
		_ = s.storage.Delete(ctx, path.Base(p))
	}
}

func (s *UploadService) store(ctx context.Context, name string, data []byte) (string, error) {
	p, err := s.storage.Save(ctx, name, data)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return p, nil
}

func isAllowedImageMIME(contentType string) bool {
	switch strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

// resizeToFit scales src so neither edge exceeds maxEdge, keeping aspect ratio.
func resizeToFit(src image.Image, maxEdge int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxEdge && h <= maxEdge {
		return src
	}

	scale := float64(maxEdge) / float64(w)
	if h > w {
		scale = float64(maxEdge) / float64(h)
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
