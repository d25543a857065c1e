package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/disintegration/imaging"
)

// ImageCache keeps decoded frames keyed by file path so repeated tool calls
// on the same still image skip the decode.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// Cached images stay in memory until Evict or Clear is called. A full HD
// frame costs roughly 8 MB once decoded, so long-running servers should
// evict images they are done with.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates an empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load returns the cached image for path, decoding it with Open on a miss.
//
// Parameters:
//   - path: File path of the image. The exact string is the cache key, so a
//     relative and an absolute path to the same file are cached separately.
//
// Returns:
//   - image.Image: The decoded image.
//   - error: Non-nil if the file cannot be opened or decoded.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := Open(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Len reports how many images are cached.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear drops every cached image.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict drops the image cached under path. Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Open decodes the still image at path.
//
// The decoder is chosen from the file contents; PNG, JPEG, GIF, BMP and TIFF
// are supported. JPEG files carrying an EXIF orientation tag are rotated so
// the road is upright, which matters for phone dashcam photos.
//
// Returns:
//   - image.Image: The decoded image. The concrete type depends on the
//     format (e.g., *image.NRGBA, *image.YCbCr).
//   - error: Wrapped I/O or decode error.
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return img, nil
}

// Save encodes img to path. The format is chosen from the file extension.
//
// Returns a wrapped error if the extension is not a supported image format
// or the file cannot be written.
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path, imaging.JPEGQuality(95)); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// IsImagePath reports whether path has an extension Save can encode.
func IsImagePath(path string) bool {
	_, err := imaging.FormatFromFilename(path)
	return err == nil
}

// EncodePNGBase64 encodes img as PNG and returns it base64-encoded, ready to
// embed in a JSON tool result.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode PNG: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
