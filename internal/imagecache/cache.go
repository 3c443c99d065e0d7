package imagecache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder

	"github.com/five82/steamview/internal/config"
	"github.com/five82/steamview/internal/logging"
)

// Target sizes used by the UI.
var (
	BoxArtSize = image.Pt(184, 69)
	IconSize   = image.Pt(64, 64)
)

const (
	defaultTimeout   = 5 * time.Second
	defaultMemoSize  = 256
	defaultUserAgent = "steamview/0.1"
	maxImageBytes    = 8 << 20
	entryExt         = ".jpg"
)

// Options configure a Cache.
type Options struct {
	Fs         afero.Fs // nil uses the OS filesystem
	Dir        string
	Timeout    time.Duration // per download; zero uses 5s
	MemoSize   int           // decoded bitmaps kept in memory; negative disables
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Cache resolves image URLs to resized bitmaps, persisting the raw bytes under
// Dir. Entries are never evicted from disk.
type Cache struct {
	fs        afero.Fs
	dir       string
	http      *http.Client
	timeout   time.Duration
	memo      *lru.Cache[string, image.Image]
	logger    *slog.Logger
	userAgent string
}

// New creates the cache directory and returns a Cache.
func New(opts Options) (*Cache, error) {
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		return nil, fmt.Errorf("cache dir is empty")
	}
	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if exists, _ := afero.DirExists(fsys, dir); !exists {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
		}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	c := &Cache{
		fs:        fsys,
		dir:       dir,
		http:      client,
		timeout:   timeout,
		logger:    logging.OrDefault(opts.Logger).With("component", "imagecache"),
		userAgent: defaultUserAgent,
	}

	size := opts.MemoSize
	if size == 0 {
		size = defaultMemoSize
	}
	if size > 0 {
		memo, err := lru.New[string, image.Image](size)
		if err != nil {
			return nil, fmt.Errorf("create memo: %w", err)
		}
		c.memo = memo
	}
	return c, nil
}

// NewFromConfig builds a Cache on the OS filesystem using cfg.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Cache, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	return New(Options{Dir: cfg.CacheDir, Timeout: cfg.ImageTimeout, Logger: logger})
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// Path returns the file backing key.
func (c *Cache) Path(key string) string {
	return filepath.Join(c.dir, sanitizeKey(key)+entryExt)
}

// Has reports whether an entry exists for key.
func (c *Cache) Has(key string) bool {
	ok, err := afero.Exists(c.fs, c.Path(key))
	return err == nil && ok
}

// Resolve returns the image at url resized to size, reading the cached bytes
// for key when present and downloading them otherwise. It returns nil when the
// download fails or the bytes do not decode; callers show a placeholder. A zero
// size skips resizing.
func (c *Cache) Resolve(ctx context.Context, url, key string, size image.Point) (img image.Image) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("recovered panic resolving image", "url", url, "key", key, "panic", r)
			img = nil
		}
	}()

	memoKey := key + "@" + strconv.Itoa(size.X) + "x" + strconv.Itoa(size.Y)
	if c.memo != nil {
		if cached, ok := c.memo.Get(memoKey); ok {
			return cached
		}
	}

	path := c.Path(key)
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("cannot read cache entry; re-fetching", "path", path, "error", err)
		}
		data, err = c.download(ctx, url)
		if err != nil {
			c.logger.Error("failed to download image", "url", url, "error", err)
			return nil
		}
		if err := c.store(key, data); err != nil {
			c.logger.Error("cannot write to cache", "path", path, "error", err)
		}
	}

	decoded, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		c.logger.Error("invalid image data", "url", url, "key", key, "error", err)
		if rmErr := c.fs.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			c.logger.Warn("cannot remove corrupt cache entry", "path", path, "error", rmErr)
		}
		return nil
	}
	c.logger.Debug("decoded image", "key", key, "format", format)

	out := Resize(decoded, size)
	if c.memo != nil {
		c.memo.Add(memoKey, out)
	}
	return out
}

func (c *Cache) download(ctx context.Context, url string) ([]byte, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("empty url")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("image %s returned status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// store writes data to a temp file and renames it over the entry, so readers
// never observe a partial write. Concurrent writers of the same key are
// last-write-wins.
func (c *Cache) store(key string, data []byte) error {
	tmp, err := afero.TempFile(c.fs, c.dir, sanitizeKey(key)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = c.fs.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = c.fs.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := c.fs.Rename(tmpName, c.Path(key)); err != nil {
		_ = c.fs.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Resize scales src to exactly size with a Catmull-Rom filter. A zero or
// negative size returns src unchanged.
func Resize(src image.Image, size image.Point) image.Image {
	if src == nil || size.X <= 0 || size.Y <= 0 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// placeholderGray matches the grey tile shown while images load.
var placeholderGray = color.RGBA{R: 128, G: 128, B: 128, A: 255}

// Placeholder returns a solid grey bitmap of the given size.
func Placeholder(size image.Point) image.Image {
	if size.X <= 0 || size.Y <= 0 {
		size = IconSize
	}
	img := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.Draw(img, img.Bounds(), image.NewUniform(placeholderGray), image.Point{}, draw.Src)
	return img
}

// BoxArtKey is the cache key of a title's header image.
func BoxArtKey(appID int) string {
	return strconv.Itoa(appID)
}

// IconKey is the cache key of an achievement icon.
func IconKey(appID int, apiName string) string {
	return strconv.Itoa(appID) + "_" + apiName
}

// sanitizeKey keeps keys inside the cache directory.
func sanitizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" || strings.Trim(out, ".") == "" {
		return "_"
	}
	return out
}
