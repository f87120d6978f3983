package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	// registers the webp decoder with image.Decode
	_ "golang.org/x/image/webp"

	"github.com/noah-isme/sma-dashboard-gateway/pkg/config"
	appErrors "github.com/noah-isme/sma-dashboard-gateway/pkg/errors"
	"github.com/noah-isme/sma-dashboard-gateway/pkg/export"
)

const (
	logoCachePrefix = "branding:logo:"
	maxLogoBytes    = 8 << 20
)

// LogoCache is the optional second-tier store for decoded logos.
type LogoCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// AssetLoader loads the school logo once per source and hands out the branding block printed on
// every document. Failed loads are not remembered, so the next export retries.
type AssetLoader struct {
	school config.SchoolConfig
	http   *http.Client
	cache  LogoCache
	logger *zap.Logger

	group   singleflight.Group
	mu      sync.RWMutex
	memo    map[string]*export.Logo
	decodes atomic.Int64
}

// NewAssetLoader constructs an asset loader for the configured school.
func NewAssetLoader(school config.SchoolConfig, cache LogoCache, logger *zap.Logger) *AssetLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		// a nil *CacheService is a disabled cache
		cache = (*CacheService)(nil)
	}
	if school.LogoMaxSize <= 0 {
		school.LogoMaxSize = 256
	}
	return &AssetLoader{
		school: school,
		http:   &http.Client{Timeout: 10 * time.Second},
		cache:  cache,
		logger: logger,
		memo:   make(map[string]*export.Logo),
	}
}

// Branding returns the school identity with the decoded logo. A school without a configured logo
// gets a text-only letterhead.
func (l *AssetLoader) Branding(ctx context.Context) (export.Branding, error) {
	branding := export.Branding{
		SchoolName: l.school.Name,
		Address:    l.school.Address,
		Phone:      l.school.Phone,
	}
	logo, err := l.Logo(ctx, l.school.Logo)
	if err != nil {
		return export.Branding{}, err
	}
	branding.Logo = logo
	return branding, nil
}

// Logo returns the PNG-normalised raster for source, a file path or http(s) URL.
func (l *AssetLoader) Logo(ctx context.Context, source string) (*export.Logo, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, nil
	}
	key := logoCachePrefix + source

	l.mu.RLock()
	logo, ok := l.memo[key]
	l.mu.RUnlock()
	if ok {
		return logo, nil
	}

	// waiters share the flight; it is bounded by the http client timeout, not by the first caller
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := l.group.Do(key, func() (interface{}, error) {
		l.mu.RLock()
		cached, ok := l.memo[key]
		l.mu.RUnlock()
		if ok {
			return cached, nil
		}

		var stored export.Logo
		if hit, err := l.cache.Get(flightCtx, key, &stored); err == nil && hit && len(stored.PNG) > 0 {
			l.remember(key, &stored)
			return &stored, nil
		}

		decoded, err := l.load(flightCtx, source)
		if err != nil {
			l.logger.Warn("school logo load failed", zap.String("source", source), zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrExportFailed.Code, appErrors.ErrExportFailed.Status, "failed to load school logo")
		}
		l.remember(key, decoded)
		if err := l.cache.Set(flightCtx, key, decoded, l.school.LogoCacheTTL); err != nil {
			l.logger.Debug("logo cache write skipped", zap.Error(err))
		}
		return decoded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*export.Logo), nil
}

// Invalidate forgets every cached logo.
func (l *AssetLoader) Invalidate(ctx context.Context) error {
	l.mu.Lock()
	l.memo = make(map[string]*export.Logo)
	l.mu.Unlock()
	return l.cache.Invalidate(ctx, logoCachePrefix+"*")
}

// Decodes reports how many times a logo was actually decoded.
func (l *AssetLoader) Decodes() int64 {
	return l.decodes.Load()
}

func (l *AssetLoader) remember(key string, logo *export.Logo) {
	l.mu.Lock()
	l.memo[key] = logo
	l.mu.Unlock()
}

func (l *AssetLoader) load(ctx context.Context, source string) (*export.Logo, error) {
	raw, err := l.read(ctx, source)
	if err != nil {
		return nil, err
	}
	l.decodes.Add(1)
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode logo: %w", err)
	}
	limit := l.school.LogoMaxSize
	if b := img.Bounds(); b.Dx() > limit || b.Dy() > limit {
		img = imaging.Fit(img, limit, limit, imaging.Lanczos)
	}
	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode logo: %w", err)
	}
	b := img.Bounds()
	return &export.Logo{PNG: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

func (l *AssetLoader) read(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("build logo request: %w", err)
		}
		resp, err := l.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch logo: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch logo: status %d", resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxLogoBytes))
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("open logo: %w", err)
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxLogoBytes))
}
