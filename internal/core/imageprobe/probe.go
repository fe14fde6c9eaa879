// Package imageprobe 確認抓到的預覽圖可以下載並解碼
package imageprobe

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	_ "image/gif"  // 支援 GIF
	_ "image/jpeg" // 支援 JPEG
	_ "image/png"  // 支援 PNG

	"mise-planner/internal/core/httpclient"

	_ "golang.org/x/image/webp" // 支援 WebP
)

// Fetcher 發送 GET 請求
type Fetcher interface {
	Get(ctx context.Context, rawURL string, req httpclient.Request) (*httpclient.Response, error)
}

// Info 圖片格式與尺寸
type Info struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Prober 圖片檢查
type Prober struct {
	fetcher      Fetcher
	maxSizeBytes int64
}

// New 創建圖片檢查
func New(f Fetcher, maxSizeBytes int64) *Prober {
	return &Prober{fetcher: f, maxSizeBytes: maxSizeBytes}
}

// isSupportedFormat 檢查圖片格式是否支援
func isSupportedFormat(format string) bool {
	supportedFormats := map[string]bool{
		"jpeg": true,
		"png":  true,
		"gif":  true,
		"webp": true,
	}
	return supportedFormats[format]
}

// Verify 下載圖片並讀取標頭，確認格式受支援
func (p *Prober) Verify(ctx context.Context, imageURL string) (*Info, error) {
	if !strings.HasPrefix(imageURL, "http://") && !strings.HasPrefix(imageURL, "https://") {
		return nil, fmt.Errorf("invalid image url %q", imageURL)
	}

	resp, err := p.fetcher.Get(ctx, imageURL, httpclient.Request{
		Headers: map[string]string{"Accept": "image/*"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("failed to download image: status code %d", resp.StatusCode)
	}

	// 檢查文件大小
	if p.maxSizeBytes > 0 && int64(len(resp.Body)) > p.maxSizeBytes {
		return nil, fmt.Errorf("image size exceeds maximum limit of %d bytes", p.maxSizeBytes)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if !isSupportedFormat(format) {
		return nil, fmt.Errorf("unsupported image format: %s", format)
	}

	return &Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}
