package imagedata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// DefaultDownloadTimeout is the default timeout for image downloads
const DefaultDownloadTimeout = 30 * time.Second

// Downloader fetches remote screenshots with a size limit.
type Downloader struct {
	client  *resty.Client
	maxSize int64
}

// NewDownloader creates a Downloader with default settings.
func NewDownloader() *Downloader {
	return &Downloader{
		client:  resty.New().SetDebug(false).SetTimeout(DefaultDownloadTimeout),
		maxSize: DefaultMaxImageSize,
	}
}

// WithTimeout sets a custom timeout for downloads.
func (d *Downloader) WithTimeout(timeout time.Duration) *Downloader {
	d.client.SetTimeout(timeout)
	return d
}

// WithMaxSize sets a custom maximum file size.
func (d *Downloader) WithMaxSize(maxSize int64) *Downloader {
	d.maxSize = maxSize
	return d
}

// FromURL downloads and validates an image.
func (d *Downloader) FromURL(ctx context.Context, imageURL string) (Image, error) {
	res, err := d.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(imageURL)
	if err != nil {
		return Image{}, fmt.Errorf("failed to download image: %w", err)
	}
	body := res.RawBody()
	defer body.Close()

	if res.StatusCode() != http.StatusOK {
		return Image{}, fmt.Errorf("download failed: status %d", res.StatusCode())
	}

	contentType := res.Header().Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") && contentType != "application/octet-stream" {
		return Image{}, fmt.Errorf("invalid content type: expected image/*, got %s", contentType)
	}

	// Read one byte past the limit so oversize bodies are detected even without Content-Length.
	data, err := io.ReadAll(io.LimitReader(body, d.maxSize+1))
	if err != nil {
		return Image{}, fmt.Errorf("failed to read image data: %w", err)
	}

	return FromBytes(data, d.maxSize)
}

// FromTelegramFile resolves a Telegram file ID to a URL and downloads it.
func (d *Downloader) FromTelegramFile(
	ctx context.Context,
	getFileDirectURL func(fileID string) (string, error),
	fileID string,
) (Image, error) {
	log.Info().Str("fileID", fileID).Msg("downloading telegram file")

	url, err := getFileDirectURL(fileID)
	if err != nil {
		return Image{}, fmt.Errorf("failed to get file URL: %w", err)
	}
	return d.FromURL(ctx, url)
}
