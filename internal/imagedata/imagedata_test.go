package imagedata

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestFromBytes(t *testing.T) {
	img, err := FromBytes(pngBytes, 0)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)

	_, err = FromBytes(nil, 0)
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = FromBytes([]byte("plain text, definitely not a screenshot"), 0)
	assert.ErrorIs(t, err, ErrNotAnImage)

	_, err = FromBytes(pngBytes, 4)
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestParseDataURI(t *testing.T) {
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)

	img, err := ParseDataURI(uri, DefaultMaxImageSize)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, pngBytes, img.Data)
	assert.Equal(t, uri, img.DataURI())
}

func TestParseDataURI_Errors(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(pngBytes)
	tests := []struct {
		name string
		uri  string
		want error
	}{
		{"missing prefix", "image/png;base64," + encoded, ErrInvalidDataURI},
		{"missing comma", "data:image/png;base64", ErrInvalidDataURI},
		{"not base64", "data:image/png," + encoded, ErrInvalidDataURI},
		{"declared text", "data:text/plain;base64," + encoded, ErrNotAnImage},
		{"broken payload", "data:image/png;base64,!!!", ErrInvalidDataURI},
		{"too large", "data:image/png;base64," + encoded, ErrImageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit := int64(DefaultMaxImageSize)
			if tt.name == "too large" {
				limit = 4
			}
			_, err := ParseDataURI(tt.uri, limit)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDownloader_FromTelegramFile(t *testing.T) {
	var handlerCalled bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/foo.png" {
			handlerCalled = true
			w.Header().Set("Content-Type", "image/png")
			w.Write(pngBytes)
		} else {
			t.Fatal(fmt.Sprintf("invalid request to test server: %s %s", r.Method, r.URL.Path))
		}
	}))
	defer ts.Close()

	getFileDirectURL := func(fileID string) (string, error) {
		return fmt.Sprintf("%s/%s.png", ts.URL, fileID), nil
	}

	img, err := NewDownloader().FromTelegramFile(context.Background(), getFileDirectURL, "foo")
	require.NoError(t, err)
	assert.Equal(t, pngBytes, img.Data)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.True(t, handlerCalled)
}

func TestDownloader_URLResolutionError(t *testing.T) {
	getFileDirectURL := func(fileID string) (string, error) {
		return "", fmt.Errorf("failed to get URL")
	}

	_, err := NewDownloader().FromTelegramFile(context.Background(), getFileDirectURL, "test-file-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get file URL")
}

func TestDownloader_RejectsNonImage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))
	defer ts.Close()

	_, err := NewDownloader().FromURL(context.Background(), ts.URL)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid content type"))
}

func TestDownloader_EnforcesSizeLimit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes)
	}))
	defer ts.Close()

	_, err := NewDownloader().WithMaxSize(8).FromURL(context.Background(), ts.URL)
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestDownloader_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := NewDownloader().FromURL(context.Background(), ts.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
