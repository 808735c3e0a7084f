package bot

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raine/skybet/internal/imagedata"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestImageFileID(t *testing.T) {
	tests := []struct {
		name    string
		message tgbotapi.Message
		want    string
		ok      bool
	}{
		{
			name: "largest photo size",
			message: tgbotapi.Message{Photo: []tgbotapi.PhotoSize{
				{FileID: "medium", Width: 320, Height: 480},
				{FileID: "large", Width: 720, Height: 1280},
				{FileID: "small", Width: 90, Height: 120},
			}},
			want: "large",
			ok:   true,
		},
		{
			name:    "image document",
			message: tgbotapi.Message{Document: &tgbotapi.Document{FileID: "doc", MimeType: "image/png"}},
			want:    "doc",
			ok:      true,
		},
		{
			name:    "other document",
			message: tgbotapi.Message{Document: &tgbotapi.Document{FileID: "doc", MimeType: "application/zip"}},
		},
		{
			name:    "text only",
			message: tgbotapi.Message{Text: "1.5x"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := imageFileID(&tt.message)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDownloadTelegramFile(t *testing.T) {
	var handlerCalled bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/foo.png" {
			handlerCalled = true
			w.Header().Set("Content-Type", "image/png")
			w.Write(pngBytes)
		} else {
			t.Errorf("invalid request to test server: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	tg := new(botApiMock)
	tg.On("GetFileDirectURL", "foo").Return(fmt.Sprintf("%s/foo.png", ts.URL), nil).Once()

	img, err := imagedata.NewDownloader().FromTelegramFile(context.Background(), tg.GetFileDirectURL, "foo")
	require.NoError(t, err)

	assert.Equal(t, pngBytes, img.Data)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.True(t, handlerCalled)
	tg.AssertExpectations(t)
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))
	assert.Equal(t, []string{"aaaa\nbbbb", "cccc"}, splitMessage("aaaa\nbbbb\ncccc", 10))
	assert.Equal(t, []string{"abcde", "fghij", "k"}, splitMessage("abcdefghijk", 5))

	for _, chunk := range splitMessage("ääääää", 5) {
		assert.LessOrEqual(t, len(chunk), 5)
		assert.True(t, utf8.ValidString(chunk), chunk)
	}
}

func TestSplitMessage_KeepsEscapesTogether(t *testing.T) {
	assert.Equal(t, []string{"abcd", `\_efg`, "h"}, splitMessage(`abcd\_efgh`, 5))

	for _, chunk := range splitMessage(escapeMarkdown(strings.Repeat("a_", 50)), 7) {
		assert.False(t, strings.HasPrefix(chunk, "_"), chunk)
		assert.False(t, strings.HasSuffix(chunk, `\`), chunk)
	}
}

func TestParseCommand(t *testing.T) {
	cmd, args := parseCommand("/admin@skybet_bot users  add 42")
	assert.Equal(t, "/admin", cmd)
	assert.Equal(t, []string{"users", "add", "42"}, args)

	cmd, args = parseCommand("")
	assert.Empty(t, cmd)
	assert.Empty(t, args)
}
