package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// imageFileID returns the file ID of the screenshot carried by message: the
// largest photo size, or a document sent uncompressed with an image MIME type.
func imageFileID(message *tgbotapi.Message) (string, bool) {
	if len(message.Photo) > 0 {
		largest := message.Photo[0]
		for _, p := range message.Photo[1:] {
			if p.Width*p.Height > largest.Width*largest.Height {
				largest = p
			}
		}
		return largest.FileID, true
	}
	if message.Document != nil && strings.HasPrefix(message.Document.MimeType, "image/") {
		return message.Document.FileID, true
	}
	return "", false
}

// isNonImageDocument reports whether message carries a file that is not an image.
func isNonImageDocument(message *tgbotapi.Message) bool {
	return message.Document != nil && !strings.HasPrefix(message.Document.MimeType, "image/")
}
