package bot

import (
	"context"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/raine/skybet/internal/analysis"
	"github.com/raine/skybet/internal/imagedata"
)

const (
	albumBufferTimeout = 1500 * time.Millisecond
	maxAlbumPhotos     = 10
	analysisTimeout    = 3 * time.Minute
)

// ImageDownloader fetches a Telegram file as a validated image.
type ImageDownloader interface {
	FromTelegramFile(ctx context.Context, getFileDirectURL func(fileID string) (string, error), fileID string) (imagedata.Image, error)
}

// AnalysisHandler downloads screenshots and runs them through the analysis
// pipeline in the session's mode.
type AnalysisHandler struct {
	tg         BotAPI
	pipeline   *analysis.Pipeline
	downloader ImageDownloader
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(tg BotAPI, pipeline *analysis.Pipeline, downloader ImageDownloader) *AnalysisHandler {
	return &AnalysisHandler{tg: tg, pipeline: pipeline, downloader: downloader}
}

// HandlePhoto analyzes a screenshot. Photos belonging to an album are
// buffered and analyzed together once the album is complete.
// Called from session worker - no locking needed.
func (h *AnalysisHandler) HandlePhoto(ctx context.Context, session *UserSession, message *tgbotapi.Message) {
	fileID, ok := imageFileID(message)
	if !ok {
		session.reply(MsgNotAnImage)
		return
	}

	if message.MediaGroupID != "" {
		h.bufferAlbumPhoto(ctx, session, fileID, message.MediaGroupID, message.Caption)
		return
	}

	h.analyzeFiles(ctx, session, []string{fileID}, message.Caption)
}

// HandleText analyzes round data typed by the user.
func (h *AnalysisHandler) HandleText(ctx context.Context, session *UserSession, text string) {
	h.run(ctx, session, analysis.Input{Text: text})
}

// bufferAlbumPhoto adds a photo to the album buffer and schedules processing.
// Called from session worker - no locking needed for session state.
func (h *AnalysisHandler) bufferAlbumPhoto(ctx context.Context, session *UserSession, fileID, mediaGroupID, caption string) {
	if session.albumBuffer == nil || session.albumBuffer.MediaGroupID != mediaGroupID {
		// A different album is still pending; analyze it now rather than drop it
		if session.albumBuffer != nil && len(session.albumBuffer.FileIDs) > 0 {
			if session.albumBuffer.Timer != nil {
				session.albumBuffer.Timer.Stop()
			}
			h.ProcessAlbum(ctx, session, session.albumBuffer)
		}
		session.albumBuffer = &AlbumBuffer{
			MediaGroupID:  mediaGroupID,
			FirstReceived: time.Now(),
		}
	}

	buffer := session.albumBuffer
	if len(buffer.FileIDs) < maxAlbumPhotos {
		buffer.FileIDs = append(buffer.FileIDs, fileID)
	}
	// Telegram puts the album caption on a single item
	if caption != "" && buffer.Caption == "" {
		buffer.Caption = caption
	}

	if buffer.Timer != nil {
		buffer.Timer.Stop()
	}
	buffer.Timer = time.AfterFunc(albumBufferTimeout, func() {
		session.Send(SessionMessage{Kind: KindAlbumReady, Album: buffer})
	})
}

// ProcessAlbum analyzes a completed album.
// Called from session worker - no locking needed.
func (h *AnalysisHandler) ProcessAlbum(ctx context.Context, session *UserSession, buffer *AlbumBuffer) {
	// Verify this is still the active album buffer (wasn't replaced or cleared)
	if session.albumBuffer != buffer {
		return
	}
	session.albumBuffer = nil

	if len(buffer.FileIDs) == 0 {
		return
	}
	log.Info().
		Int64("userId", session.userId).
		Str("mediaGroupId", buffer.MediaGroupID).
		Int("photos", len(buffer.FileIDs)).
		Msg("processing album")
	h.analyzeFiles(ctx, session, buffer.FileIDs, buffer.Caption)
}

func (h *AnalysisHandler) analyzeFiles(ctx context.Context, session *UserSession, fileIDs []string, caption string) {
	images := make([]imagedata.Image, 0, len(fileIDs))
	for _, fileID := range fileIDs {
		img, err := h.downloader.FromTelegramFile(ctx, h.tg.GetFileDirectURL, fileID)
		if err != nil {
			log.Warn().Err(err).Int64("userId", session.userId).Str("fileID", fileID).Msg("failed to download screenshot")
			if errors.Is(err, imagedata.ErrNotAnImage) {
				session.reply(MsgNotAnImage)
			} else {
				session.reply(MsgInvalidImage, escapeMarkdown(err.Error()))
			}
			return
		}
		images = append(images, img)
	}

	h.run(ctx, session, analysis.Input{Images: images, Text: caption})
}

// run sends the input to the pipeline selected by the session mode and replies
// with the rendered result.
func (h *AnalysisHandler) run(ctx context.Context, session *UserSession, in analysis.Input) {
	ctx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()

	typingCtx, stopTyping := context.WithCancel(ctx)
	go session.showTyping(typingCtx)
	defer stopTyping()

	mode := session.Mode()
	var text string
	var err error
	switch mode {
	case ModeFairness:
		signal, ferr := h.pipeline.Fairness(ctx, in)
		if ferr == nil {
			text = renderSignal(signal)
		}
		err = ferr
	default:
		result, rerr := h.pipeline.Rounds(ctx, in)
		if rerr == nil {
			text = renderRounds(result)
		}
		err = rerr
	}

	stopTyping()
	if err != nil {
		if errors.Is(err, analysis.ErrNoInput) {
			session.reply(MsgNoInput)
			return
		}
		log.Error().Err(err).Int64("userId", session.userId).Str("mode", string(mode)).Msg("analysis failed")
		session.reply(MsgAnalysisFailed)
		return
	}
	session.replyLong(text)
}
