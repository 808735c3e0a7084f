// Package bot serves the analysis pipeline to Telegram users.
package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/raine/skybet/internal/analysis"
	"github.com/raine/skybet/internal/report"
	"github.com/raine/skybet/internal/storage"
)

// BotAPI defines the interface for Telegram bot API operations.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// UserStore is the allow-list the bot consults before creating a session.
type UserStore interface {
	IsUserAllowed(telegramID int64) (bool, error)
	AddAllowedUser(telegramID, addedBy int64) error
	RemoveAllowedUser(telegramID int64) error
	GetAllowedUsers() ([]storage.AllowedUser, error)
}

// Bot is the main Telegram bot handler.
type Bot struct {
	tg       BotAPI
	sessions *sessionRegistry
	users    UserStore
	pipeline *analysis.Pipeline
	adminID  int64

	analysisHandler *AnalysisHandler
}

// NewBot wires the Telegram client, allow-list and pipeline together.
func NewBot(tg BotAPI, users UserStore, pipeline *analysis.Pipeline, downloader ImageDownloader, adminID int64) *Bot {
	bot := &Bot{
		tg:       tg,
		users:    users,
		pipeline: pipeline,
		adminID:  adminID,
	}

	bot.sessions = newSessionRegistry(tg, bot)
	bot.analysisHandler = NewAnalysisHandler(tg, pipeline, downloader)

	return bot
}

// Shutdown stops every session worker.
func (b *Bot) Shutdown() {
	b.sessions.stopAll()
}

// HandleUpdate queues the update on its sender's session and returns.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, false)
}

// handleUpdateSync waits until the session has handled the update.
func (b *Bot) handleUpdateSync(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, true)
}

// isAllowed consults the allow-list. Lookup errors deny access.
func (b *Bot) isAllowed(userId int64) bool {
	if userId == b.adminID {
		return true
	}
	allowed, err := b.users.IsUserAllowed(userId)
	if err != nil {
		log.Error().Err(err).Int64("userId", userId).Msg("allow-list lookup failed")
		return false
	}
	return allowed
}

func (b *Bot) dispatchUpdate(ctx context.Context, update tgbotapi.Update, wait bool) {
	message := update.Message
	if message == nil || message.From == nil {
		return
	}
	userId := message.From.ID

	// Unknown users get no reply and no session
	if !b.isAllowed(userId) {
		return
	}

	msg := SessionMessage{Kind: KindText, Ctx: ctx, Message: message}
	if _, ok := imageFileID(message); ok || isNonImageDocument(message) {
		msg.Kind = KindImage
	}
	log.Info().
		Int64("userId", userId).
		Stringer("kind", msg.Kind).
		Str("text", message.Text).
		Str("caption", message.Caption).
		Str("mediaGroupId", message.MediaGroupID).
		Msg("got message")

	session := b.sessions.get(userId)
	if wait {
		session.SendSync(msg)
		return
	}
	session.Send(msg)
}

// HandleSessionMessage runs on the session worker.
func (b *Bot) HandleSessionMessage(ctx context.Context, session *UserSession, msg SessionMessage) {
	switch msg.Kind {
	case KindImage:
		b.analysisHandler.HandlePhoto(ctx, session, msg.Message)
	case KindText:
		b.handleTextMessage(ctx, session, msg.Message)
	case KindAlbumReady:
		b.analysisHandler.ProcessAlbum(ctx, session, msg.Album)
	}
}

// handleTextMessage runs commands, and analyzes anything else as typed round data.
func (b *Bot) handleTextMessage(ctx context.Context, session *UserSession, message *tgbotapi.Message) {
	text := strings.TrimSpace(message.Text)
	if text == "" {
		return
	}
	if strings.HasPrefix(text, "/") {
		b.handleCommand(ctx, session, text)
		return
	}
	b.analysisHandler.HandleText(ctx, session, text)
}

// handleCommand dispatches a slash command. Unknown commands show the start prompt.
func (b *Bot) handleCommand(ctx context.Context, session *UserSession, text string) {
	command, args := parseCommand(text)
	switch command {
	case "/start":
		session.reply(MsgStartPrompt, session.Mode())
	case "/help":
		session.send(helpText())
	case "/rounds":
		session.setMode(ModeRounds)
		session.reply(MsgModeRounds)
	case "/signal":
		session.setMode(ModeFairness)
		session.reply(MsgModeFairness)
	case "/cancel":
		session.discardAlbum()
		session.send(MsgAlbumDiscarded, withoutKeyboard())
	case "/history":
		ledger := b.pipeline.Ledger()
		session.replyLong(renderHistory(ledger.Label(), ledger.Snapshot(ctx)))
	case "/stats":
		values := b.pipeline.Ledger().Snapshot(ctx)
		if len(values) == 0 {
			session.reply(MsgHistoryEmpty)
			return
		}
		session.replyLong(renderStats(report.Summarize(values)))
	case "/clear":
		// History is shared by every user and the HTTP API
		if session.userId != b.adminID {
			session.reply(MsgClearAdminOnly)
			return
		}
		if err := b.pipeline.Ledger().Clear(ctx); err != nil {
			log.Error().Err(err).Int64("userId", session.userId).Msg("failed to clear history")
			session.reply(MsgClearFailed)
			return
		}
		session.reply(MsgHistoryCleared)
	case "/admin":
		b.handleAdminCommand(session, args)
	default:
		session.reply(MsgStartPrompt, session.Mode())
	}
}
