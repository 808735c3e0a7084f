package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

const (
	inboxSize      = 10
	typingInterval = 4 * time.Second
)

// MessageKind tells the session handler what a SessionMessage carries.
type MessageKind int

const (
	KindText MessageKind = iota
	KindImage
	KindAlbumReady
)

func (k MessageKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindAlbumReady:
		return "album_ready"
	default:
		return "text"
	}
}

// SessionMessage is one unit of work for a session worker.
type SessionMessage struct {
	Kind MessageKind
	Ctx  context.Context
	Done chan struct{} // closed once handled or dropped

	Message *tgbotapi.Message
	Text    string
	Album   *AlbumBuffer // KindAlbumReady only
}

func (m SessionMessage) release() {
	if m.Done != nil {
		close(m.Done)
	}
}

// Mode selects which analysis a screenshot is sent to.
type Mode string

const (
	ModeRounds   Mode = "rounds"
	ModeFairness Mode = "fairness"
)

// escapeMarkdown escapes special characters for Telegram Markdown V1
func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

var markdownEscaper = strings.NewReplacer("*", "\\*", "_", "\\_", "`", "\\`", "[", "\\[")

// MessageSender is the part of the Telegram API a session replies through.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// AlbumBuffer collects screenshots from a Telegram album (MediaGroup) so they
// are analyzed together.
type AlbumBuffer struct {
	MediaGroupID  string
	FileIDs       []string
	Caption       string
	Timer         *time.Timer
	FirstReceived time.Time
}

// MessageHandler processes messages taken from a session's inbox.
type MessageHandler interface {
	HandleSessionMessage(ctx context.Context, session *UserSession, msg SessionMessage)
}

// UserSession is one Telegram user's conversation with the bot.
//
// A single worker goroutine drains the inbox, so handlers may touch the
// album buffer without locks. The mode is read from dispatch code as well and
// is guarded by mu.
type UserSession struct {
	userId  int64
	sender  MessageSender
	handler MessageHandler

	inbox   chan SessionMessage
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}

	mu          sync.Mutex
	mode        Mode
	albumBuffer *AlbumBuffer
}

// newUserSession creates a session in rounds mode and starts its worker.
func newUserSession(userId int64, sender MessageSender, handler MessageHandler) *UserSession {
	ctx, cancel := context.WithCancel(context.Background())
	s := &UserSession{
		userId:  userId,
		sender:  sender,
		handler: handler,
		inbox:   make(chan SessionMessage, inboxSize),
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
		mode:    ModeRounds,
	}
	go s.work()
	return s
}

// Mode returns the session's current analysis mode.
func (s *UserSession) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *UserSession) setMode(mode Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
}

// discardAlbum drops a buffered album and reports whether there was one.
func (s *UserSession) discardAlbum() bool {
	if s.albumBuffer == nil {
		return false
	}
	if s.albumBuffer.Timer != nil {
		s.albumBuffer.Timer.Stop()
	}
	log.Info().Int64("userId", s.userId).Int("photos", len(s.albumBuffer.FileIDs)).Msg("discarded album")
	s.albumBuffer = nil
	return true
}

// --- Replies ---

type replyOptions struct {
	removeKeyboard bool
}

type replyOption func(*replyOptions)

func withoutKeyboard() replyOption {
	return func(o *replyOptions) { o.removeKeyboard = true }
}

// send delivers Markdown text to the user. Delivery errors are logged only;
// a lost reply must not abort the handler.
func (s *UserSession) send(text string, opts ...replyOption) tgbotapi.Message {
	var o replyOptions
	for _, opt := range opts {
		opt(&o)
	}

	msg := tgbotapi.NewMessage(s.userId, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if o.removeKeyboard {
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	}

	sent, err := s.sender.Send(msg)
	if err != nil {
		log.Error().Stack().Int64("userId", s.userId).Err(fmt.Errorf("failed to send reply message: %w", err)).Send()
		return sent
	}
	log.Debug().Int64("userId", s.userId).Int("messageId", sent.MessageID).Msg("sent message")
	return sent
}

// reply formats a message template (see formatReplyText) and sends it.
func (s *UserSession) reply(text string, a ...any) tgbotapi.Message {
	return s.send(formatReplyText(text, a...))
}

func (s *UserSession) replyError(err error) tgbotapi.Message {
	log.Error().Stack().Err(err).Int64("userId", s.userId).Send()
	return s.reply(MsgUnexpectedErr, escapeMarkdown(err.Error()))
}

// replyLong sends pre-rendered Markdown, split into as many messages as
// Telegram's length limit requires.
func (s *UserSession) replyLong(text string) {
	for _, chunk := range splitMessage(text, maxMessageLength) {
		s.send(chunk)
	}
}

// showTyping keeps the "typing" indicator visible until ctx is done. Telegram
// clears the indicator by itself after about five seconds.
func (s *UserSession) showTyping(ctx context.Context) {
	ticker := time.NewTicker(typingInterval)
	defer ticker.Stop()

	for {
		// sendChatAction returns a bool, so Request instead of Send
		if _, err := s.sender.Request(tgbotapi.NewChatAction(s.userId, tgbotapi.ChatTyping)); err != nil {
			log.Debug().Err(err).Int64("userId", s.userId).Msg("failed to send typing action")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// --- Worker ---

func (s *UserSession) work() {
	defer close(s.stopped)
	for {
		select {
		case <-s.ctx.Done():
			// Release synchronous callers of anything still queued
			for {
				select {
				case msg := <-s.inbox:
					msg.release()
				default:
					return
				}
			}
		case msg := <-s.inbox:
			s.handle(msg)
		}
	}
}

func (s *UserSession) handle(msg SessionMessage) {
	defer msg.release()
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Int64("userId", s.userId).
				Stringer("kind", msg.Kind).
				Interface("panic", r).
				Msg("recovered from panic in session worker")
		}
	}()

	ctx := msg.Ctx
	if ctx == nil {
		ctx = s.ctx
	}
	s.handler.HandleSessionMessage(ctx, s, msg)
}

// Send queues msg without waiting for it to be handled. A stopped session
// drops the message.
func (s *UserSession) Send(msg SessionMessage) {
	if s.ctx.Err() != nil {
		msg.release()
		return
	}
	select {
	case s.inbox <- msg:
	case <-s.ctx.Done():
		msg.release()
	}
}

// SendSync queues msg and returns after the worker has handled or dropped it.
func (s *UserSession) SendSync(msg SessionMessage) {
	msg.Done = make(chan struct{})
	s.Send(msg)
	<-msg.Done
}

// Stop cancels the worker and waits for it to exit.
func (s *UserSession) Stop() {
	s.cancel()
	<-s.stopped
}
