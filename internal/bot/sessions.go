package bot

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// sessionRegistry owns one UserSession per Telegram user.
type sessionRegistry struct {
	sender  MessageSender
	handler MessageHandler

	mu       sync.Mutex
	sessions map[int64]*UserSession
}

func newSessionRegistry(sender MessageSender, handler MessageHandler) *sessionRegistry {
	return &sessionRegistry{
		sender:   sender,
		handler:  handler,
		sessions: make(map[int64]*UserSession),
	}
}

// get returns the user's session, creating and starting it on first use.
func (r *sessionRegistry) get(userId int64) *UserSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[userId]; ok {
		return session
	}
	session := newUserSession(userId, r.sender, r.handler)
	r.sessions[userId] = session
	log.Info().Int64("userId", userId).Int("sessions", len(r.sessions)).Msg("new user session created")
	return session
}

func (r *sessionRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// stopAll stops every worker. Workers are stopped outside the lock since a
// running handler may still be finishing its reply.
func (r *sessionRegistry) stopAll() {
	r.mu.Lock()
	sessions := make([]*UserSession, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	r.sessions = make(map[int64]*UserSession)
	r.mu.Unlock()

	for _, session := range sessions {
		session.Stop()
	}
	log.Info().Int("count", len(sessions)).Msg("stopped all session workers")
}
