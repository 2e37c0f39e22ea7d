package session

import (
	"sync"

	"codecast-bot/pipeline"
	"codecast-bot/types"
)

// State is the conversation state machine position for one chat.
type State int

const (
	StateIdle State = iota
	StateAwaitingContent
	StateAwaitingFormat
	StateAwaitingUploadDecision
	StateAwaitingAuthURL
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingContent:
		return "awaiting_content"
	case StateAwaitingFormat:
		return "awaiting_format"
	case StateAwaitingUploadDecision:
		return "awaiting_upload_decision"
	case StateAwaitingAuthURL:
		return "awaiting_auth_url"
	}
	return "unknown"
}

// Session is the mutable per-conversation record. Exactly one exists per
// active chat; it is created on first use and cleared on every terminal
// transition (success, cancel, error).
type Session struct {
	ChatID         int64
	State          State
	Content        *types.ParsedContent
	Format         types.OutputFormat
	Run            *pipeline.Run
	FinalVideoPath string
}

// Registry owns all sessions, keyed by chat id. It also carries the
// per-conversation run lock: at most one event is processed per chat at a
// time, while distinct chats proceed independently.
type Registry struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	inFlight map[int64]bool
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[int64]*Session),
		inFlight: make(map[int64]bool),
	}
}

// Get returns the session for a chat, creating an idle one if none exists.
func (r *Registry) Get(chatID int64) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[chatID]
	if !ok {
		s = &Session{ChatID: chatID, State: StateIdle}
		r.sessions[chatID] = s
	}
	return s
}

// Clear drops all session state for a chat. The next Get starts fresh.
func (r *Registry) Clear(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, chatID)
}

// TryAcquire takes the run lock for a chat. It returns false when an event
// for the same chat is already being processed, which is how a message
// arriving mid-pipeline gets rejected instead of interleaving.
func (r *Registry) TryAcquire(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight[chatID] {
		return false
	}
	r.inFlight[chatID] = true
	return true
}

// Release frees the run lock taken by TryAcquire.
func (r *Registry) Release(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, chatID)
}
