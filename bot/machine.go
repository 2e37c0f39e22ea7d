package bot

import (
	"context"
	"errors"
	"log"

	"codecast-bot/config"
	"codecast-bot/parser"
	"codecast-bot/pipeline"
	"codecast-bot/session"
	"codecast-bot/types"
	"codecast-bot/upload"
)

// EventKind enumerates everything a conversation can receive.
type EventKind int

const (
	EventStart EventKind = iota
	EventText
	EventFormat
	EventUploadChoice
	EventAuth
	EventCancel
)

// Event is one user input, normalized away from the chat platform.
type Event struct {
	Kind   EventKind
	Text   string             // EventText
	Format types.OutputFormat // EventFormat
	Upload bool               // EventUploadChoice
}

// Choice is one button offered to the user.
type Choice struct {
	Label string
	Data  string
}

// Transport is the chat surface the machine talks through.
type Transport interface {
	SendText(chatID int64, text string) error
	SendChoices(chatID int64, text string, choices []Choice) error
	SendVideo(chatID int64, path string) error
}

// Pipeline is the generation workflow the machine drives.
type Pipeline interface {
	Run(ctx context.Context, content types.ParsedContent, format types.OutputFormat) (*pipeline.Run, error)
	Cleanup(run *pipeline.Run)
}

// Uploader is the optional publish step.
type Uploader interface {
	IsAuthorized() bool
	InitiateAuthorization() (string, error)
	CompleteAuthorization(ctx context.Context, pastedURL string) error
	Upload(ctx context.Context, file, title, description string, tags []string, privacy string) (string, error)
}

const (
	greeting = "Hi! Send the narration text, the code (inside ///), and " +
		"optional captions (!!!top!!! and @@bottom@@) in one message."
	contentRejected = "Could not find narration text or a /// code block. " +
		"Send the content again, or /cancel."
	authInstructions = "Manual authorization:\n\n" +
		"1. Open the link below.\n" +
		"2. Sign in and grant access.\n" +
		"3. You will land on an error page - that is expected.\n" +
		"4. Copy the full URL from the address bar.\n" +
		"5. Paste that URL here."
)

// Machine is the per-conversation state machine. Each Handle call processes
// exactly one event to completion; the session registry's run lock keeps a
// second event for the same chat out while a pipeline run is in flight.
type Machine struct {
	cfg       *config.Config
	sessions  *session.Registry
	pipeline  Pipeline
	uploader  Uploader
	transport Transport
}

// NewMachine wires the controller to its collaborators.
func NewMachine(cfg *config.Config, sessions *session.Registry, pipe Pipeline, uploader Uploader, transport Transport) *Machine {
	return &Machine{
		cfg:       cfg,
		sessions:  sessions,
		pipeline:  pipe,
		uploader:  uploader,
		transport: transport,
	}
}

// Handle processes one event for one chat. Collaborator failures are
// converted to user-facing text here; nothing escapes to crash the process
// or disturb other conversations.
func (m *Machine) Handle(ctx context.Context, chatID int64, ev Event) {
	if !m.sessions.TryAcquire(chatID) {
		m.send(chatID, "Still working on your previous request - hang tight.")
		return
	}
	defer m.sessions.Release(chatID)

	s := m.sessions.Get(chatID)
	next := m.transition(ctx, s, ev)
	if next == session.StateIdle {
		m.sessions.Clear(chatID)
		return
	}
	s.State = next
}

// transition maps (state, event) to the next state, performing the
// transition's side effects on the way. Unexpected events leave the state
// untouched.
func (m *Machine) transition(ctx context.Context, s *session.Session, ev Event) session.State {
	if ev.Kind == EventCancel {
		return m.cancel(s)
	}

	switch s.State {
	case session.StateIdle:
		switch ev.Kind {
		case EventStart:
			m.send(s.ChatID, greeting)
			return session.StateAwaitingContent
		case EventAuth:
			return m.beginAuth(s)
		}

	case session.StateAwaitingContent:
		if ev.Kind == EventText {
			return m.handleContent(s, ev.Text)
		}

	case session.StateAwaitingFormat:
		if ev.Kind == EventFormat {
			return m.handleFormat(ctx, s, ev.Format)
		}

	case session.StateAwaitingUploadDecision:
		if ev.Kind == EventUploadChoice {
			return m.handleUploadChoice(ctx, s, ev.Upload)
		}

	case session.StateAwaitingAuthURL:
		if ev.Kind == EventText {
			return m.completeAuth(ctx, s, ev.Text)
		}
	}

	return s.State
}

func (m *Machine) cancel(s *session.Session) session.State {
	m.pipeline.Cleanup(s.Run)
	m.send(s.ChatID, "Cancelled.")
	return session.StateIdle
}

func (m *Machine) handleContent(s *session.Session, text string) session.State {
	content := parser.Extract(text)
	if content.Narration == "" || content.Code == "" {
		m.send(s.ChatID, contentRejected)
		return session.StateAwaitingContent
	}

	s.Content = &content
	m.sendChoices(s.ChatID, "Got it. Pick a video format:", []Choice{
		{Label: "Shorts (9:16)", Data: CallbackFormatVertical},
		{Label: "Widescreen (16:9)", Data: CallbackFormatWide},
	})
	return session.StateAwaitingFormat
}

func (m *Machine) handleFormat(ctx context.Context, s *session.Session, format types.OutputFormat) session.State {
	if s.Content == nil {
		m.send(s.ChatID, "Something went wrong, start over with /start.")
		return session.StateIdle
	}

	s.Format = format
	m.send(s.ChatID, "Format "+format.String()+" locked in. Creating your video now, this can take a few minutes...")

	run, err := m.pipeline.Run(ctx, *s.Content, format)
	s.Run = run
	if err != nil {
		log.Printf("[bot] Chat %d: pipeline failed: %v", s.ChatID, err)
		m.send(s.ChatID, "Video generation failed: "+err.Error())
		m.pipeline.Cleanup(run)
		return session.StateIdle
	}
	s.FinalVideoPath = run.VideoPath

	if err := m.transport.SendVideo(s.ChatID, run.VideoPath); err != nil {
		log.Printf("[bot] Chat %d: video delivery failed: %v", s.ChatID, err)
		m.send(s.ChatID, "Could not deliver the video: "+err.Error())
		m.pipeline.Cleanup(run)
		return session.StateIdle
	}

	m.sendChoices(s.ChatID, "Upload this video to YouTube?", []Choice{
		{Label: "Yes, upload", Data: CallbackUploadYes},
		{Label: "No, thanks", Data: CallbackUploadNo},
	})
	return session.StateAwaitingUploadDecision
}

func (m *Machine) handleUploadChoice(ctx context.Context, s *session.Session, wantUpload bool) session.State {
	defer m.pipeline.Cleanup(s.Run)

	if !wantUpload {
		m.send(s.ChatID, "Okay, skipping the YouTube upload.")
		return session.StateIdle
	}

	if !m.uploader.IsAuthorized() {
		m.send(s.ChatID, "❌ YouTube authorization not found. Run /youtube_auth first, then generate the video again.")
		return session.StateIdle
	}

	title := s.Content.TopCaption
	if title == "" {
		title = m.cfg.Upload.DefaultTitle
	}

	m.send(s.ChatID, "Uploading to YouTube...")
	videoID, err := m.uploader.Upload(ctx, s.FinalVideoPath, title, s.Content.Narration, nil, m.cfg.Upload.Privacy)
	switch {
	case errors.Is(err, upload.ErrNotAuthorized):
		m.send(s.ChatID, "❌ YouTube authorization not found. Run /youtube_auth first, then generate the video again.")
	case err != nil:
		log.Printf("[bot] Chat %d: upload failed: %v", s.ChatID, err)
		m.send(s.ChatID, "❌ YouTube upload failed: "+err.Error())
	default:
		m.send(s.ChatID, "✅ Uploaded! "+upload.WatchURL(videoID))
	}
	return session.StateIdle
}

func (m *Machine) beginAuth(s *session.Session) session.State {
	if m.uploader.IsAuthorized() {
		m.send(s.ChatID, "✅ YouTube authorization is already in place.")
		return session.StateIdle
	}

	authURL, err := m.uploader.InitiateAuthorization()
	if err != nil {
		m.send(s.ChatID, "❌ Could not start authorization: "+err.Error())
		return session.StateIdle
	}

	m.send(s.ChatID, authInstructions)
	m.send(s.ChatID, authURL)
	return session.StateAwaitingAuthURL
}

func (m *Machine) completeAuth(ctx context.Context, s *session.Session, pastedURL string) session.State {
	m.send(s.ChatID, "Checking the URL, one moment...")
	if err := m.uploader.CompleteAuthorization(ctx, pastedURL); err != nil {
		log.Printf("[bot] Chat %d: authorization failed: %v", s.ChatID, err)
		m.send(s.ChatID, "❌ Authorization failed, the URL is invalid or expired. Try /youtube_auth again.")
		return session.StateIdle
	}
	m.send(s.ChatID, "✅ Authorization complete! You can now upload videos.")
	return session.StateIdle
}

func (m *Machine) send(chatID int64, text string) {
	if err := m.transport.SendText(chatID, text); err != nil {
		log.Printf("[bot] Chat %d: send failed: %v", chatID, err)
	}
}

func (m *Machine) sendChoices(chatID int64, text string, choices []Choice) {
	if err := m.transport.SendChoices(chatID, text, choices); err != nil {
		log.Printf("[bot] Chat %d: send choices failed: %v", chatID, err)
	}
}
