package bot_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codecast-bot/bot"
	"codecast-bot/config"
	"codecast-bot/pipeline"
	"codecast-bot/session"
	"codecast-bot/types"
)

type fakeTransport struct {
	texts    []string
	choices  []string
	videos   []string
	videoErr error
}

func (f *fakeTransport) SendText(chatID int64, text string) error {
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeTransport) SendChoices(chatID int64, text string, choices []bot.Choice) error {
	f.choices = append(f.choices, text)
	return nil
}

func (f *fakeTransport) SendVideo(chatID int64, path string) error {
	if f.videoErr != nil {
		return f.videoErr
	}
	f.videos = append(f.videos, path)
	return nil
}

func (f *fakeTransport) lastText() string {
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

type fakePipeline struct {
	runErr  error
	runs    int
	lastRun *pipeline.Run
	cleaned []*pipeline.Run
}

func (f *fakePipeline) Run(ctx context.Context, content types.ParsedContent, format types.OutputFormat) (*pipeline.Run, error) {
	f.runs++
	f.lastRun = &pipeline.Run{
		ID:        "run-1",
		Dir:       "/tmp/run-1",
		VideoPath: "/tmp/run-1/final_video.mp4",
	}
	return f.lastRun, f.runErr
}

func (f *fakePipeline) Cleanup(run *pipeline.Run) {
	f.cleaned = append(f.cleaned, run)
}

type uploadCall struct {
	file, title, description, privacy string
}

type fakeUploader struct {
	authorized  bool
	authURL     string
	uploadID    string
	uploadErr   error
	completeErr error
	uploads     []uploadCall
	completed   []string
}

func (f *fakeUploader) IsAuthorized() bool { return f.authorized }

func (f *fakeUploader) InitiateAuthorization() (string, error) {
	if f.authURL == "" {
		return "", errors.New("credentials missing")
	}
	return f.authURL, nil
}

func (f *fakeUploader) CompleteAuthorization(ctx context.Context, pastedURL string) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	f.completed = append(f.completed, pastedURL)
	f.authorized = true
	return nil
}

func (f *fakeUploader) Upload(ctx context.Context, file, title, description string, tags []string, privacy string) (string, error) {
	f.uploads = append(f.uploads, uploadCall{file: file, title: title, description: description, privacy: privacy})
	return f.uploadID, f.uploadErr
}

type fixture struct {
	machine   *bot.Machine
	sessions  *session.Registry
	transport *fakeTransport
	pipe      *fakePipeline
	uploader  *fakeUploader
}

func newFixture() *fixture {
	f := &fixture{
		sessions:  session.NewRegistry(),
		transport: &fakeTransport{},
		pipe:      &fakePipeline{},
		uploader:  &fakeUploader{authURL: "https://accounts.example/auth"},
	}
	cfg := &config.Config{
		Upload: config.UploadConfig{DefaultTitle: "Code walkthrough", Privacy: "private"},
	}
	f.machine = bot.NewMachine(cfg, f.sessions, f.pipe, f.uploader, f.transport)
	return f
}

func (f *fixture) handle(chatID int64, ev bot.Event) {
	f.machine.Handle(context.Background(), chatID, ev)
}

func (f *fixture) state(chatID int64) session.State {
	return f.sessions.Get(chatID).State
}

const chat = int64(7)

func startedFixture() *fixture {
	f := newFixture()
	f.handle(chat, bot.Event{Kind: bot.EventStart})
	return f
}

func generatedFixture(t *testing.T) *fixture {
	f := startedFixture()
	f.handle(chat, bot.Event{Kind: bot.EventText, Text: "!!!Title!!! Hello world ///print(1)///"})
	f.handle(chat, bot.Event{Kind: bot.EventFormat, Format: types.FormatVertical})
	require.Equal(t, session.StateAwaitingUploadDecision, f.state(chat))
	return f
}

func TestStartOffersContentPrompt(t *testing.T) {
	f := startedFixture()

	assert.Equal(t, session.StateAwaitingContent, f.state(chat))
	assert.Contains(t, f.transport.lastText(), "///")
}

func TestContentAcceptedOffersFormats(t *testing.T) {
	f := startedFixture()

	f.handle(chat, bot.Event{Kind: bot.EventText, Text: "!!!Title!!! Hello world ///print(1)///"})

	assert.Equal(t, session.StateAwaitingFormat, f.state(chat))
	require.Len(t, f.transport.choices, 1)
	assert.Contains(t, f.transport.choices[0], "format")
}

func TestContentValidationReprompts(t *testing.T) {
	f := startedFixture()

	f.handle(chat, bot.Event{Kind: bot.EventText, Text: "narration without any code block"})

	assert.Equal(t, session.StateAwaitingContent, f.state(chat))
	assert.Contains(t, f.transport.lastText(), "code block")
	assert.Zero(t, f.pipe.runs, "no pipeline run for invalid content")
	assert.Empty(t, f.pipe.cleaned, "nothing to clean up for invalid content")
}

func TestFormatChoiceRunsPipelineAndDeliversVideo(t *testing.T) {
	f := generatedFixture(t)

	assert.Equal(t, 1, f.pipe.runs)
	require.Len(t, f.transport.videos, 1)
	assert.Equal(t, f.pipe.lastRun.VideoPath, f.transport.videos[0])
	require.Len(t, f.transport.choices, 2)
	assert.Contains(t, f.transport.choices[1], "YouTube")
	assert.Empty(t, f.pipe.cleaned, "cleanup must wait for the upload decision")
}

func TestPipelineFailureReportsAndCleansUp(t *testing.T) {
	f := startedFixture()
	f.pipe.runErr = errors.New("renderer: exit status 1: Traceback")

	f.handle(chat, bot.Event{Kind: bot.EventText, Text: "hi ///x///"})
	f.handle(chat, bot.Event{Kind: bot.EventFormat, Format: types.FormatWide})

	assert.Equal(t, session.StateIdle, f.state(chat))
	assert.Contains(t, f.transport.lastText(), "Traceback")
	require.Len(t, f.pipe.cleaned, 1)
	assert.Same(t, f.pipe.lastRun, f.pipe.cleaned[0])
}

func TestVideoDeliveryFailureCleansUp(t *testing.T) {
	f := startedFixture()
	f.transport.videoErr = errors.New("request entity too large")

	f.handle(chat, bot.Event{Kind: bot.EventText, Text: "hi ///x///"})
	f.handle(chat, bot.Event{Kind: bot.EventFormat, Format: types.FormatVertical})

	assert.Equal(t, session.StateIdle, f.state(chat))
	require.Len(t, f.pipe.cleaned, 1)
}

func TestUploadDeclinedCleansUp(t *testing.T) {
	f := generatedFixture(t)

	f.handle(chat, bot.Event{Kind: bot.EventUploadChoice, Upload: false})

	assert.Equal(t, session.StateIdle, f.state(chat))
	assert.Contains(t, f.transport.lastText(), "skipping")
	require.Len(t, f.pipe.cleaned, 1)
	assert.Empty(t, f.uploader.uploads)
}

func TestUploadWithoutAuthorizationIsActionable(t *testing.T) {
	f := generatedFixture(t)
	f.uploader.authorized = false

	f.handle(chat, bot.Event{Kind: bot.EventUploadChoice, Upload: true})

	assert.Equal(t, session.StateIdle, f.state(chat))
	assert.Contains(t, f.transport.lastText(), "/youtube_auth")
	assert.Empty(t, f.uploader.uploads, "upload must not be attempted without authorization")
	require.Len(t, f.pipe.cleaned, 1, "cleanup runs on the unauthorized branch too")
}

func TestUploadAcceptedUsesContentMetadata(t *testing.T) {
	f := generatedFixture(t)
	f.uploader.authorized = true
	f.uploader.uploadID = "abc123"

	f.handle(chat, bot.Event{Kind: bot.EventUploadChoice, Upload: true})

	assert.Equal(t, session.StateIdle, f.state(chat))
	require.Len(t, f.uploader.uploads, 1)
	call := f.uploader.uploads[0]
	assert.Equal(t, "Title", call.title)
	assert.Equal(t, "Hello world", call.description)
	assert.Equal(t, "private", call.privacy)
	assert.Equal(t, f.pipe.lastRun.VideoPath, call.file)
	assert.Contains(t, f.transport.lastText(), "youtube.com/watch?v=abc123")
	require.Len(t, f.pipe.cleaned, 1)
}

func TestUploadFailureStillCleansUp(t *testing.T) {
	f := generatedFixture(t)
	f.uploader.authorized = true
	f.uploader.uploadErr = errors.New("quota exceeded")

	f.handle(chat, bot.Event{Kind: bot.EventUploadChoice, Upload: true})

	assert.Equal(t, session.StateIdle, f.state(chat))
	assert.Contains(t, f.transport.lastText(), "quota exceeded")
	require.Len(t, f.pipe.cleaned, 1)
}

func TestCancelFromAnyStateCleansUp(t *testing.T) {
	drive := []struct {
		name  string
		setup func(*testing.T) *fixture
	}{
		{"awaiting content", func(t *testing.T) *fixture { return startedFixture() }},
		{"awaiting format", func(t *testing.T) *fixture {
			f := startedFixture()
			f.handle(chat, bot.Event{Kind: bot.EventText, Text: "hi ///x///"})
			return f
		}},
		{"awaiting upload decision", func(t *testing.T) *fixture { return generatedFixture(t) }},
	}

	for _, tc := range drive {
		t.Run(tc.name, func(t *testing.T) {
			f := tc.setup(t)
			f.handle(chat, bot.Event{Kind: bot.EventCancel})

			assert.Equal(t, session.StateIdle, f.state(chat))
			assert.Contains(t, f.transport.lastText(), "Cancelled")
			require.NotEmpty(t, f.pipe.cleaned)
		})
	}
}

func TestAuthFlow(t *testing.T) {
	f := newFixture()

	f.handle(chat, bot.Event{Kind: bot.EventAuth})
	assert.Equal(t, session.StateAwaitingAuthURL, f.state(chat))
	assert.Contains(t, strings.Join(f.transport.texts, "\n"), f.uploader.authURL)

	f.handle(chat, bot.Event{Kind: bot.EventText, Text: "http://localhost/?code=4/xyz"})
	assert.Equal(t, session.StateIdle, f.state(chat))
	require.Len(t, f.uploader.completed, 1)
	assert.Contains(t, f.transport.lastText(), "complete")
}

func TestAuthAlreadyAuthorizedShortCircuits(t *testing.T) {
	f := newFixture()
	f.uploader.authorized = true

	f.handle(chat, bot.Event{Kind: bot.EventAuth})

	assert.Equal(t, session.StateIdle, f.state(chat))
	assert.Contains(t, f.transport.lastText(), "already")
}

func TestAuthCompletionFailure(t *testing.T) {
	f := newFixture()
	f.handle(chat, bot.Event{Kind: bot.EventAuth})
	f.uploader.completeErr = errors.New("invalid_grant")

	f.handle(chat, bot.Event{Kind: bot.EventText, Text: "http://localhost/?code=bad"})

	assert.Equal(t, session.StateIdle, f.state(chat))
	assert.Contains(t, f.transport.lastText(), "/youtube_auth")
}

func TestBusyConversationRejectsNewEvents(t *testing.T) {
	f := startedFixture()

	require.True(t, f.sessions.TryAcquire(chat))
	f.handle(chat, bot.Event{Kind: bot.EventText, Text: "hi ///x///"})
	f.sessions.Release(chat)

	assert.Contains(t, f.transport.lastText(), "Still working")
	assert.Equal(t, session.StateAwaitingContent, f.state(chat), "state untouched while busy")
}

func TestUnexpectedEventsAreIgnored(t *testing.T) {
	f := startedFixture()
	before := len(f.transport.texts)

	// A format button press while we expect content text.
	f.handle(chat, bot.Event{Kind: bot.EventFormat, Format: types.FormatWide})

	assert.Equal(t, session.StateAwaitingContent, f.state(chat))
	assert.Len(t, f.transport.texts, before)
	assert.Zero(t, f.pipe.runs)
}

func TestConversationsAreIndependent(t *testing.T) {
	f := newFixture()
	other := int64(99)

	f.handle(chat, bot.Event{Kind: bot.EventStart})
	f.handle(other, bot.Event{Kind: bot.EventStart})
	f.handle(chat, bot.Event{Kind: bot.EventText, Text: "hi ///x///"})

	assert.Equal(t, session.StateAwaitingFormat, f.state(chat))
	assert.Equal(t, session.StateAwaitingContent, f.state(other))
}
