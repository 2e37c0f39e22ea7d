package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"codecast-bot/config"
)

// Synthesizer turns narration text into an audio file on disk.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, outFile string) error
}

// OpenAISynthesizer generates speech with the OpenAI audio API.
type OpenAISynthesizer struct {
	client openai.Client
	model  string
	voice  string
}

// NewOpenAISynthesizer builds a synthesizer from OPENAI_API_KEY and the
// configured model/voice.
func NewOpenAISynthesizer(cfg *config.Config) (*OpenAISynthesizer, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	return &OpenAISynthesizer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  cfg.TTS.Model,
		voice:  cfg.TTS.Voice,
	}, nil
}

// Synthesize streams the generated narration audio to outFile.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text, outFile string) error {
	res, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: openai.SpeechModel(s.model),
		Voice: openai.AudioSpeechNewParamsVoice(s.voice),
		Input: text,
	})
	if err != nil {
		return fmt.Errorf("speech request: %w", err)
	}
	defer res.Body.Close()

	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("create audio file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, res.Body); err != nil {
		return fmt.Errorf("write audio file: %w", err)
	}
	return nil
}
