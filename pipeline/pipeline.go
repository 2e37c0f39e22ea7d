package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"codecast-bot/config"
	"codecast-bot/types"
)

// Run owns the artifacts of one generation attempt. Every run gets a fresh
// uuid-named directory, so two runs can never collide on disk.
type Run struct {
	ID               string
	Dir              string
	AudioPath        string
	VideoPath        string
	AudioDurationSec float64
}

// Pipeline produces one narrated video per request: speech synthesis, the
// external renderer, output discovery, then the ffmpeg mux. Steps are
// strictly sequential and the first failure aborts the run.
type Pipeline struct {
	cfg    *config.Config
	synth  Synthesizer
	runner Runner
}

// New creates a new Pipeline
func New(cfg *config.Config, synth Synthesizer, runner Runner) *Pipeline {
	return &Pipeline{cfg: cfg, synth: synth, runner: runner}
}

// Run executes the full pipeline. The returned Run is non-nil whenever a
// temp directory was created, even on failure, so the caller can always
// hand it to Cleanup.
func (p *Pipeline) Run(ctx context.Context, content types.ParsedContent, format types.OutputFormat) (*Run, error) {
	run, err := p.newRun()
	if err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}
	log.Printf("[pipeline] Run %s started (%s)", run.ID, format)

	// Step 1: speech synthesis
	if err := p.synth.Synthesize(ctx, content.Narration, run.AudioPath); err != nil {
		return run, fmt.Errorf("speech synthesis: %w", err)
	}
	dur, err := p.audioDuration(ctx, run.AudioPath)
	if err != nil {
		return run, fmt.Errorf("measure audio duration: %w", err)
	}
	run.AudioDurationSec = dur
	log.Printf("[pipeline] Run %s: audio ready (%.2fs)", run.ID, dur)

	// Step 2: render subprocess
	if err := p.render(ctx, content, format, dur); err != nil {
		return run, err
	}

	// Step 3: output discovery
	rendered, err := p.findRenderOutput(format)
	if err != nil {
		return run, err
	}
	log.Printf("[pipeline] Run %s: renderer output %s", run.ID, rendered)

	// Step 4: mux
	if err := p.mux(ctx, rendered, run.AudioPath, run.VideoPath); err != nil {
		return run, err
	}

	log.Printf("[pipeline] ✅ Run %s: final video %s", run.ID, run.VideoPath)
	return run, nil
}

func (p *Pipeline) newRun() (*Run, error) {
	id := uuid.NewString()
	dir := filepath.Join(p.cfg.Paths.Videos, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Run{
		ID:        id,
		Dir:       dir,
		AudioPath: filepath.Join(dir, "audio.mp3"),
		VideoPath: filepath.Join(dir, "final_video.mp4"),
	}, nil
}

// audioDuration asks ffprobe for the exact length of the synthesized audio.
func (p *Pipeline) audioDuration(ctx context.Context, audioFile string) (float64, error) {
	res, err := p.runner.Run(ctx, Command{
		Name: "ffprobe",
		Args: []string{
			"-v", "error",
			"-show_entries", "format=duration",
			"-of", "default=noprint_wrappers=1:nokey=1",
			audioFile,
		},
	})
	if err != nil {
		return 0, err
	}
	var dur float64
	if _, err := fmt.Sscanf(strings.TrimSpace(res.Stdout), "%f", &dur); err != nil {
		return 0, fmt.Errorf("parse ffprobe output %q: %w", res.Stdout, err)
	}
	return dur, nil
}
