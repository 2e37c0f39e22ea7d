package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"codecast-bot/types"
)

// render spawns the external animation renderer. All parameters travel via
// the process environment; the audio duration is included so the scene's
// final hold covers the whole narration.
func (p *Pipeline) render(ctx context.Context, content types.ParsedContent, format types.OutputFormat, audioDurationSec float64) error {
	cmd := Command{
		Name: p.cfg.Render.PythonBin,
		Args: []string{"-m", "manim", p.cfg.Render.SceneFile, p.cfg.Render.SceneName},
		Env: map[string]string{
			"CODE_TEXT":      content.Code,
			"TOP_TEXT":       content.TopCaption,
			"BOTTOM_TEXT":    content.BottomCaption,
			"RESOLUTION":     format.ResolutionString(),
			"AUDIO_DURATION": strconv.FormatFloat(audioDurationSec, 'f', 2, 64),
		},
	}

	res, err := p.runner.Run(ctx, cmd)
	if err != nil {
		if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
			return fmt.Errorf("renderer: %w: %s", err, stderr)
		}
		return fmt.Errorf("renderer: %w", err)
	}
	return nil
}

// findRenderOutput locates the newest video the renderer produced. The
// renderer picks its own subdirectory named by height and frame rate
// (e.g. 1920p30), so the search root is built from config rather than
// assumed.
func (p *Pipeline) findRenderOutput(format types.OutputFormat) (string, error) {
	_, height := format.Resolution()
	stem := strings.TrimSuffix(p.cfg.Render.SceneFile, filepath.Ext(p.cfg.Render.SceneFile))
	searchDir := filepath.Join(
		p.cfg.Render.MediaDir,
		"videos",
		stem,
		fmt.Sprintf("%dp%d", height, p.cfg.Render.FPS),
	)

	var newest string
	var newestMod time.Time
	_ = filepath.WalkDir(searchDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".mp4") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = path
			newestMod = info.ModTime()
		}
		return nil
	})

	if newest == "" {
		return "", fmt.Errorf("renderer produced no output under %s", searchDir)
	}
	return newest, nil
}
