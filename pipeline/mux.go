package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// mux combines the rendered video and the synthesized narration into one
// MP4: video stream copied verbatim, audio re-encoded, output trimmed to
// the shorter of the two streams.
func (p *Pipeline) mux(ctx context.Context, videoFile, audioFile, outFile string) error {
	cmd := Command{
		Name: "ffmpeg",
		Args: []string{
			"-y",
			"-i", videoFile,
			"-i", audioFile,
			"-c:v", "copy",
			"-c:a", "aac",
			"-shortest",
			outFile,
		},
	}

	res, err := p.runner.Run(ctx, cmd)
	if err != nil {
		if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
			return fmt.Errorf("ffmpeg mux: %w: %s", err, stderr)
		}
		return fmt.Errorf("ffmpeg mux: %w", err)
	}

	// ffmpeg exiting 0 without writing the file still counts as failure.
	if _, err := os.Stat(outFile); err != nil {
		return fmt.Errorf("ffmpeg finished but %s was not created", outFile)
	}
	return nil
}
