package pipeline

import (
	"log"
	"os"
)

// Cleanup removes everything a run left on disk: the run's own temp
// directory and the shared scratch directory the renderer writes into.
// Idempotent and safe to call with a nil run, so every exit path (success,
// pipeline failure, cancel) can call it unconditionally.
func (p *Pipeline) Cleanup(run *Run) {
	if run != nil && run.Dir != "" {
		if err := os.RemoveAll(run.Dir); err != nil {
			log.Printf("[cleanup] Warning: could not remove run dir %s: %v", run.Dir, err)
		} else {
			log.Printf("[cleanup] Removed run dir %s", run.Dir)
		}
	}

	if p.cfg.Render.MediaDir != "" {
		if err := os.RemoveAll(p.cfg.Render.MediaDir); err != nil {
			log.Printf("[cleanup] Warning: could not remove renderer scratch dir %s: %v", p.cfg.Render.MediaDir, err)
		}
	}
}
