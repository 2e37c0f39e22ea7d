package types

import "fmt"

// ParsedContent holds the structured fields extracted from one user message.
// Narration and Code are mandatory for a generation request; captions are
// optional overlays.
type ParsedContent struct {
	Narration     string `json:"narration"`
	Code          string `json:"code"`
	TopCaption    string `json:"top_caption"`
	BottomCaption string `json:"bottom_caption"`
}

// OutputFormat selects the final video orientation.
type OutputFormat int

const (
	FormatVertical OutputFormat = iota // 9:16 shorts
	FormatWide                         // 16:9 widescreen
)

// Resolution returns the pixel dimensions for the format.
func (f OutputFormat) Resolution() (width, height int) {
	if f == FormatVertical {
		return 1080, 1920
	}
	return 1920, 1080
}

func (f OutputFormat) String() string {
	if f == FormatVertical {
		return "9:16"
	}
	return "16:9"
}

// ResolutionString is the WIDTHxHEIGHT form passed to the renderer.
func (f OutputFormat) ResolutionString() string {
	w, h := f.Resolution()
	return fmt.Sprintf("%dx%d", w, h)
}
