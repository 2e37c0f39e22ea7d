package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"codecast-bot/parser"
)

func TestExtractAllRegions(t *testing.T) {
	got := parser.Extract("!!!Title!!! Hello world ///print(1)///")

	assert.Equal(t, "Title", got.TopCaption)
	assert.Equal(t, "Hello world", got.Narration)
	assert.Equal(t, "print(1)", got.Code)
	assert.Equal(t, "", got.BottomCaption)
}

func TestExtractOrderIndependent(t *testing.T) {
	inputs := []string{
		"!!!Top!!! narration here @@Bottom@@ ///x = 1///",
		"///x = 1/// @@Bottom@@ narration here !!!Top!!!",
		"@@Bottom@@ !!!Top!!! ///x = 1/// narration here",
	}

	for _, in := range inputs {
		got := parser.Extract(in)
		assert.Equal(t, "Top", got.TopCaption, "input: %s", in)
		assert.Equal(t, "Bottom", got.BottomCaption, "input: %s", in)
		assert.Equal(t, "x = 1", got.Code, "input: %s", in)
		assert.Equal(t, "narration here", got.Narration, "input: %s", in)
	}
}

func TestExtractLanguageTag(t *testing.T) {
	got := parser.Extract("say this ///python\nfor i in range(3):\n    print(i)\n///")

	assert.Equal(t, "for i in range(3):\n    print(i)", got.Code)
	assert.Equal(t, "say this", got.Narration)
}

func TestExtractMultilineCaption(t *testing.T) {
	got := parser.Extract("!!!Line one\nLine two!!! the narration ///code///")

	assert.Equal(t, "Line one\nLine two", got.TopCaption)
	assert.Equal(t, "the narration", got.Narration)
}

func TestExtractIdempotent(t *testing.T) {
	first := parser.Extract("!!!T!!! some narration @@B@@ ///c()///")
	second := parser.Extract(first.Narration)

	assert.Equal(t, first.Narration, second.Narration)
	assert.Empty(t, second.TopCaption)
	assert.Empty(t, second.BottomCaption)
	assert.Empty(t, second.Code)
}

func TestExtractMissingCode(t *testing.T) {
	got := parser.Extract("just narration, no code block")

	assert.Empty(t, got.Code)
	assert.Equal(t, "just narration, no code block", got.Narration)
}

func TestExtractFirstOccurrenceOnly(t *testing.T) {
	got := parser.Extract("!!!A!!! mid !!!B!!! ///x/// tail")

	assert.Equal(t, "A", got.TopCaption)
	// The second !!!...!!! pair stays in the narration untouched.
	assert.Contains(t, got.Narration, "!!!B!!!")
}
