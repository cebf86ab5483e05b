package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/muratoffalex/telechat/internal/config"
	"github.com/muratoffalex/telechat/internal/logger"
)

func TestModelSelector(t *testing.T) {
	selector := NewModelSelector(ModelMistralSmall, logger.NewTestLogger())

	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{
			name:   "simple question",
			prompt: "What is the capital of France?",
			want:   ModelMistralSmall,
		},
		{
			name:   "code block",
			prompt: "What does this do?\n```\nprint('hi')\n```",
			want:   ModelCodestral,
		},
		{
			name:   "python function definition",
			prompt: "def main(): pass, is this valid?",
			want:   ModelCodestral,
		},
		{
			name:   "code keyword english",
			prompt: "Please write some code to sort a list",
			want:   ModelCodestral,
		},
		{
			name:   "debug keyword",
			prompt: "Help me debug this thing",
			want:   ModelCodestral,
		},
		{
			name:   "language name",
			prompt: "How do I install Python on Windows?",
			want:   ModelCodestral,
		},
		{
			name:   "cpp mention",
			prompt: "Explain pointers in C++ please",
			want:   ModelCodestral,
		},
		{
			name:   "code keyword russian",
			prompt: "Напиши код для сортировки списка",
			want:   ModelCodestral,
		},
		{
			name:   "complex analysis request",
			prompt: "Analyze the economic impact of renewable energy",
			want:   ModelMistralLarge,
		},
		{
			name:   "step by step",
			prompt: "Walk me through this step by step",
			want:   ModelMistralLarge,
		},
		{
			name:   "complex russian",
			prompt: "Сделай подробный обзор истории Рима",
			want:   ModelMistralLarge,
		},
		{
			name:   "many questions",
			prompt: "Who? What? Where? When?",
			want:   ModelMistralLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, selector.Select(tt.prompt, 0))
		})
	}
}

func TestModelSelectorLongPrompt(t *testing.T) {
	selector := NewModelSelector(ModelMistralSmall, logger.NewTestLogger())

	prompt := strings.Repeat("word ", 250)
	assert.Equal(t, ModelMistralLarge, selector.Select(prompt, 0))
}

func TestModelSelectorLongConversation(t *testing.T) {
	selector := NewModelSelector(ModelMistralSmall, logger.NewTestLogger())

	assert.Equal(t, ModelMistralLarge, selector.Select("short question", 25000))
	assert.Equal(t, ModelMistralSmall, selector.Select("short question", 100))
}

func TestModelSelectorDefaultFallback(t *testing.T) {
	selector := NewModelSelector("", logger.NewTestLogger())
	assert.Equal(t, ModelMistralSmall, selector.Select("hello", 0))
}

func testGroqConfig() config.GroqConfig {
	return config.GroqConfig{
		Enabled:    true,
		APIKey:     "test-key",
		Model:      "llama-3.1-8b-instant",
		LargeModel: "llama-3.3-70b-versatile",
		CodeModel:  "llama-3.3-70b-versatile",
	}
}

func TestGroqModelMapping(t *testing.T) {
	client := &GroqClient{cfg: testGroqConfig()}

	assert.Equal(t, "llama-3.3-70b-versatile", client.mapModel(ModelCodestral))
	assert.Equal(t, "llama-3.3-70b-versatile", client.mapModel(ModelMistralLarge))
	assert.Equal(t, "llama-3.1-8b-instant", client.mapModel(ModelMistralSmall))
	assert.Equal(t, "llama-3.1-8b-instant", client.mapModel(ModelPixtral))
	assert.Equal(t, "llama-3.1-70b", client.mapModel("llama-3.1-70b"))
}
