package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/telechat/internal/ai"
	"github.com/muratoffalex/telechat/internal/config"
	"github.com/muratoffalex/telechat/internal/search"
)

func dateMessage(messages []ai.Message) (ai.Message, bool) {
	for _, m := range messages {
		if m.Role == ai.RoleSystem && strings.HasPrefix(m.Content, "Today is ") {
			return m, true
		}
	}
	return ai.Message{}, false
}

func TestBuildRequestAlwaysAppendsDate(t *testing.T) {
	cmd, _ := newTestCommand(t, &scriptedProvider{}, map[string]any{
		config.MISTRAL_ALWAYS_APPEND_DATE: true,
	})
	cmd.now = func() time.Time { return time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC) }

	req, err := cmd.buildRequest(context.Background(), 1, "hello", search.Result{})
	require.NoError(t, err)

	msg, found := dateMessage(req.Messages)
	require.True(t, found)
	assert.Equal(t, "Today is Saturday, 14 March 2026.", msg.Content)
}

func TestBuildRequestRuntimeToggleDisablesDate(t *testing.T) {
	cmd, _ := newTestCommand(t, &scriptedProvider{}, map[string]any{
		config.MISTRAL_ALWAYS_APPEND_DATE: true,
	})
	require.NoError(t, cmd.access.List().SetAlwaysAppendDateEnabled(false))

	req, err := cmd.buildRequest(context.Background(), 1, "hello", search.Result{})
	require.NoError(t, err)

	_, found := dateMessage(req.Messages)
	assert.False(t, found)
}

func TestBuildRequestDateKeywordOverridesConfig(t *testing.T) {
	cmd, _ := newTestCommand(t, &scriptedProvider{}, nil)

	req, err := cmd.buildRequest(context.Background(), 1, "what day is it today", search.Result{})
	require.NoError(t, err)

	_, found := dateMessage(req.Messages)
	assert.True(t, found)
}

func TestBuildRequestIncludesSearchContextAndHistory(t *testing.T) {
	cmd, _ := newTestCommand(t, &scriptedProvider{}, nil)
	ctx := context.Background()
	require.NoError(t, cmd.history.Append(ctx, 9, ai.RoleUser, "earlier question"))
	require.NoError(t, cmd.history.Append(ctx, 9, ai.RoleAssistant, "earlier answer"))

	result := search.Result{
		Text: "1. Some page\nsnippet\nSource: https://example.com",
		URLs: []string{"https://example.com"},
	}
	req, err := cmd.buildRequest(ctx, 9, "follow-up", result)
	require.NoError(t, err)

	require.Len(t, req.Messages, 4)
	assert.Equal(t, ai.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, "Relevant web search results:\n\n"+result.Text, req.Messages[0].Content)
	assert.Equal(t, ai.Message{Role: ai.RoleUser, Content: "earlier question"}, req.Messages[1])
	assert.Equal(t, ai.Message{Role: ai.RoleAssistant, Content: "earlier answer"}, req.Messages[2])
	assert.Equal(t, ai.Message{Role: ai.RoleUser, Content: "follow-up"}, req.Messages[3])
}

func TestSourcesBlockDedupes(t *testing.T) {
	cmd, _ := newTestCommand(t, &scriptedProvider{}, nil)

	block := cmd.sourcesBlock([]string{
		"https://a.example",
		"",
		"https://b.example",
		"https://a.example",
	})

	assert.Equal(t, "\n\nSources:\nhttps://a.example\nhttps://b.example", block)
	assert.Empty(t, cmd.sourcesBlock(nil))
}
