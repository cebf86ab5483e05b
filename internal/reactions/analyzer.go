// Package reactions occasionally attaches an emoji reaction to an incoming
// message based on its mood, judged by a small model call.
package reactions

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/muratoffalex/telechat/internal/ai"
	"github.com/muratoffalex/telechat/internal/config"
	"github.com/muratoffalex/telechat/internal/logger"
	"github.com/muratoffalex/telechat/internal/telegram"
)

// runtimeToggle reads the admin-controlled reactions switch. Both the config
// flag and this toggle must be on for a reaction to fire.
type runtimeToggle interface {
	ReactionsEnabled() bool
}

type Analyzer struct {
	cfg      config.ReactionsConfig
	toggle   runtimeToggle
	provider ai.Provider
	client   telegram.Client
	logger   logger.Logger
	randFn   func() float64
}

func NewAnalyzer(cfg config.ReactionsConfig, toggle runtimeToggle, provider ai.Provider, client telegram.Client, log logger.Logger) *Analyzer {
	return &Analyzer{
		cfg:      cfg,
		toggle:   toggle,
		provider: provider,
		client:   client,
		logger:   log,
		randFn:   rand.Float64,
	}
}

// ShouldAnalyze rolls the probability dice for a message. Short messages and
// disabled states never react.
func (a *Analyzer) ShouldAnalyze(text string) bool {
	if !a.cfg.Enabled || !a.toggle.ReactionsEnabled() {
		return false
	}
	if len(strings.Fields(text)) < a.cfg.MinWords {
		return false
	}
	return a.randFn() < a.cfg.Probability
}

// React analyzes the message mood and sets the matching emoji reaction.
// Failures are logged and swallowed, a missed reaction must never affect
// the reply flow.
func (a *Analyzer) React(ctx context.Context, msg *telegram.Message) {
	mood, err := a.analyzeMood(ctx, msg.Text)
	if err != nil {
		a.logger.WithError(err).Debug("Mood analysis failed")
		return
	}

	emoji, ok := a.cfg.Moods[mood]
	if !ok {
		a.logger.WithField("mood", mood).Debug("No emoji for detected mood")
		return
	}

	if err := a.client.SetMessageReaction(msg.Chat.ID, msg.MessageID, emoji); err != nil {
		a.logger.WithError(err).Debug("Failed to set reaction")
		return
	}
	a.logger.WithFields(logger.Fields{
		"mood":  mood,
		"emoji": emoji,
	}).Debug("Reaction set")
}

func (a *Analyzer) analyzeMood(ctx context.Context, text string) (string, error) {
	resp, err := a.provider.Generate(ctx, ai.Request{
		Model: a.cfg.Model,
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: a.cfg.SystemPrompt},
			{Role: ai.RoleUser, Content: text},
		},
		MaxTokens:   10,
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}

	mood := strings.ToLower(strings.TrimSpace(resp.Content))
	// Models sometimes add trailing punctuation to the single word.
	mood = strings.Trim(mood, ".!\"'")
	return mood, nil
}
