package ai

import (
	"regexp"
	"strings"

	"github.com/muratoffalex/telechat/internal/logger"
)

// Average tokens produced per word by common tokenizers.
const tokenEstimationMultiplier = 1.3

const (
	ModelMistralSmall = "mistral-small-latest"
	ModelCodestral    = "codestral-latest"
	ModelPixtral      = "pixtral-12b-latest"
	ModelMistralLarge = "mistral-large-latest"
)

// strongCodePatterns match actual code syntax rather than talk about code.
var strongCodePatterns = []*regexp.Regexp{
	regexp.MustCompile("```"),
	regexp.MustCompile(`\bdef\s+\w+\(`),
	regexp.MustCompile(`\bfunction\s+\w+\(`),
	regexp.MustCompile(`\bclass\s+\w+\s*[{:]`),
	regexp.MustCompile(`[{}\[\]];.*[{}\[\]]`),
}

var codeKeywordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bwrite.*code\b`),
	regexp.MustCompile(`\bwrite.*function\b`),
	regexp.MustCompile(`\bwrite.*class\b`),
	regexp.MustCompile(`\bfix.*code\b`),
	regexp.MustCompile(`\bfix.*bug\b`),
	regexp.MustCompile(`\bdebug\b`),
	regexp.MustCompile(`\brefactor\b`),
	regexp.MustCompile(`\bprogramming\b`),
	regexp.MustCompile(`\bcompile\b`),
	regexp.MustCompile(`\bsyntax error\b`),
	regexp.MustCompile(`\bpython\b`),
	regexp.MustCompile(`\bjavascript\b`),
	regexp.MustCompile(`\btypescript\b`),
	regexp.MustCompile(`\bjava\b`),
	regexp.MustCompile(`(^|\W)c\+\+(\W|$)`),
	regexp.MustCompile(`(^|\W)c#(\W|$)`),
	regexp.MustCompile(`\brust\b.*\b(lang|code|program)`),
	regexp.MustCompile(`\bgo\b.*\b(lang|code|program)`),
	regexp.MustCompile(`напиши.*код`),
	regexp.MustCompile(`напиши.*функци`),
	regexp.MustCompile(`исправ.*код`),
	regexp.MustCompile(`исправ.*ошибк.*программ`),
	regexp.MustCompile(`отладк`),
	regexp.MustCompile(`компил`),
}

var complexityIndicators = []string{
	"step by step",
	"explain why",
	"analyze",
	"compare",
	"evaluate",
	"reasoning",
	"логика",
	"анализ",
	"сравни",
	"оцени",
	"рассужд",
	"почему",
	"write an essay",
	"detailed explanation",
	"comprehensive",
	"in-depth",
	"напиши статью",
	"подробн",
	"детальн",
	"всесторон",
	"plan",
	"strategy",
	"design",
	"architecture",
	"solution",
	"план",
	"стратеги",
	"дизайн",
	"архитектур",
	"решение",
}

// ModelSelector picks a Mistral model based on what the prompt looks like:
// code goes to Codestral, complex or long requests to the large model,
// everything else to the configured default.
type ModelSelector struct {
	defaultModel string
	logger       logger.Logger
}

func NewModelSelector(defaultModel string, log logger.Logger) *ModelSelector {
	if defaultModel == "" {
		defaultModel = ModelMistralSmall
	}
	return &ModelSelector{
		defaultModel: defaultModel,
		logger:       log,
	}
}

// Select returns a model name for prompt. conversationLength is the rough
// token count of the conversation history already attached to the request.
func (s *ModelSelector) Select(prompt string, conversationLength int) string {
	isCode := s.isCodeRequest(prompt)
	isComplex := s.isComplexRequest(prompt)
	totalContext := float64(len(strings.Fields(prompt)))*tokenEstimationMultiplier + float64(conversationLength)

	switch {
	case isCode:
		s.logger.WithField("model", ModelCodestral).Debug("Selected code model")
		return ModelCodestral
	case isComplex || totalContext > 20000:
		s.logger.WithFields(logger.Fields{
			"model":   ModelMistralLarge,
			"complex": isComplex,
			"context": int(totalContext),
		}).Debug("Selected large model")
		return ModelMistralLarge
	default:
		return s.defaultModel
	}
}

func (s *ModelSelector) isCodeRequest(prompt string) bool {
	for _, pattern := range strongCodePatterns {
		if pattern.MatchString(prompt) {
			return true
		}
	}

	lower := strings.ToLower(prompt)
	for _, pattern := range codeKeywordPatterns {
		if pattern.MatchString(lower) {
			return true
		}
	}

	return false
}

func (s *ModelSelector) isComplexRequest(prompt string) bool {
	lower := strings.ToLower(prompt)
	for _, indicator := range complexityIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}

	if len(strings.Fields(prompt)) > 200 {
		return true
	}

	return strings.Count(prompt, "?") >= 3
}
