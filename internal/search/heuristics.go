package search

import "strings"

var searchKeywords = []string{
	// english
	"weather", "news", "latest", "current", "today", "price",
	"exchange rate", "stock", "score", "schedule", "release date",
	"who won", "when is", "how much is",
	// russian
	"погода", "новости", "сегодня", "сейчас", "курс", "цена",
	"последние", "актуальн", "свежи", "расписание", "кто выиграл",
	"когда выйдет", "сколько стоит",
}

var dateKeywords = []string{
	"today", "date", "what day", "tomorrow", "yesterday",
	"this week", "this month", "this year",
	"сегодня", "дата", "какой день", "какое число", "завтра", "вчера",
	"на этой неделе", "в этом месяце", "в этом году",
}

// NeedsSearch reports whether a prompt looks like it wants fresh data from
// the web rather than the model's own knowledge.
func NeedsSearch(prompt string) bool {
	lower := strings.ToLower(prompt)
	for _, kw := range searchKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// NeedsDate reports whether a prompt references the current date, so the
// model should be told what day it is.
func NeedsDate(prompt string) bool {
	lower := strings.ToLower(prompt)
	for _, kw := range dateKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
