// Package markdown converts standard Markdown (as produced by LLMs) into
// Telegram's legacy Markdown dialect and keeps edited messages parseable.
//
// Telegram legacy Markdown (parse_mode="Markdown") only understands *bold*,
// _italic_, `code`, ```pre``` and [link](url). Headers, double-asterisk bold
// and dash lists have to be rewritten, and stray marker characters escaped,
// or Telegram rejects the message with a parse error.
package markdown

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	codeBlockRe  = regexp.MustCompile("```[\\s\\S]*?```")
	inlineCodeRe = regexp.MustCompile("`[^`\n]+?`")
	linkRe       = regexp.MustCompile(`\[([^\]]+)\]\(([^\)]+)\)`)
	headerRe     = regexp.MustCompile(`(?m)^#{2,4}\s+(.+?)$`)
	doubleStarRe = regexp.MustCompile(`\*\*(.+?)\*\*`)
	listDashRe   = regexp.MustCompile(`(?m)^-\s+`)
)

// Normalize converts standard Markdown text into Telegram legacy Markdown.
//
// Conversions: "## Heading" (2-4 hashes) becomes *Heading*, **text** becomes
// *text*, leading "- " becomes "• ". Code blocks, inline code and links are
// preserved verbatim, and marker characters outside intentional formatting
// spans are backslash-escaped.
func Normalize(text string) string {
	if text == "" {
		return text
	}

	text = headerRe.ReplaceAllStringFunc(text, func(m string) string {
		header := headerRe.FindStringSubmatch(m)[1]
		// A header containing **bold** segments would otherwise end up with
		// nested asterisks after wrapping, which Telegram cannot parse.
		header = doubleStarRe.ReplaceAllString(header, "$1")
		return "*" + header + "*"
	})

	text = doubleStarRe.ReplaceAllString(text, "*$1*")
	text = listDashRe.ReplaceAllString(text, "• ")

	return Escape(text)
}

// Escape backslash-escapes _ * ` [ ] characters that are not part of
// intentional formatting, so Telegram's legacy Markdown parser does not
// choke on literal markers. Code blocks, inline code and links are kept
// untouched.
func Escape(text string) string {
	if text == "" {
		return text
	}

	var placeholders []placeholder
	protect := func(re *regexp.Regexp, s string) string {
		return re.ReplaceAllStringFunc(s, func(m string) string {
			key := fmt.Sprintf("\x00PLACEHOLDER%d\x00", len(placeholders))
			placeholders = append(placeholders, placeholder{key: key, original: m})
			return key
		})
	}

	text = protect(codeBlockRe, text)
	text = protect(inlineCodeRe, text)
	text = protect(linkRe, text)

	runes := []rune(text)
	italic := findItalicSpans(runes)
	bold := findBoldSpans(runes)

	var b strings.Builder
	b.Grow(len(text))
	for i, r := range runes {
		switch r {
		case '_':
			if inSpan(italic, i) {
				b.WriteRune('_')
			} else {
				b.WriteString(`\_`)
			}
		case '*':
			if inSpan(bold, i) {
				b.WriteRune('*')
			} else {
				b.WriteString(`\*`)
			}
		case '`':
			// Any backtick left at this point is outside protected code.
			b.WriteString("\\`")
		case '[':
			b.WriteString(`\[`)
		case ']':
			b.WriteString(`\]`)
		default:
			b.WriteRune(r)
		}
	}
	text = b.String()

	for i := len(placeholders) - 1; i >= 0; i-- {
		text = strings.ReplaceAll(text, placeholders[i].key, placeholders[i].original)
	}

	return text
}

type placeholder struct {
	key      string
	original string
}

type span struct {
	start int
	end   int
}

func inSpan(spans []span, i int) bool {
	for _, s := range spans {
		if s.start <= i && i < s.end {
			return true
		}
	}
	return false
}

// findItalicSpans locates _text_ spans: the opening underscore must not be
// preceded by a word character, the first inner character must not be
// whitespace or an underscore, and the closing underscore must not be
// followed by a word character. Rune indices, end exclusive.
func findItalicSpans(runes []rune) []span {
	var spans []span
	for i := 0; i < len(runes); i++ {
		if runes[i] != '_' || (i > 0 && isWord(runes[i-1])) {
			continue
		}
		j := i + 1
		if j >= len(runes) || runes[j] == '_' || unicode.IsSpace(runes[j]) {
			continue
		}
		k := j + 1
		for k < len(runes) && runes[k] != '_' {
			k++
		}
		if k >= len(runes) {
			continue
		}
		if k+1 < len(runes) && isWord(runes[k+1]) {
			continue
		}
		spans = append(spans, span{start: i, end: k + 1})
		i = k
	}
	return spans
}

// findBoldSpans locates *text* spans: the opening asterisk must not be
// preceded by another asterisk, the first inner character must not be
// whitespace or an asterisk, and the closing asterisk must not be followed
// by another asterisk.
func findBoldSpans(runes []rune) []span {
	var spans []span
	for i := 0; i < len(runes); i++ {
		if runes[i] != '*' || (i > 0 && runes[i-1] == '*') {
			continue
		}
		j := i + 1
		if j >= len(runes) || runes[j] == '*' || unicode.IsSpace(runes[j]) {
			continue
		}
		k := j + 1
		for k < len(runes) && runes[k] != '*' {
			k++
		}
		if k >= len(runes) {
			continue
		}
		if k+1 < len(runes) && runes[k+1] == '*' {
			continue
		}
		spans = append(spans, span{start: i, end: k + 1})
		i = k
	}
	return spans
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
