package markdown

var closeOrder = []rune{'*', '_', '`'}

// TruncateSafely cuts text down so that the result, with "\n\n"+indicator
// appended, never exceeds maxLength runes and never leaves an odd count of
// *, _ or ` markers. An odd marker count would leak formatting into every
// subsequent edit of the message.
func TruncateSafely(text string, maxLength int, indicator string) string {
	suffix := "\n\n" + indicator
	available := maxLength - len([]rune(suffix))
	if available <= 0 {
		return indicator
	}

	runes := []rune(text)
	if len(runes) <= available {
		return text + suffix
	}

	cut := runes[:available]
	closers := unclosedMarkers(cut)
	// Closing markers share the budget with the cut text, so shrink the cut
	// until both fit within available.
	for len(cut) > 0 && len(cut)+len(closers) > available {
		cut = cut[:len(cut)-1]
		closers = unclosedMarkers(cut)
	}

	return string(cut) + string(closers) + suffix
}

func unclosedMarkers(runes []rune) []rune {
	var closers []rune
	for _, marker := range closeOrder {
		count := 0
		for _, r := range runes {
			if r == marker {
				count++
			}
		}
		if count%2 == 1 {
			closers = append(closers, marker)
		}
	}
	return closers
}

// SplitMessage slices text into chunks of at most maxLength runes each.
// Cuts are hard character boundaries with no word or markdown awareness.
// The chunks concatenated in order reproduce text exactly. Empty input
// yields a single empty chunk.
func SplitMessage(text string, maxLength int) []string {
	runes := []rune(text)
	if maxLength <= 0 || len(runes) <= maxLength {
		return []string{text}
	}

	var chunks []string
	for len(runes) > 0 {
		n := min(maxLength, len(runes))
		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}
	return chunks
}
