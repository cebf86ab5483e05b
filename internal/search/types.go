package search

// Result holds web search output ready for prompt injection. Text is the
// numbered result block, URLs are the source links in result order with
// duplicates removed.
type Result struct {
	Text string
	URLs []string
}

func (r Result) Empty() bool {
	return r.Text == ""
}
