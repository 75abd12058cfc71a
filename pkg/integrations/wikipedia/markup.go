package wikipedia

import (
	"html/template"
	"strings"

	"golang.org/x/net/html"
)

// searchMatchClass marks the words of a search excerpt that matched the keyword.
const searchMatchClass = "searchmatch"

// Segment is a run of snippet text. Match is set for text inside a
// search-match span.
type Segment struct {
	Text  string
	Match bool
}

// Segments splits snippet markup into plain-text runs, flagging the runs that
// the API highlighted as search matches. Tags other than the match spans are
// dropped; entities are decoded. Adjacent runs with the same flag are merged.
func Segments(markup template.HTML) []Segment {
	z := html.NewTokenizer(strings.NewReader(string(markup)))

	var (
		segs  []Segment
		stack []bool // per open span: is it a match span
		depth int    // open match spans
	)
	emit := func(text string, match bool) {
		if text == "" {
			return
		}
		if n := len(segs); n > 0 && segs[n-1].Match == match {
			segs[n-1].Text += text
			return
		}
		segs = append(segs, Segment{Text: text, Match: match})
	}

	for {
		switch z.Next() {
		case html.ErrorToken:
			return segs
		case html.TextToken:
			emit(string(z.Text()), depth > 0)
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "span" {
				continue
			}
			match := hasAttr && isSearchMatch(z)
			stack = append(stack, match)
			if match {
				depth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) != "span" || len(stack) == 0 {
				continue
			}
			if stack[len(stack)-1] {
				depth--
			}
			stack = stack[:len(stack)-1]
		}
	}
}

// PlainText returns snippet markup with all tags removed and entities decoded.
func PlainText(markup template.HTML) string {
	var b strings.Builder
	for _, s := range Segments(markup) {
		b.WriteString(s.Text)
	}
	return b.String()
}

func isSearchMatch(z *html.Tokenizer) bool {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "class" {
			for _, c := range strings.Fields(string(val)) {
				if c == searchMatchClass {
					return true
				}
			}
		}
		if !more {
			return false
		}
	}
}
