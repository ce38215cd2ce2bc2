package extract

import (
	"bytes"
	"errors"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrAnswerNotFound is returned when the page announces fewer answers than
// the requested part. The puzzle exists but that part is unsolved.
var ErrAnswerNotFound = errors.New("answer not found")

// announcement is the text immediately preceding an answer's <code> element.
const announcement = "Your puzzle answer was"

// Answers returns every announced answer in document order.
// Unparseable input yields no answers.
func Answers(page []byte) []string {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil
	}

	answers := make([]string, 0, 2)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if answer, ok := announced(n); ok {
			answers = append(answers, answer)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return answers
}

// Answer returns the answer for part (1-based), or ErrAnswerNotFound.
func Answer(page []byte, part int) (string, error) {
	answers := Answers(page)
	if part < 1 || part > len(answers) {
		return "", ErrAnswerNotFound
	}
	return answers[part-1], nil
}

// announced reports whether n is the <code> element of an announcement and
// returns its text.
func announced(n *html.Node) (string, bool) {
	if n.Type != html.ElementNode || n.DataAtom != atom.Code {
		return "", false
	}

	prev := n.PrevSibling
	if prev == nil || prev.Type != html.TextNode {
		return "", false
	}
	if !strings.HasSuffix(strings.TrimRight(prev.Data, " "), announcement) {
		return "", false
	}

	// The answer must be plain text: markup inside <code> is not an answer.
	child := n.FirstChild
	if child == nil || child.Type != html.TextNode || child.NextSibling != nil || child.Data == "" {
		return "", false
	}
	return child.Data, true
}
