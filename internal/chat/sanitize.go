package chat

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// maxEchoWords is the longest phrase checked for immediate repetition.
const maxEchoWords = 7

var (
	strictPolicy = bluemonday.StrictPolicy()
	spaceRunRe   = regexp.MustCompile(`[ \t]{2,}`)
)

// SanitizeUserText strips markup from a client message. Entities escaped by
// the policy are decoded again so the model sees plain text.
func SanitizeUserText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// SanitizeAssistantText cleans model and router output: repeated words and
// short phrase echoes are collapsed, as are punctuation and space runs.
func SanitizeAssistantText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		words := collapseEchoes(strings.Fields(line))
		lines[i] = strings.Join(words, " ")
	}
	s = strings.Join(lines, "\n")
	s = collapsePunctuation(s)
	s = spaceRunRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// collapseEchoes removes a phrase of up to maxEchoWords words that is
// immediately repeated, longest phrases first.
func collapseEchoes(words []string) []string {
	for n := maxEchoWords; n >= 1; n-- {
		i := 0
		for i+2*n <= len(words) {
			if samePhrase(words[i:i+n], words[i+n:i+2*n]) {
				words = append(words[:i+n], words[i+2*n:]...)
				continue
			}
			i++
		}
	}
	return words
}

func samePhrase(a, b []string) bool {
	for i := range a {
		if !hasLetter(a[i]) || !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

func collapsePunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		if r == prev && strings.ContainsRune("!?.,;:", r) {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}
