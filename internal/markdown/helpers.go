package markdown

import "strings"

// Taken from https://core.telegram.org/bots/api#markdownv2-style.
const mdV2SpecialChars = "\\_*[]()~`>#+-=|{}.!"

// EscapeV2 escapes every MarkdownV2 special character so input renders verbatim.
func EscapeV2(input string) string {
	if !strings.ContainsAny(input, mdV2SpecialChars) {
		return input
	}

	var b strings.Builder
	b.Grow(len(input) + len(input)/4)

	for _, r := range input {
		if strings.ContainsRune(mdV2SpecialChars, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}

	return b.String()
}
