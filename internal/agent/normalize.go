package agent

import "strings"

// quoteRunes are the leading/trailing quote characters stripped from oracle
// output, covering straight and curly variants.
const quoteRunes = `"'` + "“”‘’"

// Normalize cleans raw oracle output before it is posted: strips a leading
// "Name:" self-attribution (case-insensitive), then one layer of matching
// quotes if both ends are quote characters, then trims whitespace. Applying
// it to already-normalized text is a no-op.
func Normalize(name, text string) string {
	text = strings.TrimSpace(text)

	prefix := name + ":"
	if len(text) >= len(prefix) && strings.EqualFold(text[:len(prefix)], prefix) {
		text = strings.TrimSpace(text[len(prefix):])
	}

	runes := []rune(text)
	if len(runes) > 1 && isQuote(runes[0]) && isQuote(runes[len(runes)-1]) {
		text = strings.TrimSpace(string(runes[1 : len(runes)-1]))
	}

	return text
}

func isQuote(r rune) bool {
	return strings.ContainsRune(quoteRunes, r)
}
