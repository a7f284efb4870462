// Package sentence cleans extracted transcript text and splits it into
// sentences.
package sentence

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// DefaultMinWords is the shortest fragment Split keeps.
const DefaultMinWords = 3

// bulletGlyph is the private-use bullet PDF exports put in front of speaker names.
const bulletGlyph = "\uf075"

var spaceRun = regexp.MustCompile(`[ \t\x{00A0}]+`)

// Sanitize joins lines, squeezes runs of blanks into one space, and removes
// bullet glyphs. The result is NFC normalized and trimmed.
func Sanitize(text string) string {
	text = norm.NFC.String(text)
	text = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text)
	text = strings.ReplaceAll(text, bulletGlyph+" ", "")
	text = strings.ReplaceAll(text, bulletGlyph, "")
	text = spaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// abbreviations never end a sentence. Keys are lower case without the
// final period.
var abbreviations = map[string]bool{
	// German
	"z.b": true, "d.h": true, "u.a": true, "o.ä": true, "u.u": true, "v.a": true,
	"bzw": true, "ca": true, "dr": true, "prof": true, "nr": true, "vgl": true,
	"usw": true, "etc": true, "evtl": true, "ggf": true, "inkl": true, "bspw": true,
	"sog": true, "hr": true, "fr": true, "abs": true, "jh": true, "mio": true,
	"mrd": true, "max": true, "min": true, "str": true, "s": true, "st": true,
	"dipl": true, "ing": true, "med": true, "rer": true, "nat": true, "zit": true,
	// English
	"e.g": true, "i.e": true, "mr": true, "mrs": true, "ms": true, "vs": true,
	"approx": true, "no": true, "fig": true, "al": true, "jr": true, "sr": true,
}

// Sentences splits text at sentence boundaries without filtering. A boundary
// is a run of terminal punctuation followed by white space and a fragment
// that does not start in lower case. Periods after known abbreviations,
// single letters, and one- or two-digit ordinals do not end a sentence.
func Sentences(text string) []string {
	var out []string
	start := 0
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isTerminal(r) {
			i += size
			continue
		}

		// Consume the whole terminator run and any closing quotes.
		end := i + size
		for end < len(text) {
			r2, s2 := utf8.DecodeRuneInString(text[end:])
			if !isTerminal(r2) && !isCloser(r2) {
				break
			}
			end += s2
		}

		if end < len(text) {
			next, _ := utf8.DecodeRuneInString(text[end:])
			if !unicode.IsSpace(next) {
				i = end
				continue
			}
			if !startsSentence(strings.TrimLeftFunc(text[end:], unicode.IsSpace)) {
				i = end
				continue
			}
		}
		if r == '.' && endsWithAbbreviation(text[start:i]) {
			i = end
			continue
		}

		if s := strings.TrimSpace(text[start:end]); s != "" {
			out = append(out, s)
		}
		start = end
		i = end
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// Split returns the sentences of text that have at least minWords
// space-separated words.
func Split(text string, minWords int) []string {
	var out []string
	for _, s := range Sentences(text) {
		if len(strings.Fields(s)) < minWords {
			continue
		}
		out = append(out, s)
	}
	return out
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '…'
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', '“', '”', '’', '»', '«', ')', ']':
		return true
	}
	return false
}

func startsSentence(rest string) bool {
	r, _ := utf8.DecodeRuneInString(rest)
	return !unicode.IsLower(r)
}

// endsWithAbbreviation reports whether the word right before a period is an
// abbreviation, a single letter, or a short ordinal number.
func endsWithAbbreviation(before string) bool {
	fields := strings.Fields(before)
	if len(fields) == 0 {
		return false
	}
	word := strings.TrimLeftFunc(fields[len(fields)-1], func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if word == "" {
		return false
	}
	if abbreviations[strings.ToLower(word)] {
		return true
	}
	if utf8.RuneCountInString(word) == 1 && unicode.IsLetter([]rune(word)[0]) {
		return true
	}
	if len(word) <= 2 && strings.IndexFunc(word, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		return true
	}
	return false
}
