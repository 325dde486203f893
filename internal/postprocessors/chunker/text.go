package chunker

import (
	"strings"
	"unicode"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// languageSampleSize is the number of leading characters inspected by DetectLanguage.
const languageSampleSize = 1000

var (
	frenchStopWords  = []string{"le", "de", "et", "à", "un", "il", "être", "avoir", "que", "pour"}
	englishStopWords = []string{"the", "be", "to", "of", "and", "a", "in", "that", "have", "it"}
)

// Clean normalises text for chunking. Line endings are unified, control
// characters removed, whitespace runs inside a paragraph collapsed to a
// single space, and runs of blank lines reduced to one paragraph break.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)

	var paras []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			paras = append(paras, strings.Join(current, " "))
			current = current[:0]
		}
	}

	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			flush()
			continue
		}
		current = append(current, strings.Join(fields, " "))
	}
	flush()

	return strings.Join(paras, "\n\n")
}

// DetectLanguage guesses French or English from stop-word presence in the
// first characters of text. French wins only on a strictly higher score.
func DetectLanguage(text string) domain.Language {
	sample := text
	if r := []rune(text); len(r) > languageSampleSize {
		sample = string(r[:languageSampleSize])
	}
	sample = strings.ToLower(sample)

	score := func(words []string) int {
		n := 0
		for _, w := range words {
			if strings.Contains(sample, " "+w+" ") {
				n++
			}
		}
		return n
	}

	if score(frenchStopWords) > score(englishStopWords) {
		return domain.LanguageFrench
	}
	return domain.LanguageEnglish
}

// paragraphs splits cleaned text on its paragraph breaks.
func paragraphs(runes []rune) []span {
	var out []span
	start := 0
	for i := 0; i+1 < len(runes); i++ {
		if runes[i] == '\n' && runes[i+1] == '\n' {
			if i > start {
				out = append(out, span{start, i})
			}
			start = i + 2
			i++
		}
	}
	if start < len(runes) {
		out = append(out, span{start, len(runes)})
	}
	return out
}

// sentences splits the unit u after each terminator followed by whitespace.
// The terminator stays with its sentence.
func sentences(runes []rune, u span, lang domain.Language) []span {
	terminators := ".!?"
	if lang == domain.LanguageFrench {
		terminators = ".!?;"
	}

	var out []span
	start := u.start
	for i := u.start; i < u.end-1; i++ {
		if !strings.ContainsRune(terminators, runes[i]) || !isSpace(runes[i+1]) {
			continue
		}
		out = append(out, span{start, i + 1})
		j := i + 1
		for j < u.end && isSpace(runes[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	if start < u.end {
		out = append(out, span{start, u.end})
	}
	return out
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r)
}
