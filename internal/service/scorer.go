package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"transquiz/internal/models"
)

const (
	hangulSyllableFirst = '\uAC00' // 가
	hangulSyllableLast  = '\uD7A3' // 힣

	// Conjoining jamo, which compose into syllables under NFC
	hangulJamoFirst = '\u1100'
	hangulJamoLast  = '\u11FF'
)

// keepRune reports whether r survives punctuation stripping: ASCII word
// characters, whitespace and precomposed Hangul syllables.
func keepRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		return true
	case r >= hangulSyllableFirst && r <= hangulSyllableLast:
		return true
	default:
		return isSpace(r)
	}
}

func isHangulJamo(r rune) bool {
	return r >= hangulJamoFirst && r <= hangulJamoLast
}

// isSpace is the whitespace class of a JavaScript \s: Unicode White_Space
// without NEL, plus the byte order mark.
func isSpace(r rune) bool {
	switch r {
	case '\u0085':
		return false
	case '\uFEFF':
		return true
	default:
		return unicode.IsSpace(r)
	}
}

// Tokenize normalizes text into lowercase words with punctuation removed.
// Blank text has no tokens.
func Tokenize(text string) []string {
	// Jamo survive the first pass so NFC can compose them into syllables.
	// Other combining marks are already gone, so "cafe\u0301" stays "cafe".
	kept := filterRunes(text, func(r rune) bool { return keepRune(r) || isHangulJamo(r) })
	kept = filterRunes(norm.NFC.String(kept), keepRune)

	lowered := cases.Lower(language.Und).String(kept)
	return strings.FieldsFunc(lowered, isSpace)
}

func filterRunes(text string, keep func(rune) bool) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if keep(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Score compares a user answer with the reference translation.
//
// Each user word consumes the first unused equal word of the reference, so a
// word repeated in the answer only counts as often as the reference has it.
// The percentage divides by the longer of the two token lists, which
// penalizes answers that are too short and too long alike. Two blank texts
// score 100.
func Score(userAnswer, reference string) models.ScoreResult {
	userTokens := Tokenize(userAnswer)
	refTokens := Tokenize(reference)

	matched := countMatches(userTokens, refTokens)

	return models.ScoreResult{
		SimilarityPercent: similarityPercent(matched, max(len(userTokens), len(refTokens))),
		MatchedWordCount:  matched,
		UserTokens:        annotateTokens(userTokens, refTokens),
	}
}

// Annotate marks each normalized word of the user answer as a match when the
// word occurs anywhere in the reference. Unlike Score it does not track which
// reference words were already used.
func Annotate(userAnswer, reference string) []models.TokenMatch {
	return annotateTokens(Tokenize(userAnswer), Tokenize(reference))
}

func countMatches(userTokens, refTokens []string) int {
	used := make([]bool, len(refTokens))
	matched := 0
	for _, word := range userTokens {
		for i, ref := range refTokens {
			if !used[i] && ref == word {
				used[i] = true
				matched++
				break
			}
		}
	}
	return matched
}

func annotateTokens(userTokens, refTokens []string) []models.TokenMatch {
	present := make(map[string]struct{}, len(refTokens))
	for _, ref := range refTokens {
		present[ref] = struct{}{}
	}

	out := make([]models.TokenMatch, len(userTokens))
	for i, word := range userTokens {
		_, ok := present[word]
		out[i] = models.TokenMatch{Word: word, Match: ok}
	}
	return out
}

// similarityPercent returns round-half-up of matched/total*100
func similarityPercent(matched, total int) int {
	if total == 0 {
		return 100
	}
	return roundedPercent(matched, total)
}

// roundedPercent computes round(num/den*100) with halves rounded up, in
// integer arithmetic. den must be positive.
func roundedPercent(num, den int) int {
	return (200*num + den) / (2 * den)
}
