package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// abbreviations that end in a period without ending the sentence. Common in
// legal text: "No. 12", "Sec. 4", "Smith v. Jones", "Acme Inc. shall".
var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"jr": true, "sr": true, "st": true,
	"inc": true, "ltd": true, "co": true, "corp": true, "llc": true, "plc": true,
	"no": true, "nos": true, "sec": true, "secs": true, "art": true, "arts": true,
	"para": true, "paras": true, "cl": true, "ch": true, "pt": true, "vol": true,
	"v": true, "vs": true, "cf": true, "etc": true, "e.g": true, "i.e": true,
	"u.s": true, "u.k": true, "u.s.c": true, "fed": true, "supp": true,
	"cir": true, "ct": true, "app": true, "rev": true, "stat": true,
	"jan": true, "feb": true, "mar": true, "apr": true, "jun": true, "jul": true,
	"aug": true, "sept": true, "oct": true, "nov": true, "dec": true,
}

// SplitSentences splits whitespace-normalized text on sentence boundaries.
// Joining the result with single spaces reproduces the input exactly.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r != '.' && r != '!' && r != '?' {
			i += size
			continue
		}
		end := i + size
		// Ellipsis and runs of terminators end on the last one.
		for end < len(text) && strings.ContainsRune(".!?", rune(text[end])) {
			end++
		}
		for end < len(text) {
			c, csize := utf8.DecodeRuneInString(text[end:])
			if !isCloser(c) {
				break
			}
			end += csize
		}
		if end+1 < len(text) && text[end] == ' ' {
			next, _ := utf8.DecodeRuneInString(text[end+1:])
			if isSentenceStart(next) && !(r == '.' && endsWithAbbreviation(text[start:i])) {
				sentences = append(sentences, text[start:end])
				start = end + 1
			}
		}
		i = end
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’':
		return true
	}
	return false
}

func isSentenceStart(r rune) bool {
	if unicode.IsUpper(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case '"', '\'', '(', '[', '“', '‘', '§':
		return true
	}
	return false
}

// endsWithAbbreviation reports whether the word immediately before a period
// is a known abbreviation or a single-letter initial.
func endsWithAbbreviation(before string) bool {
	idx := strings.LastIndexByte(before, ' ')
	word := before[idx+1:]
	word = strings.TrimLeft(word, "(\"'[“‘")
	if word == "" {
		return false
	}
	if utf8.RuneCountInString(word) == 1 {
		r, _ := utf8.DecodeRuneInString(word)
		return unicode.IsLetter(r)
	}
	return abbreviations[strings.ToLower(word)]
}
