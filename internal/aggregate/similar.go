package aggregate

import (
	"regexp"
	"strings"
	"unicode"
)

// numberRe matches amounts, percentages, counts and date parts.
var numberRe = regexp.MustCompile(`\d+(?:,\d{3})*(?:\.\d+)?`)

// normalize lowercases, drops punctuation that does not change meaning and
// collapses whitespace. Digits, '$', '%' and '.' inside numbers survive so
// amounts still differ after normalization.
func normalize(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	prevSpace := true
	runes := []rune(strings.ToLower(s))
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '$' || r == '%' || r == '€' || r == '£':
			sb.WriteRune(r)
			prevSpace = false
		case (r == '.' || r == ',') && i > 0 && i+1 < len(runes) && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]):
			if r == '.' {
				sb.WriteRune(r)
			}
		default:
			if !prevSpace {
				sb.WriteByte(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

// numericSignature is the ordered list of numbers in s with thousands
// separators removed, e.g. "$50,000 within 30 days" -> "50000|30".
func numericSignature(s string) string {
	nums := numberRe.FindAllString(s, -1)
	for i, n := range nums {
		nums[i] = strings.ReplaceAll(n, ",", "")
	}
	return strings.Join(nums, "|")
}

// mask replaces every number in a normalized string with '#'.
func mask(norm string) string {
	return numberRe.ReplaceAllString(norm, "#")
}

// levenshteinDistance is the rune-level edit distance, two rows at a time.
func levenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// similarity is 1 - distance/maxLen, in [0, 1].
func similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := max(la, lb)
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshteinDistance(a, b))/float64(longest)
}

// jaccard is the word-set overlap of two normalized strings. It is a cheap
// prefilter before the quadratic edit distance.
func jaccard(a, b string) float64 {
	wa, wb := strings.Fields(a), strings.Fields(b)
	if len(wa) == 0 && len(wb) == 0 {
		return 1
	}
	set := make(map[string]bool, len(wa))
	for _, w := range wa {
		set[w] = true
	}
	inter := 0
	seen := make(map[string]bool, len(wb))
	for _, w := range wb {
		if seen[w] {
			continue
		}
		seen[w] = true
		if set[w] {
			inter++
		}
	}
	union := len(set) + len(seen) - inter
	return float64(inter) / float64(union)
}
