package aggregate

import "testing"

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"shall", "shall", 0},
		{"licence", "license", 1},
		{"§ 12", "§ 13", 1},
	}
	for _, tc := range tests {
		if got := levenshteinDistance(tc.a, tc.b); got != tc.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"The Buyer shall pay $50,000.", "the buyer shall pay $50000"},
		{"  Rate: 4.5%  per annum ", "rate 4.5% per annum"},
		{"March 1, 2024", "march 1 2024"},
		{"Smith v. Jones", "smith v jones"},
	}
	for _, tc := range tests {
		if got := normalize(tc.in); got != tc.want {
			t.Errorf("normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNumericSignature(t *testing.T) {
	if got := numericSignature("pay $50,000 within 30 days"); got != "50000|30" {
		t.Errorf("got %q", got)
	}
	if numericSignature("$50,000") == numericSignature("$45,000") {
		t.Error("different amounts must have different signatures")
	}
	if got := numericSignature("no numbers"); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestFactLabel(t *testing.T) {
	got := factLabel([]string{
		"The Buyer shall pay $50,000 within 30 days.",
		"The Buyer shall pay $45,000 within 30 days.",
	})
	if want := "The Buyer shall pay $… within 30 days"; got != want {
		t.Errorf("factLabel = %q, want %q", got, want)
	}
}

func TestJaccard(t *testing.T) {
	if got := jaccard("a b c", "a b c"); got != 1 {
		t.Errorf("identical = %v", got)
	}
	if got := jaccard("a b", "c d"); got != 0 {
		t.Errorf("disjoint = %v", got)
	}
	if got := jaccard("a b c d", "a b"); got != 0.5 {
		t.Errorf("half = %v", got)
	}
}
