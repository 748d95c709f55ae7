package process

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Tokens lowercases text and splits it into words of two or more letters,
// digits or underscores, in any script.
func Tokens(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true, "into": true,
	"that": true, "this": true, "are": true, "was": true, "were": true, "been": true,
	"has": true, "have": true, "all": true, "any": true, "each": true, "per": true,
	"its": true, "their": true, "they": true, "them": true, "then": true, "than": true,
	"such": true, "via": true, "use": true, "using": true, "should": true, "must": true,
	"will": true, "can": true, "may": true, "not": true, "out": true, "onto": true,
	"upon": true, "also": true, "more": true, "most": true, "other": true, "over": true,
	"step": true, "steps": true,
}

// Stem strips a few common English suffixes so "counting", "counted" and
// "counts" compare equal.
func Stem(w string) string {
	for _, suffix := range []string{"ing", "ed"} {
		if len(w) > len(suffix)+2 && strings.HasSuffix(w, suffix) {
			return strings.TrimSuffix(w, suffix)
		}
	}
	if len(w) > 4 && strings.HasSuffix(w, "es") {
		for _, sib := range []string{"s", "x", "z", "ch", "sh"} {
			if strings.HasSuffix(w[:len(w)-2], sib) {
				return w[:len(w)-2]
			}
		}
	}
	if len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") {
		return w[:len(w)-1]
	}
	return w
}

// SignificantTerms returns the stemmed, de-duplicated non-stop-word tokens
// of text with at least three characters.
func SignificantTerms(text string) map[string]bool {
	terms := make(map[string]bool)
	for _, tok := range Tokens(text) {
		if utf8.RuneCountInString(tok) < 3 || stopWords[tok] {
			continue
		}
		terms[Stem(tok)] = true
	}
	return terms
}

// manualTerms mark a step as carried out by hand.
var manualTerms = []string{
	"manual", "manually", "paper", "email", "excel", "spreadsheet", "handwritten",
	"phone", "printed", "print", "physical", "fax", "whatsapp", "by hand",
	"logbook", "clipboard", "photocopy", "hardcopy", "hard copy",
}

// IsManual reports whether text mentions a manual-process term.
func IsManual(text string) bool {
	return containsAny(strings.ToLower(text), manualTerms)
}

var digitalTerms = []string{
	"system", "software", "digital", "online", "app", "erp", "pos", "automated",
	"automatic", "electronic", "scan", "barcode", "portal", "cloud", "dashboard",
	"database", "qr",
}

// IsDigital reports whether text mentions a digital tool.
func IsDigital(text string) bool {
	return containsAny(strings.ToLower(text), digitalTerms)
}

// containsAny matches whole words for single-word terms and substrings for
// multi-word phrases.
func containsAny(lower string, terms []string) bool {
	var words map[string]bool
	for _, t := range terms {
		if strings.Contains(t, " ") {
			if strings.Contains(lower, t) {
				return true
			}
			continue
		}
		if words == nil {
			words = make(map[string]bool)
			for _, w := range Tokens(lower) {
				words[w] = true
			}
		}
		if words[t] {
			return true
		}
	}
	return false
}

// CountTerms counts whole-word occurrences of any of terms in text.
func CountTerms(text string, terms []string) int {
	set := make(map[string]bool, 2*len(terms))
	for _, t := range terms {
		set[t] = true
		set[Stem(t)] = true
	}
	n := 0
	for _, w := range Tokens(text) {
		if set[w] || set[Stem(w)] {
			n++
		}
	}
	return n
}

// Median returns the median of values, or 0 for an empty slice.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
