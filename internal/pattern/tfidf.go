package pattern

import (
	"math"
	"sort"

	"github.com/dusk-indust/sopflow/internal/process"
)

// vectorize builds L2-normalized TF-IDF rows for texts using a smoothed
// inverse document frequency, ln((1+n)/(1+df)) + 1. The vocabulary is every
// token seen in at least one text, sorted lexically.
func vectorize(texts []string) ([][]float64, error) {
	docs := make([][]string, len(texts))
	df := make(map[string]int)
	for i, t := range texts {
		docs[i] = process.Tokens(t)
		seen := make(map[string]bool)
		for _, tok := range docs[i] {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}
	if len(df) == 0 {
		return nil, ErrEmptyVocabulary
	}

	vocab := make([]string, 0, len(df))
	for tok := range df {
		vocab = append(vocab, tok)
	}
	sort.Strings(vocab)
	index := make(map[string]int, len(vocab))
	for i, tok := range vocab {
		index[tok] = i
	}

	n := float64(len(texts))
	idf := make([]float64, len(vocab))
	for i, tok := range vocab {
		idf[i] = math.Log((1+n)/(1+float64(df[tok]))) + 1
	}

	rows := make([][]float64, len(texts))
	for i, doc := range docs {
		row := make([]float64, len(vocab))
		for _, tok := range doc {
			row[index[tok]]++
		}
		var norm float64
		for j := range row {
			row[j] *= idf[j]
			norm += row[j] * row[j]
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range row {
				row[j] /= norm
			}
		}
		rows[i] = row
	}
	return rows, nil
}
