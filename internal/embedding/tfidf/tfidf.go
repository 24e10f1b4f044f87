package tfidf

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"

	"learnquick/internal/domain"
)

// Embedder implements a simple TF-IDF vectorizer.
// An Embedder returned by NewEmbedder is unfitted; Fit builds the vocabulary
// and IDF values from a corpus and returns a fitted copy.
type Embedder struct {
	vocabulary   map[string]int
	idf          []float64
	dimension    int
	fitted       bool
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewEmbedder creates an unfitted TF-IDF embedder.
func NewEmbedder() *Embedder {
	return &Embedder{
		vocabulary:   make(map[string]int),
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`),
		stopwords:    defaultStopwords(),
	}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "tfidf" }

// Fit builds the vocabulary and IDF values from the provided corpus.
func (e *Embedder) Fit(corpus []string) (domain.Embedder, error) {
	if len(corpus) == 0 {
		return nil, errors.New("tfidf: empty corpus for fit")
	}
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range e.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	// Stable ordering keeps the vector space deterministic for a given corpus.
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	if len(terms) == 0 {
		return nil, errors.New("tfidf: no tokens found in corpus")
	}
	fitted := &Embedder{
		vocabulary:   make(map[string]int, len(terms)),
		idf:          make([]float64, len(terms)),
		dimension:    len(terms),
		fitted:       true,
		tokenPattern: e.tokenPattern,
		stopwords:    e.stopwords,
	}
	n := float64(len(corpus))
	for i, term := range terms {
		fitted.vocabulary[term] = i
		// Smoothed IDF
		fitted.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	return fitted, nil
}

// Dimension returns the dimensionality of the produced vectors, zero before Fit.
func (e *Embedder) Dimension() int { return e.dimension }

// EmbedBatch computes L2-normalized TF-IDF vectors for every text.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if !e.fitted {
		return nil, errors.New("tfidf: embedder not fitted")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *Embedder) embed(text string) []float32 {
	vec := make([]float32, e.dimension)
	tf := make(map[int]int)
	total := 0
	for _, tok := range e.tokenize(text) {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec
	}
	weights := make(map[int]float64, len(tf))
	norm := 0.0
	for idx, count := range tf {
		w := float64(count) / float64(total) * e.idf[idx]
		weights[idx] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for idx, w := range weights {
		vec[idx] = float32(w / norm)
	}
	return vec
}

func (e *Embedder) tokenize(text string) []string {
	raw := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(raw) == 0 {
		return nil
	}
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
