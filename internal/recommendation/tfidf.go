package recommendation

import (
	"math"
	"sort"

	"github.com/dustin/movie-chat-backend/internal/textutil"
)

// SparseVector maps vocabulary index to weight
type SparseVector map[int]float64

// Dot is the inner product; for L2 normalised vectors it is the cosine
func (v SparseVector) Dot(o SparseVector) float64 {
	if len(o) < len(v) {
		v, o = o, v
	}
	var sum float64
	for i, w := range v {
		if ow, ok := o[i]; ok {
			sum += w * ow
		}
	}
	return sum
}

// Vectorizer builds TF-IDF vectors over unigrams and bigrams of the
// stop-word filtered token stream
type Vectorizer struct {
	MaxFeatures int

	vocabulary map[string]int
	idf        []float64
}

func NewVectorizer(maxFeatures int) *Vectorizer {
	return &Vectorizer{MaxFeatures: maxFeatures}
}

// analyze returns the terms of doc: filtered tokens followed by their bigrams
func analyze(doc string) []string {
	tokens := textutil.RemoveStopWords(textutil.Tokenize(doc))
	terms := make([]string, 0, 2*len(tokens))
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}

// FitTransform learns the vocabulary and idf weights from docs and returns
// one L2 normalised vector per doc. ErrInsufficientData is returned when no
// doc yields a term.
func (v *Vectorizer) FitTransform(docs []string) ([]SparseVector, error) {
	counts := make([]map[string]int, len(docs))
	corpusCount := make(map[string]int)
	docFreq := make(map[string]int)

	for i, doc := range docs {
		tf := make(map[string]int)
		for _, term := range analyze(doc) {
			tf[term]++
		}
		for term, c := range tf {
			corpusCount[term] += c
			docFreq[term]++
		}
		counts[i] = tf
	}
	if len(corpusCount) == 0 {
		return nil, errEmptyVocabulary
	}

	terms := make([]string, 0, len(corpusCount))
	for term := range corpusCount {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	if v.MaxFeatures > 0 && len(terms) > v.MaxFeatures {
		byCount := append([]string(nil), terms...)
		sort.SliceStable(byCount, func(i, j int) bool {
			return corpusCount[byCount[i]] > corpusCount[byCount[j]]
		})
		terms = byCount[:v.MaxFeatures]
		sort.Strings(terms)
	}

	n := float64(len(docs))
	v.vocabulary = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	for i, term := range terms {
		v.vocabulary[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	vectors := make([]SparseVector, len(docs))
	for i, tf := range counts {
		vec := make(SparseVector, len(tf))
		var norm float64
		for term, c := range tf {
			idx, ok := v.vocabulary[term]
			if !ok {
				continue
			}
			w := float64(c) * v.idf[idx]
			vec[idx] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for idx := range vec {
				vec[idx] /= norm
			}
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Vocabulary returns the fitted term to index mapping
func (v *Vectorizer) Vocabulary() map[string]int {
	return v.vocabulary
}
