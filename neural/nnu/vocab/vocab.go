// Package vocab builds the frozen token to feature-index mapping used by the
// TF-IDF vectorizer.
package vocab

import (
	"sort"

	"github.com/go-nlp/tfidf"
	"github.com/google/btree"
)

// Vocabulary maps words to feature indices. Indices are dense, start at zero
// and follow alphabetical order of the words.
type Vocabulary struct {
	WordToToken map[string]int
	TokenToWord []string
}

// NewVocabulary creates a vocabulary from words, assigning indices in
// alphabetical order. Duplicate words are collapsed.
func NewVocabulary(words []string) *Vocabulary {
	sorted := append([]string(nil), words...)
	sort.Strings(sorted)

	v := &Vocabulary{
		WordToToken: make(map[string]int, len(sorted)),
		TokenToWord: make([]string, 0, len(sorted)),
	}
	for _, w := range sorted {
		if _, ok := v.WordToToken[w]; ok {
			continue
		}
		v.WordToToken[w] = len(v.TokenToWord)
		v.TokenToWord = append(v.TokenToWord, w)
	}
	return v
}

// Size returns the number of words.
func (v *Vocabulary) Size() int {
	if v == nil {
		return 0
	}
	return len(v.TokenToWord)
}

// GetTokenID returns the index of word and whether it is known.
func (v *Vocabulary) GetTokenID(word string) (int, bool) {
	if v == nil || v.WordToToken == nil {
		return 0, false
	}
	id, ok := v.WordToToken[word]
	return id, ok
}

// GetWord returns the word stored at index id, or "" when out of range.
func (v *Vocabulary) GetWord(id int) string {
	if v == nil || id < 0 || id >= len(v.TokenToWord) {
		return ""
	}
	return v.TokenToWord[id]
}

// document adapts a list of term ids to tfidf.Document.
type document []int

func (d document) IDs() []int { return []int(d) }

// Counter accumulates corpus statistics while documents stream past.
// Term ids handed out here are provisional; the final indices come from
// Vocabulary.
type Counter struct {
	ids    map[string]int
	words  []string
	counts []float64
	df     *tfidf.TFIDF
}

// NewCounter returns an empty Counter.
func NewCounter() *Counter {
	return &Counter{
		ids: make(map[string]int),
		df:  tfidf.New(),
	}
}

// AddDocument records one tokenized document.
func (c *Counter) AddDocument(tokens []string) {
	seen := make(map[int]struct{}, len(tokens))
	unique := make(document, 0, len(tokens))
	for _, tok := range tokens {
		id, ok := c.ids[tok]
		if !ok {
			id = len(c.words)
			c.ids[tok] = id
			c.words = append(c.words, tok)
			c.counts = append(c.counts, 0)
		}
		c.counts[id]++
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}
	c.df.Add(unique)
}

// Docs returns the number of documents added so far.
func (c *Counter) Docs() int { return c.df.Docs }

// Terms returns the number of distinct terms seen so far.
func (c *Counter) Terms() int { return len(c.words) }

// Count returns the total number of occurrences of word across the corpus.
func (c *Counter) Count(word string) float64 {
	id, ok := c.ids[word]
	if !ok {
		return 0
	}
	return c.counts[id]
}

// DocumentFrequency returns how many documents contain word.
func (c *Counter) DocumentFrequency(word string) int {
	id, ok := c.ids[word]
	if !ok {
		return 0
	}
	return int(c.df.TF[id])
}

type rankedTerm struct {
	word  string
	count float64
}

func lessRanked(a, b rankedTerm) bool {
	if a.count != b.count {
		return a.count > b.count
	}
	return a.word < b.word
}

// Vocabulary keeps the maxFeatures most frequent terms, breaking ties
// alphabetically, and indexes them in alphabetical order.
// A non-positive maxFeatures keeps every term.
func (c *Counter) Vocabulary(maxFeatures int) *Vocabulary {
	index := btree.NewG[rankedTerm](32, lessRanked)
	for id, w := range c.words {
		index.ReplaceOrInsert(rankedTerm{word: w, count: c.counts[id]})
	}

	limit := c.Terms()
	if maxFeatures > 0 && maxFeatures < limit {
		limit = maxFeatures
	}
	kept := make([]string, 0, limit)
	index.Ascend(func(t rankedTerm) bool {
		if len(kept) == limit {
			return false
		}
		kept = append(kept, t.word)
		return true
	})
	return NewVocabulary(kept)
}
