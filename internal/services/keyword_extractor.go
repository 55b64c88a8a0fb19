package services

import (
	"sort"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
)

// KeywordExtractor pulls salient terms out of chunk text so they can ride
// along in the chunk metadata
type KeywordExtractor struct {
	stopWords map[string]bool
	minLength int
}

// NewKeywordExtractor creates a keyword extractor with an English stop word
// list
func NewKeywordExtractor() *KeywordExtractor {
	stopWords := map[string]bool{
		"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
		"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
		"with": true, "by": true, "is": true, "are": true, "was": true, "were": true,
		"be": true, "been": true, "have": true, "has": true, "had": true, "do": true,
		"does": true, "did": true, "will": true, "would": true, "could": true, "should": true,
		"this": true, "that": true, "these": true, "those": true, "i": true, "you": true,
		"he": true, "she": true, "it": true, "we": true, "they": true, "my": true,
		"your": true, "his": true, "her": true, "its": true, "our": true, "their": true,
	}

	return &KeywordExtractor{
		stopWords: stopWords,
		minLength: 3,
	}
}

type keywordScore struct {
	word  string
	score float64
	freq  int
}

// Extract returns up to limit keywords for text, best first. Nouns and named
// entities score highest.
func (ke *KeywordExtractor) Extract(text string, limit int) ([]string, error) {
	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, err
	}

	wordFreq := make(map[string]*keywordScore)

	for _, tok := range doc.Tokens() {
		word := strings.ToLower(tok.Text)
		if ke.shouldSkipWord(word, tok.Tag) {
			continue
		}

		score := ke.tagScore(tok.Tag)
		if existing, exists := wordFreq[word]; exists {
			existing.freq++
			existing.score += score
		} else {
			wordFreq[word] = &keywordScore{word: word, score: score, freq: 1}
		}
	}

	// Named entities get boosted above plain nouns
	for _, ent := range doc.Entities() {
		word := strings.ToLower(ent.Text)
		if len(word) < ke.minLength || ke.stopWords[word] {
			continue
		}
		if existing, exists := wordFreq[word]; exists {
			existing.score += 2.0
		} else {
			wordFreq[word] = &keywordScore{word: word, score: 2.0, freq: 1}
		}
	}

	keywords := make([]keywordScore, 0, len(wordFreq))
	for _, kw := range wordFreq {
		kw.score = kw.score * float64(kw.freq)
		keywords = append(keywords, *kw)
	}

	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].score != keywords[j].score {
			return keywords[i].score > keywords[j].score
		}
		return keywords[i].word < keywords[j].word
	})

	if limit > 0 && len(keywords) > limit {
		keywords = keywords[:limit]
	}

	result := make([]string, len(keywords))
	for i, kw := range keywords {
		result[i] = kw.word
	}
	return result, nil
}

// shouldSkipWord filters stop words, short tokens, numbers, punctuation and
// function-word POS tags
func (ke *KeywordExtractor) shouldSkipWord(word, posTag string) bool {
	if len(word) < ke.minLength {
		return true
	}
	if ke.stopWords[word] {
		return true
	}
	if ke.isPureNumber(word) || ke.isPunctuation(word) {
		return true
	}

	skipTags := map[string]bool{
		"DT":   true, // determiner
		"IN":   true, // preposition
		"TO":   true, // to
		"CC":   true, // coordinating conjunction
		"PRP":  true, // personal pronoun
		"PRP$": true, // possessive pronoun
		"WP":   true, // wh-pronoun
		"WDT":  true, // wh-determiner
	}

	return skipTags[posTag]
}

// tagScore assigns importance based on POS tag
func (ke *KeywordExtractor) tagScore(posTag string) float64 {
	scores := map[string]float64{
		"NN":   1.5, // noun
		"NNS":  1.5, // plural noun
		"NNP":  2.0, // proper noun
		"NNPS": 2.0, // plural proper noun
		"VB":   1.2, // verb
		"VBD":  1.2,
		"VBG":  1.2,
		"VBN":  1.2,
		"VBP":  1.2,
		"VBZ":  1.2,
		"JJ":   1.3, // adjective
		"JJR":  1.3,
		"JJS":  1.3,
		"RB":   0.8, // adverb
		"RBR":  0.8,
		"RBS":  0.8,
	}

	if score, exists := scores[posTag]; exists {
		return score
	}
	return 1.0
}

func (ke *KeywordExtractor) isPureNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}

func (ke *KeywordExtractor) isPunctuation(s string) bool {
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return len(s) > 0
}
