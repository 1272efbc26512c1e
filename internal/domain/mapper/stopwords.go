package mapper

import "strings"

// english is the NLTK English stopword corpus.
var english = []string{
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you", "you're",
	"you've", "you'll", "you'd", "your", "yours", "yourself", "yourselves", "he",
	"him", "his", "himself", "she", "she's", "her", "hers", "herself", "it", "it's",
	"its", "itself", "they", "them", "their", "theirs", "themselves", "what", "which",
	"who", "whom", "this", "that", "that'll", "these", "those", "am", "is", "are",
	"was", "were", "be", "been", "being", "have", "has", "had", "having", "do",
	"does", "did", "doing", "a", "an", "the", "and", "but", "if", "or", "because",
	"as", "until", "while", "of", "at", "by", "for", "with", "about", "against",
	"between", "into", "through", "during", "before", "after", "above", "below",
	"to", "from", "up", "down", "in", "out", "on", "off", "over", "under", "again",
	"further", "then", "once", "here", "there", "when", "where", "why", "how", "all",
	"any", "both", "each", "few", "more", "most", "other", "some", "such", "no",
	"nor", "not", "only", "own", "same", "so", "than", "too", "very", "s", "t",
	"can", "will", "just", "don", "don't", "should", "should've", "now", "d", "ll",
	"m", "o", "re", "ve", "y", "ain", "aren", "aren't", "couldn", "couldn't",
	"didn", "didn't", "doesn", "doesn't", "hadn", "hadn't", "hasn", "hasn't",
	"haven", "haven't", "isn", "isn't", "ma", "mightn", "mightn't", "mustn",
	"mustn't", "needn", "needn't", "shan", "shan't", "shouldn", "shouldn't", "wasn",
	"wasn't", "weren", "weren't", "won", "won't", "wouldn", "wouldn't",
}

// Stopwords is an immutable word set. Build it once at start-up and share it;
// there is no way to mutate it afterwards.
type Stopwords struct {
	words map[string]struct{}
}

// NewStopwords returns the English list plus extend, minus remove.
func NewStopwords(extend, remove []string) *Stopwords {
	s := &Stopwords{words: make(map[string]struct{}, len(english)+len(extend))}
	for _, w := range english {
		s.words[w] = struct{}{}
	}
	for _, w := range extend {
		if w = strings.TrimSpace(w); w != "" {
			s.words[w] = struct{}{}
		}
	}
	for _, w := range remove {
		delete(s.words, strings.TrimSpace(w))
	}
	return s
}

// Contains reports whether word is a stopword. Matching is exact, as the
// n-gram files are already lower-cased.
func (s *Stopwords) Contains(word string) bool {
	if s == nil {
		return false
	}
	_, ok := s.words[word]
	return ok
}

// Any reports whether any token is a stopword.
func (s *Stopwords) Any(tokens []string) bool {
	for _, t := range tokens {
		if s.Contains(t) {
			return true
		}
	}
	return false
}

// Len returns the set size.
func (s *Stopwords) Len() int {
	if s == nil {
		return 0
	}
	return len(s.words)
}
