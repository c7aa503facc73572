package keywords

import (
	"sort"
	"strings"

	"github.com/cbrandt/rescore/model"
)

// ExtractorOptions configure the statistical keyword extractor
type ExtractorOptions struct {
	// MaxNGram is the largest candidate phrase length in words
	MaxNGram int
	// DedupThreshold drops a candidate whose similarity to an already
	// selected keyword is at or above this value
	DedupThreshold float64
	// TopN is the maximum number of keywords returned
	TopN int
}

// DefaultExtractorOptions returns the default extraction parameters
func DefaultExtractorOptions() ExtractorOptions {
	return ExtractorOptions{
		MaxNGram:       1,
		DedupThreshold: 0.9,
		TopN:           10,
	}
}

// Extractor suggests trigger keywords for a chunk using term statistics:
// frequency weighted by first-occurrence position, with near-duplicate
// suppression over the ranked candidates.
type Extractor struct {
	opts      ExtractorOptions
	stopwords map[string]bool
}

// NewExtractor creates an extractor with the given options
func NewExtractor(opts ExtractorOptions) *Extractor {
	if opts.MaxNGram <= 0 {
		opts.MaxNGram = 1
	}
	if opts.DedupThreshold <= 0 || opts.DedupThreshold > 1 {
		opts.DedupThreshold = 0.9
	}
	if opts.TopN <= 0 {
		opts.TopN = 10
	}

	stopwords := make(map[string]bool, len(englishStopwords))
	for _, w := range englishStopwords {
		stopwords[w] = true
	}

	return &Extractor{opts: opts, stopwords: stopwords}
}

type scoredPhrase struct {
	text  string
	score float64
}

// Extract returns up to TopN suggested keywords for the text, best first,
// each carrying the default keyword weight.
func (e *Extractor) Extract(text string) []model.Keyword {
	terms := model.Tokenize(text)
	if len(terms) == 0 {
		return nil
	}

	phrases := make(map[string]*scoredPhrase)
	for n := 1; n <= e.opts.MaxNGram; n++ {
		for i := 0; i+n <= len(terms); i++ {
			gram := terms[i : i+n]
			if e.containsStopword(gram) {
				continue
			}

			phrase := strings.Join(gram, " ")
			// Earlier first occurrence scores higher
			positionWeight := 1.0 / (1.0 + float64(i)/float64(len(terms)))
			if p, ok := phrases[phrase]; ok {
				p.score += positionWeight
			} else {
				phrases[phrase] = &scoredPhrase{text: phrase, score: positionWeight}
			}
		}
	}

	ranked := make([]scoredPhrase, 0, len(phrases))
	for _, p := range phrases {
		ranked = append(ranked, *p)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].text < ranked[j].text
	})

	var selected []model.Keyword
	for _, p := range ranked {
		if len(selected) >= e.opts.TopN {
			break
		}
		if e.isDuplicate(p.text, selected) {
			continue
		}
		selected = append(selected, model.Keyword{Text: p.text, Weight: model.DefaultKeywordWeight})
	}

	return selected
}

func (e *Extractor) containsStopword(gram []string) bool {
	for _, term := range gram {
		if e.stopwords[term] || len(term) < 3 {
			return true
		}
	}
	return false
}

func (e *Extractor) isDuplicate(phrase string, selected []model.Keyword) bool {
	for _, k := range selected {
		if diceSimilarity(phrase, k.Text) >= e.opts.DedupThreshold {
			return true
		}
	}
	return false
}

// diceSimilarity is the Dice coefficient over character bigrams
func diceSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) < 2 || len(b) < 2 {
		return 0.0
	}

	bigrams := make(map[string]int)
	for i := 0; i < len(a)-1; i++ {
		bigrams[a[i:i+2]]++
	}

	matches := 0
	for i := 0; i < len(b)-1; i++ {
		if bigrams[b[i:i+2]] > 0 {
			bigrams[b[i:i+2]]--
			matches++
		}
	}

	return 2.0 * float64(matches) / float64(len(a)+len(b)-2)
}

var englishStopwords = []string{
	"the", "and", "for", "are", "but", "not", "you", "all", "can", "her",
	"was", "one", "our", "out", "day", "get", "has", "him", "his", "how",
	"man", "new", "now", "old", "see", "two", "way", "who", "did", "its",
	"let", "she", "too", "use", "that", "with", "have", "this", "will",
	"your", "from", "they", "know", "want", "been", "good", "much", "some",
	"time", "very", "when", "come", "here", "just", "like", "long", "make",
	"many", "more", "only", "over", "such", "take", "than", "them", "well",
	"were", "what", "there", "their", "which", "would", "could", "should",
	"about", "after", "before", "being", "other", "these", "those", "where",
}
