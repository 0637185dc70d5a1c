package discovery

import (
	"sort"
	"strings"
	"sync"
)

const (
	// minNGram and maxNGram bound the word n-gram window. Shorter grams
	// are too generic to template; longer ones rarely repeat.
	minNGram = 3
	maxNGram = 8

	// maxCandidates bounds the candidate list handed to clustering,
	// which is quadratic in the number of candidates.
	maxCandidates = 512
)

// DefaultMaxCorpus is the number of observed messages retained between
// discovery runs when no explicit bound is configured.
const DefaultMaxCorpus = 10000

// Candidate is a frequent n-gram observed in the corpus.
type Candidate struct {
	Text  string
	Count int
}

// Miner accumulates normalized response texts and extracts frequent
// word n-grams from them. All methods are safe for concurrent use.
type Miner struct {
	mu         sync.Mutex
	corpus     []string
	maxCorpus  int
	minSupport int
}

// NewMiner creates a miner that keeps at most maxCorpus messages and
// reports n-grams occurring at least minSupport times.
func NewMiner(maxCorpus, minSupport int) *Miner {
	if maxCorpus <= 0 {
		maxCorpus = DefaultMaxCorpus
	}
	if minSupport <= 0 {
		minSupport = 1
	}
	return &Miner{
		corpus:     make([]string, 0, 64),
		maxCorpus:  maxCorpus,
		minSupport: minSupport,
	}
}

// Add records a response text for the next mining run. Whitespace is
// normalized so that formatting differences do not split counts. When
// the corpus is full the oldest message is dropped.
func (m *Miner) Add(text string) {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.corpus) >= m.maxCorpus {
		m.corpus = m.corpus[1:]
	}
	m.corpus = append(m.corpus, normalized)
}

// Len reports the number of messages currently held.
func (m *Miner) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.corpus)
}

// Drain returns the accumulated corpus and resets the miner.
func (m *Miner) Drain() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	corpus := m.corpus
	m.corpus = make([]string, 0, 64)
	return corpus
}

// Mine extracts word n-grams from the given messages and returns those
// meeting the support threshold, most frequent first. Ties break on
// text so the output is deterministic.
func (m *Miner) Mine(messages []string) []Candidate {
	counts := make(map[string]int)

	for _, message := range messages {
		tokens := strings.Fields(message)
		for n := minNGram; n <= maxNGram && n <= len(tokens); n++ {
			for i := 0; i+n <= len(tokens); i++ {
				gram := strings.Join(tokens[i:i+n], " ")
				counts[gram]++
			}
		}
	}

	candidates := make([]Candidate, 0, len(counts))
	for text, count := range counts {
		if count >= m.minSupport {
			candidates = append(candidates, Candidate{Text: text, Count: count})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Count != candidates[j].Count {
			return candidates[i].Count > candidates[j].Count
		}
		return candidates[i].Text < candidates[j].Text
	})

	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}
	return candidates
}
