package discovery

import "strings"

// DefaultSimilarityThreshold is the minimum token similarity for two
// candidates to share a cluster.
const DefaultSimilarityThreshold = 0.82

// Clusterer groups near-duplicate candidates so that their variations
// can be generalized into slots.
type Clusterer struct {
	threshold float64
}

// NewClusterer creates a clusterer with the given similarity threshold.
// Thresholds outside (0, 1] fall back to the default.
func NewClusterer(threshold float64) *Clusterer {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}
	return &Clusterer{threshold: threshold}
}

// Cluster partitions candidates into groups of mutually similar texts.
// Candidates are consumed in order, so passing them sorted by count
// makes the most frequent member of each cluster its first element.
func (c *Clusterer) Cluster(candidates []Candidate) [][]Candidate {
	if len(candidates) == 0 {
		return nil
	}

	clusters := make([][]Candidate, 0, len(candidates))
	unclustered := make([]Candidate, len(candidates))
	copy(unclustered, candidates)

	for len(unclustered) > 0 {
		seed := unclustered[0]
		cluster := []Candidate{seed}
		seedTokens := strings.Fields(seed.Text)

		remaining := unclustered[:0:0]
		for _, candidate := range unclustered[1:] {
			if tokenSimilarity(seedTokens, strings.Fields(candidate.Text)) >= c.threshold {
				cluster = append(cluster, candidate)
			} else {
				remaining = append(remaining, candidate)
			}
		}

		clusters = append(clusters, cluster)
		unclustered = remaining
	}

	return clusters
}

// tokenSimilarity is the ratio 2*matches/(len(a)+len(b)) where matches
// is the length of the longest common subsequence of the two token
// slices. Identical sequences score 1.0, disjoint ones 0.0.
func tokenSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	// Single-row LCS table; sequences here are at most maxNGram tokens.
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	matches := prev[len(b)]
	return 2 * float64(matches) / float64(len(a)+len(b))
}
