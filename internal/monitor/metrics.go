package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// StatsClient queries the aurad stats API
type StatsClient struct {
	baseURL string
	client  *http.Client
}

// Stats mirrors the daemon's GET /v1/stats document
type Stats struct {
	Accel         AccelStats      `json:"accel"`
	TemplateCount int             `json:"template_count"`
	Discovery     *DiscoveryStats `json:"discovery"`
}

// AccelStats holds the accelerator portion of the stats document
type AccelStats struct {
	ActiveConversations int           `json:"active_conversations"`
	Messages            int           `json:"messages"`
	Hits                uint64        `json:"hits"`
	Misses              uint64        `json:"misses"`
	HitRate             float64       `json:"hit_rate"`
	Platform            PlatformStats `json:"platform"`
}

// PlatformStats holds the platform-wide learning counters
type PlatformStats struct {
	Conversations   uint64            `json:"conversations"`
	TrackedPatterns int               `json:"tracked_patterns"`
	TopPatterns     []PatternCount    `json:"top_patterns"`
	Types           map[string]uint64 `json:"conversation_types"`
}

// PatternCount is one signature with its platform-wide usage count
type PatternCount struct {
	Signature uint32 `json:"signature"`
	Count     uint64 `json:"count"`
}

// DiscoveryStats holds the discovery worker portion of the stats
// document; absent when the daemon runs without discovery
type DiscoveryStats struct {
	CorpusSize int `json:"corpus_size"`
}

// NewStatsClient creates a new stats client
func NewStatsClient(baseURL string) *StatsClient {
	return &StatsClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 2 * time.Second,
		},
	}
}

// FetchStats retrieves the current stats document from the daemon
func (c *StatsClient) FetchStats(ctx context.Context) (Stats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/stats", nil)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Stats{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Stats{}, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	var stats Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return Stats{}, fmt.Errorf("failed to decode response: %w", err)
	}

	return stats, nil
}
