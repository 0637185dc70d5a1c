// Package http provides the aurad HTTP API.
package http

import "github.com/fyrsmithlabs/aurad/internal/accel"

// HealthResponse is the response body for GET /healthz and GET /readyz.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// CompressRequest is the request body for POST /v1/compress.
//
// TemplateID and Slots force an explicit binary-semantic encoding;
// without them the text is matched against the template library.
// ConversationID ties the message into a conversation accelerator; when
// empty a new conversation is started and its ID returned.
type CompressRequest struct {
	Text           string   `json:"text"`
	ConversationID string   `json:"conversation_id,omitempty"`
	TemplateID     *uint16  `json:"template_id,omitempty"`
	Slots          []string `json:"slots,omitempty"`
}

// CompressResponse is the response body for POST /v1/compress. Payload
// is base64-encoded.
type CompressResponse struct {
	Payload        string   `json:"payload"`
	Method         string   `json:"method"`
	OriginalSize   int      `json:"original_size"`
	CompressedSize int      `json:"compressed_size"`
	Ratio          float64  `json:"ratio"`
	TemplateIDs    []uint16 `json:"template_ids,omitempty"`
	ConversationID string   `json:"conversation_id"`
	CacheHit       bool     `json:"cache_hit"`
	Signature      uint32   `json:"signature"`
}

// DecompressRequest is the request body for POST /v1/decompress.
// Payload is base64-encoded.
type DecompressRequest struct {
	Payload string `json:"payload"`
}

// DecompressResponse is the response body for POST /v1/decompress.
type DecompressResponse struct {
	Text        string   `json:"text"`
	Method      string   `json:"method"`
	TemplateIDs []uint16 `json:"template_ids,omitempty"`
}

// MetadataRequest is the request body for POST /v1/metadata. Payload is
// base64-encoded.
type MetadataRequest struct {
	Payload string `json:"payload"`
}

// MetadataEntry is one decoded side-channel entry.
type MetadataEntry struct {
	TokenIndex uint16 `json:"token_index"`
	Kind       string `json:"kind"`
	Value      uint16 `json:"value"`
}

// MetadataResponse is the response body for POST /v1/metadata.
type MetadataResponse struct {
	Entries        []MetadataEntry `json:"entries"`
	Signature      uint32          `json:"signature"`
	Intent         string          `json:"intent"`
	PredictedRatio float64         `json:"predicted_ratio"`
}

// TemplatesResponse is the response body for GET /v1/templates.
type TemplatesResponse struct {
	Templates map[uint16]string `json:"templates"`
	Count     int               `json:"count"`
}

// RegisterTemplateRequest is the request body for POST /v1/templates.
type RegisterTemplateRequest struct {
	ID      uint16 `json:"id"`
	Pattern string `json:"pattern"`
}

// RegisterTemplateResponse is the response body for POST /v1/templates.
type RegisterTemplateResponse struct {
	ID      uint16 `json:"id"`
	Pattern string `json:"pattern"`
}

// DiscoveryStats reports background discovery state.
type DiscoveryStats struct {
	CorpusSize int `json:"corpus_size"`
}

// StatsResponse is the response body for GET /v1/stats.
type StatsResponse struct {
	Accel         accel.ManagerStats `json:"accel"`
	TemplateCount int                `json:"template_count"`
	Discovery     *DiscoveryStats    `json:"discovery,omitempty"`
}

// EndConversationResponse is the response body for
// DELETE /v1/conversations/:id.
type EndConversationResponse struct {
	Stats accel.ConversationStats `json:"stats"`
}
