package serve

import (
	"encoding/json"

	"github.com/Xuanwo/ast-grep/pkg/types"
)

// Request represents an incoming NDJSON request
type Request struct {
	Type    string          `json:"type"` // "search" | "scan" | "scan_batch" | "close"
	Payload json.RawMessage `json:"payload"`
}

// SearchPayload is the payload for "search" requests. The pattern compiles
// per request, so each search may use a different pattern and language.
type SearchPayload struct {
	Pattern  string `json:"pattern"`
	Language string `json:"language"`
	Content  string `json:"content"`
	File     string `json:"file,omitempty"`
	Rewrite  string `json:"rewrite,omitempty"`
}

// ContentItem is one piece of content for "scan" and "scan_batch" requests.
// When File is set, only rules for that file's language run; otherwise every
// loaded rule parses the content in its own language.
type ContentItem struct {
	File    string `json:"file,omitempty"`
	Content string `json:"content"`
}

// ScanBatchPayload is the payload for "scan_batch" requests
type ScanBatchPayload struct {
	Items []ContentItem `json:"items"`
}

// Response represents an outgoing NDJSON response
type Response struct {
	Success bool            `json:"success"`
	Type    string          `json:"type"` // "ready" | "search" | "scan" | "scan_batch" | "error"
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ReadyData is the data field for "ready" responses
type ReadyData struct {
	Version string `json:"version"`
	Rules   int    `json:"rules"`
}

// SearchResult is the data field for "search" responses
type SearchResult struct {
	File    string              `json:"file,omitempty"`
	Matches []types.MatchRecord `json:"matches"`
}

// ScanResult holds the rule matches for one content item
type ScanResult struct {
	File    string                  `json:"file,omitempty"`
	Matches []types.RuleMatchRecord `json:"matches"`
}

// BatchScanResult is the data field for "scan_batch" responses. Total counts
// matches across all items.
type BatchScanResult struct {
	Results []ScanResult `json:"results"`
	Total   int          `json:"total"`
}
