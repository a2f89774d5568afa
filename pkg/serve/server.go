// Package serve implements a long-lived streaming server that answers
// structural search and scan requests over NDJSON on stdin/stdout, for
// editor and tooling integration.
package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	"github.com/Xuanwo/ast-grep/pkg/lang"
	"github.com/Xuanwo/ast-grep/pkg/pattern"
	"github.com/Xuanwo/ast-grep/pkg/prefilter"
	"github.com/Xuanwo/ast-grep/pkg/printer"
	"github.com/Xuanwo/ast-grep/pkg/rule"
	"github.com/Xuanwo/ast-grep/pkg/types"
)

// Version is the server protocol version
const Version = "1.0.0"

// Server manages the streaming search engine
type Server struct {
	rules   []*rule.Rule
	filter  *prefilter.Prefilter
	encoder *json.Encoder
	decoder *json.Decoder
}

// NewServer creates a new streaming server. The rules, which may be empty,
// answer every scan request for the lifetime of the server; search requests
// compile their pattern per request.
func NewServer(rules []*rule.Rule, in io.Reader, out io.Writer) *Server {
	return &Server{
		rules:   rules,
		filter:  prefilter.New(rules),
		encoder: json.NewEncoder(out),
		decoder: json.NewDecoder(bufio.NewReader(in)),
	}
}

// Run starts the server main loop
func (s *Server) Run(ctx context.Context) error {
	// Send ready signal
	s.sendReady()

	// Use buffered channels for incoming requests
	reqChan := make(chan Request, 1)
	errChan := make(chan error, 1)

	go func() {
		for {
			var req Request
			if err := s.decoder.Decode(&req); err != nil {
				errChan <- err
				return
			}
			select {
			case reqChan <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Process requests until stdin closes or context cancels
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errChan:
			// Drain any pending requests before handling EOF
			for {
				select {
				case req := <-reqChan:
					if s.processRequest(req) {
						return nil
					}
				default:
					// No more pending requests
					if err == io.EOF {
						return nil
					}
					s.sendError("decode", err.Error())
					return nil
				}
			}
		case req := <-reqChan:
			if s.processRequest(req) {
				return nil
			}
		}
	}
}

// processRequest handles a single request and returns true if the server should exit
func (s *Server) processRequest(req Request) bool {
	switch req.Type {
	case "search":
		s.handleSearch(req.Payload)
	case "scan":
		s.handleScan(req.Payload)
	case "scan_batch":
		s.handleScanBatch(req.Payload)
	case "close":
		return true
	default:
		s.sendError("unknown", "unknown request type: "+req.Type)
	}
	return false
}

func (s *Server) sendReady() {
	data, _ := json.Marshal(ReadyData{Version: Version, Rules: len(s.rules)})
	s.encoder.Encode(Response{
		Success: true,
		Type:    "ready",
		Data:    data,
	})
}

func (s *Server) handleSearch(payload json.RawMessage) {
	var p SearchPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("search", err.Error())
		return
	}

	result, err := s.search(p)
	if err != nil {
		s.sendError("search", err.Error())
		return
	}

	data, _ := json.Marshal(result)
	s.encoder.Encode(Response{
		Success: true,
		Type:    "search",
		Data:    data,
	})
}

func (s *Server) handleScan(payload json.RawMessage) {
	var p ContentItem
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("scan", err.Error())
		return
	}

	result, err := s.scan(p)
	if err != nil {
		s.sendError("scan", err.Error())
		return
	}

	data, _ := json.Marshal(result)
	s.encoder.Encode(Response{
		Success: true,
		Type:    "scan",
		Data:    data,
	})
}

func (s *Server) handleScanBatch(payload json.RawMessage) {
	var p ScanBatchPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("scan_batch", err.Error())
		return
	}

	result := s.scanBatch(p.Items)
	data, _ := json.Marshal(result)
	s.encoder.Encode(Response{
		Success: true,
		Type:    "scan_batch",
		Data:    data,
	})
}

func (s *Server) sendError(reqType, msg string) {
	s.encoder.Encode(Response{
		Success: false,
		Type:    reqType,
		Error:   msg,
	})
}

// search compiles the requested pattern and matches it against the content
func (s *Server) search(p SearchPayload) (*SearchResult, error) {
	l, err := lang.Parse(p.Language)
	if err != nil {
		return nil, err
	}
	pat, err := pattern.Compile(p.Pattern, l)
	if err != nil {
		return nil, err
	}

	doc := pattern.NewDoc([]byte(p.Content), l)
	matches := make([]types.MatchRecord, 0)
	for m := range pat.MatchAll(doc) {
		rec := printer.NewMatchRecord(m, p.File)
		if p.Rewrite != "" {
			replacement := rule.Render(p.Rewrite, m)
			rec.Replacement = &replacement
		}
		matches = append(matches, rec)
	}

	return &SearchResult{File: p.File, Matches: matches}, nil
}

// scan runs the loaded rules against one content item
func (s *Server) scan(item ContentItem) (*ScanResult, error) {
	content := []byte(item.Content)

	// A named file limits the scan to rules for its language
	var only *lang.Language
	if item.File != "" {
		l, ok := lang.FromPath(item.File)
		if !ok {
			return &ScanResult{File: item.File, Matches: []types.RuleMatchRecord{}}, nil
		}
		only = &l
	}

	matches := make([]types.RuleMatchRecord, 0)
	docs := make(map[lang.Language]*pattern.Doc)
	for _, r := range s.filter.Filter(content) {
		if only != nil && r.Language != *only {
			continue
		}
		doc, ok := docs[r.Language]
		if !ok {
			doc = pattern.NewDoc(content, r.Language)
			docs[r.Language] = doc
		}
		ms, err := r.Matches(doc)
		if err != nil {
			return nil, err
		}
		for _, m := range ms {
			rec := printer.NewRuleMatchRecord(m, item.File, r)
			if fix, ok := r.FixFor(m); ok {
				rec.Replacement = &fix
			}
			matches = append(matches, rec)
		}
	}

	return &ScanResult{File: item.File, Matches: matches}, nil
}

// scanBatch scans multiple content items, skipping items that fail
func (s *Server) scanBatch(items []ContentItem) *BatchScanResult {
	results := make([]ScanResult, 0, len(items))
	total := 0

	for _, item := range items {
		result, err := s.scan(item)
		if err != nil {
			continue
		}
		results = append(results, *result)
		total += len(result.Matches)
	}

	return &BatchScanResult{
		Results: results,
		Total:   total,
	}
}
