//go:build wasm

package main

import (
	"encoding/json"
	"sync"
	"syscall/js"

	astgrep "github.com/Xuanwo/ast-grep"
	"github.com/Xuanwo/ast-grep/pkg/lang"
	"github.com/Xuanwo/ast-grep/pkg/rule"
)

var (
	searchers   = make(map[int]*astgrep.Searcher)
	searchersMu sync.RWMutex
	nextID      int
)

// search runs a one-off pattern search over a content string.
// JS: AstGrepSearch(pattern, language, content[, rewrite]) -> JSON results or error
func search(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return map[string]interface{}{"error": "pattern, language, and content arguments required"}
	}

	patternSrc := args[0].String()
	language := args[1].String()
	content := args[2].String()

	l, err := lang.Parse(language)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}

	opts := []astgrep.Option{astgrep.WithLanguage(l)}
	if len(args) > 3 && args[3].String() != "" {
		opts = append(opts, astgrep.WithRewrite(args[3].String()))
	}

	s, err := astgrep.NewSearcher(patternSrc, opts...)
	if err != nil {
		return map[string]interface{}{"error": "failed to compile pattern: " + err.Error()}
	}

	records, err := s.SearchString(content)
	if err != nil {
		return map[string]interface{}{"error": "search failed: " + err.Error()}
	}

	return marshalRecords(records)
}

// newSearcher loads a YAML rule set for repeated scans.
// JS: AstGrepNewSearcher(rulesYAML) -> handle (int) or error string
func newSearcher(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return map[string]interface{}{"error": "rulesYAML argument required"}
	}

	rules, err := rule.NewLoader().Parse([]byte(args[0].String()))
	if err != nil {
		return map[string]interface{}{"error": "failed to load rules: " + err.Error()}
	}

	s, err := astgrep.NewSearcher("", astgrep.WithRules(rules))
	if err != nil {
		return map[string]interface{}{"error": "failed to create searcher: " + err.Error()}
	}

	// Register searcher
	searchersMu.Lock()
	id := nextID
	nextID++
	searchers[id] = s
	searchersMu.Unlock()

	return map[string]interface{}{"handle": id}
}

// scan runs a searcher's rules over a content string.
// JS: AstGrepScan(handle, content[, file]) -> JSON results or error
func scan(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return map[string]interface{}{"error": "handle and content arguments required"}
	}

	handle := args[0].Int()
	content := args[1].String()
	file := ""
	if len(args) > 2 {
		file = args[2].String()
	}

	searchersMu.RLock()
	s, ok := searchers[handle]
	searchersMu.RUnlock()

	if !ok {
		return map[string]interface{}{"error": "invalid searcher handle"}
	}

	// A named buffer limits the scan to rules for its language; an unknown
	// extension simply matches nothing.
	if file != "" {
		if _, known := lang.FromPath(file); !known {
			return "[]"
		}
		records, err := s.ScanNamed(file, []byte(content))
		if err != nil {
			return map[string]interface{}{"error": "scan failed: " + err.Error()}
		}
		return marshalRecords(records)
	}

	records, err := s.ScanString(content)
	if err != nil {
		return map[string]interface{}{"error": "scan failed: " + err.Error()}
	}
	return marshalRecords(records)
}

// closeSearcher releases a searcher handle.
// JS: AstGrepCloseSearcher(handle)
func closeSearcher(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return map[string]interface{}{"error": "handle argument required"}
	}

	handle := args[0].Int()

	searchersMu.Lock()
	_, ok := searchers[handle]
	if ok {
		delete(searchers, handle)
	}
	searchersMu.Unlock()

	if !ok {
		return map[string]interface{}{"error": "invalid searcher handle"}
	}

	return nil
}

// listLanguages returns the supported languages as a JSON array.
// JS: AstGrepLanguages() -> JSON language names
func listLanguages(this js.Value, args []js.Value) interface{} {
	jsonBytes, err := json.Marshal(lang.All())
	if err != nil {
		return map[string]interface{}{"error": "failed to marshal languages: " + err.Error()}
	}
	return string(jsonBytes)
}

// marshalRecords renders any record slice as a JSON string for JS callers.
func marshalRecords(records interface{}) interface{} {
	jsonBytes, err := json.Marshal(records)
	if err != nil {
		return map[string]interface{}{"error": "failed to marshal results: " + err.Error()}
	}
	return string(jsonBytes)
}
