//go:build wasm

package main

import (
	"syscall/js"
)

func main() {
	// Export functions to JavaScript
	js.Global().Set("AstGrepSearch", js.FuncOf(search))
	js.Global().Set("AstGrepNewSearcher", js.FuncOf(newSearcher))
	js.Global().Set("AstGrepScan", js.FuncOf(scan))
	js.Global().Set("AstGrepCloseSearcher", js.FuncOf(closeSearcher))
	js.Global().Set("AstGrepLanguages", js.FuncOf(listLanguages))

	// Keep WASM running
	<-make(chan struct{})
}
