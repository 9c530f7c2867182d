// Command refine drafts a document with one model and refines it with another's reviews.
//
// Usage:
//
//	refine run "Outlook for energy exports"     stream one session to the terminal
//	refine chat                                 interactive prompt, one session per line
//	refine serve --addr :8000                   HTTP, SSE and websocket API
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
