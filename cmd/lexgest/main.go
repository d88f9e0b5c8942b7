// Command lexgest segments legal documents, extracts cited legal points
// with a reasoning model and aggregates them into one summary. It runs as an
// HTTP service (serve) or one-shot over local files (summarize).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "lexgest:", err)
		os.Exit(1)
	}
}
