package orchestrator

import (
	"fmt"
	"io"
)

// DefaultPreviewLimit is how many items the preview lists before summarising
const DefaultPreviewLimit = 10

// Preview lists the items about to be trashed, at most limit of them
func Preview(w io.Writer, items []string, limit int) {
	fmt.Fprintf(w, "Items to move to the trash (%d):\n", len(items))

	shown := len(items)
	if limit >= 0 && shown > limit {
		shown = limit
	}
	for _, item := range items[:shown] {
		fmt.Fprintf(w, " - %s\n", item)
	}

	if hidden := len(items) - shown; hidden > 0 {
		fmt.Fprintf(w, " - ... and %d more not shown\n", hidden)
	}
}
