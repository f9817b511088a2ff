package extract

import "fmt"

// ExtractionFailedError signals that no strategy produced a valid draft for
// a page. Terminal for the scrape; nothing is persisted.
type ExtractionFailedError struct {
	SourceURL string
}

func (e *ExtractionFailedError) Error() string {
	return fmt.Sprintf("extract: no strategy produced a valid recipe for %s", e.SourceURL)
}
