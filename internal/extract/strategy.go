// Package extract turns raw recipe-page HTML into a structured recipe draft.
// Four strategies target the markup conventions publishers actually use; the
// cascade tries them in fixed priority order and keeps the first valid draft.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/plateful/recipe-cli/internal/model"
)

// Strategy extracts a recipe draft from a parsed document. A nil draft with
// a nil error means "no signal"; errors are treated the same way by the
// cascade, so strategies are free to report parse problems without aborting
// the run.
type Strategy interface {
	Method() model.ExtractionMethod
	Extract(doc *goquery.Document, sourceURL string) (*model.Recipe, error)
}

// nodeText returns the trimmed, whitespace-collapsed text of a selection.
func nodeText(sel *goquery.Selection) string {
	return collapseSpace(sel.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
