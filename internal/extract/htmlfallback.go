package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/plateful/recipe-cli/internal/model"
)

// Heuristic thresholds for the fallback strategy. An ingredient list needs
// at least two items to count as signal; a single stray list item under a
// matching heading is usually navigation or an ad slot.
const (
	minIngredientItems  = 2
	minInstructionItems = 1
)

// ingredientHeadings and instructionHeadings are the fixed heading
// vocabularies, matched case-insensitively as substrings.
var (
	ingredientHeadings  = []string{"ingredient"}
	instructionHeadings = []string{"instruction", "direction", "method", "preparation", "steps"}
)

// HTMLStrategy is the lowest-precision fallback: it scans for list elements
// under headings whose text matches a small fixed vocabulary. Used only when
// every structured strategy reports no signal.
type HTMLStrategy struct{}

func (HTMLStrategy) Method() model.ExtractionMethod { return model.MethodHTML }

func (HTMLStrategy) Extract(doc *goquery.Document, sourceURL string) (*model.Recipe, error) {
	ingredients := listUnderHeading(doc, ingredientHeadings, minIngredientItems)
	instructions := listUnderHeading(doc, instructionHeadings, minInstructionItems)
	if len(ingredients) == 0 || len(instructions) == 0 {
		return nil, nil
	}

	r := &model.Recipe{Instructions: instructions}
	for _, line := range ingredients {
		r.Ingredients = append(r.Ingredients, model.Ingredient{OriginalText: line})
	}

	r.Title = nodeText(doc.Find("h1").First())
	if r.Title == "" {
		r.Title = nodeText(doc.Find("title").First())
	}
	return r, nil
}

// listUnderHeading finds the first h1-h5 whose text matches the vocabulary
// and returns the items of the nearest following list, if it has at least
// minItems entries.
func listUnderHeading(doc *goquery.Document, vocabulary []string, minItems int) []string {
	var items []string

	doc.Find("h1, h2, h3, h4, h5").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		text := strings.ToLower(nodeText(h))
		if !matchesVocabulary(text, vocabulary) {
			return true
		}
		list := followingList(h)
		if list == nil {
			return true
		}
		list.Find("li").Each(func(_ int, li *goquery.Selection) {
			if t := nodeText(li); t != "" {
				items = append(items, t)
			}
		})
		if len(items) >= minItems {
			return false
		}
		items = nil
		return true
	})

	return items
}

func matchesVocabulary(text string, vocabulary []string) bool {
	for _, word := range vocabulary {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}

// followingList returns the first ul/ol after the heading: a direct sibling,
// or one nested inside a following sibling container.
func followingList(h *goquery.Selection) *goquery.Selection {
	var found *goquery.Selection
	h.NextAll().EachWithBreak(func(_ int, sib *goquery.Selection) bool {
		if sib.Is("ul, ol") {
			found = sib
			return false
		}
		if nested := sib.Find("ul, ol").First(); nested.Length() > 0 {
			found = nested
			return false
		}
		return true
	})
	return found
}
