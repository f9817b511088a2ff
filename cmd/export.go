package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/plateful/recipe-cli/internal/model"
	"github.com/plateful/recipe-cli/internal/store"
)

var (
	exportOut    string
	exportStatus string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored recipes to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		recipes, err := st.ListRecipes(ctx, store.Filter{
			AIParsingStatus: model.AIParsingStatus(exportStatus),
			Limit:           -1,
		})
		if err != nil {
			return err
		}

		if err := writeWorkbook(exportOut, recipes); err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.String("path", exportOut),
			zap.Int("recipes", len(recipes)),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "recipes.xlsx", "output workbook path")
	exportCmd.Flags().StringVar(&exportStatus, "status", "", "only export recipes with this AI parsing status")
	rootCmd.AddCommand(exportCmd)
}

// writeWorkbook writes a two-sheet workbook: one row per recipe, plus one row
// per ingredient with the effective amount/unit/name triple.
func writeWorkbook(path string, recipes []model.Recipe) error {
	f := xlsx.NewFile()

	recipeSheet, err := f.AddSheet("Recipes")
	if err != nil {
		return eris.Wrap(err, "export: add recipes sheet")
	}
	addStringRow(recipeSheet, "ID", "Title", "Source URL", "Method", "Servings",
		"Prep (min)", "Cook (min)", "Ingredients", "Instructions", "AI Status")

	ingSheet, err := f.AddSheet("Ingredients")
	if err != nil {
		return eris.Wrap(err, "export: add ingredients sheet")
	}
	addStringRow(ingSheet, "Recipe ID", "Recipe Title", "Original Text",
		"Amount", "Unit", "Name", "Section", "Optional")

	for _, r := range recipes {
		row := recipeSheet.AddRow()
		row.AddCell().SetString(r.ID)
		row.AddCell().SetString(r.Title)
		row.AddCell().SetString(r.SourceURL)
		row.AddCell().SetString(string(r.ExtractionMethod))
		setOptionalInt(row.AddCell(), r.Servings)
		setOptionalInt(row.AddCell(), r.PrepTimeMinutes)
		setOptionalInt(row.AddCell(), r.CookTimeMinutes)
		row.AddCell().SetInt(len(r.Ingredients))
		row.AddCell().SetInt(len(r.Instructions))
		row.AddCell().SetString(string(r.AIParsingStatus))

		for _, ing := range r.Ingredients {
			eff := ing.Effective()

			ir := ingSheet.AddRow()
			ir.AddCell().SetString(r.ID)
			ir.AddCell().SetString(r.Title)
			ir.AddCell().SetString(ing.OriginalText)
			if eff.Amount != nil {
				ir.AddCell().SetFloat(*eff.Amount)
			} else {
				ir.AddCell().SetString("")
			}
			if eff.Unit != nil {
				ir.AddCell().SetString(string(*eff.Unit))
			} else {
				ir.AddCell().SetString("")
			}
			ir.AddCell().SetString(eff.Name)
			if ing.Section != nil {
				ir.AddCell().SetString(*ing.Section)
			} else {
				ir.AddCell().SetString("")
			}
			ir.AddCell().SetBool(ing.Optional)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save workbook")
	}
	return nil
}

func addStringRow(sheet *xlsx.Sheet, cells ...string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}

func setOptionalInt(cell *xlsx.Cell, n *int) {
	if n != nil {
		cell.SetInt(*n)
	} else {
		cell.SetString("")
	}
}
