package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/plateful/recipe-cli/internal/model"
	"github.com/plateful/recipe-cli/internal/store"
)

var (
	listStatus string
	listMethod string
	listSource string
	listLimit  int
)

var recipesCmd = &cobra.Command{
	Use:   "recipes",
	Short: "Inspect stored recipes",
}

var recipesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored recipes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		recipes, err := st.ListRecipes(ctx, store.Filter{
			AIParsingStatus:  model.AIParsingStatus(listStatus),
			ExtractionMethod: model.ExtractionMethod(listMethod),
			SourceURL:        listSource,
			Limit:            listLimit,
		})
		if err != nil {
			return err
		}

		return printJSON(recipes)
	},
}

var recipesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a recipe by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		recipe, err := st.GetRecipe(ctx, args[0])
		if err != nil {
			return err
		}

		return printJSON(recipe)
	},
}

var recipesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a recipe by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeleteRecipe(ctx, args[0]); err != nil {
			return err
		}

		zap.L().Info("recipe deleted", zap.String("id", args[0]))
		return nil
	},
}

func init() {
	recipesListCmd.Flags().StringVar(&listStatus, "status", "", "filter by AI parsing status (done|required)")
	recipesListCmd.Flags().StringVar(&listMethod, "method", "", "filter by extraction method")
	recipesListCmd.Flags().StringVar(&listSource, "source", "", "filter by source URL")
	recipesListCmd.Flags().IntVar(&listLimit, "limit", 50, "max recipes to list")

	recipesCmd.AddCommand(recipesListCmd, recipesShowCmd, recipesDeleteCmd)
	rootCmd.AddCommand(recipesCmd)
}
