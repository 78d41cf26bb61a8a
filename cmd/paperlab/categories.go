package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"paperlab/internal/catalog"
	"paperlab/internal/config"
	"paperlab/internal/logging"
	"paperlab/internal/term"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories [code]",
	Short: "List the category taxonomy, or name a single code",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCategories,
}

var categoriesSetCmd = &cobra.Command{
	Use:   "set <code> <name...>",
	Short: "Add a category or rename an existing one",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runCategoriesSet,
}

func init() {
	categoriesCmd.AddCommand(categoriesSetCmd)
	rootCmd.AddCommand(categoriesCmd)
}

// openCatalog opens the configured category catalog.
func openCatalog(cmd *cobra.Command) (*catalog.Catalog, error) {
	dir, _ := cmd.Flags().GetString("config-dir")
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	log, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return catalog.Open(cmd.Context(), cfg.CatalogPath, log)
}

func runCategoriesSet(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer cat.Close()

	c := catalog.Category{Code: args[0], Name: strings.Join(args[1:], " ")}
	if err := cat.Put(cmd.Context(), c); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s · %s\n", c.Code, c.Name)
	return nil
}

func runCategories(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer cat.Close()
	ctx := cmd.Context()

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		name, ok, err := cat.Name(ctx, args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("unknown category %q", args[0])
		}
		fmt.Fprintln(out, name)
		return nil
	}

	all, err := cat.All(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, term.NewRenderer(0).Categories(all))
	return nil
}
