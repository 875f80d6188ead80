package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/pylearn/internal/catalog"
	"github.com/abhisek/pylearn/internal/ui/components"
	"github.com/abhisek/pylearn/internal/ui/theme"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and validate activity catalogs",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog activities",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cat, err := catalog.LoadOrDefault(cfg.CatalogPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}

		var acts []catalog.Activity
		if kind != "" {
			k := catalog.Kind(kind)
			if !k.Valid() {
				return fmt.Errorf("unknown activity kind %q", kind)
			}
			acts = cat.List(k)
		} else {
			acts = cat.All()
		}
		theme.Fprintln(cmd.OutOrStdout(), renderActivities(cat.Version(), acts))
		return nil
	},
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a catalog YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load(args[0])
		if err != nil {
			return err
		}
		theme.Fprintln(cmd.OutOrStdout(), renderValidation(args[0], cat))
		return nil
	},
}

func init() {
	catalogListCmd.Flags().String("kind", "", "Only list this kind (lesson, quiz, challenge, project)")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
}

func renderActivities(version string, acts []catalog.Activity) string {
	rows := make([][]string, len(acts))
	for i, a := range acts {
		rows[i] = []string{
			a.ID,
			string(a.Kind),
			a.Title,
			string(a.Difficulty),
			strconv.Itoa(a.Points),
			strings.Join(a.Prerequisites, ", "),
		}
	}
	return theme.Subtitle.Render("catalog "+version) + "\n" +
		components.Table([]string{"ID", "Kind", "Title", "Difficulty", "Points", "Requires"}, rows)
}

func renderValidation(path string, cat *catalog.Catalog) string {
	counts := make([]components.KV, 0, len(catalog.AllKinds())+1)
	counts = append(counts, components.KV{Key: "Version", Value: cat.Version()})
	for _, k := range catalog.AllKinds() {
		counts = append(counts, components.KV{Key: string(k), Value: strconv.Itoa(len(cat.List(k)))})
	}
	out := theme.Good.Render("✓ ") + path + " is valid\n" + components.KeyValues(counts)
	for _, d := range cat.Dangling() {
		out += "\n" + theme.Warn.Render(fmt.Sprintf("warning: %s requires unknown %s", d.ActivityID, d.PrerequisiteID))
	}
	return out
}
