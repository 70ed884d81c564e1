// Package main implements brief management commands: create, list,
// show, delete, status, and export.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"briefcraft/internal/brief"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	briefCountry  string
	briefLanguage string
	briefJSON     bool
	exportPath    string
)

var briefCmd = &cobra.Command{
	Use:   "brief",
	Short: "Manage content briefs",
}

var briefNewCmd = &cobra.Command{
	Use:   "new <keyword>",
	Short: "Create a new brief for a keyword",
	Args:  cobra.ExactArgs(1),
	RunE:  runBriefNew,
}

var briefListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored briefs",
	RunE:  runBriefList,
}

var briefShowCmd = &cobra.Command{
	Use:   "show <brief-id>",
	Short: "Render a brief to the terminal",
	Args:  cobra.ExactArgs(1),
	RunE:  runBriefShow,
}

var briefDeleteCmd = &cobra.Command{
	Use:   "delete <brief-id>",
	Short: "Delete a brief",
	Args:  cobra.ExactArgs(1),
	RunE:  runBriefDelete,
}

var briefStatusCmd = &cobra.Command{
	Use:   "status <brief-id>",
	Short: "Show per-stage completion and staleness",
	Args:  cobra.ExactArgs(1),
	RunE:  runBriefStatus,
}

var briefExportCmd = &cobra.Command{
	Use:   "export <brief-id>",
	Short: "Export a brief as markdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runBriefExport,
}

func init() {
	briefNewCmd.Flags().StringVar(&briefCountry, "country", "", "target country code")
	briefNewCmd.Flags().StringVar(&briefLanguage, "language", "", "target language code")
	briefShowCmd.Flags().BoolVar(&briefJSON, "json", false, "print raw JSON instead of rendering")
	briefExportCmd.Flags().StringVarP(&exportPath, "out", "o", "", "write to file instead of stdout")
}

func runBriefNew(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	b := &brief.Brief{
		ID:        uuid.NewString(),
		Keyword:   args[0],
		Country:   briefCountry,
		Language:  briefLanguage,
		CreatedAt: time.Now().UTC(),
	}
	if err := st.Put(cmd.Context(), b); err != nil {
		return fmt.Errorf("save brief: %w", err)
	}
	fmt.Printf("Created brief %s for %q\n", b.ID, b.Keyword)
	return nil
}

func runBriefList(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	ids, err := st.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("No briefs stored.")
		return nil
	}
	for _, id := range ids {
		b, err := st.Get(cmd.Context(), id)
		if err != nil {
			fmt.Printf("  %s  (unreadable: %v)\n", id, err)
			continue
		}
		fmt.Printf("  %s  %-40q  updated %s\n", b.ID, b.Keyword, b.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

func runBriefShow(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	b, err := st.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if briefJSON {
		data, err := json.MarshalIndent(b, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	md := b.Markdown()
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Print(md)
		return nil
	}
	out, err := renderer.Render(md)
	if err != nil {
		fmt.Print(md)
		return nil
	}
	fmt.Print(out)
	return nil
}

func runBriefDelete(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	if err := st.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted brief %s\n", args[0])
	return nil
}

var (
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	staleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func runBriefStatus(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	b, err := st.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Brief %s  %q\n\n", b.ID, b.Keyword)
	for _, s := range brief.DisplayOrder() {
		var state string
		switch {
		case b.Staleness.IsStale(s):
			state = staleStyle.Render("stale")
		case b.HasStage(s):
			state = doneStyle.Render("done")
		default:
			state = pendingStyle.Render("pending")
		}
		fmt.Printf("  %-16s %s\n", s, state)
	}
	if len(b.Competitors) > 0 {
		fmt.Printf("\nCompetitors fetched: %d (%d starred)\n",
			len(b.Competitors), len(brief.StarredCompetitors(b.Competitors)))
	}
	return nil
}

func runBriefExport(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	b, err := st.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	md := b.Markdown()
	if exportPath == "" {
		fmt.Print(md)
		return nil
	}
	if err := os.WriteFile(exportPath, []byte(md), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Printf("Exported brief to %s\n", exportPath)
	return nil
}
