// Package main implements stage execution commands.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"briefcraft/internal/brief"
	"briefcraft/internal/stages"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	stageFeedback     string
	stageRegenerate   bool
	stageKeywordsFile string
	stageTemplateFile string
)

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Run brief generation stages",
}

var stageListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the generation stages in order",
	Run: func(cmd *cobra.Command, args []string) {
		for i, s := range brief.Stages() {
			fmt.Printf("  %d. %s\n", i+1, s)
		}
	},
}

var stageRunCmd = &cobra.Command{
	Use:   "run <brief-id> <stage>",
	Short: "Run one generation stage for a brief",
	Long: `Run one generation stage. Stages must run in order; a stage refuses
to run while any earlier stage has no data. Re-running a completed stage
regenerates it and marks every downstream stage stale.`,
	Args: cobra.ExactArgs(2),
	RunE: runStageRun,
}

func init() {
	stageRunCmd.Flags().StringVar(&stageFeedback, "feedback", "", "user feedback to steer regeneration")
	stageRunCmd.Flags().BoolVar(&stageRegenerate, "regenerate", false, "force regeneration of a completed stage")
	stageRunCmd.Flags().StringVar(&stageKeywordsFile, "keywords", "", "JSON file of supplied keywords for the keyword stage")
	stageRunCmd.Flags().StringVar(&stageTemplateFile, "template", "", "JSON file of a template outline for the outline stage")
}

func runStageRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	stage, err := brief.ParseStage(args[1])
	if err != nil {
		return err
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	b, err := st.Get(ctx, args[0])
	if err != nil {
		return err
	}

	if missing := stages.MissingPrerequisites(b, stage); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, m := range missing {
			names[i] = m.String()
		}
		return fmt.Errorf("stage %s blocked: run %s first", stage, strings.Join(names, ", "))
	}

	sc := stages.StageContext{
		Brief:          b,
		Feedback:       stageFeedback,
		IsRegeneration: stageRegenerate || b.HasStage(stage),
	}
	if stageKeywordsFile != "" {
		kws, err := loadSuppliedKeywords(stageKeywordsFile)
		if err != nil {
			return err
		}
		sc.SuppliedKeywords = kws
	}
	if stageTemplateFile != "" {
		tpl, err := loadTemplateOutline(stageTemplateFile)
		if err != nil {
			return err
		}
		sc.TemplateOutline = tpl
	}

	orch, err := newOrchestrator(ctx)
	if err != nil {
		return err
	}

	sess := sessions().Session(b)

	start := time.Now()
	fmt.Printf("Running stage %s for brief %s...\n", stage, b.ID)
	result, err := orch.RunStage(ctx, stage, sc)
	if err != nil {
		return err
	}
	if err := sess.Update(func(b *brief.Brief) error {
		result.Apply(b)
		return st.Put(ctx, b)
	}); err != nil {
		return fmt.Errorf("save brief: %w", err)
	}

	logger.Info("stage complete",
		zap.String("brief", b.ID),
		zap.Stringer("stage", stage),
		zap.Duration("elapsed", time.Since(start)))
	fmt.Printf("Stage %s complete in %s\n", stage, time.Since(start).Round(time.Second))
	if stale := b.Staleness.Stale(); len(stale) > 0 {
		names := make([]string, len(stale))
		for i, s := range stale {
			names[i] = s.String()
		}
		fmt.Printf("Downstream stages now stale: %s\n", strings.Join(names, ", "))
	}
	return nil
}

func loadSuppliedKeywords(path string) ([]brief.SuppliedKeyword, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keywords file: %w", err)
	}
	var kws []brief.SuppliedKeyword
	if err := json.Unmarshal(data, &kws); err != nil {
		return nil, fmt.Errorf("parse keywords file: %w", err)
	}
	return kws, nil
}

func loadTemplateOutline(path string) ([]*brief.OutlineItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template file: %w", err)
	}
	var items []*brief.OutlineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse template file: %w", err)
	}
	return items, nil
}
