// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/evidence-engine/internal/workflow"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one clinical question from published evidence",
	Long: `Ask runs the full pipeline for a single question: evidence is gathered
from the scientific, regulatory, regional, and trial-registry sources, a
draft answer is synthesized, and the draft is audited for safety before
it is printed. The audit verdict, sources consulted, and any source
warnings are shown alongside the answer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	query := strings.Join(args, " ")
	result, err := a.engine.Run(ctx, workflow.Request{Query: query})
	if err != nil {
		return err
	}
	a.record(ctx, query, result)

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resultView(result))
	}

	printResult(result)
	if result.State == workflow.StateFailed {
		return fmt.Errorf("run %s failed: %v", result.RunID, result.Err)
	}
	return nil
}

// askResult is the JSON shape of a run, stable for scripting.
type askResult struct {
	RunID         string   `json:"run_id"`
	State         string   `json:"state"`
	Answer        string   `json:"answer"`
	IsSafe        bool     `json:"is_safe"`
	SafetyIssues  any      `json:"safety_issues,omitempty"`
	SourcesUsed   []string `json:"sources_used,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
	RevisionCount int      `json:"revision_count"`
	ElapsedMs     int64    `json:"elapsed_ms"`
	Error         string   `json:"error,omitempty"`
}

func resultView(r workflow.Result) askResult {
	v := askResult{
		RunID:         r.RunID,
		State:         string(r.State),
		Answer:        r.Draft,
		IsSafe:        r.IsSafe,
		SourcesUsed:   r.SourcesUsed,
		Warnings:      r.Warnings,
		RevisionCount: r.RevisionCount,
		ElapsedMs:     r.ElapsedMs,
	}
	if len(r.SafetyIssues) > 0 {
		v.SafetyIssues = r.SafetyIssues
	}
	if r.Err != nil {
		v.Error = r.Err.Error()
	}
	return v
}

func printResult(r workflow.Result) {
	fmt.Println(r.Draft)

	if len(r.SourcesUsed) > 0 {
		fmt.Printf("\nFontes consultadas: %s\n", strings.Join(r.SourcesUsed, ", "))
	}
	for _, w := range r.Warnings {
		fmt.Fprintln(os.Stderr, w)
	}
	if !r.IsSafe && len(r.SafetyIssues) > 0 {
		fmt.Fprintf(os.Stderr, "\nA resposta foi revisada mas ainda carrega %d ressalva(s) de segurança:\n", len(r.SafetyIssues))
		for _, issue := range r.SafetyIssues {
			fmt.Fprintf(os.Stderr, "  [%s] %s\n", issue.Severity, issue.Description)
		}
	}
}

func init() {
	askCmd.Flags().Bool("json", false, "output the result as JSON")

	rootCmd.AddCommand(askCmd)
}
