// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/evidence-engine/internal/runlog"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Review past runs and their audit verdicts",
	Long: `Runs reads the run journal. Without arguments it lists recent runs;
"runs show <run-id>" prints one run in full, including the answer, the
audit findings, and the source warnings.

The journal must be enabled by setting run_log.path in the configuration.`,
	RunE: runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Print one journaled run in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func openJournal() (*runlog.Store, error) {
	cfg := engineConfig()
	if cfg.RunLog.Path == "" {
		return nil, fmt.Errorf("run journal disabled: set run_log.path in the configuration")
	}
	return runlog.NewStore(cfg.RunLog)
}

func runRunsList(cmd *cobra.Command, args []string) error {
	store, err := openJournal()
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.List(context.Background(), limit)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No runs journaled.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-6s  %-5s  %-4s  %s\n",
		"Run", "When", "State", "Safe", "Rev", "Query")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))
	for _, e := range entries {
		query := e.Query
		if len(query) > 38 {
			query = query[:35] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-6s  %-5t  %-4d  %s\n",
			e.RunID, e.CreatedAt.Local().Format(time.DateTime), e.State, e.IsSafe,
			e.RevisionCount, query)
	}
	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(entries))
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	store, err := openJournal()
	if err != nil {
		return err
	}
	defer store.Close()

	entry, err := store.Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entry)
	}

	fmt.Printf("Run:      %s\n", entry.RunID)
	fmt.Printf("When:     %s\n", entry.CreatedAt.Local().Format(time.DateTime))
	fmt.Printf("State:    %s\n", entry.State)
	fmt.Printf("Safe:     %t (revisions: %d, elapsed: %dms)\n", entry.IsSafe, entry.RevisionCount, entry.ElapsedMs)
	if len(entry.SourcesUsed) > 0 {
		fmt.Printf("Sources:  %s\n", strings.Join(entry.SourcesUsed, ", "))
	}
	fmt.Printf("\nQuery:\n%s\n\nAnswer:\n%s\n", entry.Query, entry.Draft)
	if len(entry.SafetyIssues) > 0 {
		fmt.Println("\nSafety findings:")
		for _, issue := range entry.SafetyIssues {
			fmt.Printf("  [%s] %s: %s\n", issue.Severity, issue.Type, issue.Description)
		}
	}
	for _, w := range entry.Warnings {
		fmt.Println(w)
	}
	return nil
}

func init() {
	runsCmd.Flags().Int("limit", 0, "maximum runs to list (0 = use default)")
	runsShowCmd.Flags().Bool("json", false, "output the run as JSON")

	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}
