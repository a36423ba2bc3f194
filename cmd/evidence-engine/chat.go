// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdiddy/evidence-engine/internal/workflow"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive conversation with evidence-gated answers",
	Long: `Chat starts a read-eval loop. Every question runs the full pipeline;
prior turns in the session are replayed into synthesis so follow-up
questions keep their context. Type "exit" or press Ctrl-D to quit,
"clear" to forget the conversation.`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sessionID, _ := cmd.Flags().GetString("session")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	fmt.Fprintf(os.Stderr, "Session %s. Digite sua pergunta (exit para sair, clear para recomeçar).\n", sessionID)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return scanner.Err()
		case "clear":
			a.sessions.Clear(sessionID)
			fmt.Fprintln(os.Stderr, "Conversa esquecida.")
			continue
		}

		result, err := a.engine.Run(ctx, workflow.Request{
			Query:   line,
			History: a.sessions.History(sessionID),
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "erro:", err)
			continue
		}
		a.record(ctx, line, result)
		printResult(result)
		fmt.Println()

		// Failed runs are not remembered; the apology text would poison
		// the context of the next question.
		if result.State == workflow.StateDone {
			a.sessions.Append(sessionID, line, result.Draft)
		}
	}
	return scanner.Err()
}

func init() {
	chatCmd.Flags().String("session", "", "session ID to resume (default: a new session)")

	rootCmd.AddCommand(chatCmd)
}
