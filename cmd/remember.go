package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mnemo-ai/mnemo/internal/memory"
	"github.com/mnemo-ai/mnemo/internal/store"
)

func rememberCmd() *cobra.Command {
	var agentName, ownerID, sessionID, sessionName string

	cmd := &cobra.Command{
		Use:   "remember [message]",
		Short: "Extract and persist memories from a conversation",
		Long: "Feeds conversation turns through insight extraction and stores the\n" +
			"results. Pass a single user message as arguments, or pipe a JSON\n" +
			"array of {role, content} turns on stdin.",
		Run: func(cmd *cobra.Command, args []string) {
			if err := store.ValidateOwnerID(ownerID); err != nil {
				fatalf("%v", err)
			}

			turns, err := readTurns(args)
			if err != nil {
				fatalf("%v", err)
			}
			if len(turns) == 0 {
				fatalf("no conversation turns given")
			}

			ctx := cmd.Context()
			rt, err := openRuntime(ctx)
			if err != nil {
				fatalf("%v", err)
			}
			defer rt.close()

			agent, err := resolveAgent(ctx, rt, agentName)
			if err != nil {
				fatalf("%v", err)
			}

			if sessionID == "" {
				sessionID = store.GenNewID().String()
			}
			created := rt.engine.Remember(ctx, agent.ID, ownerID, sessionID, sessionName, turns)
			rt.tasks.WaitIdle()
			fmt.Printf("Stored %d memories\n", created)
		},
	}

	cmd.Flags().StringVar(&agentName, "agent", "default", "agent name")
	cmd.Flags().StringVar(&ownerID, "owner", "default", "owner the memories belong to")
	cmd.Flags().StringVar(&sessionID, "session", "", "session id (generated when empty)")
	cmd.Flags().StringVar(&sessionName, "session-name", "", "human-readable session name")
	return cmd
}

// readTurns builds the turn list from args or, when none are given,
// from a JSON array on stdin.
func readTurns(args []string) ([]memory.Turn, error) {
	if len(args) > 0 {
		return []memory.Turn{{Role: "user", Content: strings.Join(args, " ")}}, nil
	}

	var turns []memory.Turn
	if err := json.NewDecoder(os.Stdin).Decode(&turns); err != nil {
		return nil, fmt.Errorf("parse turns from stdin: %w", err)
	}
	return turns, nil
}
