package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mnemo-ai/mnemo/internal/store"
)

func recallCmd() *cobra.Command {
	var agentName, ownerID string

	cmd := &cobra.Command{
		Use:   "recall <query>",
		Short: "Retrieve memories relevant to a query",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := store.ValidateOwnerID(ownerID); err != nil {
				fatalf("%v", err)
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

			lines := rt.engine.Recall(ctx, agent.ID, ownerID, strings.Join(args, " "))
			if len(lines) == 0 {
				fmt.Println("No relevant memories")
				return
			}
			for _, line := range lines {
				fmt.Println(line)
			}
		},
	}

	cmd.Flags().StringVar(&agentName, "agent", "default", "agent name")
	cmd.Flags().StringVar(&ownerID, "owner", "default", "owner to search")
	return cmd
}
