package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mnemo-ai/mnemo/internal/store"
)

func compactCmd() *cobra.Command {
	var agentName, ownerID string

	cmd := &cobra.Command{
		Use:   "compact",
		Short: "Merge near-duplicate memories into consolidated summaries",
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

			if err := rt.engine.Compact(ctx, agent.ID, ownerID); err != nil {
				fatalf("compact: %v", err)
			}
			if err := rt.engine.RefreshProfile(ctx, agent.ID, ownerID); err != nil {
				fatalf("refresh profile: %v", err)
			}
			fmt.Println("Compaction complete")
		},
	}

	cmd.Flags().StringVar(&agentName, "agent", "default", "agent name")
	cmd.Flags().StringVar(&ownerID, "owner", "default", "owner to compact")
	return cmd
}
