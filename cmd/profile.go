package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mnemo-ai/mnemo/internal/store"
)

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or refresh the client-facing memory summary",
	}
	cmd.AddCommand(profileShowCmd())
	cmd.AddCommand(profileRefreshCmd())
	return cmd
}

func profileShowCmd() *cobra.Command {
	var agentName string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the agent's current memory summary",
		Run: func(cmd *cobra.Command, args []string) {
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

			if agent.MemorySummary == nil || *agent.MemorySummary == "" {
				fmt.Println("No memory summary yet")
				return
			}
			fmt.Println(*agent.MemorySummary)
		},
	}

	cmd.Flags().StringVar(&agentName, "agent", "default", "agent name")
	return cmd
}

func profileRefreshCmd() *cobra.Command {
	var agentName, ownerID string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Regenerate the memory summary from stored memories",
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

			if err := rt.engine.RefreshProfile(ctx, agent.ID, ownerID); err != nil {
				fatalf("refresh profile: %v", err)
			}

			updated, err := rt.agents.GetAgent(ctx, agent.ID)
			if err == nil && updated.MemorySummary != nil && *updated.MemorySummary != "" {
				fmt.Println(*updated.MemorySummary)
				return
			}
			fmt.Println("No memories to summarize")
		},
	}

	cmd.Flags().StringVar(&agentName, "agent", "default", "agent name")
	cmd.Flags().StringVar(&ownerID, "owner", "default", "owner to summarize")
	return cmd
}
