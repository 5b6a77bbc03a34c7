package cmd

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mnemo-ai/mnemo/internal/store"
)

func memoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect and edit stored memories",
	}
	cmd.AddCommand(memoryListCmd())
	cmd.AddCommand(memoryEditCmd())
	cmd.AddCommand(memoryForgetCmd())
	return cmd
}

func memoryListCmd() *cobra.Command {
	var agentName, ownerID string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored memories, newest first",
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

			records, err := rt.engine.List(ctx, agent.ID, ownerID, limit)
			if err != nil {
				fatalf("list memories: %v", err)
			}
			if len(records) == 0 {
				fmt.Println("No memories stored")
				return
			}
			for _, rec := range records {
				fmt.Printf("%s  %s  %s\n", rec.ID, rec.CreatedAt.Format("2006-01-02"), rec.KeyPoint)
			}
		},
	}

	cmd.Flags().StringVar(&agentName, "agent", "default", "agent name")
	cmd.Flags().StringVar(&ownerID, "owner", "default", "owner to list")
	cmd.Flags().IntVar(&limit, "limit", 0, "max records (0 = all)")
	return cmd
}

func memoryEditCmd() *cobra.Command {
	var agentName, ownerID string

	cmd := &cobra.Command{
		Use:   "edit <id> <text>",
		Short: "Rewrite a memory's key point",
		Args:  cobra.MinimumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := uuid.Parse(args[0])
			if err != nil {
				fatalf("invalid memory id: %v", err)
			}
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

			rec, err := rt.engine.EditMemory(ctx, agent.ID, ownerID, id, strings.Join(args[1:], " "))
			if err != nil {
				fatalf("edit memory: %v", err)
			}
			rt.tasks.WaitIdle()
			fmt.Printf("Updated %s\n", rec.ID)
		},
	}

	cmd.Flags().StringVar(&agentName, "agent", "default", "agent name")
	cmd.Flags().StringVar(&ownerID, "owner", "default", "owner of the memory")
	return cmd
}

func memoryForgetCmd() *cobra.Command {
	var agentName, ownerID string

	cmd := &cobra.Command{
		Use:   "forget <id>",
		Short: "Delete a memory",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := uuid.Parse(args[0])
			if err != nil {
				fatalf("invalid memory id: %v", err)
			}
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

			if err := rt.engine.ForgetMemory(ctx, agent.ID, ownerID, id); err != nil {
				fatalf("forget memory: %v", err)
			}
			rt.tasks.WaitIdle()
			fmt.Printf("Forgot %s\n", id)
		},
	}

	cmd.Flags().StringVar(&agentName, "agent", "default", "agent name")
	cmd.Flags().StringVar(&ownerID, "owner", "default", "owner of the memory")
	return cmd
}
