package cmd

import (
	"fmt"
	"os"
	goruntime "runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mnemo-ai/mnemo/internal/config"
	"github.com/mnemo-ai/mnemo/internal/store/pg"
	"github.com/mnemo-ai/mnemo/internal/store/sqlite"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and store health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println("mnemo doctor")
	fmt.Printf("  OS:       %s/%s\n", goruntime.GOOS, goruntime.GOARCH)
	fmt.Printf("  Go:       %s\n", goruntime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND, using defaults)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	fmt.Println()
	fmt.Println("  Provider:")
	fmt.Printf("    Kind:       %s\n", cfg.Provider.Kind)
	checkAPIKey(cfg.Provider.APIKey)
	fmt.Printf("    Chat model: %s\n", orDefault(cfg.Provider.ChatModel, "(provider default)"))
	fmt.Printf("    Embeddings: %s\n", orDefault(cfg.Provider.EmbedModel, "(provider default)"))

	fmt.Println()
	if cfg.Store.PostgresDSN != "" {
		fmt.Print("  Store:    postgres")
		db, err := pg.OpenDB(cfg.Store.PostgresDSN)
		if err != nil {
			fmt.Printf(" (UNREACHABLE: %s)\n", err)
		} else {
			db.Close()
			fmt.Println(" (OK)")
		}
	} else {
		fmt.Printf("  Store:    sqlite %s", cfg.Store.SQLitePath)
		st, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			fmt.Printf(" (UNAVAILABLE: %s)\n", err)
		} else {
			st.Close()
			fmt.Println(" (OK)")
		}
	}

	fmt.Println()
	fmt.Println("Doctor check complete.")
}

func checkAPIKey(apiKey string) {
	if apiKey == "" {
		fmt.Println("    API key:    (not configured, set provider.api_key or MNEMO_API_KEY)")
		return
	}
	masked := apiKey
	if len(apiKey) > 8 {
		masked = apiKey[:4] + strings.Repeat("*", len(apiKey)-8) + apiKey[len(apiKey)-4:]
	}
	fmt.Printf("    API key:    %s\n", masked)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
