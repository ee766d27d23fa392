// stockchat: chat API over global stock-index datasets.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seenimoa/stockchat/api"
	"github.com/seenimoa/stockchat/internal/chat"
	"github.com/seenimoa/stockchat/internal/client"
	"github.com/seenimoa/stockchat/internal/config"
	"github.com/seenimoa/stockchat/internal/datasource"
	"github.com/seenimoa/stockchat/internal/display"
	"github.com/seenimoa/stockchat/internal/llm"
	"github.com/seenimoa/stockchat/internal/logging"
	"github.com/seenimoa/stockchat/pkg/models"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger
var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	err := rootCmd.Execute()
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, display.Error(err))
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stockchat",
	Short: "stockchat: ask questions about global stock-market indices",
	Long: `stockchat serves a REST API over three stock-index CSV datasets and
answers free-text questions with Gemini, attaching index bars or
region listings when a question names them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		if server, _ := cmd.Flags().GetString("server"); server != "" {
			cfg.Client.BaseURL = server
		}

		logger, err = logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("server", "", "API server URL for remote commands")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(indicesCmd)
	rootCmd.AddCommand(barsCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(rawCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stockchat %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		api.Version = version
		srv, err := api.New(cfg, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		go reloadOn(ctx, hup, srv.Reload)

		if config.CheckAPIKeys(cfg)[0].IsSet {
			logger.Info("gemini key configured", zap.String("model", cfg.LLM.Model))
		} else {
			logger.Warn("GEMINI_API_KEY is not set; chat requests will fail until it is")
		}
		return srv.ListenAndServe(ctx)
	},
}

// reloadOn calls reload for every signal received until ctx is done.
func reloadOn(ctx context.Context, sig <-chan os.Signal, reload func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			reload()
		}
	}
}

// --- Ask Command ---

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the stock-index data",
	Long: `Ask a question through a running API server, or in-process with --local.

Examples:
  stockchat ask "tell me about nya"
  stockchat ask --local "what indices are in china"
  stockchat ask --direct --context "my notes" "summarize"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		local, _ := cmd.Flags().GetBool("local")
		direct, _ := cmd.Flags().GetBool("direct")
		extra, _ := cmd.Flags().GetString("context")
		q := models.ChatQuery{Message: strings.Join(args, " "), Context: extra}
		ctx := cmd.Context()

		if local {
			router, err := localRouter()
			if err != nil {
				return err
			}
			if direct {
				text, err := router.AskDirect(ctx, q)
				if err != nil {
					return err
				}
				fmt.Println(text)
				return nil
			}
			ans := router.Answer(ctx, q)
			fmt.Println(display.Answer(&ans))
			return nil
		}

		c := client.New(cfg.Client)
		if direct {
			text, err := c.Ask(ctx, q)
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		}
		ans, err := c.Chat(ctx, q)
		if err != nil {
			return err
		}
		fmt.Println(display.Answer(ans))
		return nil
	},
}

func init() {
	askCmd.Flags().Bool("local", false, "answer in-process instead of calling the API server")
	askCmd.Flags().Bool("direct", false, "send the question with --context only, without dataset context")
	askCmd.Flags().String("context", "", "extra context for --direct questions")
}

// localRouter wires the chat router without an HTTP server.
func localRouter() (*chat.Router, error) {
	routerCfg, err := chat.RouterConfigFrom(cfg.Router)
	if err != nil {
		return nil, err
	}
	store := datasource.NewStore(cfg.Data, logger)
	gemini := llm.NewGeminiFromConfig(llm.ProviderConfigFrom(cfg.LLM))
	return chat.NewRouter(store, gemini, routerCfg, logger), nil
}

// --- Indices Command ---

var indicesCmd = &cobra.Command{
	Use:   "indices",
	Short: "List indices, optionally filtered by region",
	RunE: func(cmd *cobra.Command, args []string) error {
		region, _ := cmd.Flags().GetString("region")
		c := client.New(cfg.Client)

		var (
			recs []models.IndexRecord
			err  error
		)
		if region != "" {
			recs, err = c.IndicesByRegion(cmd.Context(), region)
		} else {
			recs, err = c.Indices(cmd.Context())
		}
		if err != nil {
			return err
		}
		fmt.Println(display.Indices(recs))
		return nil
	},
}

func init() {
	indicesCmd.Flags().String("region", "", "region filter (case-insensitive substring)")
}

// --- Bars Command ---

var barsCmd = &cobra.Command{
	Use:   "bars [symbol]",
	Short: "Show daily bars for an index symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		bars, err := client.New(cfg.Client).StockData(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		fmt.Println(display.Bars(bars))
		return nil
	},
}

func init() {
	barsCmd.Flags().Int("limit", 10, "number of bars (server caps at 100)")
}

// --- Summary Command ---

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the dataset summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		sum, err := client.New(cfg.Client).Summary(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(display.Summary(sum))
		return nil
	},
}

// --- Raw Command ---

var rawCmd = &cobra.Command{
	Use:   "raw",
	Short: "Show the index table and the first rows of both bar files",
	RunE: func(cmd *cobra.Command, args []string) error {
		sample, err := client.New(cfg.Client).RawData(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(display.Sample(sample))
		return nil
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  stockchat: System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Println()

		ctx := cmd.Context()
		fmt.Println("  Configuration:")
		fmt.Printf("    Data dir:      %s\n", cfg.Data.Dir)
		fmt.Printf("    LLM:           %s (model: %s)\n", llm.ProviderGemini, cfg.LLM.Model)
		fmt.Printf("    API Server:    %s\n", cfg.API.Addr())
		fmt.Printf("    Client URL:    %s\n", cfg.Client.BaseURL)
		fmt.Println()

		fmt.Printf("  Server health: %s\n", serverStatus(ctx, client.New(cfg.Client)))
		fmt.Println()

		fmt.Println("  API Keys:")
		fmt.Println(display.Keys(config.CheckAPIKeys(cfg)))
		fmt.Println()

		store := datasource.NewStore(cfg.Data, zap.NewNop())
		if sum, err := store.Summary(ctx); err != nil {
			fmt.Printf("  Dataset:       unavailable (%v)\n", err)
		} else {
			fmt.Printf("  Dataset:       %d indices, %d records\n", sum.TotalIndices, sum.TotalRecords)
		}

		gemini := llm.NewGeminiFromConfig(llm.ProviderConfigFrom(cfg.LLM))
		if err := gemini.Ping(ctx); err != nil {
			fmt.Printf("  Completion:    unavailable (%v)\n", err)
		} else {
			fmt.Printf("  Completion:    ready (%s)\n", gemini.Model())
		}
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// serverStatus reports whether the API server answers GET /health.
func serverStatus(ctx context.Context, c *client.Client) string {
	h, err := c.Health(ctx)
	if err != nil {
		return fmt.Sprintf("unreachable (%v)", err)
	}
	return fmt.Sprintf("reachable (%s)", h["status"])
}
