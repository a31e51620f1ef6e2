package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kurihiro0119/gitpeek/internal/config"
	"github.com/kurihiro0119/gitpeek/internal/domain"
	"github.com/kurihiro0119/gitpeek/internal/logging"
	"github.com/kurihiro0119/gitpeek/internal/storage"
	"github.com/kurihiro0119/gitpeek/internal/storage/engine"
	"github.com/kurihiro0119/gitpeek/pkg/client"
)

var (
	apiEndpoint string
	outputJSON  bool
	timeRange   string
	sessionID   string
)

var rootCmd = &cobra.Command{
	Use:   "gitpeek",
	Short: "GitHub user activity tool",
	Long: `A CLI tool for looking up the recent GitHub activity of a user.

It talks to a running GitPeek API server and shows the user's most recently
updated repositories, their latest commits and a per-day commit histogram.`,
	SilenceUsage: true,
}

var activityCmd = &cobra.Command{
	Use:   "activity [username]",
	Short: "Show a user's activity",
	Long:  `Display the repositories, commits and daily commit counts of a GitHub user over a time range.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runActivity,
}

var userCmd = &cobra.Command{
	Use:   "user [username]",
	Short: "Show a user's profile",
	Long:  `Display the public GitHub profile of a user.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runUser,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the API server",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove expired cache entries and sessions",
	Long:  `Open the configured storage directly and delete every expired cache entry and session.`,
	Args:  cobra.NoArgs,
	RunE:  runCleanup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiEndpoint, "api", "", "API endpoint (default from API_ENDPOINT)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")

	activityCmd.Flags().StringVarP(&timeRange, "range", "r", string(domain.DefaultTimeRange), "time range ("+domain.TimeRangeNames()+")")
	activityCmd.Flags().StringVar(&sessionID, "session", "", "session id for authenticated lookups")

	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(cleanupCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getClient() (*client.Client, error) {
	if apiEndpoint != "" {
		return client.NewClient(apiEndpoint), nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return client.NewClient(cfg.APIEndpoint), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runActivity(cmd *cobra.Command, args []string) error {
	username := args[0]

	tr, err := domain.ParseTimeRange(timeRange)
	if err != nil {
		return err
	}

	c, err := getClient()
	if err != nil {
		return err
	}

	activity, err := c.GetActivity(cmd.Context(), username, tr, sessionID)
	if err != nil {
		return fmt.Errorf("failed to get activity: %w", err)
	}

	if outputJSON {
		return printJSON(activity)
	}
	renderActivity(os.Stdout, activity)
	return nil
}

func runUser(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	profile, err := c.GetUser(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if outputJSON {
		return printJSON(profile)
	}
	renderProfile(os.Stdout, profile)
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	if err := c.HealthCheck(cmd.Context()); err != nil {
		return fmt.Errorf("API is not healthy: %w", err)
	}
	fmt.Println("API is healthy")
	return nil
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	stores, err := engine.OpenAll(cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	janitor := storage.NewJanitor(map[string]storage.Store{
		storage.CacheTable:   stores.Cache,
		storage.SessionTable: stores.Sessions,
	}, cfg.CleanupInterval, logging.NewLogger(cfg.Env, cfg.LogLevel))

	removed := janitor.Sweep(ctx)
	fmt.Printf("Removed %d expired entries from %s storage\n", removed, cfg.StorageType)
	return nil
}
