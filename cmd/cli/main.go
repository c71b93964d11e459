package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kurihiro0119/devpulse/internal/collector"
	"github.com/kurihiro0119/devpulse/internal/config"
	"github.com/kurihiro0119/devpulse/internal/dashboard"
	apperrors "github.com/kurihiro0119/devpulse/internal/errors"
	"github.com/kurihiro0119/devpulse/internal/render"
	"github.com/kurihiro0119/devpulse/internal/storage"
	"github.com/kurihiro0119/devpulse/internal/storage/postgres"
	"github.com/kurihiro0119/devpulse/internal/storage/sqlite"
	"github.com/kurihiro0119/devpulse/pkg/client"
)

var (
	outputJSON bool
	shareLink  string
	viaAPI     bool
	showRepos  bool
	showEvents bool
)

var rootCmd = &cobra.Command{
	Use:   "devpulse",
	Short: "GitHub profile dashboard",
	Long: `A CLI tool for viewing a GitHub user's public profile at a glance.

It shows profile details, repository and language statistics, a
contribution heatmap and recent public activity.`,
	SilenceUsage: true,
}

var showCmd = &cobra.Command{
	Use:   "show [username]",
	Short: "Show the dashboard for a user",
	Long: `Fetch a user's public profile, repositories and activity from GitHub and
render the dashboard. The username may also come from --url or DEFAULT_USER.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recent searches",
	Args:  cobra.NoArgs,
	RunE:  runRecent,
}

var recentClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear recent searches",
	Args:  cobra.NoArgs,
	RunE:  runRecentClear,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the API server",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")

	showCmd.Flags().StringVar(&shareLink, "url", "", "shared dashboard link carrying ?user=")
	showCmd.Flags().BoolVar(&viaAPI, "api", false, "fetch through the API server at API_ENDPOINT")
	showCmd.Flags().BoolVar(&showRepos, "repos", true, "show the top repositories table")
	showCmd.Flags().BoolVar(&showEvents, "events", true, "show recent activity")

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(recentCmd)
	recentCmd.AddCommand(recentClearCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func getStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageType {
	case "postgres":
		return postgres.NewPostgresStorage(cfg.PostgresURL)
	default:
		return sqlite.NewSQLiteStorage(cfg.SQLitePath)
	}
}

// resolveUsername picks the username from the argument, the shared link or
// the configured default, in that order
func resolveUsername(args []string, link, fallback string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if link != "" {
		user, err := dashboard.UsernameFromURL(link)
		if err != nil {
			return "", err
		}
		if user != "" {
			return user, nil
		}
	}
	return fallback, nil
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := cfg.NewLogger()

	username, err := resolveUsername(args, shareLink, cfg.DefaultUser)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	r := render.New(out, render.WithRepositories(showRepos), render.WithEvents(showEvents))

	if viaAPI {
		return showViaAPI(ctx, cfg, username, r, out)
	}

	coll, err := collector.NewGitHubCollector(collector.Options{
		BaseURL:        cfg.GitHubAPIURL,
		APIVersion:     cfg.GitHubAPIVersion,
		UserAgent:      cfg.UserAgent,
		RequestsPerSec: cfg.RequestsPerSec,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create collector: %w", err)
	}

	errOut := cmd.ErrOrStderr()
	orch := dashboard.New(coll,
		dashboard.WithLogger(logger),
		dashboard.WithLocation(cfg.PublicURL),
		dashboard.WithObserver(func(v dashboard.View) {
			if v.State == dashboard.StateLoading && !outputJSON {
				render.New(errOut).View(v)
			}
		}),
	)

	view := orch.Search(ctx, username)
	if view.State == dashboard.StateIdle {
		return fmt.Errorf("no username given: pass one as an argument, via --url, or set DEFAULT_USER")
	}
	if view.State == dashboard.StateReady {
		rememberSearch(ctx, cfg, logger, view.Username)
	}

	if outputJSON {
		if err := writeJSON(out, view); err != nil {
			return err
		}
	} else {
		r.View(view)
		r.Quota(coll.Quota())
	}

	if view.State == dashboard.StateError {
		return fmt.Errorf("failed to load %s: %s", view.Username, view.Message)
	}
	return nil
}

func showViaAPI(ctx context.Context, cfg *config.Config, username string, r *render.Renderer, out io.Writer) error {
	if username == "" {
		return fmt.Errorf("no username given: pass one as an argument, via --url, or set DEFAULT_USER")
	}

	resp, err := client.NewClient(cfg.APIEndpoint).GetDashboard(ctx, username)
	if err != nil {
		if !outputJSON {
			r.Error(apperrors.UserMessage(err), apperrors.IsNotFound(err))
		}
		return fmt.Errorf("failed to load %s: %w", username, err)
	}

	if outputJSON {
		return writeJSON(out, resp)
	}
	r.Summary(resp.Data)
	if resp.ShareURL != "" {
		fmt.Fprintf(out, "\nShare: %s\n", resp.ShareURL)
	}
	return nil
}

// rememberSearch records a successful search. History is a convenience, so
// failures are only logged.
func rememberSearch(ctx context.Context, cfg *config.Config, logger *logrus.Logger, username string) {
	store, err := getStorage(cfg)
	if err != nil {
		logger.WithError(err).Warn("recent searches unavailable")
		return
	}
	defer store.Close()

	if err := store.AddRecentSearch(ctx, username); err != nil {
		logger.WithError(err).Warn("failed to save recent search")
	}
}

func runRecent(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := getStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	usernames, err := store.RecentSearches(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read recent searches: %w", err)
	}

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), usernames)
	}
	render.New(cmd.OutOrStdout()).RecentSearches(usernames)
	return nil
}

func runRecentClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := getStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	if err := store.ClearRecentSearches(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear recent searches: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Recent searches cleared")
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	health, err := client.NewClient(cfg.APIEndpoint).HealthCheck(cmd.Context())
	if err != nil {
		return fmt.Errorf("API server at %s is unavailable: %w", cfg.APIEndpoint, err)
	}

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), health)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "API server at %s: %s\n", cfg.APIEndpoint, health.Status)
	if health.Quota != nil {
		render.New(cmd.OutOrStdout()).Quota(*health.Quota)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
