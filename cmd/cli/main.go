package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kurihiro0119/repository-feed/internal/api"
	"github.com/kurihiro0119/repository-feed/internal/app"
	"github.com/kurihiro0119/repository-feed/internal/config"
	"github.com/kurihiro0119/repository-feed/internal/domain"
	apperrors "github.com/kurihiro0119/repository-feed/internal/errors"
	"github.com/kurihiro0119/repository-feed/internal/render"
	"github.com/kurihiro0119/repository-feed/pkg/client"
)

var (
	cfgFile    string
	outputJSON bool
	remote     bool
	setPairs   []string
)

var rootCmd = &cobra.Command{
	Use:   "repofeed",
	Short: "GitHub repository feed",
	Long: `A CLI for the repository feed of a GitHub account.

Repositories are fetched from GitHub, cached with a TTL, filtered of forks and
archived projects, and ordered by stars then recency. With --api the commands
talk to a running repofeed API server instead of loading in-process.`,
	SilenceUsage: true,
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Show the repository feed",
	Long:  `Load the feed, from cache when a fresh entry exists.`,
	Args:  cobra.NoArgs,
	RunE:  runLoad,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Reload the repository feed from GitHub",
	Long:  `Drop the cached feed and load it from GitHub.`,
	Args:  cobra.NoArgs,
	RunE:  runRefresh,
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show feed totals and language breakdown",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the load state",
	Long:  `Show the load state. In local mode a load runs first so there is a state to report.`,
	Args:  cobra.NoArgs,
	RunE:  runState,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective feed options",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Delete the cached feed",
	Args:  cobra.NoArgs,
	RunE:  runClearCache,
}

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the API server's in-flight load",
	Args:  cobra.NoArgs,
	RunE:  runCancel,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&remote, "api", false, "use the API server at API_ENDPOINT")
	rootCmd.PersistentFlags().StringArrayVar(&setPairs, "set", nil,
		"set a feed option (key=value, repeatable); applies to this run only, except with --api where it updates the server's config")

	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(clearCacheCmd)
	rootCmd.AddCommand(cancelCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		msg := render.ErrorMessage(err)
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg.Text)
		if msg.Retry {
			fmt.Fprintln(os.Stderr, "Try again later or run 'repofeed refresh'.")
		}
		os.Exit(1)
	}
}

// session is either an in-process feed or a client of a remote one
type session struct {
	cfg    *config.Config
	local  *app.App
	client *client.Client
}

func openSession() (*session, error) {
	if cfgFile != "" {
		if err := godotenv.Load(cfgFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", cfgFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	patch, err := config.ParsePairs(setPairs)
	if err != nil {
		return nil, fmt.Errorf("invalid --set: %w", err)
	}

	if remote {
		c := client.NewClient(cfg.APIEndpoint)
		// Remote options live on the server, so --set changes them for every client.
		if len(setPairs) > 0 {
			if _, err := c.UpdateConfig(patch); err != nil {
				return nil, err
			}
			fmt.Fprintf(os.Stderr, "Updated server config at %s\n", cfg.APIEndpoint)
		}
		return &session{cfg: cfg, client: c}, nil
	}

	if cfg.Feed, err = patch.Apply(cfg.Feed); err != nil {
		return nil, fmt.Errorf("invalid --set: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := app.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, local: a}, nil
}

func (s *session) Close() {
	if s.local != nil {
		_ = s.local.Close()
		_ = s.local.Logger.Sync()
	}
}

// commandContext is cancelled by Ctrl-C, which cancels an in-process load
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runLoad(cmd *cobra.Command, args []string) error {
	return loadAndPrint(false)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	return loadAndPrint(true)
}

func loadAndPrint(refresh bool) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	var resp *api.ReposResponse
	if s.client != nil {
		if refresh {
			resp, err = s.client.Refresh(true)
		} else {
			resp, err = s.client.GetRepos(true)
		}
	} else {
		ctx, cancel := commandContext()
		defer cancel()

		var result *domain.FeedResult
		if refresh {
			result, err = s.local.Feed.Refresh(ctx)
		} else {
			result, err = s.local.Feed.Load(ctx)
		}
		if err == nil {
			resp = &api.ReposResponse{FeedResult: result, Cards: render.Cards(result.Repositories, time.Now())}
			s.local.Feed.TrackView(len(resp.Cards))
		}
	}
	if err != nil {
		return err
	}

	if outputJSON {
		return printJSON(resp)
	}

	fmt.Printf("\nRepositories (%d, from %s)\n\n", len(resp.Cards), resp.Source)
	if len(resp.Cards) == 0 {
		fmt.Println("No public repositories to show.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Language", "Stars", "Forks", "Updated", "Topics", "Description"})
	for _, c := range resp.Cards {
		table.Append([]string{
			c.Title,
			c.Language,
			c.Stars,
			c.Forks,
			c.Updated,
			strings.Join(c.Topics, ", "),
			c.Description,
		})
	}
	table.Render()

	return nil
}

func runSummary(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	var summary *domain.Summary
	if s.client != nil {
		summary, err = s.client.Summary()
	} else {
		ctx, cancel := commandContext()
		defer cancel()
		summary, err = s.local.Aggregator.Summarize(ctx, s.cfg.Feed.Account)
	}
	if err != nil {
		return err
	}

	if outputJSON {
		return printJSON(summary)
	}

	fmt.Printf("\nRepository Summary: %s\n\n", summary.Account)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Repositories", strconv.Itoa(summary.TotalRepos)})
	table.Append([]string{"Stars", strconv.Itoa(summary.TotalStars)})
	table.Append([]string{"Forks", strconv.Itoa(summary.TotalForks)})
	table.Append([]string{"Watchers", strconv.Itoa(summary.TotalWatchers)})
	table.Append([]string{"Open Issues", strconv.Itoa(summary.TotalOpenIssues)})
	table.Append([]string{"Most Starred", summary.MostStarred})
	table.Append([]string{"Recently Updated", summary.RecentlyUpdated})
	table.Render()

	if len(summary.Languages) > 0 {
		fmt.Println()
		langs := tablewriter.NewWriter(os.Stdout)
		langs.SetHeader([]string{"Language", "Repos", "Stars"})
		for _, l := range summary.Languages {
			langs.Append([]string{l.Language, strconv.Itoa(l.Repos), strconv.Itoa(l.Stars)})
		}
		langs.Render()
	}

	return nil
}

func runState(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	var state *domain.State
	if s.client != nil {
		if state, err = s.client.State(); err != nil {
			return err
		}
	} else {
		ctx, cancel := commandContext()
		defer cancel()
		// The load error is part of the state being reported.
		if _, err := s.local.Feed.Load(ctx); err != nil {
			s.local.Logger.Debug("load failed", zap.Error(err))
		}
		st := s.local.Feed.State()
		state = &st
	}

	if outputJSON {
		return printJSON(state)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Field", "Value"})
	table.Append([]string{"Phase", string(state.Phase)})
	table.Append([]string{"Loading", strconv.FormatBool(state.IsLoading)})
	table.Append([]string{"Error", strconv.FormatBool(state.HasError)})
	if state.LastError != "" {
		table.Append([]string{"Last Error", state.LastError})
	}
	if state.LastUpdate != nil {
		table.Append([]string{"Last Update", state.LastUpdate.Local().Format(time.RFC1123)})
	}
	table.Append([]string{"Repositories", strconv.Itoa(state.TotalCount)})
	table.Append([]string{"Attempts", strconv.Itoa(state.Attempts)})
	if state.Source != "" {
		table.Append([]string{"Source", string(state.Source)})
	}
	if state.RateLimit != nil {
		table.Append([]string{"Rate Limit Remaining", strconv.Itoa(state.RateLimit.Remaining)})
		table.Append([]string{"Rate Limit Reset", state.RateLimit.Reset.Local().Format(time.RFC1123)})
	}
	table.Render()

	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	var opts config.FeedOptions
	if s.client != nil {
		remoteOpts, err := s.client.Config()
		if err != nil {
			return err
		}
		opts = *remoteOpts
	} else {
		opts = s.local.Feed.Config()
	}

	if outputJSON {
		return printJSON(opts)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Option", "Value"})
	table.Append([]string{"account", opts.Account})
	table.Append([]string{"page_size", strconv.Itoa(opts.PageSize)})
	table.Append([]string{"sort", opts.Sort})
	table.Append([]string{"direction", opts.Direction})
	table.Append([]string{"cache_key", opts.CacheKey})
	table.Append([]string{"cache_ttl", opts.CacheTTL.String()})
	table.Append([]string{"cache_version", opts.CacheVersion})
	table.Append([]string{"max_attempts", strconv.Itoa(opts.MaxAttempts)})
	table.Append([]string{"retry_backoff", opts.RetryBackoff.String()})
	table.Append([]string{"request_timeout", opts.RequestTimeout.String()})
	table.Append([]string{"offline_cache", strconv.FormatBool(opts.OfflineCache)})
	table.Append([]string{"analytics", strconv.FormatBool(opts.Analytics)})
	table.Render()

	return nil
}

func runClearCache(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if s.client != nil {
		err = s.client.ClearCache()
	} else {
		err = s.local.Feed.ClearCache(context.Background())
	}
	if err != nil {
		return err
	}

	fmt.Println("Cache cleared.")
	return nil
}

func runCancel(cmd *cobra.Command, args []string) error {
	if !remote {
		return errors.New("cancel needs --api: a local run has no other load to cancel")
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	cancelled, err := s.client.Cancel()
	if err != nil {
		return err
	}

	if cancelled {
		fmt.Println("Load cancelled.")
	} else {
		fmt.Println("No load in progress.")
	}
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

