package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"golang.org/x/time/rate"

	"github.com/groundedweb/groundedweb-go/client"
	"github.com/groundedweb/groundedweb-go/internal/config"
	"github.com/groundedweb/groundedweb-go/models"
)

const gweb = "gweb"

func newProgressBar(size int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetDescription(description+":"),
		progressbar.OptionSetWidth(20), // Fit in an 80-column terminal.
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)
}

// readPassword returns the configured password, or prompts for it on the
// terminal without echoing.
func readPassword(cfg config.Config) (string, error) {
	if cfg.Password != "" {
		return cfg.Password, nil
	}
	fmt.Fprintf(os.Stderr, "Password for %s: ", cfg.Email)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

// newSession builds a client against the configured service and logs the
// configured account in.
func newSession(ctx context.Context, cfg config.Config) (*client.Client, error) {
	c, err := client.New(ctx, cfg.BaseURL,
		client.WithRateLimit(rate.Every(time.Second/5), 10))
	if err != nil {
		return nil, err
	}
	password, err := readPassword(cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Login(ctx, cfg.Email, password); err != nil {
		return nil, err
	}
	return c, nil
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func main() {
	var configPath string
	var cfg config.Config

	rootCmd := cobra.Command{
		Use:   gweb,
		Short: "Work with Grounded Web datasets and analyses",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the configuration file")

	loginCmd := cobra.Command{
		Use:   "login",
		Short: "Verify credentials against the service",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			c, err := newSession(ctx, cfg)
			if err != nil {
				fatal(err)
			}
			defer c.Logout(ctx)
			fmt.Printf("Logged in as %s\n", c.CurrentUser())
		},
	}
	rootCmd.AddCommand(&loginCmd)

	datasetCmd := cobra.Command{
		Use:   "dataset",
		Short: "Manage datasets",
	}
	rootCmd.AddCommand(&datasetCmd)

	datasetCreateCmd := cobra.Command{
		Use:   "create",
		Short: "Create a dataset and upload its photos",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			name, _ := cmd.Flags().GetString("name")
			before, _ := cmd.Flags().GetStringSlice("before")
			after, _ := cmd.Flags().GetStringSlice("after")
			workers, _ := cmd.Flags().GetInt("workers")
			cleanup, _ := cmd.Flags().GetBool("cleanup")
			if workers == 0 {
				workers = cfg.MaxWorkers
			}

			ctx := context.Background()
			c, err := newSession(ctx, cfg)
			if err != nil {
				fatal(err)
			}
			defer c.Logout(ctx)

			var bar *progressbar.ProgressBar
			ds, err := c.Datasets().Create(ctx, client.CreateDatasetParams{
				Name:         name,
				PhotosBefore: before,
				PhotosAfter:  after,
				MaxWorkers:   workers,
				Progress: func(completed, total int) {
					if bar == nil {
						bar = newProgressBar(int64(total), "Uploading photos")
					}
					bar.Set(completed)
				},
				CleanupOnFailure: cleanup,
			})
			if err != nil {
				fatal(err)
			}
			fmt.Printf("Created dataset %d (%s) with %d photos\n", ds.ID, ds.Name, len(ds.Photos))
		},
	}
	datasetCreateCmd.Flags().StringP("name", "n", "", "Name of the dataset")
	datasetCreateCmd.Flags().StringSlice("before", nil, "Photos taken before the event")
	datasetCreateCmd.Flags().StringSlice("after", nil, "Photos taken after the event")
	datasetCreateCmd.Flags().IntP("workers", "w", 0, "Number of concurrent uploads (defaults to config)")
	datasetCreateCmd.Flags().Bool("cleanup", false, "Delete the dataset if the upload fails")
	datasetCreateCmd.MarkFlagRequired("name")
	datasetCmd.AddCommand(&datasetCreateCmd)

	datasetShowCmd := cobra.Command{
		Use:   "show <id>",
		Short: "Show a dataset",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := parseID(args[0])
			if err != nil {
				fatal(err)
			}

			ctx := context.Background()
			c, err := newSession(ctx, cfg)
			if err != nil {
				fatal(err)
			}
			defer c.Logout(ctx)

			ds, err := c.Datasets().Get(ctx, id)
			if err != nil {
				fatal(err)
			}
			fmt.Printf("Dataset %d: %s (%s, by %s)\n", ds.ID, ds.Name, ds.Date, ds.User)
			for _, photo := range ds.Photos {
				fmt.Printf("\t%d: %s [%s]\n", photo.ID, photo.Name, photo.Type)
			}
		},
	}
	datasetCmd.AddCommand(&datasetShowCmd)

	datasetRmCmd := cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a dataset",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := parseID(args[0])
			if err != nil {
				fatal(err)
			}

			ctx := context.Background()
			c, err := newSession(ctx, cfg)
			if err != nil {
				fatal(err)
			}
			defer c.Logout(ctx)

			if err := c.Datasets().Delete(ctx, id); err != nil {
				fatal(err)
			}
			fmt.Printf("Deleted dataset %d\n", id)
		},
	}
	datasetCmd.AddCommand(&datasetRmCmd)

	configsCmd := cobra.Command{
		Use:   "configs",
		Short: "List analysis configurations",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			c, err := newSession(ctx, cfg)
			if err != nil {
				fatal(err)
			}
			defer c.Logout(ctx)

			configs, err := c.Configurations().List(ctx)
			if err != nil {
				fatal(err)
			}
			for _, conf := range configs {
				fmt.Printf("%d: %s\n", conf.ID, conf.Name)
			}
		},
	}
	rootCmd.AddCommand(&configsCmd)

	analysisCmd := cobra.Command{
		Use:   "analysis",
		Short: "Manage analyses",
	}
	rootCmd.AddCommand(&analysisCmd)

	analysisStartCmd := cobra.Command{
		Use:   "start",
		Short: "Start an analysis on a dataset",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			name, _ := cmd.Flags().GetString("name")
			datasetID, _ := cmd.Flags().GetInt("dataset")
			configurationID, _ := cmd.Flags().GetInt("configuration")
			photoIDs, _ := cmd.Flags().GetIntSlice("photos")
			notify, _ := cmd.Flags().GetBool("notify")

			ctx := context.Background()
			c, err := newSession(ctx, cfg)
			if err != nil {
				fatal(err)
			}
			defer c.Logout(ctx)

			conf, err := c.Configurations().Get(ctx, configurationID)
			if err != nil {
				fatal(err)
			}
			analysis, err := c.Analyses().Create(ctx, client.CreateAnalysisParams{
				Name:          name,
				Configuration: *conf,
				DatasetID:     datasetID,
				PhotoIDs:      photoIDs,
				NotifyByEmail: notify,
			})
			if err != nil {
				fatal(err)
			}
			fmt.Printf("Started analysis %d (%s): %s\n", analysis.ID, analysis.Name, analysis.Status)
		},
	}
	analysisStartCmd.Flags().StringP("name", "n", "", "Name of the analysis")
	analysisStartCmd.Flags().IntP("dataset", "d", 0, "Dataset to analyze")
	analysisStartCmd.Flags().Int("configuration", 0, "Configuration to run with")
	analysisStartCmd.Flags().IntSlice("photos", nil, "Restrict analysis to these photo ids")
	analysisStartCmd.Flags().Bool("notify", false, "Send an email when the analysis finishes")
	analysisStartCmd.MarkFlagRequired("name")
	analysisStartCmd.MarkFlagRequired("dataset")
	analysisStartCmd.MarkFlagRequired("configuration")
	analysisCmd.AddCommand(&analysisStartCmd)

	analysisShowCmd := cobra.Command{
		Use:   "show <id>",
		Short: "Show an analysis and its results",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := parseID(args[0])
			if err != nil {
				fatal(err)
			}

			ctx := context.Background()
			c, err := newSession(ctx, cfg)
			if err != nil {
				fatal(err)
			}
			defer c.Logout(ctx)

			analysis, err := c.Analyses().Get(ctx, id)
			if err != nil {
				fatal(err)
			}
			fmt.Printf("Analysis %d: %s [%s]\n", analysis.ID, analysis.Name, analysis.Status)
			if analysis.Status == models.AnalysisCompleted {
				for _, hole := range analysis.Holes {
					fmt.Printf("\thole %d: volume %.3f\n", hole.Number, hole.Volume)
				}
			}
		},
	}
	analysisCmd.AddCommand(&analysisShowCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
