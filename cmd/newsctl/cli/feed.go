package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"news-pulse/config"
	"news-pulse/models"
	"news-pulse/services"
)

type feedFlags struct {
	mode     string
	language string
	topics   string
	userID   string
	country  string
	city     string
	region   string
	pageSize int
	asJSON   bool
}

func (f feedFlags) request() (models.FeedRequest, error) {
	mode := models.FeedMode(strings.ToLower(f.mode))
	if mode != models.ModeGeneral && mode != models.ModePersonalized {
		return models.FeedRequest{}, fmt.Errorf("--mode must be general or personalized, got %q", f.mode)
	}
	return models.FeedRequest{
		Mode:     mode,
		Language: f.language,
		Topics:   models.ParseTopics(f.topics),
		UserID:   f.userID,
		Location: models.Location{Country: f.country, City: f.city, Region: f.region},
		PageSize: f.pageSize,
	}, nil
}

func newFeedCmd() *cobra.Command {
	var f feedFlags
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Run one feed request and print the ranked stories",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request()
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			config.InitLogger(config.LoggingConfig{Level: "warn"})

			pipeline, err := services.BuildPipeline(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("building pipeline: %w", err)
			}
			defer pipeline.Close(cmd.Context())

			res := pipeline.FeedService(cfg, "newsctl").GetFeed(cmd.Context(), req)
			if f.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			return printFeed(cmd.OutOrStdout(), res, time.Now())
		},
	}
	cmd.Flags().StringVar(&f.mode, "mode", "general", "general or personalized")
	cmd.Flags().StringVar(&f.language, "language", "en", "feed language")
	cmd.Flags().StringVar(&f.topics, "topics", "", "comma-separated topic filter")
	cmd.Flags().StringVar(&f.userID, "user", "", "user id for personalized feeds")
	cmd.Flags().StringVar(&f.country, "country", "", "reader country")
	cmd.Flags().StringVar(&f.city, "city", "", "reader city")
	cmd.Flags().StringVar(&f.region, "region", "", "reader region")
	cmd.Flags().IntVar(&f.pageSize, "page-size", 0, "number of stories (default from config)")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print the raw result as JSON")
	return cmd
}

func printFeed(w io.Writer, res services.FeedResult, now time.Time) error {
	snap := res.Snapshot
	fmt.Fprintf(w, "origin: %s  stories: %d  articles: %d\n", snap.Origin, len(snap.Clusters), snap.ArticleCount())
	if res.Hint != "" {
		fmt.Fprintf(w, "hint: %s\n", res.Hint)
	}
	if len(snap.Clusters) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tAGE\tSOURCES\tCATEGORY\tTITLE")
	for _, c := range snap.Clusters {
		fmt.Fprintf(tw, "%.2f\t%s\t%d\t%s\t%s\n",
			c.Score(), formatAge(now.Sub(c.LatestPublishedAt)), c.SourceCount, c.Category, c.Title)
	}
	return tw.Flush()
}

func formatAge(d time.Duration) string {
	switch {
	case d < 0:
		return "0m"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
