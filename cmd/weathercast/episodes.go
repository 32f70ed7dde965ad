package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/weathercast/internal/db"
	"github.com/jonathan/weathercast/internal/observability"
	"github.com/jonathan/weathercast/internal/pipeline"
)

var episodesCommand = &cobra.Command{
	Use:   "episodes",
	Short: "Inspect generated episodes",
}

var episodesListCommand = &cobra.Command{
	Use:   "list",
	Short: "List recent episodes, newest first",
	RunE:  runEpisodesListCmd,
}

var episodesShowCommand = &cobra.Command{
	Use:   "show <date>",
	Short: "Show one episode by broadcast date (YYYY-MM-DD)",
	Args:  cobra.ExactArgs(1),
	RunE:  runEpisodesShowCmd,
}

var (
	episodesStage string
	episodesLimit int
	episodesDBURL string
)

func init() {
	episodesCommand.PersistentFlags().StringVar(&episodesDBURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	episodesListCommand.Flags().StringVar(&episodesStage, "stage", "", "Only list episodes in this stage")
	episodesListCommand.Flags().IntVar(&episodesLimit, "limit", 0, "Maximum episodes to list")

	episodesCommand.AddCommand(episodesListCommand)
	episodesCommand.AddCommand(episodesShowCommand)
	rootCmd.AddCommand(episodesCommand)
}

func connectFromFlags(ctx context.Context) (*db.DB, error) {
	url := episodesDBURL
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}
	return db.Connect(ctx, url)
}

func runEpisodesListCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	if episodesStage != "" && !db.Stage(episodesStage).Valid() {
		return fmt.Errorf("unknown stage %q", episodesStage)
	}

	database, err := connectFromFlags(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	episodes, err := database.ListEpisodes(ctx, db.EpisodeFilters{
		Stage: db.Stage(episodesStage),
		Limit: episodesLimit,
	})
	if err != nil {
		return err
	}
	if len(episodes) == 0 {
		fmt.Println("No episodes found.")
		return nil
	}

	for _, ep := range episodes {
		line := fmt.Sprintf("#%-4d %s  %-12s", ep.EpisodeNumber, ep.BroadcastDate.Format("2006-01-02"), ep.Stage)
		if ep.WeatherStale {
			line += "  stale-weather"
		}
		if ep.VideoPath != nil {
			line += "  " + *ep.VideoPath
		}
		fmt.Println(line)
	}
	return nil
}

func runEpisodesShowCmd(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	date, err := time.Parse("2006-01-02", args[0])
	if err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", args[0])
	}

	database, err := connectFromFlags(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	episode, err := database.GetEpisodeByDate(ctx, pipeline.NormalizeDate(date))
	if err != nil {
		return err
	}
	if episode == nil {
		return fmt.Errorf("no episode for %s", args[0])
	}

	observability.NewPrinter(os.Stdout).PrintEpisode(episode)
	return nil
}
