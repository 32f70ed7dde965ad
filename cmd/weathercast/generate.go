package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/weathercast/internal/cache"
	"github.com/jonathan/weathercast/internal/config"
	"github.com/jonathan/weathercast/internal/db"
	"github.com/jonathan/weathercast/internal/llm"
	"github.com/jonathan/weathercast/internal/media"
	"github.com/jonathan/weathercast/internal/narration"
	"github.com/jonathan/weathercast/internal/observability"
	"github.com/jonathan/weathercast/internal/pipeline"
	"github.com/jonathan/weathercast/internal/weather"
)

// imageStyle is appended to every image prompt so the stills of all
// broadcasts share one visual treatment. Bump style_epoch in the config when
// changing it, so cached artifacts from the old look are not reused.
const imageStyle = "soft painterly weather illustration, muted palette, 16:9"

var generateCommand = &cobra.Command{
	Use:   "generate",
	Short: "Generate (or resume) the broadcast video for a date",
	Long: `Runs the full broadcast pipeline for one date: weather acquisition -> script generation -> audio and image synthesis -> timeline sync -> video compositing.

Each stage persists its output, so rerunning after a failure resumes at the first incomplete stage. Configuration can be loaded from a JSON file using --config; command-line arguments override config file values.`,
	RunE: runGenerateCmd,
}

var (
	genConfigPath  string
	genDate        string
	genLocation    string
	genTime        string
	genStartNumber int
	genFPS         int
	genOutputDir   string
	genStyleEpoch  int
	genAPIKey      string
	genDatabaseURL string
	genWeatherURL  string
	genImageURL    string
	genTTSCommand  string
	genVerbose     bool
)

func init() {
	// Config file flag (processed first)
	generateCommand.Flags().StringVar(&genConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	generateCommand.Flags().StringVarP(&genDate, "date", "d", "", "Broadcast date YYYY-MM-DD (defaults to today)")
	generateCommand.Flags().StringVarP(&genLocation, "location", "l", "", "NWS forecast office code, e.g. OKX")
	generateCommand.Flags().StringVar(&genTime, "time", "", "Broadcast air time HH:MM")
	generateCommand.Flags().IntVar(&genStartNumber, "start-number", 0, "Episode number given to the first broadcast")
	generateCommand.Flags().IntVar(&genFPS, "fps", 0, "Video frame rate")
	generateCommand.Flags().StringVarP(&genOutputDir, "output", "o", "", "Directory for generated episodes")
	generateCommand.Flags().IntVar(&genStyleEpoch, "style-epoch", 0, "Cache style epoch; bump to invalidate cached imagery")
	generateCommand.Flags().StringVar(&genWeatherURL, "weather-url", "", "Override for the NWS product server base URL")
	generateCommand.Flags().StringVar(&genImageURL, "image-url", "", "Override for the image generation base URL")
	generateCommand.Flags().StringVar(&genTTSCommand, "tts-command", "", "Text-to-speech binary (defaults to edge-tts)")
	generateCommand.Flags().BoolVarP(&genVerbose, "verbose", "v", false, "Print detailed progress information")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	generateCommand.Flags().StringVar(&genAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for pipeline state persistence
	generateCommand.Flags().StringVar(&genDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(generateCommand)
}

func runGenerateCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	// Step 1: Load config file if provided
	var cfg config.Config
	if genConfigPath != "" {
		loadedCfg, err := config.LoadConfig(genConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := loadedCfg.Validate(); err != nil {
			return err
		}

		cfg = *loadedCfg
		if genVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", genConfigPath)
		}
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("location") {
		cfg.Location = genLocation
	}
	if cmd.Flags().Changed("time") {
		cfg.BroadcastTime = genTime
	}
	if cmd.Flags().Changed("start-number") {
		cfg.StartNumber = genStartNumber
	}
	if cmd.Flags().Changed("fps") {
		cfg.FPS = genFPS
	}
	if cmd.Flags().Changed("output") {
		cfg.OutputDir = genOutputDir
	}
	if cmd.Flags().Changed("style-epoch") {
		cfg.StyleEpoch = genStyleEpoch
	}
	if cmd.Flags().Changed("weather-url") {
		cfg.WeatherURL = genWeatherURL
	}
	if cmd.Flags().Changed("image-url") {
		cfg.ImageURL = genImageURL
	}
	if cmd.Flags().Changed("tts-command") {
		cfg.TTSCommand = genTTSCommand
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = genAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = genDatabaseURL
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = genVerbose
	}

	// Step 3: Apply defaults for unset values
	cfg = cfg.MergeWithDefaults(config.Defaults)
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Step 4: Parse the target date
	targetDate := time.Now()
	if genDate != "" {
		parsed, err := time.Parse("2006-01-02", genDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", genDate)
		}
		targetDate = parsed
	}
	targetDate = pipeline.NormalizeDate(targetDate)

	// Step 5: API key handling
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	// Step 6: Database URL handling
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	// Audio and video land in a per-episode directory; cached imagery is
	// shared across episodes so cache hits survive date changes.
	episodeDir := filepath.Join(cfg.OutputDir, targetDate.Format("2006-01-02"))
	imageDir := filepath.Join(cfg.OutputDir, "images")

	client, err := llm.NewGeminiClient(ctx, llm.DefaultModel, cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer func() { _ = client.Close() }()

	audio, err := media.NewCommandSynthesizer(cfg.TTSCommand, episodeDir)
	if err != nil {
		return err
	}

	imageCache, err := cache.New(database, "pollinations", cfg.StyleEpoch)
	if err != nil {
		return err
	}

	weatherSvc := weather.NewService(
		weather.NewNWSFetcher(cfg.WeatherURL, cfg.Location),
		weather.NewTextParser(),
		database,
		cfg.Location,
	)

	deps := pipeline.Deps{
		Episodes: database,
		Weather:  weatherSvc,
		Narrator: narration.NewGeminiGenerator(client, ""),
		Audio:    audio,
		Imager: &pipeline.CachedImager{
			Cache: imageCache,
			Synth: media.NewHTTPImageSynthesizer(cfg.ImageURL, imageDir, imageStyle),
		},
		Compositor: media.NewFFmpegCompositor(episodeDir),
	}

	res, err := pipeline.Run(ctx, deps, pipeline.Options{
		TargetDate:    targetDate,
		BroadcastTime: cfg.BroadcastTime,
		StartNumber:   cfg.StartNumber,
		FPS:           cfg.FPS,
		Verbose:       cfg.Verbose,
	})
	if err != nil {
		return err
	}

	if cfg.Verbose {
		printer := observability.NewPrinter(os.Stdout)
		printer.PrintReport(res.Report)
		printer.PrintTimeline(res.Timeline)
		printer.PrintEpisode(res.Episode)
	}

	if res.AlreadyDone {
		fmt.Printf("Episode #%d for %s already complete: %s\n",
			res.Episode.EpisodeNumber, targetDate.Format("2006-01-02"), res.VideoPath)
		return nil
	}

	fmt.Printf("Episode #%d for %s complete: %s (%.1fs audio)\n",
		res.Episode.EpisodeNumber, targetDate.Format("2006-01-02"), res.VideoPath, res.AudioSeconds)
	return nil
}
