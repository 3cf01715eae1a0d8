package arrumaessevideo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mafhper/arrumaessevideo/catalog"
	"github.com/mafhper/arrumaessevideo/library"
	"github.com/mafhper/arrumaessevideo/processor"
	"github.com/mafhper/arrumaessevideo/render"
	"github.com/mafhper/arrumaessevideo/tmdb"
)

var runCmd = &cobra.Command{
	Use:   "run root_directory",
	Short: "Scan a library, fetch metadata, embed tags and write index.html",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root, err := checkRoot(args[0])
		cobra.CheckErr(err)

		config, err := LoadConfig()
		cobra.CheckErr(err)
		if config.APIKey == "" {
			cobra.CheckErr(fmt.Errorf("no TMDB API key: pass --api-key or set TMDB_API_KEY"))
		}

		metadataDir := filepath.Join(root, library.MetadataDirName)
		cobra.CheckErr(os.MkdirAll(filepath.Join(metadataDir, "posters"), 0755))

		closeLog, err := teeLogToFile(filepath.Join(metadataDir, "run.log"))
		cobra.CheckErr(err)
		defer closeLog()

		// Embedding needs ffmpeg; a missing binary is fatal before any
		// file is touched, unless embedding was turned off.
		var embedder library.Embedder
		skipEmbed, _ := cmd.Flags().GetBool("skip-embed")
		if !skipEmbed {
			e, err := processor.NewEmbedder(processor.EmbedderConfig{FFmpegPath: config.FFmpegPath})
			cobra.CheckErr(err)
			embedder = e
		}

		cache := catalog.Load(library.CacheFilePath(root))
		client := tmdb.NewClient(tmdb.ClientConfig{
			APIKey:   config.APIKey,
			Language: config.Language,
		})

		manager := library.NewManager(root, cache, client, embedder)
		entries, _, err := manager.Run(cmd.Context())
		cobra.CheckErr(err)

		indexPath := filepath.Join(root, "index.html")
		cobra.CheckErr(os.WriteFile(indexPath, []byte(render.Render(entries)), 0644))
		log.Info().Str("path", indexPath).Msg("catalog written")
	},
}

func init() {
	runCmd.Flags().String("api-key", "", "TMDB API key")
	runCmd.Flags().String("language", tmdb.DefaultLanguage, "metadata language")
	runCmd.Flags().String("ffmpeg-path", "", "path to the ffmpeg binary")
	runCmd.Flags().Bool("skip-embed", false, "catalog only, do not tag files")
	viper.BindPFlag("api_key", runCmd.Flags().Lookup("api-key"))         // nolint: errcheck
	viper.BindPFlag("language", runCmd.Flags().Lookup("language"))       // nolint: errcheck
	viper.BindPFlag("ffmpeg_path", runCmd.Flags().Lookup("ffmpeg-path")) // nolint: errcheck

	rootCmd.AddCommand(runCmd)
}

// checkRoot validates the scan root before anything else runs.
func checkRoot(arg string) (string, error) {
	root, err := filepath.Abs(arg)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("invalid root directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("invalid root directory: %s is not a directory", root)
	}
	return root, nil
}

// teeLogToFile keeps the console writer and appends every event to the
// library's run log.
func teeLogToFile(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	level := log.Logger.GetLevel()
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stderr}, f)).
		Level(level).
		With().Timestamp().Logger()
	return func() { f.Close() }, nil
}
