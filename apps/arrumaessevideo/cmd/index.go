package arrumaessevideo

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mafhper/arrumaessevideo/catalog"
	"github.com/mafhper/arrumaessevideo/library"
	"github.com/mafhper/arrumaessevideo/render"
)

// index rebuilds the HTML page from the cache alone. Useful after hand
// editing the cache or moving the library, no network and no ffmpeg needed.
var indexCmd = &cobra.Command{
	Use:   "index root_directory",
	Short: "Re-render index.html from the metadata cache, without scanning",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root, err := checkRoot(args[0])
		cobra.CheckErr(err)

		cache := catalog.Load(library.CacheFilePath(root))

		entries := make([]catalog.CatalogEntry, 0, cache.Len())
		for _, key := range cache.Keys() {
			cached, _ := cache.Lookup(key)
			entries = append(entries, catalog.CatalogEntry{
				Identity:   cached.Identity,
				Record:     cached.Record,
				PosterPath: cached.PosterPath,
			})
		}

		indexPath := filepath.Join(root, "index.html")
		cobra.CheckErr(os.WriteFile(indexPath, []byte(render.Render(entries)), 0644))
		log.Info().Str("path", indexPath).Int("entries", len(entries)).Msg("catalog written")
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
