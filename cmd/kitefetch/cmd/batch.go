package cmd

import (
	"github.com/assetnote/kitefetch/internal/fetch"
	"github.com/assetnote/kitefetch/pkg/context"
	"github.com/assetnote/kitefetch/pkg/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	maxInFlight = fetch.DefaultMaxInFlight
	jsonSummary = false
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch FILE",
	Short: "fetch every url listed in a file",
	Long: `this reads one url per line from FILE, or from stdin when FILE is -, and fetches
all of them concurrently. Blank lines and lines starting with # are ignored.

A summary of every transfer is printed once all of them are done, as a table or as json.

usage:
kitefetch batch urls.txt -j 20
cat urls.txt | kitefetch batch - --json --warc ./archive
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		urls, err := fetch.LoadURLs(args[0])
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load urls")
		}
		if len(urls) == 0 {
			log.Info().Msg("no urls to fetch")
			return
		}

		opts := append(transferOptions(cmd),
			fetch.MaxInFlight(maxInFlight),
			fetch.JSONSummary(jsonSummary || viper.GetString("output") == "json"),
		)

		if _, err := fetch.Batch(context.Context(), urls, opts...); err != nil {
			fetch.PrintErrors(err)
			log.Fatal().Msg("batch had failures")
		}
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addTransferFlags(batchCmd)

	batchCmd.Flags().IntVarP(&maxInFlight, "max-in-flight", "j", maxInFlight, "max number of transfers running at once")
	batchCmd.Flags().BoolVar(&jsonSummary, "json", jsonSummary, "print the summary as json")
}
