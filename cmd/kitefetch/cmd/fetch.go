package cmd

import (
	"github.com/assetnote/kitefetch/internal/fetch"
	"github.com/assetnote/kitefetch/pkg/context"
	"github.com/assetnote/kitefetch/pkg/log"
	"github.com/spf13/cobra"

	errors2 "github.com/assetnote/kitefetch/pkg/errors"
)

var (
	outputFile = ""
	force      = false
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch URL",
	Short: "fetch a single url",
	Long: `this performs a single request on a background worker and reports its progress
while it runs. The body is written to stdout unless an output file is provided.

A first interrupt cancels the transfer, a second one exits immediately.

usage:
kitefetch fetch https://example.com
kitefetch fetch https://example.com/upload --form file=@report.pdf;type=application/pdf
kitefetch fetch https://example.com/api -X PUT -d @body.json -H 'Content-Type: application/json'
kitefetch fetch https://example.com/big.iso -O big.iso -w '%{http_code} %{size_download}\n'
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := append(transferOptions(cmd),
			fetch.OutputFile(outputFile),
			fetch.Force(force),
		)

		if _, err := fetch.Fetch(context.Context(), args[0], opts...); err != nil {
			errors2.PrintError(err, 0)
			log.Fatal().Err(err).Msg("fetch failed")
		}
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	addTransferFlags(fetchCmd)

	fetchCmd.Flags().StringVarP(&outputFile, "output-file", "O", outputFile, "file to write the response body to")
	fetchCmd.Flags().BoolVar(&force, "force", force, "overwrite the output file without asking")
}
