package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version, Commit and Date are injected with -ldflags at release time
var (
	Version = "v0.0.0"
	Commit  = "commit"
	Date    = "today"
)

var showDefaults bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the kitefetch build and the transfer defaults in effect",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kitefetch %s (%s) built %s with %s\n", Version, Commit, Date, runtime.Version())
		if !showDefaults {
			return
		}
		c := httpDefaults
		fmt.Printf("user agent:      %s\n", c.UserAgent)
		fmt.Printf("timeout:         %s\n", c.Timeout)
		fmt.Printf("connect timeout: %s\n", c.ConnectTimeout)
		fmt.Printf("redirects:       %t (max %d)\n", c.FollowRedirects, c.MaxRedirects)
		fmt.Printf("verify tls:      %t\n", !c.InsecureSkipVerify)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&showDefaults, "defaults", false, "also print the transfer defaults after the config file was applied")
}
