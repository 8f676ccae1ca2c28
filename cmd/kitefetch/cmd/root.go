package cmd

import (
	"fmt"
	"os"

	"github.com/assetnote/kitefetch/pkg/http"
	"github.com/assetnote/kitefetch/pkg/log"
	"github.com/spf13/cobra"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// These global variables can be configured with the corresponding lowercase flag
var (
	Verbose string // Verbose defines the logging level, either trace, debug, info, error, fatal
	Output  string // Output defines the output format, either pretty, text, json
	Quiet   bool   // Quiet hides the informational logs, only errors are printed

	cfgFile string

	// httpDefaults are the transfer defaults, optionally overridden by the [http] section of the config file
	httpDefaults = http.NewDefaultConfig()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kitefetch",
	Short: "kitefetch performs asynchronous http requests",
	Long: `kitefetch runs one or many http requests on a background transfer worker
each, and reports their progress and outcome as they happen`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	cobra.OnInitialize(initLogging)
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.kitefetch.yaml)")

	rootCmd.PersistentFlags().StringVarP(&Verbose, "verbose", "v", "info", "level of logging verbosity. can be error,info,debug,trace")
	rootCmd.PersistentFlags().StringVarP(&Output, "output", "o", "pretty", "output format. can be json,text,pretty")
	rootCmd.PersistentFlags().BoolVarP(&Quiet, "quiet", "q", false, "quiet mode. only errors are logged")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initLogging() {
	if err := log.SetFormat(viper.GetString("output")); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize logging")
	}

	level := viper.GetString("verbose")
	if viper.GetBool("quiet") {
		level = "error"
	}
	if level != "" {
		if err := log.SetLevelString(level); err != nil {
			log.Fatal().Err(err).Msg("failed to initialize logging")
		}
	}
	log.Debug().Str("level", level).Str("format", viper.GetString("output")).Msg("custom log settings")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".kitefetch" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".kitefetch")
	}

	viper.SetEnvPrefix("kitefetch")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	if err := viper.UnmarshalKey("http", httpDefaults); err != nil {
		log.Fatal().Err(err).Msg("failed to parse http config")
	}
	if err := httpDefaults.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid http config")
	}
}
