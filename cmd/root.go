package cmd

import (
	"fmt"
	"os"

	"blog-server/pkg/config"

	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "blog-server",
	Short: "Personal blog server",
	Long: `blog-server serves Markdown posts as JSON, gates private posts behind a
password, and proxies the weather, geolocation, daily quote and Telegram APIs.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if envFile != "" {
			config.Init(envFile)
			return
		}
		config.Init()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "env file to load (default is ./.env)")
}
