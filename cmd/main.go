package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theblitlabs/automl-studio/cmd/cli"
	"github.com/theblitlabs/automl-studio/pkg/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "automl-studio",
	Short: "AutoML Studio",
	Long:  `A CSV-to-model web service: upload tabular data, infer the problem type, search and tune models, serve predictions and visualizations`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init()
	},
	Run: func(cmd *cobra.Command, args []string) {
		cli.RunServer(configPath)
	},
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Run: func(cmd *cobra.Command, args []string) {
		cli.RunServer(configPath)
	},
}

func main() {
	rootCmd.AddCommand(serverCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "Path to the configuration file")
}
