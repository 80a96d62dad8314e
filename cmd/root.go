/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"os"

	"github.com/kgkhs001/BrighamWomensApp/internal/api"
	"github.com/kgkhs001/BrighamWomensApp/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "brigham-requests",
	Short: "Hospital service request portal",
	Long: `Brigham Requests is a REST API server for hospital service requests.
Employees submit medicine, medical device, lost-and-found, sanitation,
interpreter and flower requests tied to facility locations; staff triage
and update them from the pending-requests dashboard.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file path (default: search in current directory, ./config, or $HOME/.brigham-requests)")
}

// GetRootCmd 返回根命令（用于测试）
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// loadConfig 加载配置并创建日志
func loadConfig(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	logger, err := api.NewLoggerFromConfig(&cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
