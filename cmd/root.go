package cmd

import (
    "os"

    "github.com/spf13/cobra"
    "github.com/spf13/viper"

    "orderpulse/internal/ui"
)

var rootCmd = &cobra.Command{
    Use:   "orderpulse",
    Short: "Clean delivery orders in Snowflake and report on them",
    Long: `OrderPulse - A CLI tool that cleans a raw food-delivery orders table in
Snowflake (dates, durations, imputations, SLA and peak-hour flags) and
produces KPI reports over the resulting analytics projection.`,
}

func Execute() {
    if err := rootCmd.Execute(); err != nil {
        ui.ShowError(err)
        os.Exit(1)
    }
}

func init() {
    cobra.OnInitialize(initConfig)
}

func initConfig() {
    viper.SetConfigName("config")
    viper.SetConfigType("yaml")
    viper.AddConfigPath(".")

    home, err := os.UserHomeDir()
    if err == nil {
        viper.AddConfigPath(home + "/.orderpulse")
    }

    if err := viper.ReadInConfig(); err != nil {
        // Config file not found is okay for now
    }
}
