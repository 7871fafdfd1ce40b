package cmd

import (
    "context"
    "fmt"
    "os"

    "github.com/spf13/cobra"

    "orderpulse/internal/config"
    "orderpulse/internal/pipeline"
    "orderpulse/internal/ui"
)

var validateCmd = &cobra.Command{
    Use:   "validate",
    Short: "Check data quality of the orders table without modifying it",
    Long: `Load the orders table, count residual nulls in the derived columns and
report every raw value that cannot be parsed. This is a read-only check;
nothing is written back.`,
    Run: runValidate,
}

func init() {
    rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) {
    ctx := context.Background()

    appConfig, err := config.Load()
    if err != nil {
        ui.ShowError(fmt.Errorf("failed to load configuration: %w", err))
        os.Exit(1)
    }

    ui.ShowHeader("OrderPulse - Data Quality Check")

    service, err := connectWarehouse(appConfig)
    if err != nil {
        ui.ShowError(err)
        os.Exit(1)
    }
    defer service.Close()

    orders, err := service.LoadOrders(ctx)
    if err != nil {
        ui.ShowError(err)
        os.Exit(1)
    }

    quality := pipeline.CheckQuality(orders)

    fmt.Println()
    fmt.Printf("  Total records:       %d\n", quality.TotalRecords)
    fmt.Printf("  Null clean dates:    %d\n", quality.NullCleanDate)
    fmt.Printf("  Null durations:      %d\n", quality.NullDuration)
    fmt.Printf("  Null SLA flags:      %d\n", quality.NullSLAFlag)
    fmt.Printf("  Null peak flags:     %d\n", quality.NullPeakFlag)
    fmt.Printf("  Misspelled traffic:  %d\n", quality.MisspelledTraffic)
    fmt.Println()

    for _, failure := range quality.Failures {
        ui.ShowWarning(failure.String())
    }

    if quality.Clean() {
        ui.ShowSuccess("Orders table is fully derived")
        return
    }
    ui.ShowWarning("Orders table has residual nulls; run 'orderpulse run' to clean it")
    os.Exit(1)
}
