package cmd

import (
    "context"
    "fmt"
    "os"
    "time"

    "github.com/spf13/cobra"
    "github.com/spf13/viper"

    "orderpulse/internal/config"
    "orderpulse/internal/observability"
    "orderpulse/internal/pipeline"
    "orderpulse/internal/security"
    "orderpulse/internal/ui"
    "orderpulse/internal/warehouse"
    "orderpulse/pkg/models"
)

var (
    runDryRun         bool
    runSkipProjection bool
    runYes            bool
)

var runCmd = &cobra.Command{
    Use:   "run",
    Short: "Clean the orders table and rebuild the analytics projection",
    Long: `Run the full cleaning pipeline against the configured orders table:
normalize order dates, extract delivery durations, impute missing courier
and context fields, derive SLA-breach and peak-hour flags, then rebuild
the analytics projection from the fully-derived rows.

Stages only touch rows whose derived field is still unset, so re-running
against an already-cleaned table is a no-op.`,
    Run: runPipeline,
}

func init() {
    rootCmd.AddCommand(runCmd)

    runCmd.Flags().BoolVarP(&runDryRun, "dry-run", "d", false, "Execute every stage in memory without writing anything back")
    runCmd.Flags().BoolVar(&runSkipProjection, "skip-projection", false, "Clean the orders table but leave the analytics projection untouched")
    runCmd.Flags().BoolVarP(&runYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runPipeline(cmd *cobra.Command, args []string) {
    ctx := context.Background()

    appConfig, err := config.Load()
    if err != nil {
        ui.ShowError(fmt.Errorf("failed to load configuration: %w", err))
        os.Exit(1)
    }

    ui.ShowHeader("OrderPulse - Cleaning Run")
    ui.ShowInfo(fmt.Sprintf("Orders table: %s", appConfig.Warehouse.OrdersTable))
    if runDryRun {
        ui.ShowWarning("Running in dry-run mode - no changes will be applied")
    }

    if !runYes && !runDryRun {
        confirm, err := ui.Confirm("Proceed with the cleaning run?", true)
        if err != nil || !confirm {
            ui.ShowWarning("Run cancelled")
            return
        }
    }

    service, err := connectWarehouse(appConfig)
    if err != nil {
        ui.ShowError(err)
        os.Exit(1)
    }
    defer service.Close()

    logger := observability.NewLogger(observability.LoggerConfig{
        Level:   observability.ParseLevel(appConfig.Logging.Level),
        Service: "orderpulse",
    })

    p := pipeline.New(service, rulesFromConfig(appConfig), logger)

    start := time.Now()
    spinner := ui.NewSpinner("Running cleaning pipeline...")
    spinner.Start()
    result, err := p.Run(ctx, pipeline.Options{
        DryRun:         runDryRun,
        SkipProjection: runSkipProjection,
    })
    if err != nil {
        spinner.Stop(false, "Pipeline failed")
        ui.ShowError(err)
        os.Exit(1)
    }
    spinner.Stop(true, fmt.Sprintf("Pipeline finished in %s", ui.FormatDuration(time.Since(start))))

    printRunSummary(result)

    if !result.Quality.Clean() {
        q := result.Quality
        ui.ShowWarning(fmt.Sprintf("Residual nulls - dates: %d, durations: %d, sla flags: %d, peak flags: %d",
            q.NullCleanDate, q.NullDuration, q.NullSLAFlag, q.NullPeakFlag))
    } else {
        ui.ShowSuccess("All rows fully derived")
    }
}

func printRunSummary(result *pipeline.Result) {
    fmt.Println()
    fmt.Printf("  Records processed:   %d\n", result.Processed)
    fmt.Printf("  Dates normalized:    %d\n", result.DatesParsed)
    fmt.Printf("  Durations extracted: %d\n", result.DurationsParsed)
    fmt.Printf("  Ages imputed:        %d\n", result.Imputed.AgeRows)
    fmt.Printf("  Ratings imputed:     %d\n", result.Imputed.RatingRows)
    fmt.Printf("  Weather imputed:     %d\n", result.WeatherImputed)
    fmt.Printf("  Traffic imputed:     %d\n", result.TrafficImputed)
    fmt.Printf("  Festival imputed:    %d\n", result.FestivalImputed)
    fmt.Printf("  SLA flags set:       %d\n", result.SLAFlagsSet)
    fmt.Printf("  Peak flags set:      %d\n", result.PeakFlagsSet)
    fmt.Println()

    for _, failure := range result.Failures {
        ui.ShowWarning(failure.String())
    }
}

func rulesFromConfig(cfg *models.Config) pipeline.Rules {
    return pipeline.Rules{
        SLABreachMinutes: *cfg.Pipeline.SLABreachMinutes,
        PeakStartHour:    *cfg.Pipeline.PeakStartHour,
        PeakEndHour:      *cfg.Pipeline.PeakEndHour,
    }
}

// applyWarehouseOverrides lets a config file in the working directory
// (picked up by viper in initConfig) override the stored warehouse
// settings, so a checked-out project can point at its own tables.
func applyWarehouseOverrides(w *models.Warehouse) {
    overrides := []struct {
        key    string
        target *string
    }{
        {"warehouse.account", &w.Account},
        {"warehouse.username", &w.Username},
        {"warehouse.password", &w.Password},
        {"warehouse.role", &w.Role},
        {"warehouse.warehouse", &w.Warehouse},
        {"warehouse.database", &w.Database},
        {"warehouse.schema", &w.Schema},
        {"warehouse.orders_table", &w.OrdersTable},
        {"warehouse.projection_table", &w.ProjectionTable},
    }
    for _, o := range overrides {
        if v := viper.GetString(o.key); v != "" {
            *o.target = v
        }
    }
}

// connectWarehouse resolves the password (keyring first, config fallback),
// validates the connection settings and opens the Snowflake session.
func connectWarehouse(cfg *models.Config) (*warehouse.Service, error) {
    applyWarehouseOverrides(&cfg.Warehouse)

    password := cfg.Warehouse.Password
    if password == "" {
        cm, err := security.NewCredentialManager(config.GetConfigPath())
        if err == nil {
            if stored, err := cm.GetPassword(); err == nil {
                password = stored
            }
        }
    }
    if password == "" {
        return nil, fmt.Errorf("no warehouse password configured; run 'orderpulse setup' first")
    }

    whConfig := warehouse.ConfigFromModel(cfg.Warehouse, password)
    if err := warehouse.ValidateConfig(whConfig); err != nil {
        return nil, err
    }

    service := warehouse.NewService(whConfig)

    spinner := ui.NewSpinner("Connecting to Snowflake...")
    spinner.Start()
    if err := service.Connect(); err != nil {
        spinner.Stop(false, "Connection failed")
        return nil, err
    }
    spinner.Stop(true, "Connected to Snowflake")

    return service, nil
}
