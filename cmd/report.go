package cmd

import (
    "context"
    "fmt"
    "os"
    "strings"

    "github.com/spf13/cobra"

    "orderpulse/internal/config"
    "orderpulse/internal/report"
    "orderpulse/internal/ui"
    "orderpulse/internal/warehouse"
    appErrors "orderpulse/pkg/errors"
    "orderpulse/pkg/models"
)

var (
    reportFormat string
    reportOutput string
)

var reportCmd = &cobra.Command{
    Use:   "report [name]",
    Short: "Produce a KPI report over the analytics projection",
    Long: fmt.Sprintf(`Aggregate the analytics projection into one of the supported KPI
reports. Every report carries order count, mean delivery duration and
SLA breach percentage per group.

Supported reports: %s

The courier report reads the full orders table instead of the projection,
since the projection does not carry courier identity.`, strings.Join(report.Names(), ", ")),
    Args: cobra.ExactArgs(1),
    Run:  runReport,
}

func init() {
    rootCmd.AddCommand(reportCmd)

    reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "table", "Output format: table, csv or xlsx")
    reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Output file (required for xlsx, defaults to stdout for csv)")
}

func runReport(cmd *cobra.Command, args []string) {
    name := strings.ToLower(args[0])
    if !isKnownReport(name) {
        ui.ShowError(appErrors.New(appErrors.ErrCodeUnknownReport,
            fmt.Sprintf("unknown report %q (supported: %s)", name, strings.Join(report.Names(), ", "))))
        os.Exit(1)
    }

    appConfig, err := config.Load()
    if err != nil {
        ui.ShowError(fmt.Errorf("failed to load configuration: %w", err))
        os.Exit(1)
    }

    service, err := connectWarehouse(appConfig)
    if err != nil {
        ui.ShowError(err)
        os.Exit(1)
    }
    defer service.Close()

    rows, err := buildReport(context.Background(), service, appConfig, name)
    if err != nil {
        ui.ShowError(err)
        os.Exit(1)
    }

    title, groupLabel := reportLabels(name)
    if err := emitReport(title, groupLabel, rows); err != nil {
        ui.ShowError(err)
        os.Exit(1)
    }
}

func isKnownReport(name string) bool {
    for _, n := range report.Names() {
        if n == name {
            return true
        }
    }
    return false
}

func buildReport(ctx context.Context, service *warehouse.Service, cfg *models.Config, name string) ([]report.Row, error) {
    // Courier identity is not projected, so that report reads the full table.
    if name == report.NameCourier {
        orders, err := service.LoadOrders(ctx)
        if err != nil {
            return nil, err
        }
        return report.ByCourier(orders, *cfg.Pipeline.MinCourierOrders), nil
    }

    records, err := service.LoadProjection(ctx)
    if err != nil {
        return nil, err
    }

    switch name {
    case report.NameGlobal:
        return []report.Row{report.Global(records)}, nil
    case report.NameCity:
        return report.ByCity(records), nil
    case report.NamePeak:
        return report.ByPeak(records), nil
    case report.NameDaily:
        return report.ByDate(records), nil
    case report.NameTraffic:
        return report.ByTraffic(records), nil
    case report.NameWeather:
        return report.ByWeather(records), nil
    }
    return nil, appErrors.New(appErrors.ErrCodeUnknownReport, fmt.Sprintf("unknown report %q", name))
}

func reportLabels(name string) (title, groupLabel string) {
    switch name {
    case report.NameGlobal:
        return "Global Delivery KPIs", "scope"
    case report.NameCity:
        return "Delivery KPIs by City", "city"
    case report.NamePeak:
        return "Peak vs Off-Peak Delivery KPIs", "window"
    case report.NameDaily:
        return "Daily Delivery KPIs", "date"
    case report.NameTraffic:
        return "Delivery KPIs by Traffic Density", "traffic"
    case report.NameWeather:
        return "Delivery KPIs by Weather", "weather"
    case report.NameCourier:
        return "Slowest Couriers", "courier"
    }
    return name, "group"
}

func emitReport(title, groupLabel string, rows []report.Row) error {
    switch reportFormat {
    case "table":
        report.RenderTable(os.Stdout, title, groupLabel, rows)
        return nil
    case "csv":
        out := os.Stdout
        if reportOutput != "" {
            f, err := os.Create(reportOutput)
            if err != nil {
                return fmt.Errorf("failed to create output file: %w", err)
            }
            defer f.Close()
            out = f
        }
        return report.WriteCSV(out, groupLabel, rows)
    case "xlsx":
        if reportOutput == "" {
            return fmt.Errorf("xlsx format requires --output")
        }
        if err := report.WriteXLSX(reportOutput, title, groupLabel, rows); err != nil {
            return err
        }
        ui.ShowSuccess(fmt.Sprintf("Report written to %s", reportOutput))
        return nil
    }
    return fmt.Errorf("unknown format %q (supported: table, csv, xlsx)", reportFormat)
}
