package cmd

import (
    "fmt"
    "os"

    "github.com/AlecAivazis/survey/v2"
    "github.com/spf13/cobra"

    "orderpulse/internal/config"
    "orderpulse/internal/security"
    "orderpulse/pkg/models"
)

var setupCmd = &cobra.Command{
    Use:   "setup",
    Short: "Initial configuration setup",
    Run:   runSetup,
}

func init() {
    rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) {
    fmt.Println("🚀 Setting up OrderPulse...")
    fmt.Println()

    // Check if config already exists
    if config.Exists() {
        var overwrite bool
        prompt := &survey.Confirm{
            Message: "Configuration already exists. Do you want to overwrite it?",
            Default: false,
        }
        survey.AskOne(prompt, &overwrite)
        if !overwrite {
            fmt.Println("Setup cancelled.")
            return
        }
    }

    cfg := &models.Config{}

    fmt.Println("📄 Snowflake Configuration")
    fmt.Println("-------------------------")

    var password string
    warehouseQs := []*survey.Question{
        {
            Name: "account",
            Prompt: &survey.Input{
                Message: "Snowflake Account (e.g., xy12345.us-east-1):",
            },
            Validate: survey.Required,
        },
        {
            Name: "username",
            Prompt: &survey.Input{
                Message: "Username:",
            },
            Validate: survey.Required,
        },
        {
            Name: "role",
            Prompt: &survey.Input{
                Message: "Role:",
                Default: "ANALYST",
            },
            Validate: survey.Required,
        },
        {
            Name: "warehouse",
            Prompt: &survey.Input{
                Message: "Warehouse:",
                Default: "COMPUTE_WH",
            },
            Validate: survey.Required,
        },
        {
            Name: "database",
            Prompt: &survey.Input{
                Message: "Database:",
            },
            Validate: survey.Required,
        },
        {
            Name: "schema",
            Prompt: &survey.Input{
                Message: "Schema:",
                Default: "PUBLIC",
            },
            Validate: survey.Required,
        },
    }

    err := survey.Ask(warehouseQs, &cfg.Warehouse)
    if err != nil {
        fmt.Printf("Error: %v\n", err)
        os.Exit(1)
    }

    if err := survey.AskOne(&survey.Password{Message: "Password:"}, &password, survey.WithValidator(survey.Required)); err != nil {
        fmt.Printf("Error: %v\n", err)
        os.Exit(1)
    }

    fmt.Println()
    fmt.Println("📦 Table Configuration")
    fmt.Println("-------------------------")

    tableQs := []*survey.Question{
        {
            Name: "orderstable",
            Prompt: &survey.Input{
                Message: "Orders table:",
                Default: config.DefaultOrdersTable,
            },
            Validate: survey.Required,
        },
        {
            Name: "projectiontable",
            Prompt: &survey.Input{
                Message: "Analytics projection table:",
                Default: config.DefaultProjectionTable,
            },
            Validate: survey.Required,
        },
    }

    answers := struct {
        OrdersTable     string `survey:"orderstable"`
        ProjectionTable string `survey:"projectiontable"`
    }{}

    if err := survey.Ask(tableQs, &answers); err != nil {
        fmt.Printf("Error: %v\n", err)
        os.Exit(1)
    }
    cfg.Warehouse.OrdersTable = answers.OrdersTable
    cfg.Warehouse.ProjectionTable = answers.ProjectionTable

    // The password goes to the keyring, never to the YAML file
    cfg.Warehouse.Password = ""
    config.ApplyDefaults(cfg)

    if err := config.Save(cfg); err != nil {
        fmt.Printf("Error saving configuration: %v\n", err)
        os.Exit(1)
    }

    cm, err := security.NewCredentialManager(config.GetConfigPath())
    if err == nil {
        err = cm.StorePassword(password)
    }
    if err != nil {
        fmt.Printf("Warning: could not store password securely (%v).\n", err)
        fmt.Println("Set the password field in the config file by hand if needed.")
    }

    fmt.Println()
    fmt.Println("✅ Configuration saved to:", config.GetConfigFile())
    fmt.Println()
    fmt.Println("Next: run 'orderpulse validate' to inspect data quality,")
    fmt.Println("then 'orderpulse run' to clean the orders table.")
}
