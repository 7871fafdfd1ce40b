package cmd

import (
    "testing"

    "github.com/spf13/viper"
    "github.com/stretchr/testify/assert"

    "orderpulse/pkg/models"
)

func TestApplyWarehouseOverrides(t *testing.T) {
    viper.Reset()
    defer viper.Reset()

    viper.Set("warehouse.account", "ab11111.eu-west-1")
    viper.Set("warehouse.orders_table", "ORDERS_RAW")

    w := models.Warehouse{
        Account:         "xy12345.us-east-1",
        Username:        "analyst",
        OrdersTable:     "DELIVERY_ORDERS",
        ProjectionTable: "ORDERS_ANALYTICS",
    }

    applyWarehouseOverrides(&w)

    assert.Equal(t, "ab11111.eu-west-1", w.Account)
    assert.Equal(t, "ORDERS_RAW", w.OrdersTable)
    // Fields the working-directory config does not set stay as stored
    assert.Equal(t, "analyst", w.Username)
    assert.Equal(t, "ORDERS_ANALYTICS", w.ProjectionTable)
}

func TestApplyWarehouseOverridesNoConfig(t *testing.T) {
    viper.Reset()
    defer viper.Reset()

    w := models.Warehouse{Account: "xy12345.us-east-1", Username: "analyst"}
    applyWarehouseOverrides(&w)

    assert.Equal(t, "xy12345.us-east-1", w.Account)
    assert.Equal(t, "analyst", w.Username)
}
