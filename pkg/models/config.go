package models

type Config struct {
	Warehouse Warehouse `yaml:"warehouse"`
	Pipeline  Pipeline  `yaml:"pipeline"`
	Logging   Logging   `yaml:"logging"`
}

// Warehouse holds the Snowflake connection settings and the names of the two
// tables this tool operates on.
type Warehouse struct {
	Account         string `yaml:"account"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"` // blank when stored in the OS keyring
	Role            string `yaml:"role"`
	Warehouse       string `yaml:"warehouse"`
	Database        string `yaml:"database"`
	Schema          string `yaml:"schema"`
	OrdersTable     string `yaml:"orders_table"`
	ProjectionTable string `yaml:"projection_table"`
	Timeout         string `yaml:"timeout"` // e.g. "30s"
}

// Pipeline contains the business thresholds used by flag derivation and the
// courier report. Nil means "use the default"; zero is a real value (a peak
// window can start at midnight).
type Pipeline struct {
	SLABreachMinutes *int `yaml:"sla_breach_minutes"` // default 40
	PeakStartHour    *int `yaml:"peak_start_hour"`    // default 19
	PeakEndHour      *int `yaml:"peak_end_hour"`      // default 21
	MinCourierOrders *int `yaml:"min_courier_orders"` // default 30
}

type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}
