package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/snowflakedb/gosnowflake"
	"orderpulse/pkg/errors"
	"orderpulse/pkg/models"
)

// Service provides access to the orders table and the analytics projection
// in Snowflake. It is the store handle the pipeline and report layers
// receive; nothing else in the program talks to the warehouse.
type Service struct {
	db        *sql.DB
	config    Config
	connected bool
}

// Config holds Snowflake connection configuration plus the two table names
// the tool operates on.
type Config struct {
	Account         string
	Username        string
	Password        string
	Database        string
	Schema          string
	Warehouse       string
	Role            string
	OrdersTable     string
	ProjectionTable string
	Timeout         time.Duration
}

// ConfigFromModel builds a connection Config from the YAML config model,
// with the password resolved separately (it may come from the keyring).
func ConfigFromModel(w models.Warehouse, password string) Config {
	timeout, err := time.ParseDuration(w.Timeout)
	if err != nil {
		timeout = 0
	}
	return Config{
		Account:         w.Account,
		Username:        w.Username,
		Password:        password,
		Database:        w.Database,
		Schema:          w.Schema,
		Warehouse:       w.Warehouse,
		Role:            w.Role,
		OrdersTable:     w.OrdersTable,
		ProjectionTable: w.ProjectionTable,
		Timeout:         timeout,
	}
}

// NewService creates a new warehouse service
func NewService(config Config) *Service {
	return &Service{config: config}
}

// Connect establishes a connection to Snowflake
func (s *Service) Connect() error {
	if s.connected {
		return nil
	}

	return errors.RetryWithBackoff(context.Background(), func(ctx context.Context) error {
		dsn := fmt.Sprintf("%s:%s@%s/%s/%s?warehouse=%s&role=%s",
			s.config.Username,
			s.config.Password,
			s.config.Account,
			s.config.Database,
			s.config.Schema,
			s.config.Warehouse,
			s.config.Role,
		)

		db, err := sql.Open("snowflake", dsn)
		if err != nil {
			return errors.ConnectionError("Failed to open Snowflake connection", err).
				WithContext("account", s.config.Account).
				WithContext("warehouse", s.config.Warehouse)
		}

		// Single-writer batch tool; a small pool is plenty
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(10 * time.Minute)

		connCtx, cancel := s.getContext()
		defer cancel()

		if err := db.PingContext(connCtx); err != nil {
			db.Close()

			if strings.Contains(err.Error(), "authentication") {
				return errors.New(errors.ErrCodeAuthenticationFailed, "Authentication failed").
					WithContext("user", s.config.Username).
					WithSuggestions(
						"Verify your username and password",
						"Check if your account is locked",
						"Run 'orderpulse setup' to refresh stored credentials",
					)
			}

			return errors.ConnectionError("Failed to connect to Snowflake", err).
				WithContext("account", s.config.Account).
				AsRecoverable()
		}

		s.db = db
		s.connected = true
		return nil
	})
}

// Close closes the database connection
func (s *Service) Close() error {
	if !s.connected {
		return nil
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}

	s.connected = false
	return nil
}

// TestConnection tests the database connection
func (s *Service) TestConnection() error {
	if !s.connected {
		if err := s.Connect(); err != nil {
			return err
		}
	}

	ctx, cancel := s.getContext()
	defer cancel()

	return s.db.PingContext(ctx)
}

// DuplicateOrderIDs returns every order id that appears more than once in
// the orders table. Per-row cleaning assumes unique identities, so the
// pipeline refuses to run when this returns anything.
func (s *Service) DuplicateOrderIDs(ctx context.Context) ([]string, error) {
	if !s.connected {
		return nil, errors.New(errors.ErrCodeConnectionFailed, "Not connected to database").
			WithSuggestions("Call Connect() before querying")
	}

	query := fmt.Sprintf(
		"SELECT ORDER_ID FROM %s GROUP BY ORDER_ID HAVING COUNT(*) > 1",
		s.ordersRef(),
	)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.SQLError("Failed to check order id uniqueness", query, err)
	}
	defer rows.Close()

	var duplicates []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		duplicates = append(duplicates, id)
	}

	return duplicates, rows.Err()
}

// LoadOrders reads the full orders table, raw and derived columns together.
func (s *Service) LoadOrders(ctx context.Context) ([]*models.Order, error) {
	if !s.connected {
		return nil, errors.New(errors.ErrCodeConnectionFailed, "Not connected to database").
			WithSuggestions("Call Connect() before querying")
	}

	query := fmt.Sprintf(`SELECT ORDER_ID, ORDER_DATE, TIME_ORDERED, TIME_TAKEN_MIN,
		DELIVERY_PERSON_ID, CITY, DELIVERY_PERSON_AGE, DELIVERY_PERSON_RATINGS,
		WEATHER_CONDITIONS, ROAD_TRAFFIC_DENSITY, FESTIVAL,
		CLEAN_ORDER_DATE, DELIVERY_DURATION, SLA_BREACH_FLAG, PEAK_HOUR_FLAG
		FROM %s`, s.ordersRef())

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.SQLError("Failed to load orders", query, err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		var (
			o           models.Order
			orderDate   sql.NullString
			timeOrdered sql.NullString
			timeTaken   sql.NullString
			personID    sql.NullString
			city        sql.NullString
			age         sql.NullFloat64
			ratings     sql.NullFloat64
			weather     sql.NullString
			traffic     sql.NullString
			festival    sql.NullString
			cleanDate   sql.NullTime
			duration    sql.NullInt64
			slaBreach   sql.NullBool
			peakHour    sql.NullBool
		)

		if err := rows.Scan(&o.OrderID, &orderDate, &timeOrdered, &timeTaken,
			&personID, &city, &age, &ratings, &weather, &traffic, &festival,
			&cleanDate, &duration, &slaBreach, &peakHour); err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}

		o.OrderDate = orderDate.String
		o.TimeOrdered = timeOrdered.String
		o.TimeTakenRaw = timeTaken.String
		o.DeliveryPersonID = personID.String
		o.City = city.String
		if age.Valid {
			o.DeliveryPersonAge = &age.Float64
		}
		if ratings.Valid {
			o.DeliveryPersonRatings = &ratings.Float64
		}
		if weather.Valid {
			o.WeatherConditions = &weather.String
		}
		if traffic.Valid {
			o.RoadTrafficDensity = &traffic.String
		}
		if festival.Valid {
			o.Festival = &festival.String
		}
		if cleanDate.Valid {
			o.CleanOrderDate = &cleanDate.Time
		}
		if duration.Valid {
			d := int(duration.Int64)
			o.DeliveryDuration = &d
		}
		if slaBreach.Valid {
			o.SLABreachFlag = &slaBreach.Bool
		}
		if peakHour.Valid {
			o.PeakHourFlag = &peakHour.Bool
		}

		orders = append(orders, &o)
	}

	return orders, rows.Err()
}

// SaveDerived writes back the imputed and derived columns for every order,
// all inside one transaction so a partial failure leaves the table as the
// pipeline found it.
func (s *Service) SaveDerived(ctx context.Context, orders []*models.Order) error {
	if !s.connected {
		return errors.New(errors.ErrCodeConnectionFailed, "Not connected to database").
			WithSuggestions("Call Connect() before executing SQL")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSQLTransaction, "Failed to begin transaction")
	}

	query := fmt.Sprintf(`UPDATE %s SET
		DELIVERY_PERSON_AGE = ?, DELIVERY_PERSON_RATINGS = ?,
		WEATHER_CONDITIONS = ?, ROAD_TRAFFIC_DENSITY = ?, FESTIVAL = ?,
		CLEAN_ORDER_DATE = ?, DELIVERY_DURATION = ?,
		SLA_BREACH_FLAG = ?, PEAK_HOUR_FLAG = ?
		WHERE ORDER_ID = ?`, s.ordersRef())

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		tx.Rollback()
		return errors.SQLError("Failed to prepare update statement", query, err)
	}
	defer stmt.Close()

	for _, o := range orders {
		if _, err := stmt.ExecContext(ctx,
			nullFloat(o.DeliveryPersonAge),
			nullFloat(o.DeliveryPersonRatings),
			nullString(o.WeatherConditions),
			nullString(o.RoadTrafficDensity),
			nullString(o.Festival),
			nullTime(o.CleanOrderDate),
			nullInt(o.DeliveryDuration),
			nullBool(o.SLABreachFlag),
			nullBool(o.PeakHourFlag),
			o.OrderID,
		); err != nil {
			tx.Rollback()
			return errors.SQLError("Failed to write derived columns", query, err).
				WithContext("order_id", o.OrderID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSQLTransaction, "Failed to commit transaction")
	}

	return nil
}

// CreateProjection materializes the analytics projection: the narrowed
// snapshot of fully-cleaned rows the reports read. Rows still missing a
// derived column are excluded; the quality report accounts for them.
func (s *Service) CreateProjection(ctx context.Context) error {
	if !s.connected {
		return errors.New(errors.ErrCodeConnectionFailed, "Not connected to database").
			WithSuggestions("Call Connect() before executing SQL")
	}

	query := fmt.Sprintf(`CREATE OR REPLACE TABLE %s AS
		SELECT ORDER_ID, CLEAN_ORDER_DATE, TIME_ORDERED, DELIVERY_DURATION,
			SLA_BREACH_FLAG, PEAK_HOUR_FLAG, CITY, WEATHER_CONDITIONS, ROAD_TRAFFIC_DENSITY
		FROM %s
		WHERE CLEAN_ORDER_DATE IS NOT NULL
			AND DELIVERY_DURATION IS NOT NULL
			AND SLA_BREACH_FLAG IS NOT NULL
			AND PEAK_HOUR_FLAG IS NOT NULL`,
		s.projectionRef(), s.ordersRef())

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return errors.SQLError("Failed to create analytics projection", query, err).
			WithContext("projection_table", s.config.ProjectionTable)
	}

	return nil
}

// LoadProjection reads the analytics projection for the reporting layer.
func (s *Service) LoadProjection(ctx context.Context) ([]models.AnalyticsRecord, error) {
	if !s.connected {
		return nil, errors.New(errors.ErrCodeConnectionFailed, "Not connected to database").
			WithSuggestions("Call Connect() before querying")
	}

	query := fmt.Sprintf(`SELECT ORDER_ID, CLEAN_ORDER_DATE, TIME_ORDERED,
		DELIVERY_DURATION, SLA_BREACH_FLAG, PEAK_HOUR_FLAG,
		CITY, WEATHER_CONDITIONS, ROAD_TRAFFIC_DENSITY
		FROM %s`, s.projectionRef())

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.SQLError("Failed to load analytics projection", query, err)
	}
	defer rows.Close()

	var records []models.AnalyticsRecord
	for rows.Next() {
		var (
			r           models.AnalyticsRecord
			timeOrdered sql.NullString
			city        sql.NullString
			weather     sql.NullString
			traffic     sql.NullString
		)

		if err := rows.Scan(&r.OrderID, &r.OrderDate, &timeOrdered,
			&r.DeliveryDuration, &r.SLABreachFlag, &r.PeakHourFlag,
			&city, &weather, &traffic); err != nil {
			return nil, fmt.Errorf("failed to scan projection row: %w", err)
		}

		r.TimeOrdered = timeOrdered.String
		r.City = city.String
		r.WeatherConditions = weather.String
		r.RoadTrafficDensity = traffic.String

		records = append(records, r)
	}

	return records, rows.Err()
}

// Helper methods

func (s *Service) getContext() (context.Context, context.CancelFunc) {
	timeout := s.config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

func (s *Service) ordersRef() string {
	return s.tableRef(s.config.OrdersTable)
}

func (s *Service) projectionRef() string {
	return s.tableRef(s.config.ProjectionTable)
}

func (s *Service) tableRef(table string) string {
	if s.config.Database != "" && s.config.Schema != "" {
		return fmt.Sprintf("%s.%s.%s", s.config.Database, s.config.Schema, table)
	}
	return table
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func nullInt(i *int) interface{} {
	if i == nil {
		return nil
	}
	return *i
}

func nullBool(b *bool) interface{} {
	if b == nil {
		return nil
	}
	return *b
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

// ValidateConfig validates the warehouse configuration
func ValidateConfig(config Config) error {
	if config.Account == "" {
		return fmt.Errorf("account is required")
	}
	if config.Username == "" {
		return fmt.Errorf("username is required")
	}
	if config.Password == "" {
		return fmt.Errorf("password is required")
	}
	if config.Warehouse == "" {
		return fmt.Errorf("warehouse is required")
	}
	if config.Role == "" {
		return fmt.Errorf("role is required")
	}
	if config.OrdersTable == "" {
		return fmt.Errorf("orders table is required")
	}
	if config.ProjectionTable == "" {
		return fmt.Errorf("projection table is required")
	}
	return nil
}
