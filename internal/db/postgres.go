package db

import (
	"database/sql"
	"errors"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// Driver names as registered with database/sql.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// ErrEmptyDSN is returned when no DSN is configured.
var ErrEmptyDSN = errors.New("db: DATABASE_URL is empty")

// Dialect returns the database/sql driver name and the driver-specific data source for dsn.
// "sqlite://<path>" and "file:<path>" select SQLite; everything else is handed to pgx.
func Dialect(dsn string) (driver, source string) {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		return DriverSQLite, strings.TrimPrefix(dsn, "sqlite://")
	case strings.HasPrefix(dsn, "file:"):
		return DriverSQLite, dsn
	default:
		return DriverPostgres, dsn
	}
}

// Open opens and pings a connection pool for dsn. Caller must call Close when done.
func Open(dsn string) (*sql.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, ErrEmptyDSN
	}
	driver, source := Dialect(dsn)
	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenX is Open wrapped in sqlx with the matching bind type.
func OpenX(dsn string) (*sqlx.DB, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	driver, _ := Dialect(strings.TrimSpace(dsn))
	return sqlx.NewDb(db, driver), nil
}

// IsSQLite reports whether dsn selects the SQLite driver.
func IsSQLite(dsn string) bool {
	driver, _ := Dialect(strings.TrimSpace(dsn))
	return driver == DriverSQLite
}
