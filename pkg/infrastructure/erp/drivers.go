package erp

import (
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/microsoft/go-mssqldb/msdsn"

	// database/sql driver named "sqlserver"
	_ "github.com/microsoft/go-mssqldb"
	// database/sql driver named "pgx"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// checkDSN rejects a connection string the driver cannot parse before any connection is attempted
func checkDSN(driver, dsn string) error {
	switch driver {
	case "sqlserver":
		if _, err := msdsn.Parse(dsn); err != nil {
			return fmt.Errorf("invalid sqlserver dsn: %w", err)
		}
	case "mysql":
		if _, err := mysql.ParseDSN(dsn); err != nil {
			return fmt.Errorf("invalid mysql dsn: %w", err)
		}
	case "pgx":
		if _, err := pgx.ParseConfig(dsn); err != nil {
			return fmt.Errorf("invalid postgres dsn: %w", err)
		}
	default:
		return fmt.Errorf("unsupported erp driver: %s", driver)
	}
	return nil
}
