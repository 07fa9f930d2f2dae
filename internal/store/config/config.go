package config

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

type Config struct {
	DBDriver string `envconfig:"DB_DRIVER" default:"sqlite3"`
	DBDsn    string `envconfig:"DB_DSN" default:"autobuyer.db"`
}
