package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBConfig holds database connection parameters
type DBConfig struct {
	Host     string `env:"DB_HOST,required,notEmpty"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER,required,notEmpty"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME,required,notEmpty"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// DSN renders the connection string understood by pgxpool
func (c *DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// LoadDBConfig loads database configuration from environment variables
func LoadDBConfig() (*DBConfig, error) {
	cfg := &DBConfig{}
	if err := ParseEnv(cfg); err != nil {
		return nil, fmt.Errorf("database environment variables not set (DB_HOST, DB_USER, DB_NAME): %w", err)
	}
	return cfg, nil
}

// ConnectDB establishes a connection to the PostgreSQL database
func ConnectDB(cfg *DBConfig) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var err error

	// Retry connecting to the database a few times
	maxRetries := 5
	retryInterval := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		pool, err = pgxpool.New(context.Background(), cfg.DSN())
		if err == nil {
			err = pool.Ping(context.Background())
			if err == nil {
				log.Println("Successfully connected to PostgreSQL!")
				return pool, nil
			}
			pool.Close()
		}
		log.Printf("Failed to connect to database (attempt %d/%d): %v. Retrying in %v...", i+1, maxRetries, err, retryInterval)
		time.Sleep(retryInterval)
	}
	return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", maxRetries, err)
}

// Execer is the part of a pool AutoMigrate needs
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// schemaSQL creates every table if missing. It is safe to run on each start.
const schemaSQL = `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		phone TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('TA', 'EOD', 'AE', 'SEA', 'EA')),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		ip_address TEXT,
		user_agent TEXT,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS dg_operations (
		id BIGSERIAL PRIMARY KEY,
		operation_date TIMESTAMP WITH TIME ZONE NOT NULL,
		shift TEXT NOT NULL,

		eod_in_shift TEXT,
		testing_hrs_from TEXT,
		testing_hrs_to TEXT,
		testing_progressive_hrs DOUBLE PRECISION,
		load_hrs_from TEXT,
		load_hrs_to TEXT,
		load_progressive_hrs DOUBLE PRECISION,
		hrs_meter_reading DOUBLE PRECISION,

		oil_level_in_diesel_tank DOUBLE PRECISION,
		lube_oil_level_in_engine DOUBLE PRECISION,
		oil_stock_in_store DOUBLE PRECISION,
		lube_oil_stock_in_store DOUBLE PRECISION,
		oil_filled_in_liters DOUBLE PRECISION,

		battery_condition TEXT,
		oil_pressure DOUBLE PRECISION,
		oil_temperature DOUBLE PRECISION,

		on_duty_staff TEXT,
		remarks TEXT,

		created_by INTEGER NOT NULL REFERENCES users(id),
		duty_staff_signature TEXT NOT NULL,
		signer_name TEXT,
		signed_by INTEGER REFERENCES users(id),
		signed_at TIMESTAMP WITH TIME ZONE,

		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,

		CONSTRAINT dg_operations_signature_complete CHECK (
			(signer_name IS NULL AND signed_by IS NULL AND signed_at IS NULL) OR
			(signer_name IS NOT NULL AND signed_by IS NOT NULL AND signed_at IS NOT NULL)
		)
	);

	CREATE TABLE IF NOT EXISTS activities (
		id BIGSERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		action TEXT NOT NULL,
		module TEXT NOT NULL,
		details TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	);

	-- Indexes for performance
	CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
	CREATE INDEX IF NOT EXISTS idx_dg_operations_operation_date ON dg_operations(operation_date);
	CREATE INDEX IF NOT EXISTS idx_dg_operations_shift ON dg_operations(shift);
	CREATE INDEX IF NOT EXISTS idx_dg_operations_created_by ON dg_operations(created_by);
	CREATE INDEX IF NOT EXISTS idx_activities_user_id ON activities(user_id);
	CREATE INDEX IF NOT EXISTS idx_activities_created_at ON activities(created_at);

	-- Older rows stored shift tags in mixed case (M/s, g/S, ...)
	UPDATE dg_operations SET shift = UPPER(shift) WHERE shift <> UPPER(shift);

	DO $$
	BEGIN
		IF NOT EXISTS (
			SELECT 1 FROM pg_constraint WHERE conname = 'dg_operations_shift_valid'
		) THEN
			ALTER TABLE dg_operations
				ADD CONSTRAINT dg_operations_shift_valid CHECK (shift IN ('M/S', 'G/S', 'E/S'));
		END IF;
	END
	$$;

	CREATE OR REPLACE FUNCTION update_updated_at_column()
	RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ language 'plpgsql';

	DO $$
	BEGIN
		IF NOT EXISTS (
			SELECT 1
			FROM pg_trigger
			WHERE tgname = 'set_users_updated_at' AND tgrelid = 'users'::regclass
		) THEN
			CREATE TRIGGER set_users_updated_at
			BEFORE UPDATE ON users
			FOR EACH ROW
			EXECUTE FUNCTION update_updated_at_column();
		END IF;
	END
	$$;
`

// AutoMigrate creates tables if they don't exist
func AutoMigrate(ctx context.Context, db Execer) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}

	log.Println("AutoMigrate applied successfully")
	return nil
}
