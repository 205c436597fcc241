package storage

import (
	"context"
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type DB struct {
	connection *sql.DB
}

func NewDB(dataSourceName string) (*DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, err
	}

	// Connection pool tuning
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &DB{connection: db}, nil
}

func (db *DB) Close() {
	if err := db.connection.Close(); err != nil {
		log.Println("Error closing the database connection:", err)
	}
}

// FitScoreByApplicationID returns the stored fit score for an application
// record, or sql.ErrNoRows when the application has not been scored yet.
func (db *DB) FitScoreByApplicationID(ctx context.Context, applicationObjID string) (float64, error) {
	var score sql.NullFloat64
	query := `SELECT fit_score FROM applications WHERE obj_id = $1`
	if err := db.connection.QueryRowContext(ctx, query, applicationObjID).Scan(&score); err != nil {
		return 0, err
	}
	if !score.Valid {
		return 0, sql.ErrNoRows
	}
	return score.Float64, nil
}

// ApplicationExists checks if an application record with the given obj id exists.
func (db *DB) ApplicationExists(ctx context.Context, applicationObjID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM applications WHERE obj_id = $1)`
	err := db.connection.QueryRowContext(ctx, query, applicationObjID).Scan(&exists)
	return exists, err
}

// GetConnection returns the underlying database connection for advanced queries
func (db *DB) GetConnection() *sql.DB {
	return db.connection
}
