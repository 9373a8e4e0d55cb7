package psql

import (
	"context"
	"fmt"

	"medicare/medicare/config"
	"medicare/medicare/sources/psql/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Database opens the connection twice on purpose: gorm handles schema
// migration, the pgx pool serves the DAOs on the hot path.
type Database struct {
	Gorm *gorm.DB
	Pool *pgxpool.Pool
}

func NewDatabase(ctx context.Context, cfg config.Config) (*Database, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
	)

	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).AutoMigrate(&models.TranscriptMessage{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &Database{Gorm: db, Pool: pool}, nil
}

func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
	sqlDB, err := db.Gorm.DB()
	if err != nil {
		return
	}
	sqlDB.Close()
}
