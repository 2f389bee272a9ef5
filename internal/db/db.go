package db

import (
	"database/sql"
	"fmt"

	"lokapasar-be/internal/config"
	"lokapasar-be/internal/logger"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func InitDB(cfg *config.Config) *sql.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.L().Fatal("failed to connect to DB", zap.Error(err))
	}

	if err = db.Ping(); err != nil {
		logger.L().Fatal("failed to ping DB", zap.Error(err))
	}

	logger.L().Info("database connection established")
	return db
}
