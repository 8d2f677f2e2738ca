package database

import (
	"fmt"
	"log"
	"time"

	"letterdrop/config"
	"letterdrop/internal/domain/outbox"
	"letterdrop/internal/domain/post"
	"letterdrop/internal/domain/send"
	"letterdrop/internal/domain/subscriber"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect(cfg *config.Config) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatalf("Failed to get generic database object: %v", err)
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Database connection established")
}

// Models lists every aggregate the schema holds. The unique indexes on
// posts.slug, subscribers.email, subscribers.token, outbox_events.unique_key
// and sends(post_id, subscriber_id) are load-bearing for pipeline
// correctness, not indexing hints.
func Models() []interface{} {
	return []interface{}{
		&post.Post{},
		&subscriber.Subscriber{},
		&outbox.Event{},
		&send.Send{},
	}
}

// Migrate applies the GORM schema for all aggregates.
func Migrate() error {
	return DB.AutoMigrate(Models()...)
}

func Close() {
	if DB == nil {
		return
	}
	if sqlDB, err := DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func Ping() error {
	if DB == nil {
		return fmt.Errorf("database not connected")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func HealthCheck() error {
	if err := Ping(); err != nil {
		return err
	}
	var one int
	return DB.Raw("SELECT 1").Scan(&one).Error
}

func TableExists(name string) bool {
	if DB == nil {
		return false
	}
	return DB.Migrator().HasTable(name)
}

func TableCount(name string) (int64, error) {
	var count int64
	err := DB.Table(name).Count(&count).Error
	return count, err
}

// DropAll drops every managed table. Used by `migrate reset`.
func DropAll() error {
	return DB.Migrator().DropTable(Models()...)
}
