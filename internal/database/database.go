package database

import (
	"fmt"
	"log"
	"os"

	"github.com/argenlinea/receptor/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDatabase opens the configured row store and migrates its schema.
// Config-fatal on failure, matching the process's startup discipline.
func InitDatabase() {
	var err error

	dbType := getEnv("DB_TYPE", "sqlite")

	switch dbType {
	case "mysql":
		DB, err = connectMySQL()
	case "postgres", "postgresql":
		DB, err = connectPostgreSQL()
	case "sqlite":
		DB, err = connectSQLite()
	default:
		log.Fatal("Unsupported database type:", dbType)
	}

	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := migrateTables(DB); err != nil {
		log.Fatal("Failed to migrate tables:", err)
	}

	log.Println("DEBUG: Database connected and migrated successfully")
}

func connectMySQL() (*gorm.DB, error) {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "3306")
	user := getEnv("DB_USER", "root")
	password := getEnv("DB_PASSWORD", "")
	dbName := getEnv("DB_NAME", "receptor")

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=10s&readTimeout=30s&writeTimeout=30s",
		user, password, host, port, dbName)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	return tunePool(db)
}

func connectPostgreSQL() (*gorm.DB, error) {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "")
	dbName := getEnv("DB_NAME", "receptor")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=America/Argentina/Buenos_Aires",
		host, port, user, password, dbName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %v", err)
	}
	return tunePool(db)
}

func connectSQLite() (*gorm.DB, error) {
	return gorm.Open(sqlite.Open("receptor.db"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

func tunePool(db *gorm.DB) (*gorm.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	return db, nil
}

func migrateTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Line{},
		&models.Page{},
		&models.WhatsAppSession{},
		&models.ContactName{},
		&models.AnalyticsChat{},
		&models.Agenda{},
		&models.AnalyticsLead{},
		&models.AnalyticsConversion{},
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GetDB returns the database instance.
func GetDB() *gorm.DB {
	return DB
}

// CheckAndReconnect pings the database and reinitializes the connection if
// it has gone away.
func CheckAndReconnect() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	if err := sqlDB.Ping(); err != nil {
		log.Printf("WARNING: database connection lost, reconnecting...")
		sqlDB.Close()
		InitDatabase()
		return nil
	}

	return nil
}
