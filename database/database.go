package database

import (
	"fmt"
	"log"
	"os"

	"lms/config"
	"lms/models"
	chatModels "lms/models/chat"
	courseModels "lms/models/course"
	membershipModels "lms/models/membership"
	orderModels "lms/models/order"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DbInstance struct holds the database connection instance
type DbInstance struct {
	Db *gorm.DB
}

// Database is the global database instance
var Database DbInstance

// ConnectDb establishes a connection to PostgreSQL
func ConnectDb() {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		config.AppConfig.DBHost,
		config.AppConfig.DBUser,
		config.AppConfig.DBPassword,
		config.AppConfig.DBName,
		config.AppConfig.DBPort,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		os.Exit(2)
	}

	// Set up connection pooling
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(0)

	runMigrations(db)

	// Save database instance globally
	Database = DbInstance{Db: db}
}

// runMigrations performs database migrations
func runMigrations(db *gorm.DB) {
	log.Println("Running Migrations...")

	if err := Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migrations completed successfully.")
}

// Migrate runs AutoMigrate for every model. Exposed so tests can migrate
// an sqlite database with the same schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Coupon{},
		&models.UserCoupon{},
		&models.BalanceTransaction{},
		&models.AuditLog{},
		&courseModels.Course{},
		&courseModels.Lesson{},
		&courseModels.Enrollment{},
		&orderModels.Order{},
		&orderModels.OrderItem{},
		&orderModels.PaymentAttempt{},
		&orderModels.RefundRecord{},
		&membershipModels.MembershipLevel{},
		&membershipModels.Membership{},
		&chatModels.Conversation{},
		&chatModels.Message{},
	)
}
