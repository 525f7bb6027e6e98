package main

import (
	"log"

	"lms/config"
	"lms/database"
	"lms/middleware"
	authRoutes "lms/routers/authRoutes"
	chatRoutes "lms/routers/chatRoutes"
	couponRoutes "lms/routers/couponRoutes"
	courseRoutes "lms/routers/courseRoutes"
	learningRoutes "lms/routers/learningRoutes"
	membershipRoutes "lms/routers/membershipRoutes"
	orderRoutes "lms/routers/orderRoutes"
	walletRoutes "lms/routers/walletRoutes"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	// Persisted audit trail of every handled request
	app.Use(middleware.AuditLogger(database.Database.Db))

	authRoutes.SetupAuthRoutes(app)
	courseRoutes.SetupCourseRoutes(app)
	learningRoutes.SetupLearningRoutes(app)
	orderRoutes.SetupOrderRoutes(app)
	membershipRoutes.SetupMembershipRoutes(app)
	couponRoutes.SetupCouponRoutes(app)
	walletRoutes.SetupWalletRoutes(app)
	chatRoutes.SetupChatRoutes(app)

	utils.InitializeMembershipScheduler()
	utils.InitializeOrderScheduler()

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
