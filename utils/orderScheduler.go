package utils

import (
	"log"
	"time"

	"lms/config"
	"lms/database"
	couponService "lms/services/coupon"
	learningService "lms/services/learning"
	membershipService "lms/services/membership"
	orderService "lms/services/order"

	"github.com/robfig/cron/v3"
)

// InitializeOrderScheduler sets up the unpaid-order sweep
func InitializeOrderScheduler() {
	log.Println("[ORDER-SCHEDULER] Initializing order scheduler...")

	c := cron.New()

	// Every 10 minutes: cancel unpaid orders past their expiry and release
	// their reserved coupons
	c.AddFunc("*/10 * * * *", func() {
		SweepExpiredOrders()
	})

	c.Start()
	log.Println("[ORDER-SCHEDULER] Order scheduler started - runs every 10 minutes")
}

// SweepExpiredOrders cancels stale CREATED orders
func SweepExpiredOrders() {
	db := database.Database.Db
	svc := orderService.New(
		db,
		couponService.New(db),
		membershipService.New(db, config.AppConfig.MembershipGraceDays),
		learningService.New(db),
		NewPaymentGateway(),
		time.Duration(config.AppConfig.OrderExpiryMinutes)*time.Minute,
	)

	swept, err := svc.SweepExpired(time.Now())
	if err != nil {
		log.Printf("[ORDER-SCHEDULER] Error sweeping expired orders: %v", err)
		return
	}
	if swept > 0 {
		log.Printf("[ORDER-SCHEDULER] Cancelled %d expired orders", swept)
	}
}
