package utils

import (
	"log"
	"time"

	"lms/config"
	"lms/database"
	"lms/models"
	membershipModels "lms/models/membership"
	membershipService "lms/services/membership"

	"github.com/jinzhu/now"
	"github.com/robfig/cron/v3"
)

// InitializeMembershipScheduler sets up the membership expiry scheduler
func InitializeMembershipScheduler() {
	log.Println("[MEMBERSHIP-SCHEDULER] Initializing membership scheduler...")

	c := cron.New()

	// Run daily at 9 AM to send reminders and sweep expired memberships
	c.AddFunc("0 9 * * *", func() {
		log.Println("[MEMBERSHIP-SCHEDULER] Running daily membership check...")
		ProcessExpiringMemberships()
		ExpireMemberships()
	})

	c.Start()
	log.Println("[MEMBERSHIP-SCHEDULER] Membership scheduler started - runs daily at 9 AM")
}

// ProcessExpiringMemberships sends reminder emails for memberships expiring soon
func ProcessExpiringMemberships() {
	db := database.Database.Db
	today := now.BeginningOfDay()
	leadEnd := today.AddDate(0, 0, config.AppConfig.ReminderLeadDays+1)

	var expiring []membershipModels.Membership
	if err := db.
		Where("status = ? AND reminder_sent = false AND is_deleted = ?", membershipModels.StatusActive, false).
		Where("end_at BETWEEN ? AND ?", today, leadEnd).
		Preload("Level").
		Find(&expiring).Error; err != nil {
		log.Printf("[MEMBERSHIP-SCHEDULER] Error fetching expiring memberships: %v", err)
		return
	}

	log.Printf("[MEMBERSHIP-SCHEDULER] Found %d memberships expiring soon", len(expiring))

	for _, m := range expiring {
		var user models.User
		if err := db.Where("id = ?", m.UserID).First(&user).Error; err != nil {
			log.Printf("[MEMBERSHIP-SCHEDULER] Error fetching user %d: %v", m.UserID, err)
			continue
		}

		SendMembershipExpiryReminder(user.Email, user.Name, m.Level.Name, m.EndAt)

		db.Model(&m).Update("reminder_sent", true)
		log.Printf("[MEMBERSHIP-SCHEDULER] Sent expiry reminder for membership %d to %s", m.ID, user.Email)
	}
}

// ExpireMemberships sweeps ACTIVE memberships past their end into EXPIRED
func ExpireMemberships() {
	svc := membershipService.New(database.Database.Db, config.AppConfig.MembershipGraceDays)
	swept, err := svc.SweepExpired(time.Now())
	if err != nil {
		log.Printf("[MEMBERSHIP-SCHEDULER] Error expiring memberships: %v", err)
		return
	}
	if swept > 0 {
		log.Printf("[MEMBERSHIP-SCHEDULER] Marked %d memberships as EXPIRED", swept)
	}
}
