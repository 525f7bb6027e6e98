package coupon

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"lms/database"
	"lms/models"
	"lms/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func validWindow() (time.Time, time.Time) {
	now := time.Now()
	return now.Add(-time.Hour), now.Add(24 * time.Hour)
}

func TestCreateValidation(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	from, until := validWindow()

	_, err := svc.Create(CreateParams{Code: "X", Name: "x", CouponType: "BOGUS", ValidFrom: from, ValidUntil: until})
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = svc.Create(CreateParams{Code: "X", Name: "x", CouponType: models.CouponTypeDiscount,
		DiscountValue: 150, ValidFrom: from, ValidUntil: until})
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = svc.Create(CreateParams{Code: "X", Name: "x", CouponType: models.CouponTypeAmount,
		DiscountValue: 10, ValidFrom: until, ValidUntil: from})
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = svc.Create(CreateParams{Code: "WELCOME", Name: "Welcome", CouponType: models.CouponTypeAmount,
		DiscountValue: 10, ValidFrom: from, ValidUntil: until})
	require.NoError(t, err)

	_, err = svc.Create(CreateParams{Code: "WELCOME", Name: "Again", CouponType: models.CouponTypeAmount,
		DiscountValue: 10, ValidFrom: from, ValidUntil: until})
	assert.ErrorIs(t, err, services.ErrAlreadyExists)
}

func TestDiscountComputation(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	from, until := validWindow()
	now := time.Now()

	pct, err := svc.Create(CreateParams{Code: "PCT20", Name: "20 off", CouponType: models.CouponTypeDiscount,
		DiscountValue: 20, MaxDiscount: 30, ValidFrom: from, ValidUntil: until})
	require.NoError(t, err)

	d, err := svc.Discount(pct, 100, nil, now)
	require.NoError(t, err)
	assert.Equal(t, 20.0, d)

	// Cap kicks in on large totals
	d, err = svc.Discount(pct, 500, nil, now)
	require.NoError(t, err)
	assert.Equal(t, 30.0, d)

	amt, err := svc.Create(CreateParams{Code: "FLAT50", Name: "Flat 50", CouponType: models.CouponTypeAmount,
		DiscountValue: 50, MinAmount: 100, ValidFrom: from, ValidUntil: until})
	require.NoError(t, err)

	_, err = svc.Discount(amt, 80, nil, now)
	assert.ErrorIs(t, err, services.ErrInvalidCoupon)

	d, err = svc.Discount(amt, 120, nil, now)
	require.NoError(t, err)
	assert.Equal(t, 50.0, d)

	free, err := svc.Create(CreateParams{Code: "FREE", Name: "Free", CouponType: models.CouponTypeFree,
		ValidFrom: from, ValidUntil: until})
	require.NoError(t, err)

	d, err = svc.Discount(free, 999, nil, now)
	require.NoError(t, err)
	assert.Equal(t, 999.0, d)

	// Outside the validity window
	_, err = svc.Discount(pct, 100, nil, until.Add(time.Hour))
	assert.ErrorIs(t, err, services.ErrInvalidCoupon)
}

func TestDiscountCourseScope(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	from, until := validWindow()
	now := time.Now()

	scoped, err := svc.Create(CreateParams{Code: "GOONLY", Name: "Go only", CouponType: models.CouponTypeAmount,
		DiscountValue: 10, CourseScope: []uint{7, 8}, ValidFrom: from, ValidUntil: until})
	require.NoError(t, err)

	_, err = svc.Discount(scoped, 100, []uint{7}, now)
	assert.NoError(t, err)

	_, err = svc.Discount(scoped, 100, []uint{7, 9}, now)
	assert.ErrorIs(t, err, services.ErrInvalidCoupon)
}

func TestReserveConcurrentSingleUse(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	from, until := validWindow()

	coupon, err := svc.Create(CreateParams{Code: "LAST1", Name: "Last one", CouponType: models.CouponTypeAmount,
		DiscountValue: 10, UsageLimit: 1, ValidFrom: from, ValidUntil: until})
	require.NoError(t, err)

	grantA, err := svc.Grant(1, coupon.ID, "test")
	require.NoError(t, err)
	grantB, err := svc.Grant(2, coupon.ID, "test")
	require.NoError(t, err)

	reserve := func(grant *models.UserCoupon, orderID uint) error {
		return db.Transaction(func(tx *gorm.DB) error {
			return svc.Reserve(tx, grant, orderID)
		})
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	grants := []*models.UserCoupon{grantA, grantB}
	for i := range grants {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = reserve(grants[i], uint(100+i))
		}(i)
	}
	wg.Wait()

	// The usage limit is 1: exactly one reserve wins
	var wins, losses int
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, services.ErrInvalidCoupon)
			losses++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)

	var reloaded models.Coupon
	require.NoError(t, db.First(&reloaded, coupon.ID).Error)
	assert.Equal(t, 1, reloaded.UsedCount)
}

func TestReserveSameGrantTwice(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	from, until := validWindow()

	coupon, err := svc.Create(CreateParams{Code: "ONCE", Name: "Once", CouponType: models.CouponTypeAmount,
		DiscountValue: 10, ValidFrom: from, ValidUntil: until})
	require.NoError(t, err)
	grant, err := svc.Grant(1, coupon.ID, "test")
	require.NoError(t, err)

	require.NoError(t, svc.Reserve(db, grant, 10))
	err = svc.Reserve(db, grant, 11)
	assert.ErrorIs(t, err, services.ErrInvalidCoupon)
}

func TestReleaseRestoresGrantAndCount(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	from, until := validWindow()

	coupon, err := svc.Create(CreateParams{Code: "BACK", Name: "Back", CouponType: models.CouponTypeAmount,
		DiscountValue: 10, UsageLimit: 1, ValidFrom: from, ValidUntil: until})
	require.NoError(t, err)
	grant, err := svc.Grant(1, coupon.ID, "test")
	require.NoError(t, err)

	require.NoError(t, svc.Reserve(db, grant, 10))
	require.NoError(t, svc.Release(db, grant.ID))

	var reloadedGrant models.UserCoupon
	require.NoError(t, db.First(&reloadedGrant, grant.ID).Error)
	assert.False(t, reloadedGrant.IsUsed)

	var reloaded models.Coupon
	require.NoError(t, db.First(&reloaded, coupon.ID).Error)
	assert.Equal(t, 0, reloaded.UsedCount)

	// Released coupons are usable again
	require.NoError(t, svc.Reserve(db, &reloadedGrant, 11))
}

func TestGrantOncePerUser(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	from, until := validWindow()

	coupon, err := svc.Create(CreateParams{Code: "DUP", Name: "Dup", CouponType: models.CouponTypeAmount,
		DiscountValue: 10, ValidFrom: from, ValidUntil: until})
	require.NoError(t, err)

	_, err = svc.Grant(1, coupon.ID, "test")
	require.NoError(t, err)
	_, err = svc.Grant(1, coupon.ID, "test")
	assert.ErrorIs(t, err, services.ErrAlreadyExists)
}
