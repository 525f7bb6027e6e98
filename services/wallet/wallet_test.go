package wallet

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

func newUser(t *testing.T, db *gorm.DB, balance float64) *models.User {
	t.Helper()
	user := models.User{
		Name:        "Saver",
		Email:       fmt.Sprintf("saver%d@example.com", time.Now().UnixNano()),
		Password:    "x",
		Role:        models.RoleUser,
		MainBalance: balance,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func balanceOf(t *testing.T, db *gorm.DB, userID uint) float64 {
	t.Helper()
	var user models.User
	require.NoError(t, db.First(&user, userID).Error)
	return user.MainBalance
}

func TestDepositCreditsAndWritesLedger(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	user := newUser(t, db, 50)

	txn, err := svc.Deposit(user.ID, DepositParams{
		Amount:         100,
		PaymentGateway: "razorpay",
		PaymentOrderID: "order_1",
		PaymentID:      "pay_1",
		PaymentMethod:  "upi",
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, txn.BalanceBefore)
	assert.Equal(t, 150.0, txn.BalanceAfter)
	assert.Equal(t, models.TransactionTypeDeposit, txn.TransactionType)
	assert.Equal(t, 150.0, balanceOf(t, db, user.ID))
}

func TestDepositReplayedPaymentIDCreditsOnce(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	user := newUser(t, db, 0)

	params := DepositParams{Amount: 100, PaymentGateway: "razorpay", PaymentID: "pay_dup"}
	_, err := svc.Deposit(user.ID, params)
	require.NoError(t, err)

	// Replayed gateway callback must not credit again, and the rejected
	// attempt must leave no balance change behind
	_, err = svc.Deposit(user.ID, params)
	assert.ErrorIs(t, err, services.ErrAlreadyExists)
	assert.Equal(t, 100.0, balanceOf(t, db, user.ID))

	var count int64
	require.NoError(t, db.Model(&models.BalanceTransaction{}).
		Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDepositConcurrentCreditsBothLand(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	user := newUser(t, db, 0)

	const workers = 4
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Deposit(user.ID, DepositParams{
				Amount:    25,
				PaymentID: fmt.Sprintf("pay_c%d", i),
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "deposit %d", i)
	}
	assert.Equal(t, 100.0, balanceOf(t, db, user.ID))

	// Every ledger row is internally consistent even under interleaving
	var rows []models.BalanceTransaction
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&rows).Error)
	require.Len(t, rows, workers)
	for _, row := range rows {
		assert.Equal(t, row.BalanceBefore+row.Amount, row.BalanceAfter)
	}
}

func TestDepositRejectsBadInputAndUnknownUser(t *testing.T) {
	db := newTestDB(t)
	svc := New(db)
	user := newUser(t, db, 0)

	_, err := svc.Deposit(user.ID, DepositParams{Amount: 0, PaymentID: "pay_z"})
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = svc.Deposit(user.ID, DepositParams{Amount: 10})
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = svc.Deposit(9999, DepositParams{Amount: 10, PaymentID: "pay_nouser"})
	assert.ErrorIs(t, err, services.ErrNotFound)
}
