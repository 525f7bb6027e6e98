package walletController

import (
	"lms/database"
	"lms/middleware"
	"lms/models"
	walletService "lms/services/wallet"

	"github.com/gofiber/fiber/v2"
)

// GetWalletBalance returns user's current wallet balance
func GetWalletBalance(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = false", userId).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Access Denied!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Wallet balance fetched!", fiber.Map{
		"balance":  user.MainBalance,
		"currency": "INR",
	})
}

// DepositToWallet credits the wallet after a gateway payment
func DepositToWallet(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)

	reqData, ok := c.Locals("validatedDeposit").(*struct {
		Amount         float64 `json:"amount"`
		PaymentGateway string  `json:"paymentGateway"`
		PaymentOrderID string  `json:"paymentOrderId"`
		PaymentID      string  `json:"paymentId"`
		PaymentMethod  string  `json:"paymentMethod"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	transaction, err := walletService.New(database.Database.Db).Deposit(userId, walletService.DepositParams{
		Amount:         reqData.Amount,
		PaymentGateway: reqData.PaymentGateway,
		PaymentOrderID: reqData.PaymentOrderID,
		PaymentID:      reqData.PaymentID,
		PaymentMethod:  reqData.PaymentMethod,
	})
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Deposit successful!", fiber.Map{
		"transactionId": transaction.ID,
		"amount":        transaction.Amount,
		"balanceBefore": transaction.BalanceBefore,
		"balanceAfter":  transaction.BalanceAfter,
		"paymentId":     reqData.PaymentID,
		"status":        transaction.Status,
	})
}

// GetWalletHistory returns user's balance transaction history
func GetWalletHistory(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)

	reqData, ok := c.Locals("validatedWalletHistory").(*struct {
		Page  *int `json:"page"`
		Limit *int `json:"limit"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	page := *reqData.Page
	limit := *reqData.Limit
	offset := (page - 1) * limit

	db := database.Database.Db.Model(&models.BalanceTransaction{}).
		Where("user_id = ? AND is_deleted = false", userId)

	var total int64
	db.Count(&total)

	var transactions []models.BalanceTransaction
	if err := db.Offset(offset).Limit(limit).Order("transaction_date desc").Find(&transactions).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch transactions!", nil)
	}

	response := map[string]interface{}{
		"transactions": transactions,
		"pagination": map[string]interface{}{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Wallet history fetched successfully!", response)
}
