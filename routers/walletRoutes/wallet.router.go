package walletRoutes

import (
	walletController "lms/controllers/wallet"
	"lms/middleware"
	"lms/permissions"
	walletValidator "lms/validators/wallet"

	"github.com/gofiber/fiber/v2"
)

func SetupWalletRoutes(app *fiber.App) {
	walletGroup := app.Group("/wallet")

	walletGroup.Get("/balance", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionWalletView), walletController.GetWalletBalance)
	walletGroup.Post("/deposit", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionWalletDeposit), walletValidator.Deposit(), walletController.DepositToWallet)
	walletGroup.Get("/history", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionWalletView), walletValidator.WalletHistory(), walletController.GetWalletHistory)
}
