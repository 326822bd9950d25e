// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"

	// Users
	KeyUserNotFound       = "user.not_found"
	KeyUserWalletLinked   = "user.wallet_linked"
	KeyUserWalletInUse    = "user.wallet_in_use"
	KeyUserProfileUpdated = "user.profile_updated"

	// Media
	KeyMediaCreated   = "media.created"
	KeyMediaNotFound  = "media.not_found"
	KeyMediaSubmitted = "media.submitted"
	KeyMediaApproved  = "media.approved"

	// Purchases
	KeyPurchaseNotFound      = "purchase.not_found"
	KeyPurchaseAlreadyOwned  = "purchase.already_owned"
	KeyPurchasePriceMismatch = "purchase.price_mismatch"
	KeyPurchaseBadMethod     = "purchase.method_not_supported"
	KeyPurchaseOwnMedia      = "purchase.own_media"
	KeyPurchaseGatewayError  = "purchase.gateway_unavailable"
	KeyPurchaseNotEntitled   = "purchase.not_entitled"
	KeyPurchaseLimitReached  = "purchase.download_limit_reached"

	// Admin
	KeyAccessDenied         = "admin.access_denied"
	KeyAdminCommissionSaved = "admin.commission_saved"

	// Validation
	KeyValidationInvalid = "validation.invalid"

	// File Upload
	KeyFileUploadFailed = "file.upload_failed"
)
