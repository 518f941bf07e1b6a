// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess           = "success"
	KeyInternal          = "error.internal"
	KeyInvalidParameters = "error.invalid_parameters"
	KeyValidationInvalid = "validation.invalid"
	KeyRateLimited       = "error.rate_limited"

	// Authentication
	KeyAuthRequired            = "auth.required"
	KeyAuthInvalidToken        = "auth.invalid_token"
	KeyAuthTokenExpired        = "auth.token_expired"
	KeyAuthAccountNotFound     = "auth.account_not_found"
	KeyPermissionDenied        = "auth.permission_denied"
	KeyInsufficientPermissions = "auth.insufficient_permissions"

	// Component
	KeyComponentExisted        = "component.existed"
	KeyComponentNotExisted     = "component.not_existed"
	KeyComponentParentRequired = "component.parent_required"
	KeyComponentParentInvalid  = "component.parent_invalid"
	KeyComponentCycle          = "component.cycle"
	KeyMaxComponentLevel       = "component.max_level"
	KeyInvalidComponentLevel   = "component.invalid_level"

	// Product
	KeyProductRequired    = "product.required"
	KeyProductExisted     = "product.existed"
	KeyProductNotExisted  = "product.not_existed"
	KeyMfgAfterHandedOver = "product.mfg_after_handed_over"

	// Issue
	KeyIssueNotExisted        = "issue.not_existed"
	KeyInvalidStopFightingDay = "issue.invalid_stop_fighting_days"
	KeyEmptyCompletionTime    = "issue.empty_completion_time"
	KeyIssueComponentRequired = "issue.component_required"
)
