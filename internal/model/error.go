package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeMissingField      = "MISSING_FIELD"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeInvalidArgument   = "INVALID_ARGUMENT"
	ErrCodeInsufficientCoins = "INSUFFICIENT_COINS"
	ErrCodeInvalidStampCode  = "INVALID_STAMP_CODE"
	ErrCodeCardFull          = "CARD_FULL"
	ErrCodeGiftUsed          = "GIFT_USED"
	ErrCodeGiftExpired       = "GIFT_EXPIRED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrUnauthorised       = NewDomainError(ErrCodeUnauthorised, "Unauthorized")
	ErrForbidden          = NewDomainError(ErrCodeForbidden, "Forbidden")
	ErrUserNotFound       = NewDomainError(ErrCodeNotFound, "User not found")
	ErrMenuItemNotFound   = NewDomainError(ErrCodeNotFound, "Menu item not found")
	ErrCategoryNotFound   = NewDomainError(ErrCodeNotFound, "Category not found")
	ErrOrderNotFound      = NewDomainError(ErrCodeNotFound, "Order not found")
	ErrCardNotFound       = NewDomainError(ErrCodeNotFound, "Stamp card not found")
	ErrGiftNotFound       = NewDomainError(ErrCodeNotFound, "Gift not found")
	ErrInvalidCredentials = NewDomainError(ErrCodeUnauthorised, "Invalid phone or password")
	ErrPhoneTaken         = NewDomainError(ErrCodeConflict, "Phone number already registered")
	ErrInsufficientCoins  = NewDomainError(ErrCodeInsufficientCoins, "Coins to spend exceed current balance")
	ErrInvalidTransition  = NewDomainError(ErrCodeInvalidArgument, "Status transition not allowed")
	ErrStaleVersion       = NewDomainError(ErrCodeConflict, "Record was modified by another request")
	ErrInvalidStampCode   = NewDomainError(ErrCodeInvalidStampCode, "Stamp code must match *NNNNN")
	ErrInvalidCardNumber  = NewDomainError(ErrCodeInvalidArgument, "Card number must be 7 digits")
	ErrNotCardOwner       = NewDomainError(ErrCodeForbidden, "Stamp card belongs to a different user")
	ErrCardFull           = NewDomainError(ErrCodeCardFull, "Stamp card already has all stamps collected")
	ErrCardInactive       = NewDomainError(ErrCodeInvalidArgument, "Stamp card is not active")
	ErrGiftUsed           = NewDomainError(ErrCodeGiftUsed, "Gift has already been used")
	ErrGiftExpired        = NewDomainError(ErrCodeGiftExpired, "Gift has expired")
	ErrGiftInactive       = NewDomainError(ErrCodeInvalidArgument, "Gift is not active")
)
