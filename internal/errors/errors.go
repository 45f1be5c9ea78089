// Package errors provides custom error types for the Tally API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Entity errors. ErrEntityNotFound doubles as the response for entities the
// caller is not a member of, so membership is never leaked.
var (
	ErrEntityNotFound  = &AppError{Code: "ENTITY_NOT_FOUND", Message: "Entity not found", StatusCode: http.StatusNotFound}
	ErrDuplicateMember = &AppError{Code: "DUPLICATE_MEMBER", Message: "User is already a member of this entity", StatusCode: http.StatusConflict}
	ErrMemberNotFound  = &AppError{Code: "MEMBER_NOT_FOUND", Message: "User is not a member of this entity", StatusCode: http.StatusNotFound}
	ErrLastOwner       = &AppError{Code: "LAST_OWNER", Message: "Cannot remove the last owner of an entity", StatusCode: http.StatusConflict}
)

// Category errors.
var (
	ErrCategoryNotFound      = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrParentNotFound        = &AppError{Code: "PARENT_NOT_FOUND", Message: "Parent category not found", StatusCode: http.StatusBadRequest}
	ErrCategoryTypeMismatch  = &AppError{Code: "CATEGORY_TYPE_MISMATCH", Message: "Category type must match its parent's type", StatusCode: http.StatusBadRequest}
	ErrCategoryTypeImmutable = &AppError{Code: "CATEGORY_TYPE_IMMUTABLE", Message: "Category type cannot be changed", StatusCode: http.StatusBadRequest}
	ErrCategoryHasChildren   = &AppError{Code: "CATEGORY_HAS_CHILDREN", Message: "Category has active child categories", StatusCode: http.StatusConflict}
	ErrCategoryInUse         = &AppError{Code: "CATEGORY_IN_USE", Message: "Category is referenced by transactions, budgets, or recurring templates", StatusCode: http.StatusConflict}
	ErrSelfParentCategory    = &AppError{Code: "SELF_PARENT_CATEGORY", Message: "A category cannot be its own parent", StatusCode: http.StatusBadRequest}
	ErrCategoryCycle         = &AppError{Code: "CATEGORY_CYCLE", Message: "Re-parenting would create a cycle in the category tree", StatusCode: http.StatusBadRequest}
)

// Transaction errors.
var (
	ErrTransactionNotFound     = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrTransactionTypeMismatch = &AppError{Code: "TRANSACTION_TYPE_MISMATCH", Message: "Transaction type must match its category's type", StatusCode: http.StatusBadRequest}
)

// Budget errors.
var (
	ErrBudgetNotFound  = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
	ErrDuplicateBudget = &AppError{Code: "DUPLICATE_BUDGET", Message: "A budget for this category, period, and start date already exists", StatusCode: http.StatusConflict}
)

// Recurring template errors.
var (
	ErrTemplateNotFound  = &AppError{Code: "TEMPLATE_NOT_FOUND", Message: "Recurring template not found", StatusCode: http.StatusNotFound}
	ErrInvalidDateRange  = &AppError{Code: "INVALID_DATE_RANGE", Message: "End date must not be before start date", StatusCode: http.StatusBadRequest}
	ErrInvalidFrequency  = &AppError{Code: "INVALID_FREQUENCY", Message: "Unsupported frequency", StatusCode: http.StatusBadRequest}
)
