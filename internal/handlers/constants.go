package handlers

const (
	CSRFFormField = "csrf_token"

	ErrInvalidFormData     = "Invalid form data"
	ErrForbidden           = "Invalid or missing CSRF token"
	ErrTooManyRequests     = "Too many requests, please slow down"
	ErrInternalServerError = "Internal server error"
)
