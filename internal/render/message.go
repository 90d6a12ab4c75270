package render

import (
	"errors"

	apperrors "github.com/kurihiro0119/repository-feed/internal/errors"
)

// Severity grades a user-facing message
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Message is what a user sees when a load fails
type Message struct {
	Code     apperrors.ErrCode `json:"code"`
	Text     string            `json:"message"`
	Severity Severity          `json:"severity"`
	// Retry says whether a "try again" affordance should be offered
	Retry bool `json:"retry"`
}

// ErrorMessage maps a load failure to a message. NOT_FOUND and CANCELLED never offer retry.
func ErrorMessage(err error) Message {
	code := apperrors.CodeOf(err)
	m := Message{Code: code, Retry: true}

	switch code {
	case apperrors.ErrCodeNotFound:
		m.Text = "GitHub user not found. Please check the username."
		m.Severity = SeverityWarning
		m.Retry = false
	case apperrors.ErrCodeRateLimited:
		m.Text = "GitHub API rate limit exceeded. Please try again in an hour."
		m.Severity = SeverityWarning
	case apperrors.ErrCodeTimeout:
		m.Text = "Request timeout. Please check your connection and try again."
		m.Severity = SeverityWarning
	case apperrors.ErrCodeCancelled:
		m.Text = "Request was cancelled."
		m.Severity = SeverityInfo
		m.Retry = false
	case apperrors.ErrCodeInProgress:
		m.Text = "Repositories are already loading."
		m.Severity = SeverityInfo
		m.Retry = false
	case apperrors.ErrCodeBadRequest:
		m.Text = "Invalid request."
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			m.Text = appErr.Message
		}
		m.Severity = SeverityWarning
		m.Retry = false
	default:
		m.Text = "Unable to load GitHub projects at this time."
		m.Severity = SeverityError
	}
	return m
}
