package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrSessionNotFound ErrCode = "SESSION_NOT_FOUND"
	ErrResultNotFound  ErrCode = "RESULT_NOT_FOUND"

	// ─── Session lifecycle ─────────────────────────────────────────────
	ErrTestUnavailable    ErrCode = "TEST_UNAVAILABLE"
	ErrTestHasNoQuestions ErrCode = "TEST_HAS_NO_QUESTIONS"
	ErrNoOptionSelected   ErrCode = "NO_OPTION_SELECTED"
	ErrOptionOutOfRange   ErrCode = "OPTION_OUT_OF_RANGE"
	ErrQuestionOutOfRange ErrCode = "QUESTION_OUT_OF_RANGE"
	ErrSectionLocked      ErrCode = "SECTION_LOCKED"
	ErrNotSectional       ErrCode = "NOT_SECTIONAL"
	ErrNoSections         ErrCode = "NO_SECTIONS"
	ErrAlreadySubmitted   ErrCode = "ALREADY_SUBMITTED"
	ErrResultNotReady     ErrCode = "RESULT_NOT_READY"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrSessionNotFound:
		return "No such exam session."
	case ErrResultNotFound:
		return "No such result."

	// ─── Session lifecycle ─────────────────────────────────────────────
	case ErrTestUnavailable:
		return "This test could not be loaded. Please return to the test list."
	case ErrTestHasNoQuestions:
		return "This test has no questions."
	case ErrNoOptionSelected:
		return "Select an option before saving."
	case ErrOptionOutOfRange:
		return "That option does not exist for this question."
	case ErrQuestionOutOfRange:
		return "That question does not exist."
	case ErrSectionLocked:
		return "This section is locked."
	case ErrNotSectional:
		return "This test does not use sectional timing."
	case ErrNoSections:
		return "This test has no sections."
	case ErrAlreadySubmitted:
		return "This session has already been submitted."
	case ErrResultNotReady:
		return "The session has not been submitted yet."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
