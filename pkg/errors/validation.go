package errors

// ValidationError is a specialized error type for input validation failures.
// It embeds baseError to inherit error chaining, structured details, and
// error codes, and adds the two fields this module's one validation call
// site (internal/index.New's config check) actually needs: which field was
// missing and which rule it violated.
type ValidationError struct {
	*baseError

	// field identifies which configuration field failed validation.
	field string

	// rule names the validation rule that was violated (e.g. "required").
	rule string
}

// NewValidationError creates a new validation-specific error with the
// provided context.
func NewValidationError(err error, code ErrorCode, msg string) *ValidationError {
	return &ValidationError{baseError: NewBaseError(err, code, msg)}
}

// WithField sets which field failed validation.
func (ve *ValidationError) WithField(field string) *ValidationError {
	ve.field = field
	return ve
}

// WithRule specifies which validation rule was violated.
func (ve *ValidationError) WithRule(rule string) *ValidationError {
	ve.rule = rule
	return ve
}

// Field returns the field name that failed validation.
func (ve *ValidationError) Field() string {
	return ve.field
}

// Rule returns the validation rule that was violated.
func (ve *ValidationError) Rule() string {
	return ve.rule
}
