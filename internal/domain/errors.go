package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeNotInitialized       = "NOT_INITIALIZED"
	ErrCodeResourceInsufficient = "RESOURCE_INSUFFICIENT"
	ErrCodeExtraction           = "EXTRACTION_ERROR"
	ErrCodeGeneration           = "GENERATION_FAILED"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyQuestion      = NewDomainError(ErrCodeValidation, "question cannot be empty")
	ErrInvalidChunkParams = NewDomainError(ErrCodeValidation, "chunk overlap must be non-negative and smaller than chunk size")
	ErrLengthMismatch     = NewDomainError(ErrCodeValidation, "texts, metadatas and ids must have equal length")
	ErrInvalidQuantization = NewDomainError(ErrCodeValidation, "quantization must be one of 4bit, 8bit, none")
)

// Not-initialized errors
var (
	ErrPipelineNotReady    = NewDomainError(ErrCodeNotInitialized, "pipeline not initialized, call Initialize first")
	ErrPipelineFailed      = NewDomainError(ErrCodeNotInitialized, "pipeline initialization failed, create a fresh instance")
	ErrModelNotLoaded      = NewDomainError(ErrCodeNotInitialized, "model not loaded, call Load first")
	ErrIndexNotInitialized = NewDomainError(ErrCodeNotInitialized, "index collection not initialized")
)

// Resource errors
var (
	ErrInsufficientMemory = NewDomainError(ErrCodeResourceInsufficient, "not enough available memory to load the model")
)

// Extraction errors
var (
	ErrUnsupportedFileType = NewDomainError(ErrCodeExtraction, "unsupported file type")
)
