package pkg

import (
	"errors"
	"fmt"
	"strings"

	cn "github.com/agentlang-ai/agentstore/pkg/constant"
)

// EntityNotFoundError records an error indicating an entity or row was not
// found in any repository that was asked for it.
type EntityNotFoundError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

// Error implements the error interface.
func (e EntityNotFoundError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		if strings.TrimSpace(e.EntityType) != "" {
			return fmt.Sprintf("Entity %s not found", e.EntityType)
		}

		if e.Err != nil {
			return e.Err.Error()
		}

		return "entity not found"
	}

	return e.Message
}

// Unwrap implements the error interface introduced in Go 1.13 to unwrap the internal error.
func (e EntityNotFoundError) Unwrap() error {
	return e.Err
}

// ValidationError records an error caused by a malformed or semantically
// invalid argument, such as an unknown operator or a bad join reference.
type ValidationError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if strings.TrimSpace(e.Code) != "" {
		return fmt.Sprintf("%s - %s", e.Code, e.Message)
	}

	return e.Message
}

// Unwrap implements the error interface introduced in Go 1.13 to unwrap the internal error.
func (e ValidationError) Unwrap() error {
	return e.Err
}

// EntityConflictError records an error indicating a row already exists in
// some repository, e.g. a duplicate path or identifier.
type EntityConflictError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

// Error implements the error interface.
func (e EntityConflictError) Error() string {
	if e.Err != nil && strings.TrimSpace(e.Message) == "" {
		return e.Err.Error()
	}

	return e.Message
}

// Unwrap implements the error interface introduced in Go 1.13 to unwrap the internal error.
func (e EntityConflictError) Unwrap() error {
	return e.Err
}

// UnauthorizedError indicates an operation that couldn't be performed because
// there's no user identity on the session.
type UnauthorizedError struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	Err        error  `json:"err,omitempty"`
}

func (e UnauthorizedError) Error() string {
	return e.Message
}

// ForbiddenError indicates an operation that couldn't be performed because the
// authenticated user has no sufficient privileges on the target entity.
type ForbiddenError struct {
	EntityType string `json:"entityType,omitempty"`
	Operation  string `json:"operation,omitempty"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	Err        error  `json:"err,omitempty"`
}

func (e ForbiddenError) Error() string {
	return e.Message
}

// UnprocessableOperationError indicates an operation that couldn't be
// performed in the resolver's current state, e.g. starting a transaction
// while another is active.
type UnprocessableOperationError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

func (e UnprocessableOperationError) Error() string {
	return e.Message
}

// InternalServerError indicates an unexpected backend failure.
type InternalServerError struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	Err        error  `json:"err,omitempty"`
}

func (e InternalServerError) Error() string {
	return e.Message
}

// ValidateInternalError validates the error and returns an appropriate InternalServerError.
func ValidateInternalError(err error, entityType string) error {
	return InternalServerError{
		EntityType: entityType,
		Code:       "9999",
		Title:      "Internal Server Error",
		Message:    "The storage backend encountered an unexpected error. Please try again later.",
		Err:        err,
	}
}

// ValidateBusinessError validates the error and returns the appropriate business error code, title, and message.
//
//nolint:gocyclo
func ValidateBusinessError(err error, entityType string, args ...any) error {
	switch {
	case errors.Is(err, cn.ErrEntityNotFound):
		return EntityNotFoundError{
			EntityType: entityType,
			Code:       cn.ErrEntityNotFound.Error(),
			Title:      "Entity Not Found",
			Message:    "No entity was found for the given identifier. Please make sure to use the correct path or id for the entity you are trying to manage.",
		}
	case errors.Is(err, cn.ErrDuplicateInstance):
		return EntityConflictError{
			EntityType: entityType,
			Code:       cn.ErrDuplicateInstance.Error(),
			Title:      "Duplicate Instance",
			Message:    fmt.Sprintf("An instance with the path %s already exists. Please use a different identifier or update the existing instance.", args...),
		}
	case errors.Is(err, cn.ErrForeignConstraint):
		return EntityConflictError{
			EntityType: entityType,
			Code:       cn.ErrForeignConstraint.Error(),
			Title:      "Foreign Constraint Violation",
			Message:    "The operation violates a relationship constraint. Please verify the referenced instances exist and try again.",
		}
	case errors.Is(err, cn.ErrInsufficientPrivileges):
		return ForbiddenError{
			EntityType: entityType,
			Code:       cn.ErrInsufficientPrivileges.Error(),
			Title:      "Insufficient Privileges",
			Message:    fmt.Sprintf("You do not have the necessary permissions to perform the %s operation on this entity. Please contact your administrator if you believe this is an error.", args...),
		}
	case errors.Is(err, cn.ErrPermissionEnforcement):
		return InternalServerError{
			EntityType: entityType,
			Code:       cn.ErrPermissionEnforcement.Error(),
			Title:      "Permission Enforcement Error",
			Message:    "The permission enforcer is not configured properly. Please contact your administrator if you believe this is an error.",
		}
	case errors.Is(err, cn.ErrTransactionNotFound):
		return EntityNotFoundError{
			EntityType: entityType,
			Code:       cn.ErrTransactionNotFound.Error(),
			Title:      "Transaction Not Found",
			Message:    fmt.Sprintf("No transaction was found for the id %s. It may have already been committed or rolled back.", args...),
		}
	case errors.Is(err, cn.ErrTransactionAlreadyActive):
		return UnprocessableOperationError{
			EntityType: entityType,
			Code:       cn.ErrTransactionAlreadyActive.Error(),
			Title:      "Transaction Already Active",
			Message:    "A transaction is already active on this resolver. Commit or roll it back before starting a new one.",
		}
	case errors.Is(err, cn.ErrInvalidNullComparison):
		return ValidationError{
			EntityType: entityType,
			Code:       cn.ErrInvalidNullComparison.Error(),
			Title:      "Invalid Null Comparison",
			Message:    fmt.Sprintf("The operator %s cannot be applied to a null value. Only equality and inequality comparisons may target null.", args...),
		}
	case errors.Is(err, cn.ErrInvalidBetweenOperand):
		return ValidationError{
			EntityType: entityType,
			Code:       cn.ErrInvalidBetweenOperand.Error(),
			Title:      "Invalid Between Operand",
			Message:    "The between operator expects a two-element array of bounds. Please provide a lower and an upper bound.",
		}
	case errors.Is(err, cn.ErrInvalidJoinReference):
		return ValidationError{
			EntityType: entityType,
			Code:       cn.ErrInvalidJoinReference.Error(),
			Title:      "Invalid Join Reference",
			Message:    fmt.Sprintf("The join reference %s does not address the root entity of the query. Please reference the root entity's attributes.", args...),
		}
	case errors.Is(err, cn.ErrUnsupportedRelationshipForJoin):
		return ValidationError{
			EntityType: entityType,
			Code:       cn.ErrUnsupportedRelationshipForJoin.Error(),
			Title:      "Unsupported Relationship For Join",
			Message:    fmt.Sprintf("The relationship %s cannot drive a join of this shape. Please check the relationship kind and the join specification.", args...),
		}
	case errors.Is(err, cn.ErrMissingProjection):
		return ValidationError{
			EntityType: entityType,
			Code:       cn.ErrMissingProjection.Error(),
			Title:      "Missing Projection",
			Message:    "A join query requires a projection describing which columns to return. Please supply a result projection.",
		}
	case errors.Is(err, cn.ErrUnknownEntity):
		return EntityNotFoundError{
			EntityType: entityType,
			Code:       cn.ErrUnknownEntity.Error(),
			Title:      "Unknown Entity",
			Message:    fmt.Sprintf("The entity %s is not declared in the schema catalog. Please verify the module and entity names.", args...),
		}
	case errors.Is(err, cn.ErrUnknownRelationship):
		return EntityNotFoundError{
			EntityType: entityType,
			Code:       cn.ErrUnknownRelationship.Error(),
			Title:      "Unknown Relationship",
			Message:    fmt.Sprintf("The relationship %s is not declared in the schema catalog. Please verify the module and relationship names.", args...),
		}
	case errors.Is(err, cn.ErrUnknownOperator):
		return ValidationError{
			EntityType: entityType,
			Code:       cn.ErrUnknownOperator.Error(),
			Title:      "Unknown Operator",
			Message:    fmt.Sprintf("The operator %s is not recognized. Supported operators are =, <>, !=, <, <=, >, >=, like, between, is and is not.", args...),
		}
	case errors.Is(err, cn.ErrMalformedPath):
		return ValidationError{
			EntityType: entityType,
			Code:       cn.ErrMalformedPath.Error(),
			Title:      "Malformed Path",
			Message:    fmt.Sprintf("The path %s cannot be parsed into a containment chain. Please verify the path value.", args...),
		}
	case errors.Is(err, cn.ErrVectorStoreUnavailable):
		return UnprocessableOperationError{
			EntityType: entityType,
			Code:       cn.ErrVectorStoreUnavailable.Error(),
			Title:      "Vector Store Unavailable",
			Message:    "No vector store backend is configured. Semantic search requires a vector-capable backend.",
		}
	case errors.Is(err, cn.ErrEmbeddingProviderUnavailable):
		return UnprocessableOperationError{
			EntityType: entityType,
			Code:       cn.ErrEmbeddingProviderUnavailable.Error(),
			Title:      "Embedding Provider Unavailable",
			Message:    "No embedding provider is configured. Semantic search requires an embedding provider.",
		}
	case errors.Is(err, cn.ErrOperationNotSupported):
		return UnprocessableOperationError{
			EntityType: entityType,
			Code:       cn.ErrOperationNotSupported.Error(),
			Title:      "Operation Not Supported",
			Message:    fmt.Sprintf("The %s operation is not supported by this resolver.", args...),
		}
	case errors.Is(err, cn.ErrInvalidInstance):
		return ValidationError{
			EntityType: entityType,
			Code:       cn.ErrInvalidInstance.Error(),
			Title:      "Invalid Instance",
			Message:    fmt.Sprintf("The instance is missing required data: %s.", args...),
		}
	case errors.Is(err, cn.ErrSchemaNotLoaded):
		return UnprocessableOperationError{
			EntityType: entityType,
			Code:       cn.ErrSchemaNotLoaded.Error(),
			Title:      "Schema Not Loaded",
			Message:    "The schema catalog has not been populated. Load the schema before resolving instances.",
		}
	case errors.Is(err, cn.ErrCatalogSealed):
		return UnprocessableOperationError{
			EntityType: entityType,
			Code:       cn.ErrCatalogSealed.Error(),
			Title:      "Catalog Sealed",
			Message:    "The schema catalog is sealed. Declarations are immutable after schema load completes.",
		}
	default:
		return err
	}
}
