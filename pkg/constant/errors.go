package constant

import "errors"

var (
	ErrEntityNotFound                 = errors.New("0001")
	ErrDuplicateInstance              = errors.New("0002")
	ErrForeignConstraint              = errors.New("0003")
	ErrInsufficientPrivileges         = errors.New("0004")
	ErrPermissionEnforcement          = errors.New("0005")
	ErrTransactionNotFound            = errors.New("0006")
	ErrTransactionAlreadyActive       = errors.New("0007")
	ErrInvalidNullComparison          = errors.New("0008")
	ErrInvalidBetweenOperand          = errors.New("0009")
	ErrInvalidJoinReference           = errors.New("0010")
	ErrUnsupportedRelationshipForJoin = errors.New("0011")
	ErrMissingProjection              = errors.New("0012")
	ErrUnknownEntity                  = errors.New("0013")
	ErrUnknownRelationship            = errors.New("0014")
	ErrUnknownOperator                = errors.New("0015")
	ErrMalformedPath                  = errors.New("0016")
	ErrVectorStoreUnavailable         = errors.New("0017")
	ErrEmbeddingProviderUnavailable   = errors.New("0018")
	ErrOperationNotSupported          = errors.New("0019")
	ErrInvalidInstance                = errors.New("0020")
	ErrSchemaNotLoaded                = errors.New("0021")
	ErrCatalogSealed                  = errors.New("0022")
)
