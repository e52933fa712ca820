package audithook

// Action constants for audit events.
const (
	// Batch actions
	ActionBatchCompiled  = "batch.compiled"
	ActionBatchSubmitted = "batch.submitted"
	ActionBatchFailed    = "batch.failed"
	ActionBatchConflict  = "batch.conflict"

	// Conversion actions
	ActionFieldDeprecated = "field.deprecated"

	// Payment actions
	ActionFundsSelected        = "funds.selected"
	ActionOptionalLookupMissed = "context.lookup_missed"
)

// Resource constants for audit events.
const (
	ResourceBatch     = "batch"
	ResourceAggregate = "aggregate"
	ResourceEntity    = "entity"
	ResourcePayment   = "payment"
	ResourceContext   = "context_resource"
)

// Category constants for audit events.
const (
	CategoryLedger     = "ledger"
	CategoryConversion = "conversion"
	CategoryPayment    = "payment"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
