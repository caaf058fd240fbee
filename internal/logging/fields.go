package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldJobID is the standardized structured logging key for sticker job identifiers.
	FieldJobID = "job_id"
	// FieldConversationID is the standardized key for the chat a job belongs to.
	FieldConversationID = "conversation_id"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldSessionID identifies one daemon run.
	FieldSessionID = "session_id"
	// FieldEventType names the lifecycle or diagnostic event a line records.
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator next step for a failure.
	FieldErrorHint = "error_hint"
	// FieldErrorKind carries the classified failure marker.
	FieldErrorKind = "error_kind"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDecisionType names the kind of routing decision being logged.
	FieldDecisionType = "decision_type"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)
