package logging

const (
	// FieldComponent names the emitting component.
	FieldComponent = "component"
	// FieldRunID correlates every line of one subject run.
	FieldRunID = "run_id"
	// FieldPipeline names the publisher/content-kind pipeline.
	FieldPipeline = "pipeline"
	// FieldStage names the pipeline stage (generate, score, filter, ...).
	FieldStage = "stage"
	// FieldSubject is the canonical URI of the subject being matched.
	FieldSubject = "subject"
	// FieldCandidate is the canonical URI of a candidate.
	FieldCandidate = "candidate"
	// FieldPublisher names a content publisher.
	FieldPublisher = "publisher"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step after a warning or error.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the consequence of a warning.
	FieldImpact = "impact"
	// FieldDecisionType tags decision log lines.
	FieldDecisionType = "decision_type"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)
