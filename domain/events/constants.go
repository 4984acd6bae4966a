package events

const (
	// SourceBackend is the primary backend service source
	SourceBackend = "studybuddy.backend"
)
