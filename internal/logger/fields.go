package logger

import "go.uber.org/zap"

// Field keys shared by every component.
const (
	FieldComponent = "component"
	FieldWorkflow  = "workflow"
	FieldState     = "state"
	FieldMode      = "mode"
	FieldFilename  = "filename"
	FieldJob       = "job"
	FieldRequestID = "request_id"
	// FieldIdentity carries a username, never a credential.
	FieldIdentity = "identity"
)

// WithWorkflow names the workflow on every entry. A nil logger yields a no-op one.
func WithWorkflow(log *zap.Logger, workflow string) *zap.Logger {
	return named(log, FieldWorkflow, workflow)
}

// WithComponent names a supporting component such as the session store.
func WithComponent(log *zap.Logger, component string) *zap.Logger {
	return named(log, FieldComponent, component)
}

func named(log *zap.Logger, key, name string) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log.With(zap.String(key, name))
}
