package core

// Logger is any leveled logger that can attach arbitrary context args
// (errors, maps, the acting Principal) to its messages.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Principal is the authenticated identity associated with an inbound request.
// It is attached to error reports for context.
type Principal struct {
	ID             string
	Email          string
	OrganizationID string
}
