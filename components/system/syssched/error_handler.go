package syssched

// ErrorHandler handles errors.
type ErrorHandler interface {
	// HandleError handles error.
	HandleError(err error)
}

// ErrorReporter reports errors.
type ErrorReporter interface {
	// ReportError reports errors received from the task.
	ReportError(err error)
}
