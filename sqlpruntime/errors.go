package sqlpruntime

// EngineError wraps a failure reported by the database while a statement
// or condition query was being submitted. Its message is the driver's
// message, unchanged.
type EngineError struct {
	Statement string // text submitted to the session
	Err       error  // error returned by the driver
}

func (e *EngineError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the driver error, so errors.As can reach driver-specific
// types such as *pq.Error or *mysql.MySQLError.
func (e *EngineError) Unwrap() error {
	return e.Err
}
