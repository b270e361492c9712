package domain

// QueryAnalysis represents the cheap signals derived from raw query text
// before any embedding call is made
type QueryAnalysis struct {
	Tokens       []string
	Intent       string
	IsProcedural bool
	Department   string
}

// HasIntent reports whether any intent rule matched the query
func (a QueryAnalysis) HasIntent() bool {
	return a.Intent != ""
}
