package entity

// SourceError records the failure of a single source during an aggregation
// fan-out. Failing sources never contribute placeholder balances; they
// contribute one of these instead.
type SourceError struct {
	Source  string `json:"source"`
	Asset   Asset  `json:"asset,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e SourceError) Error() string {
	if e.Asset != "" {
		return e.Source + " (" + string(e.Asset) + "): " + e.Message
	}
	return e.Source + ": " + e.Message
}

// Unwrap exposes the underlying error for errors.Is checks against the
// sentinel taxonomy.
func (e SourceError) Unwrap() error {
	return e.Err
}
