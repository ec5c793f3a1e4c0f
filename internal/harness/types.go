package harness

// TraceEvent is one collected result with its names resolved.
type TraceEvent struct {
	Iteration int      `json:"iteration"`
	Period    int      `json:"period"`
	Path      string   `json:"path"`
	Field     string   `json:"field"`
	Collector string   `json:"collector"`
	Value     *float64 `json:"value"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Order is the firing order of the model's components.
	Order []string `json:"order"`

	// Steps is the number of steps fired.
	Steps int64 `json:"steps"`

	// Trace holds every result in production order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds one message per failed assertion.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Select returns the values of path/field in production order.
// Null values are skipped.
func (r *Result) Select(path, field string) []float64 {
	var out []float64
	for _, e := range r.Trace {
		if e.Path == path && e.Field == field && e.Value != nil {
			out = append(out, *e.Value)
		}
	}
	return out
}
