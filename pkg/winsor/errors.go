package winsor

import "fmt"

// ColumnNotFoundError reports a target or group-key column that does not
// exist in the input table.
type ColumnNotFoundError struct {
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("winsor: column %q not found", e.Column)
}

// InvalidCutoffError reports percentile cutoffs outside [0,100] or a lower
// cut that does not fall below the upper cut.
type InvalidCutoffError struct {
	Low    float64
	High   float64
	Reason string
}

func (e *InvalidCutoffError) Error() string {
	return fmt.Sprintf("winsor: invalid cuts (%g, %g): %s", e.Low, e.High, e.Reason)
}

// EmptyInputError reports a nil table or a table with zero rows.
type EmptyInputError struct{}

func (e *EmptyInputError) Error() string {
	return "winsor: input table has no rows"
}
