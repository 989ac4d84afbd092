package publish

import "fmt"

// PartialFailureError reports a draft upload that failed after the item
// data had already been replaced. The published story is complete; the
// editable draft still holds placeholders.
type PartialFailureError struct {
	ItemID   string
	Resource string
	Err      error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("item %s updated but draft %s was not: %v", e.ItemID, e.Resource, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}
