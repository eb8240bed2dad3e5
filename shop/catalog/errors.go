package catalog

import (
	"errors"
	"fmt"
)

// ErrSchema matches every SchemaError.
var ErrSchema = errors.New("catalog: schema violation")

// SchemaError reports an API response that does not match the data model.
type SchemaError struct {
	Endpoint string
	Err      error
}

func (e *SchemaError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("catalog: schema violation at %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("catalog: schema violation: %v", e.Err)
}

func (e *SchemaError) Unwrap() error        { return e.Err }
func (e *SchemaError) Is(target error) bool { return target == ErrSchema }
func (e *SchemaError) Code() string         { return "schema_violation" }

// FetchError is a transport failure or an unexpected status from the API.
type FetchError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	switch {
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("catalog: fetch %s: status %d: %v", e.Endpoint, e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("catalog: fetch %s: %v", e.Endpoint, e.Err)
	default:
		return fmt.Sprintf("catalog: fetch %s: status %d", e.Endpoint, e.Status)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }
func (e *FetchError) Code() string  { return "fetch_error" }

// OrderRejectedError is an explicit refusal of the order API.
type OrderRejectedError struct {
	Status int
	Body   string
}

func (e *OrderRejectedError) Error() string {
	return fmt.Sprintf("catalog: order rejected with status %d: %s", e.Status, e.Body)
}

func (e *OrderRejectedError) Code() string { return "order_rejected" }
