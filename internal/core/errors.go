package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotLoaded is returned when the engine is used before any order table was loaded.
var ErrNotLoaded = errors.New("no orders loaded")

// ErrOrderNotFound matches any *OrderNotFoundError via errors.Is.
var ErrOrderNotFound = errors.New("order not found")

// SchemaError reports required columns missing from a sheet.
// It is fatal to the load call that produced it.
type SchemaError struct {
	Sheet   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s", e.Sheet, strings.Join(e.Missing, ", "))
}

// OrderNotFoundError is returned by AddLine when no line carries the order id.
type OrderNotFoundError struct {
	OrderID string
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("order not found: %s", e.OrderID)
}

// Is lets errors.Is(err, ErrOrderNotFound) match.
func (e *OrderNotFoundError) Is(target error) bool {
	return target == ErrOrderNotFound
}
