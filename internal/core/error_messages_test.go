package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "schema error keeps column list",
			err:         &SchemaError{Sheet: SheetProducts, Missing: []string{"SKU", "Quantity_Product"}},
			wantCode:    "VAL004",
			wantMessage: "PRODUCTS: missing required columns: SKU, Quantity_Product",
		},
		{
			name:        "wrapped schema error keeps column list",
			err:         fmt.Errorf("load master: %w", &SchemaError{Sheet: SheetBundles, Missing: []string{"SET_SKU"}}),
			wantCode:    "VAL004",
			wantMessage: "SETS: missing required columns: SET_SKU",
		},
		{
			name:        "order not found maps correctly",
			err:         &OrderNotFoundError{OrderID: "#9999"},
			wantCode:    "ORD001",
			wantMessage: "No order with this number was found",
		},
		{
			name:        "not loaded maps correctly",
			err:         fmt.Errorf("expand: %w", ErrNotLoaded),
			wantCode:    "ORD002",
			wantMessage: "No orders have been loaded",
		},
		{
			name:        "missing sheet maps correctly",
			err:         errors.New("read master: missing required sheet: SETS"),
			wantCode:    "MST001",
			wantMessage: "The master workbook is missing a required sheet",
		},
		{
			name:        "invalid csv maps correctly",
			err:         errors.New("invalid csv: parse error on line 3"),
			wantCode:    "FILE002",
			wantMessage: "File is not a valid CSV",
		},
		{
			name:        "busy upload slots map correctly",
			err:         errors.New("too many concurrent uploads, please try again later"),
			wantCode:    "REQ003",
			wantMessage: "The server is busy processing other uploads",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "deadline maps to timeout first",
			err:         errors.New("context deadline exceeded (timeout)"),
			wantCode:    "DB006",
			wantMessage: "Operation timed out",
		},
		{
			name:        "cancelled request maps correctly",
			err:         errors.New("context canceled"),
			wantCode:    "REQ001",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("NO CSV FILES in /tmp/orders"),
			wantCode:    "FILE006",
			wantMessage: "The folder holds no CSV files",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrNotLoaded)

	expected := "No orders have been loaded (Code: ORD002). Load one or more order CSV files first"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  &OrderNotFoundError{OrderID: "#1"},
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("add line: %w", &OrderNotFoundError{OrderID: "#1001"})
		userErr := NewUserError(techErr)

		if userErr.Error() != "No order with this number was found" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}

		if !errors.Is(userErr, techErr) {
			t.Error("Unwrap() should return original error")
		}
	})
}
