// Error codes shown next to user-facing messages. Users quote the code when
// they report a problem; the technical error stays in the logs.
//
//	MST001  master workbook lacks PRODUCTS or SETS
//	MST002  no master file loaded yet
//	MST003  master file is not an .xlsx workbook
//	ORD001  no line carries the order number
//	ORD002  no order file loaded yet
//	ORD003  unknown column preset
//	ORD004  no identifier preview to confirm or cancel
//	ORD005  identifier preview still open
//	ORD006  no recorded run with the id
//	VAL002  malformed number
//	VAL004  required columns missing (the message names them)
//	VAL007  request field failed validation
//	FILE001 file over the size limit
//	FILE002 not a valid CSV
//	FILE003 unsupported character encoding
//	FILE004 no file selected
//	FILE005 empty file
//	FILE006 folder holds no CSV files
//	DB004   history database refused the connection
//	DB005   history database connection reset
//	DB006   history database timed out
//	REQ001  request cancelled
//	REQ002  request timed out
//	REQ003  every upload slot busy
//	ERR000  anything else
//
// Patterns match case-insensitively with strings.Contains and the first match
// wins. A *SchemaError is matched by type.

package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Master File Errors (MST001-MST003)
	// =========================================================================
	{
		pattern: "missing required sheet",
		msg: UserMessage{
			Message: "The master workbook is missing a required sheet",
			Action:  "Add the PRODUCTS and SETS sheets (download the template)",
			Code:    "MST001",
		},
	},
	{
		pattern: "no master file loaded",
		msg: UserMessage{
			Message: "No master file has been loaded",
			Action:  "Upload the master workbook before processing orders",
			Code:    "MST002",
		},
	},
	{
		pattern: "not a valid zip file",
		msg: UserMessage{
			Message: "The master file is not an Excel workbook",
			Action:  "Save the master file as .xlsx",
			Code:    "MST003",
		},
	},
	{
		pattern: "unsupported workbook",
		msg: UserMessage{
			Message: "The master file is not an Excel workbook",
			Action:  "Save the master file as .xlsx",
			Code:    "MST003",
		},
	},

	// =========================================================================
	// Order Errors (ORD001-ORD006)
	// =========================================================================
	{
		pattern: "order not found",
		msg: UserMessage{
			Message: "No order with this number was found",
			Action:  "Check the order number (e.g. #1001) and try again",
			Code:    "ORD001",
		},
	},
	{
		pattern: "no orders loaded",
		msg: UserMessage{
			Message: "No orders have been loaded",
			Action:  "Load one or more order CSV files first",
			Code:    "ORD002",
		},
	},
	{
		pattern: "unknown column preset",
		msg: UserMessage{
			Message: "Unknown column preset",
			Action:  "Use shopify or woocommerce",
			Code:    "ORD003",
		},
	},
	{
		pattern: "no pending identifier changes",
		msg: UserMessage{
			Message: "There are no generated SKUs waiting for confirmation",
			Action:  "Run the SKU preview first",
			Code:    "ORD004",
		},
	},
	{
		pattern: "identifier changes pending",
		msg: UserMessage{
			Message: "Generated SKUs are waiting for confirmation",
			Action:  "Confirm or cancel the SKU preview first",
			Code:    "ORD005",
		},
	},
	{
		pattern: "run not found",
		msg: UserMessage{
			Message: "No recorded run has this id",
			Action:  "Pick a run from the history list",
			Code:    "ORD006",
		},
	},

	// =========================================================================
	// Validation Errors
	// =========================================================================
	{
		pattern: "invalid number",
		msg: UserMessage{
			Message: "Invalid number format detected",
			Action:  "Remove currency symbols and use standard decimal format",
			Code:    "VAL002",
		},
	},
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "Required column is missing from the file",
			Action:  "Check that all required columns are present in your file",
			Code:    "VAL004",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request is not valid",
			Action:  "Correct the highlighted field and try again",
			Code:    "VAL007",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE006)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure file is comma-separated with consistent columns",
			Code:    "FILE002",
		},
	},
	{
		pattern: "unsupported encoding",
		msg: UserMessage{
			Message: "File uses an unsupported character encoding",
			Action:  "Save file as UTF-8 or pick its encoding in the settings",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file with data rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "no csv files",
		msg: UserMessage{
			Message: "The folder holds no CSV files",
			Action:  "Pick a folder containing order exports",
			Code:    "FILE006",
		},
	},

	// =========================================================================
	// Database Errors (DB004-DB006), run history only
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try again later",
			Code:    "DB006",
		},
	},

	// =========================================================================
	// Request Errors (REQ001-REQ003)
	// =========================================================================
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "REQ002",
		},
	},
	{
		pattern: "too many concurrent uploads",
		msg: UserMessage{
			Message: "The server is busy processing other uploads",
			Action:  "Wait a few seconds and upload again",
			Code:    "REQ003",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
// Support staff should check application logs for the original technical
// error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// A *SchemaError keeps its own text so the user sees which columns are
// missing. Other errors are matched against known patterns (case-insensitive);
// if nothing matches, a generic fallback with code ERR000 is returned.
//
// Example:
//
//	err := &OrderNotFoundError{OrderID: "#1001"}
//	msg := MapError(err)
//	// msg.Code == "ORD001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		return UserMessage{
			Message: schemaErr.Error(),
			Action:  "Check that all required columns are present in your file",
			Code:    "VAL004",
		}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
//
// Example output: "No orders have been loaded (Code: ORD002). Load one or more order CSV files first"
//
// This is the primary function for displaying errors to end users.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing checks if an error matches a known pattern and should be shown to users.
// Returns true if the error matches a specific pattern (not the generic ERR000 fallback).
// Use this to decide whether to show the raw error or the mapped user message.
//
// Example:
//
//	if IsUserFacing(err) {
//	    showToUser(FormatUserError(err))
//	} else {
//	    log.Error(err) // Log technical error
//	    showToUser("An error occurred. Please try again.")
//	}
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging while providing a clean message for users.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a user-friendly message.
// The returned UserError preserves the original technical error for logging via Unwrap(),
// while providing a clean user message via Error().
//
// Returns nil if err is nil.
//
// Example:
//
//	ue := NewUserError(err)
//	log.Error(ue.Technical)          // Log original error
//	fmt.Println(ue.Error())           // Show "No orders have been loaded"
//	fmt.Println(ue.User.Code)         // Show "ORD002"
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
