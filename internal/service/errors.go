package service

// errors.go turns technical errors into messages with support codes.
//
// Codes are grouped by category:
//
//	FILE001 - file too large             FILE002 - line too long
//	FILE003 - invalid UTF-8              FILE004 - no file provided
//	FILE005 - input could not be read
//	VAL001  - invalid dialect options    VAL002  - validation timed out
//	VAL003  - validation cancelled       VAL004  - too many validations running
//	RPT001  - report not found           RPT002  - malformed report ID
//	PRF001  - unknown profile            PRF002  - profile document invalid
//	DB001   - database unreachable       DB002   - connection interrupted
//	DB003   - database timeout
//	RATE001 - rate limited
//	ERR000  - anything else; check the server log for the original error
//
// Sentinel errors are matched with errors.Is first. Errors that only carry
// text (driver errors, for example) fall back to case-insensitive substring
// patterns, first match wins.

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/csvlint/internal/csvcheck"
	"github.com/JonMunkholm/csvlint/internal/profile"
	"github.com/JonMunkholm/csvlint/internal/store"
)

var (
	// ErrNoFile is returned when a request carries no input.
	ErrNoFile = errors.New("no file provided")
	// ErrFileTooLarge is returned when the declared size exceeds the limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrInvalidOptions wraps dialect problems in a request.
	ErrInvalidOptions = errors.New("invalid options")
	// ErrInvalidReportID is returned for IDs that are not UUIDs.
	ErrInvalidReportID = errors.New("invalid report id")
	// ErrRateLimited is reported by the HTTP rate limiter.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMapping struct {
	target error
	msg    UserMessage
}

var sentinelMappings = []sentinelMapping{
	{ErrFileTooLarge, UserMessage{"File exceeds the maximum upload size", "Split the file into smaller parts", "FILE001"}},
	{csvcheck.ErrLineTooLong, UserMessage{"A line in the file is too long", "Check the file for a missing line break or raise CSV_MAX_LINE_BYTES", "FILE002"}},
	{csvcheck.ErrInvalidEncoding, UserMessage{"File is not valid UTF-8", "Save the file with UTF-8 encoding", "FILE003"}},
	{ErrNoFile, UserMessage{"No file was provided", "Attach a CSV file in the \"file\" form field", "FILE004"}},
	{ErrInvalidOptions, UserMessage{"The separator or header setting is invalid", "Use a single character or comma, tab, semicolon or pipe", "VAL001"}},
	{ErrTooManyValidations, UserMessage{"System is busy validating other files", "Please wait a moment and try again", "VAL004"}},
	{store.ErrReportNotFound, UserMessage{"Report not found", "The report may have expired. Validate the file again", "RPT001"}},
	{ErrInvalidReportID, UserMessage{"Report ID is malformed", "Use the ID returned by the validate call", "RPT002"}},
	{profile.ErrUnknownProfile, UserMessage{"Unknown profile", "List available profiles with GET /api/profiles", "PRF001"}},
	{ErrRateLimited, UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns are checked when no sentinel matches. Order matters: more
// specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{"context deadline exceeded", UserMessage{"Validation timed out", "Try a smaller file or try again later", "VAL002"}},
	{"context canceled", UserMessage{"Validation was cancelled", "Please try again", "VAL003"}},
	{"profile", UserMessage{"Profile document is invalid", "Fix the listed problems in the profile JSON", "PRF002"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB001"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB002"}},
	{"timeout", UserMessage{"Database operation timed out", "Please try again later", "DB003"}},
	{"read input", UserMessage{"The file could not be read", "Upload the file again", "FILE005"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// A nil error maps to the zero UserMessage.
//
//	msg := MapError(fmt.Errorf("get report: %w", store.ErrReportNotFound))
//	// msg.Code == "RPT001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, m := range sentinelMappings {
		if errors.Is(err, m.target) {
			return m.msg
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

// FormatUserError renders an error as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
