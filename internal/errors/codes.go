// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Entry errors
	CodeEntryDuplicateDay  Code = "ENTRY_DUPLICATE_DAY"
	CodeEntryNotFound      Code = "ENTRY_NOT_FOUND"
	CodeEntryOwnerMismatch Code = "ENTRY_OWNER_MISMATCH"
	CodeEntryInvalidScore  Code = "ENTRY_INVALID_SCORE"
	CodeEntryEmptyHigh     Code = "ENTRY_EMPTY_HIGH"
	CodeEntryEmptyLow      Code = "ENTRY_EMPTY_LOW"
	CodeEntryTextTooLong   Code = "ENTRY_TEXT_TOO_LONG"
	CodeEntryInvalidRange  Code = "ENTRY_INVALID_DATE_RANGE"
	CodeEntryDayCollision  Code = "ENTRY_DAY_COLLISION"

	// User directory errors
	CodeUserNotFound         Code = "USER_NOT_FOUND"
	CodeUsernameInvalid      Code = "USERNAME_INVALID"
	CodeUsernameTaken        Code = "USERNAME_TAKEN"
	CodeUserSearchQueryEmpty Code = "USER_SEARCH_QUERY_EMPTY"

	// Friend graph errors
	CodeFriendRequestSelf          Code = "FRIEND_REQUEST_SELF"
	CodeFriendRequestDuplicate     Code = "FRIEND_REQUEST_DUPLICATE"
	CodeFriendRequestNotFound      Code = "FRIEND_REQUEST_NOT_FOUND"
	CodeFriendRequestInvalidAction Code = "FRIEND_REQUEST_INVALID_ACTION"
	CodeFriendAlreadyFriends       Code = "FRIEND_ALREADY_FRIENDS"
	CodeFriendNotFound             Code = "FRIEND_NOT_FOUND"

	// Storage errors
	CodeStorageFailure Code = "STORAGE_FAILURE"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeEntryInvalidScore,
		CodeEntryEmptyHigh,
		CodeEntryEmptyLow,
		CodeEntryTextTooLong,
		CodeEntryInvalidRange,
		CodeUsernameInvalid,
		CodeUserSearchQueryEmpty,
		CodeFriendRequestSelf,
		CodeFriendRequestInvalidAction:
		return codes.InvalidArgument

	// AlreadyExists - uniqueness violations
	case CodeEntryDuplicateDay,
		CodeUsernameTaken,
		CodeFriendRequestDuplicate,
		CodeFriendAlreadyFriends:
		return codes.AlreadyExists

	// NotFound - resource doesn't exist
	case CodeEntryNotFound,
		CodeUserNotFound,
		CodeFriendRequestNotFound,
		CodeFriendNotFound:
		return codes.NotFound

	// PermissionDenied - ownership mismatch
	case CodeEntryOwnerMismatch:
		return codes.PermissionDenied

	default:
		return codes.Internal
	}
}
