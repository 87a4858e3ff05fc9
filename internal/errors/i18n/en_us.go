package i18n

// Error codes must match the codes defined in internal/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeEntryDuplicateDay  = "ENTRY_DUPLICATE_DAY"
	CodeEntryNotFound      = "ENTRY_NOT_FOUND"
	CodeEntryOwnerMismatch = "ENTRY_OWNER_MISMATCH"
	CodeEntryInvalidScore  = "ENTRY_INVALID_SCORE"
	CodeEntryEmptyHigh     = "ENTRY_EMPTY_HIGH"
	CodeEntryEmptyLow      = "ENTRY_EMPTY_LOW"
	CodeEntryTextTooLong   = "ENTRY_TEXT_TOO_LONG"
	CodeEntryInvalidRange  = "ENTRY_INVALID_DATE_RANGE"
	CodeEntryDayCollision  = "ENTRY_DAY_COLLISION"

	CodeUserNotFound         = "USER_NOT_FOUND"
	CodeUsernameInvalid      = "USERNAME_INVALID"
	CodeUsernameTaken        = "USERNAME_TAKEN"
	CodeUserSearchQueryEmpty = "USER_SEARCH_QUERY_EMPTY"

	CodeFriendRequestSelf          = "FRIEND_REQUEST_SELF"
	CodeFriendRequestDuplicate     = "FRIEND_REQUEST_DUPLICATE"
	CodeFriendRequestNotFound      = "FRIEND_REQUEST_NOT_FOUND"
	CodeFriendRequestInvalidAction = "FRIEND_REQUEST_INVALID_ACTION"
	CodeFriendAlreadyFriends       = "FRIEND_ALREADY_FRIENDS"
	CodeFriendNotFound             = "FRIEND_NOT_FOUND"

	CodeStorageFailure = "STORAGE_FAILURE"
)

var enUSCatalog = &Catalog{
	locale: "en-US",
	messages: map[Code]string{
		// Entry errors
		CodeEntryDuplicateDay:  "You already have an entry for this day",
		CodeEntryNotFound:      "Day entry not found",
		CodeEntryOwnerMismatch: "Not authorized to access this entry",
		CodeEntryInvalidScore:  "Score must be between {{.Min}} and {{.Max}}",
		CodeEntryEmptyHigh:     "Please share your day's high point",
		CodeEntryEmptyLow:      "Please share your day's low point",
		CodeEntryTextTooLong:   "{{.Field}} cannot be more than {{.Max}} characters",
		CodeEntryInvalidRange:  "Start date must not be after end date",
		CodeEntryDayCollision:  "Entry history contains more than one entry for the same day",

		// User directory errors
		CodeUserNotFound:         "User not found",
		CodeUsernameInvalid:      "Username does not match the required format",
		CodeUsernameTaken:        "Username is already claimed",
		CodeUserSearchQueryEmpty: "Search query is required",

		// Friend graph errors
		CodeFriendRequestSelf:          "Cannot send a friend request to yourself",
		CodeFriendRequestDuplicate:     "Friend request already sent",
		CodeFriendRequestNotFound:      "Friend request not found",
		CodeFriendRequestInvalidAction: "Invalid action, use accept or reject",
		CodeFriendAlreadyFriends:       "You are already friends with this user",
		CodeFriendNotFound:             "Friend not found",

		// Storage errors
		CodeStorageFailure: "A storage error occurred, please try again",
	},
}
