// Package errors provides structured error handling with machine-readable codes.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Engine errors
	CodeEngineInvalidRating     Code = "ENGINE_INVALID_RATING"
	CodeEngineInvalidConstraint Code = "ENGINE_INVALID_CONSTRAINT"
	CodeEngineInvalidTeamCount  Code = "ENGINE_INVALID_TEAM_COUNT"

	// Player errors
	CodePlayerEmptyName        Code = "PLAYER_EMPTY_NAME"
	CodePlayerInvalidAttribute Code = "PLAYER_INVALID_ATTRIBUTE"
	CodePlayerInvalidRole      Code = "PLAYER_INVALID_ROLE"

	// Event errors
	CodeEventEmptyName          Code = "EVENT_EMPTY_NAME"
	CodeEventEmptyRoster        Code = "EVENT_EMPTY_ROSTER"
	CodeEventInvalidRoster      Code = "EVENT_INVALID_ROSTER"
	CodeEventInvalidOverride    Code = "EVENT_INVALID_OVERRIDE"
	CodeEventTeamsNotGenerated  Code = "EVENT_TEAMS_NOT_GENERATED"
	CodeEventInvalidMove        Code = "EVENT_INVALID_MOVE"
	CodeEventUnknownPlayer      Code = "EVENT_UNKNOWN_PLAYER"
	CodeEventAccessDenied       Code = "EVENT_ACCESS_DENIED"
	CodeEventInvalidConstraint  Code = "EVENT_INVALID_CONSTRAINT"

	// User errors
	CodeUserEmptyEmail      Code = "USER_EMPTY_EMAIL"
	CodeUserInvalidEmail    Code = "USER_INVALID_EMAIL"
	CodeUserEmailTaken      Code = "USER_EMAIL_TAKEN"
	CodeUserWeakPassword    Code = "USER_WEAK_PASSWORD"
	CodeUserBadCredentials  Code = "USER_BAD_CREDENTIALS"
	CodeUserSelfDeletion    Code = "USER_SELF_DELETION"
	CodeUserAdminOnly       Code = "USER_ADMIN_ONLY"
	CodeUserUnauthenticated Code = "USER_UNAUTHENTICATED"

	// Token errors
	CodeTokenInvalid Code = "TOKEN_INVALID"
	CodeTokenExpired Code = "TOKEN_EXPIRED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// CodeInvalidRequest marks a request body or parameter that could not be parsed.
	CodeInvalidRequest Code = "INVALID_REQUEST"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, bad input
	case CodeEngineInvalidRating,
		CodeEngineInvalidConstraint,
		CodeEngineInvalidTeamCount,
		CodePlayerEmptyName,
		CodePlayerInvalidAttribute,
		CodePlayerInvalidRole,
		CodeEventEmptyName,
		CodeEventEmptyRoster,
		CodeEventInvalidRoster,
		CodeEventInvalidOverride,
		CodeEventInvalidMove,
		CodeEventUnknownPlayer,
		CodeEventInvalidConstraint,
		CodeUserEmptyEmail,
		CodeUserInvalidEmail,
		CodeUserEmailTaken,
		CodeUserWeakPassword,
		CodeUserSelfDeletion,
		CodeInvalidRequest:
		return http.StatusBadRequest

	// Unauthorized - missing or invalid credentials
	case CodeUserBadCredentials,
		CodeUserUnauthenticated,
		CodeTokenInvalid,
		CodeTokenExpired:
		return http.StatusUnauthorized

	// Forbidden - authenticated but not allowed
	case CodeUserAdminOnly,
		CodeEventAccessDenied:
		return http.StatusForbidden

	// Not found
	case CodeNotFound:
		return http.StatusNotFound

	// Conflict - state disallows the operation
	case CodeEventTeamsNotGenerated:
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}
