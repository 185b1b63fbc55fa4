package errors

import (
	stderrors "errors"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	base := New(CodeNotFound, "player not found")
	other := New(CodeNotFound, "event not found")

	if !stderrors.Is(base, other) {
		t.Fatal("expected errors with the same code to match")
	}
	if stderrors.Is(base, New(CodeUserAdminOnly, "nope")) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	wrapped := Wrap(CodeUnknown, "save failed", cause)

	if !stderrors.Is(wrapped, cause) {
		t.Fatal("expected wrapped cause to be reachable via errors.Is")
	}
	if wrapped.Error() != "save failed" {
		t.Fatalf("expected message %q, got %q", "save failed", wrapped.Error())
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeEngineInvalidRating, http.StatusBadRequest},
		{CodeEngineInvalidConstraint, http.StatusBadRequest},
		{CodeEngineInvalidTeamCount, http.StatusBadRequest},
		{CodeUserBadCredentials, http.StatusUnauthorized},
		{CodeTokenExpired, http.StatusUnauthorized},
		{CodeUserAdminOnly, http.StatusForbidden},
		{CodeEventAccessDenied, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeEventTeamsNotGenerated, http.StatusConflict},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Fatalf("code %s: expected status %d, got %d", tc.code, tc.want, got)
		}
	}
}
