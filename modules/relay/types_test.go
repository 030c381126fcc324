package relay

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  error
	}{
		{"valid", "alice", nil},
		{"valid with spaces", "alice smith", nil},
		{"valid unicode", "日本語ユーザー", nil},
		{"max length", strings.Repeat("a", MaxUsernameLength), nil},
		{"empty", "", ErrUsernameEmpty},
		{"too long", strings.Repeat("a", MaxUsernameLength+1), ErrUsernameTooLong},
		{"invalid utf-8", "al\xffice", ErrUsernameInvalid},
		{"reserved system author", "admin", ErrUsernameReserved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateUsername(%q) = %v, want %v", tt.username, err, tt.wantErr)
			}
		})
	}
}

func TestValidateUsername_CaseSensitiveReservation(t *testing.T) {
	// Only the exact system author tag is reserved.
	for _, username := range []string{"Admin", "ADMIN", "administrator"} {
		if err := ValidateUsername(username); err != nil {
			t.Errorf("ValidateUsername(%q) = %v, want nil", username, err)
		}
	}
}

func TestValidateRoomID(t *testing.T) {
	tests := []struct {
		name    string
		roomID  string
		wantErr error
	}{
		{"valid", "lobby", nil},
		{"max length", strings.Repeat("r", MaxRoomIDLength), nil},
		{"empty", "", ErrRoomIDEmpty},
		{"too long", strings.Repeat("r", MaxRoomIDLength+1), ErrRoomIDTooLong},
		{"invalid utf-8", "lob\xffby", ErrRoomIDInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRoomID(tt.roomID)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateRoomID(%q) = %v, want %v", tt.roomID, err, tt.wantErr)
			}
		})
	}
}

func TestValidateBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"valid ciphertext", "b64-looking-ciphertext==", nil},
		{"empty is not an error here", "", nil},
		{"max length", strings.Repeat("x", MaxBodyLength), nil},
		{"too long", strings.Repeat("x", MaxBodyLength+1), ErrBodyTooLong},
		{"invalid utf-8", "bo\xffdy", ErrBodyInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBody(tt.body)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateBody() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
