package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateJoinParams(t *testing.T) {
	tests := []struct {
		name          string
		channel       string
		participantID string
		role          Role
		wantErr       bool
	}{
		{"valid student", "room-1", "42", RoleStudent, false},
		{"valid teacher", "math_101", "teacher-1", RoleTeacher, false},
		{"empty channel", "", "42", RoleStudent, true},
		{"empty participant", "room-1", "", RoleStudent, true},
		{"unknown role", "room-1", "42", Role("observer"), true},
		{"channel with spaces", "room 1", "42", RoleStudent, true},
		{"channel too long", strings.Repeat("a", 65), "42", RoleStudent, true},
		{"participant too long", "room-1", strings.Repeat("a", 51), RoleStudent, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJoinParams(tt.channel, tt.participantID, tt.role)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidArgument)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestIsValidChannelName(t *testing.T) {
	require.True(t, IsValidChannelName("room-1"))
	require.True(t, IsValidChannelName("Math_Class_2026"))
	require.False(t, IsValidChannelName(""))
	require.False(t, IsValidChannelName("room/1"))
	require.False(t, IsValidChannelName("room 1"))
}

func TestIsValidParticipantID(t *testing.T) {
	require.True(t, IsValidParticipantID("42"))
	require.True(t, IsValidParticipantID("student_42"))
	require.False(t, IsValidParticipantID(""))
	require.False(t, IsValidParticipantID("user@example"))
}
