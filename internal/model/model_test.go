package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInvitationUsable(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)
	two := 2

	tests := []struct {
		name string
		inv  Invitation
		want bool
	}{
		{"open", Invitation{Active: true}, true},
		{"inactive", Invitation{Active: false}, false},
		{"expired", Invitation{Active: true, ExpiresAt: &past}, false},
		{"expires exactly now", Invitation{Active: true, ExpiresAt: &now}, false},
		{"not yet expired", Invitation{Active: true, ExpiresAt: &future}, true},
		{"uses left", Invitation{Active: true, MaxUses: &two, UsedCount: 1}, true},
		{"used up", Invitation{Active: true, MaxUses: &two, UsedCount: 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.inv.Usable(now))
		})
	}
}

func TestNewIdentity(t *testing.T) {
	assert.Equal(t, TeacherIdentity{UserID: "u", TeacherID: "t"}, NewIdentity(RoleTeacher, "u", "t"))
	assert.Equal(t, StudentIdentity{UserID: "u", StudentID: "s"}, NewIdentity(RoleStudent, "u", "s"))
	assert.Nil(t, NewIdentity(UserRole("admin"), "u", "x"))
}

func TestQuestionCorrectOptions(t *testing.T) {
	q := Question{Options: []Option{
		{UUIDBase: UUIDBase{ID: "a"}, IsCorrect: true},
		{UUIDBase: UUIDBase{ID: "b"}},
		{UUIDBase: UUIDBase{ID: "c"}, IsCorrect: true},
	}}
	assert.Equal(t, map[string]bool{"a": true, "c": true}, q.CorrectOptionIDs())
}

func TestNormalizeLogin(t *testing.T) {
	assert.Equal(t, "grace@navy.test", NormalizeLogin("  Grace@Navy.TEST "))
	assert.Equal(t, "Ada Lovelace", (&User{FirstName: "Ada", LastName: "Lovelace"}).FullName())
	assert.True(t, DifficultyAdvanced.Valid())
	assert.False(t, DifficultyLevel("EXPERT").Valid())
}
