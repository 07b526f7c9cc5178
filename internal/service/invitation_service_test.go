package service

import (
	"classroom_backend/internal/model"
	"classroom_backend/internal/util"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateInvitation(t *testing.T) {
	f := newFixture(t)
	owner := f.newTeacher(t)
	other := f.newTeacher(t)
	student := f.newStudent(t)
	class := f.newClass(t, owner, "Physics101")

	t.Run("owner gets share url", func(t *testing.T) {
		inv, err := f.invitation.CreateInvitation(f.ctx, owner, CreateInvitationRequest{
			ClassID:       class.ID,
			ExpiresInDays: intPtr(7),
			MaxUses:       intPtr(30),
		})
		require.NoError(t, err)
		assert.True(t, inv.Active)
		assert.Equal(t, 0, inv.UsedCount)
		assert.Equal(t, 30, *inv.MaxUses)
		assert.Len(t, inv.Token, 43)
		assert.Equal(t, "https://classroom.test/invite/"+inv.Token, inv.URL)
		require.NotNil(t, inv.ExpiresAt)
		assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), *inv.ExpiresAt, time.Minute)
	})

	t.Run("no limits", func(t *testing.T) {
		inv, err := f.invitation.CreateInvitation(f.ctx, owner, CreateInvitationRequest{ClassID: class.ID})
		require.NoError(t, err)
		assert.Nil(t, inv.ExpiresAt)
		assert.Nil(t, inv.MaxUses)
	})

	t.Run("tokens are unique", func(t *testing.T) {
		a, err := f.invitation.CreateInvitation(f.ctx, owner, CreateInvitationRequest{ClassID: class.ID})
		require.NoError(t, err)
		b, err := f.invitation.CreateInvitation(f.ctx, owner, CreateInvitationRequest{ClassID: class.ID})
		require.NoError(t, err)
		assert.NotEqual(t, a.Token, b.Token)
	})

	tests := []struct {
		name string
		who  model.Identity
		req  CreateInvitationRequest
		want util.ErrorKind
	}{
		{"anonymous", nil, CreateInvitationRequest{ClassID: class.ID}, util.KindUnauthorized},
		{"student", student, CreateInvitationRequest{ClassID: class.ID}, util.KindUnauthorized},
		{"not the owner", other, CreateInvitationRequest{ClassID: class.ID}, util.KindForbidden},
		{"missing class", owner, CreateInvitationRequest{ClassID: "missing"}, util.KindNotFound},
		{"empty class id", owner, CreateInvitationRequest{}, util.KindBadRequest},
		{"zero max uses", owner, CreateInvitationRequest{ClassID: class.ID, MaxUses: intPtr(0)}, util.KindBadRequest},
		{"negative expiry", owner, CreateInvitationRequest{ClassID: class.ID, ExpiresInDays: intPtr(-1)}, util.KindBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.invitation.CreateInvitation(f.ctx, tt.who, tt.req)
			assertKind(t, err, tt.want)
		})
	}
}

func TestValidateToken(t *testing.T) {
	f := newFixture(t)
	owner := f.newTeacher(t)
	class := f.newClass(t, owner, "Physics101")

	inv, err := f.invitation.CreateInvitation(f.ctx, owner, CreateInvitationRequest{ClassID: class.ID, MaxUses: intPtr(1)})
	require.NoError(t, err)

	preview, err := f.invitation.ValidateToken(f.ctx, inv.Token)
	require.NoError(t, err)
	assert.True(t, preview.Valid)
	assert.Equal(t, class.ID, preview.ClassID)
	assert.Equal(t, "Physics101", preview.ClassName)
	assert.True(t, strings.HasPrefix(preview.TeacherName, "Ada "))

	_, err = f.invitation.ValidateToken(f.ctx, "no-such-token")
	assertKind(t, err, util.KindNotFound)

	_, err = f.invitation.ValidateToken(f.ctx, "")
	assertKind(t, err, util.KindNotFound)

	past := time.Now().Add(-time.Hour)
	expired := &model.Invitation{Token: "expired-token", ClassID: class.ID, ExpiresAt: &past, Active: true}
	require.NoError(t, f.invitations.Create(f.ctx, expired))
	_, err = f.invitation.ValidateToken(f.ctx, expired.Token)
	assertKind(t, err, util.KindGone)

	_, err = f.invitation.ConsumeInvitation(f.ctx, inv.Token, f.newStudent(t), nil)
	require.NoError(t, err)
	_, err = f.invitation.ValidateToken(f.ctx, inv.Token)
	assertKind(t, err, util.KindGone)
}

func TestValidateTokenFollowsUsable(t *testing.T) {
	f := newFixture(t)
	owner := f.newTeacher(t)
	class := f.newClass(t, owner, "Physics101")
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name    string
		inv     model.Invitation
		message string
	}{
		{"usable", model.Invitation{ExpiresAt: &future, MaxUses: intPtr(2), UsedCount: 1, Active: true}, ""},
		{"deactivated", model.Invitation{Active: false}, "this invitation link has been deactivated"},
		{"expired", model.Invitation{ExpiresAt: &past, Active: true}, "this invitation link has expired"},
		{"used up", model.Invitation{MaxUses: intPtr(2), UsedCount: 2, Active: true}, "this invitation link has reached its maximum uses"},
		{"deactivated wins over expired", model.Invitation{ExpiresAt: &past, Active: false}, "this invitation link has been deactivated"},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := tt.inv
			inv.ClassID = class.ID
			inv.Token = fmt.Sprintf("usable-check-%d", i)
			require.NoError(t, f.invitations.Create(f.ctx, &inv))
			// 与 gorm 的 default:true 一致，停用走单独的更新
			if !tt.inv.Active {
				require.NoError(t, f.invitations.Deactivate(f.ctx, inv.ID))
			}

			_, err := f.invitation.ValidateToken(f.ctx, inv.Token)
			if tt.message == "" {
				assert.True(t, inv.Usable(time.Now()))
				assert.NoError(t, err)
				return
			}
			assert.False(t, inv.Usable(time.Now()))
			var appErr *util.AppError
			if assert.True(t, errors.As(err, &appErr)) {
				assert.Equal(t, util.KindGone, appErr.Kind)
				assert.Equal(t, tt.message, appErr.Message)
			}
		})
	}
}

func TestConsumeInvitationExistingStudent(t *testing.T) {
	f := newFixture(t)
	owner := f.newTeacher(t)
	class := f.newClass(t, owner, "Physics101")
	inv, err := f.invitation.CreateInvitation(f.ctx, owner, CreateInvitationRequest{ClassID: class.ID})
	require.NoError(t, err)
	student := f.newStudent(t)

	res, err := f.invitation.ConsumeInvitation(f.ctx, inv.Token, student, nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Enrolled)
	assert.Equal(t, class.ID, res.ClassID)
	assert.Equal(t, student.StudentID, res.StudentID)
	assert.Empty(t, res.Token)

	// 重复加入不产生重复记录，也不计入使用次数
	res, err = f.invitation.ConsumeInvitation(f.ctx, inv.Token, student, nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, res.Enrolled)

	stored, err := f.invitations.FindByID(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsedCount)

	roster, err := f.enrollment.ListRoster(f.ctx, owner, class.ID)
	require.NoError(t, err)
	assert.Len(t, roster, 1)

	t.Run("count rejoins", func(t *testing.T) {
		f.cfg.Invitation.CountRejoins = true
		defer func() { f.cfg.Invitation.CountRejoins = false }()

		_, err := f.invitation.ConsumeInvitation(f.ctx, inv.Token, student, nil)
		require.NoError(t, err)
		stored, err := f.invitations.FindByID(f.ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, stored.UsedCount)
	})

	t.Run("teacher cannot join", func(t *testing.T) {
		_, err := f.invitation.ConsumeInvitation(f.ctx, inv.Token, owner, nil)
		assertKind(t, err, util.KindForbidden)
	})
}

func TestConsumeInvitationSignup(t *testing.T) {
	f := newFixture(t)
	owner := f.newTeacher(t)
	class := f.newClass(t, owner, "Physics101")
	inv, err := f.invitation.CreateInvitation(f.ctx, owner, CreateInvitationRequest{ClassID: class.ID})
	require.NoError(t, err)

	form := &SignupForm{
		FirstName: "Grace",
		LastName:  "Hopper",
		Username:  "GHopper",
		Email:     "Grace@Navy.test",
		Password:  "cobol-forever",
	}
	res, err := f.invitation.ConsumeInvitation(f.ctx, inv.Token, nil, form)
	require.NoError(t, err)
	assert.True(t, res.Enrolled)
	require.NotEmpty(t, res.Token)

	claims, err := util.ParseJWT(res.Token, f.cfg.JWT.Secret)
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, claims.Role)
	assert.Equal(t, res.StudentID, claims.ProfileID)

	login, err := f.auth.Login(f.ctx, "grace@navy.test", "cobol-forever")
	require.NoError(t, err)
	assert.Equal(t, "ghopper", login.User.Username)
	assert.Equal(t, model.RoleStudent, login.User.Role)

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		dup := *form
		dup.Username = "someone-else"
		dup.Email = "GRACE@navy.test"
		_, err := f.invitation.ConsumeInvitation(f.ctx, inv.Token, nil, &dup)
		assertKind(t, err, util.KindConflict)
	})

	t.Run("duplicate username is a conflict", func(t *testing.T) {
		dup := *form
		dup.Email = "other@navy.test"
		dup.Username = "ghopper"
		_, err := f.invitation.ConsumeInvitation(f.ctx, inv.Token, nil, &dup)
		assertKind(t, err, util.KindConflict)
	})

	t.Run("missing form", func(t *testing.T) {
		_, err := f.invitation.ConsumeInvitation(f.ctx, inv.Token, nil, nil)
		assertKind(t, err, util.KindBadRequest)
	})

	t.Run("missing field", func(t *testing.T) {
		partial := *form
		partial.Email = "new@navy.test"
		partial.Username = "newbie"
		partial.LastName = "  "
		_, err := f.invitation.ConsumeInvitation(f.ctx, inv.Token, nil, &partial)
		assertKind(t, err, util.KindBadRequest)
	})

	stored, err := f.invitations.FindByID(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsedCount, "failed signups must not consume the invitation")
}

func TestConsumeInvitationRejected(t *testing.T) {
	f := newFixture(t)
	owner := f.newTeacher(t)
	class := f.newClass(t, owner, "Physics101")
	student := f.newStudent(t)

	t.Run("unknown token", func(t *testing.T) {
		_, err := f.invitation.ConsumeInvitation(f.ctx, "nope", student, nil)
		assertKind(t, err, util.KindNotFound)
	})

	t.Run("expired", func(t *testing.T) {
		past := time.Now().Add(-time.Minute)
		inv := &model.Invitation{Token: "expired", ClassID: class.ID, ExpiresAt: &past, Active: true}
		require.NoError(t, f.invitations.Create(f.ctx, inv))

		_, err := f.invitation.ConsumeInvitation(f.ctx, inv.Token, student, nil)
		assertKind(t, err, util.KindGone)
	})

	t.Run("deactivated", func(t *testing.T) {
		inv, err := f.invitation.CreateInvitation(f.ctx, owner, CreateInvitationRequest{ClassID: class.ID})
		require.NoError(t, err)
		require.NoError(t, f.invitation.DeactivateInvitation(f.ctx, owner, class.ID, inv.ID))

		_, err = f.invitation.ConsumeInvitation(f.ctx, inv.Token, student, nil)
		assertKind(t, err, util.KindGone)
	})

	roster, err := f.enrollment.ListRoster(f.ctx, owner, class.ID)
	require.NoError(t, err)
	assert.Empty(t, roster)
}

func TestConsumeInvitationMaxUsesUnderConcurrency(t *testing.T) {
	f := newFixture(t)
	owner := f.newTeacher(t)
	class := f.newClass(t, owner, "Physics101")
	inv, err := f.invitation.CreateInvitation(f.ctx, owner, CreateInvitationRequest{ClassID: class.ID, MaxUses: intPtr(3)})
	require.NoError(t, err)

	const workers = 12
	students := make([]model.StudentIdentity, workers)
	for i := range students {
		students[i] = f.newStudent(t)
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		ok    int
		gone  int
		other []error
	)
	for _, s := range students {
		wg.Add(1)
		go func(who model.StudentIdentity) {
			defer wg.Done()
			_, err := f.invitation.ConsumeInvitation(f.ctx, inv.Token, who, nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case util.KindOf(err) == util.KindGone:
				gone++
			default:
				other = append(other, err)
			}
		}(s)
	}
	wg.Wait()

	assert.Empty(t, other)
	assert.Equal(t, 3, ok)
	assert.Equal(t, workers-3, gone)

	stored, err := f.invitations.FindByID(f.ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.UsedCount)

	roster, err := f.enrollment.ListRoster(f.ctx, owner, class.ID)
	require.NoError(t, err)
	assert.Len(t, roster, 3)
}

func TestListAndDeactivateInvitations(t *testing.T) {
	f := newFixture(t)
	owner := f.newTeacher(t)
	class := f.newClass(t, owner, "Physics101")
	otherClass := f.newClass(t, owner, "Chemistry")

	first, err := f.invitation.CreateInvitation(f.ctx, owner, CreateInvitationRequest{ClassID: class.ID})
	require.NoError(t, err)
	second, err := f.invitation.CreateInvitation(f.ctx, owner, CreateInvitationRequest{ClassID: class.ID})
	require.NoError(t, err)

	list, err := f.invitation.ListInvitations(f.ctx, owner, class.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, first.ID, list[1].ID)
	assert.NotEmpty(t, list[0].URL)

	err = f.invitation.DeactivateInvitation(f.ctx, owner, otherClass.ID, first.ID)
	assertKind(t, err, util.KindNotFound)

	err = f.invitation.DeactivateInvitation(f.ctx, f.newTeacher(t), class.ID, first.ID)
	assertKind(t, err, util.KindForbidden)

	require.NoError(t, f.invitation.DeactivateInvitation(f.ctx, owner, class.ID, first.ID))
	_, err = f.invitation.ValidateToken(f.ctx, first.Token)
	assertKind(t, err, util.KindGone)
	_, err = f.invitation.ValidateToken(f.ctx, second.Token)
	assert.NoError(t, err)
}
