package inmem

import (
	"classroom_backend/internal/model"
	"classroom_backend/internal/util"
	"context"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) LoginTaken(_ context.Context, email, username string) (bool, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	emailTaken, usernameTaken := r.db.loginTakenLocked(email, username)
	return emailTaken, usernameTaken, nil
}

func (r *UserRepository) FindByLogin(_ context.Context, login string) (*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	login = model.NormalizeLogin(login)
	for _, u := range r.db.users {
		if u.Email != login && u.Username != login {
			continue
		}
		out := *u
		for _, t := range r.db.teachers {
			if t.UserID == u.ID {
				teacher := *t
				out.Teacher = &teacher
			}
		}
		for _, s := range r.db.students {
			if s.UserID == u.ID {
				student := *s
				out.Student = &student
			}
		}
		return &out, nil
	}
	return nil, util.ErrRecordNotFound
}

func (r *UserRepository) CreateTeacher(_ context.Context, user *model.User) (*model.Teacher, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	user.Role = model.RoleTeacher
	if !r.db.createUserLocked(user) {
		return nil, util.ErrDuplicateIdentity
	}
	teacher := &model.Teacher{UserID: user.ID}
	r.db.initBase(&teacher.UUIDBase)
	r.db.teachers[teacher.ID] = teacher
	out := *teacher
	return &out, nil
}

func (r *UserRepository) FindTeacher(_ context.Context, teacherID string) (*model.Teacher, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	teacher := r.db.teacherCopy(teacherID)
	if teacher == nil {
		return nil, util.ErrRecordNotFound
	}
	return teacher, nil
}
