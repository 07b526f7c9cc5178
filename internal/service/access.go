package service

import (
	"classroom_backend/internal/model"
	"classroom_backend/internal/util"
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func requireTeacher(who model.Identity) (model.TeacherIdentity, error) {
	switch id := who.(type) {
	case model.TeacherIdentity:
		return id, nil
	}
	return model.TeacherIdentity{}, util.UnauthorizedError("teacher account required")
}

func requireStudent(who model.Identity) (model.StudentIdentity, error) {
	switch id := who.(type) {
	case model.StudentIdentity:
		return id, nil
	}
	return model.StudentIdentity{}, util.UnauthorizedError("student account required")
}

// ownedClass 校验教师对班级的所有权：不存在 NotFound，非本人 Forbidden
func ownedClass(ctx context.Context, classes ClassStore, who model.Identity, classID string) (*model.Class, error) {
	teacher, err := requireTeacher(who)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(classID) == "" {
		return nil, util.BadRequestError("classId required")
	}
	class, err := classes.FindByID(ctx, classID)
	if err != nil {
		return nil, storeError(err, "class not found")
	}
	if class.TeacherID != teacher.TeacherID {
		return nil, util.ForbiddenError("you do not own this class")
	}
	return class, nil
}

// storeError 记录不存在转换为 NotFound，其余原样包装
func storeError(err error, notFoundMsg string) error {
	if errors.Is(err, util.ErrRecordNotFound) {
		return util.NotFoundError("%s", notFoundMsg)
	}
	return fmt.Errorf("store: %w", err)
}

func hashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
