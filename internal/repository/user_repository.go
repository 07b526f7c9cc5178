package repository

import (
	"classroom_backend/internal/model"
	"classroom_backend/internal/util"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// LoginTaken 分别返回邮箱、用户名是否已被占用（大小写不敏感）
func (r *UserRepository) LoginTaken(ctx context.Context, email, username string) (bool, bool, error) {
	var emailCount, usernameCount int64
	db := r.DB.WithContext(ctx)
	if err := db.Model(&model.User{}).
		Where("email = ?", model.NormalizeLogin(email)).
		Count(&emailCount).Error; err != nil {
		return false, false, err
	}
	if err := db.Model(&model.User{}).
		Where("username = ?", model.NormalizeLogin(username)).
		Count(&usernameCount).Error; err != nil {
		return false, false, err
	}
	return emailCount > 0, usernameCount > 0, nil
}

// FindByLogin 邮箱或用户名均可登录
func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*model.User, error) {
	var user model.User
	login = model.NormalizeLogin(login)
	err := r.DB.WithContext(ctx).
		Preload("Teacher").
		Preload("Student").
		Where("(email = ? OR username = ?)", login, login).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) CreateTeacher(ctx context.Context, user *model.User) (*model.Teacher, error) {
	var teacher *model.Teacher
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user.Role = model.RoleTeacher
		if err := createUser(tx, user); err != nil {
			return err
		}
		teacher = &model.Teacher{UserID: user.ID}
		return tx.Create(teacher).Error
	})
	if err != nil {
		return nil, err
	}
	return teacher, nil
}

func (r *UserRepository) FindTeacher(ctx context.Context, teacherID string) (*model.Teacher, error) {
	var teacher model.Teacher
	err := r.DB.WithContext(ctx).Preload("User").First(&teacher, "id = ?", teacherID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &teacher, nil
}

func createUser(tx *gorm.DB, user *model.User) error {
	if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
		if isDuplicate(err) {
			return util.ErrDuplicateIdentity
		}
		return err
	}
	return nil
}

// createStudentAccount 在同一事务内创建 User 和 Student
func createStudentAccount(tx *gorm.DB, user *model.User) (*model.Student, error) {
	user.Role = model.RoleStudent
	if err := createUser(tx, user); err != nil {
		return nil, err
	}
	student := &model.Student{UserID: user.ID}
	if err := tx.Create(student).Error; err != nil {
		return nil, err
	}
	return student, nil
}
