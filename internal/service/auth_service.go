package service

import (
	"classroom_backend/internal/config"
	"classroom_backend/internal/model"
	"classroom_backend/internal/util"
	"classroom_backend/pkg/logger"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	Users UserStore
	Cfg   *config.Config
}

func NewAuthService(users UserStore, cfg *config.Config) *AuthService {
	return &AuthService{
		Users: users,
		Cfg:   cfg,
	}
}

type RegisterTeacherRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Username     string `json:"username"`
	Email        string `json:"email" binding:"omitempty,email"`
	Password     string `json:"password"`
	TeacherToken string `json:"teacherToken"`
}

type LoginResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// RegisterTeacher 教师注册需要服务端配置的注册口令
func (s *AuthService) RegisterTeacher(ctx context.Context, req RegisterTeacherRequest) (*model.User, error) {
	expected := s.Cfg.Auth.TeacherSignupToken
	if expected == "" {
		return nil, util.UnavailableError("teacher registration is not configured on this server")
	}
	if subtle.ConstantTimeCompare([]byte(req.TeacherToken), []byte(expected)) != 1 {
		return nil, util.ForbiddenError("invalid teacher registration code")
	}

	form := SignupForm{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
	}
	if err := form.validate(); err != nil {
		return nil, err
	}
	if len(form.Password) < util.MinPasswordLength {
		return nil, util.BadRequestError("password must be at least %d characters", util.MinPasswordLength)
	}
	if err := checkLoginAvailable(ctx, s.Users, form.Email, form.Username); err != nil {
		return nil, err
	}

	user, err := form.toUser(s.Cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	if _, err := s.Users.CreateTeacher(ctx, user); err != nil {
		if errors.Is(err, util.ErrDuplicateIdentity) {
			return nil, util.ConflictError("email or username already in use")
		}
		return nil, fmt.Errorf("create teacher: %w", err)
	}

	logger.Log.Info("teacher registered", zap.String("user_id", user.ID))
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	if strings.TrimSpace(login) == "" || password == "" {
		return nil, util.BadRequestError("login and password required")
	}

	user, err := s.Users.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, util.ErrRecordNotFound) {
			return nil, util.UnauthorizedError("invalid credentials")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, util.UnauthorizedError("invalid credentials")
	}

	who := identityOf(user)
	if who == nil {
		return nil, fmt.Errorf("user %s has no %s profile", user.ID, user.Role)
	}
	token, err := s.IssueToken(who)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: user}, nil
}

func (s *AuthService) IssueToken(who model.Identity) (string, error) {
	return util.TokenForIdentity(who, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
}

func identityOf(user *model.User) model.Identity {
	switch user.Role {
	case model.RoleTeacher:
		if user.Teacher != nil {
			return model.TeacherIdentity{UserID: user.ID, TeacherID: user.Teacher.ID}
		}
	case model.RoleStudent:
		if user.Student != nil {
			return model.StudentIdentity{UserID: user.ID, StudentID: user.Student.ID}
		}
	}
	return nil
}

// SignupForm 学生通过邀请链接注册时提交的表单
type SignupForm struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (f *SignupForm) validate() error {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Username = model.NormalizeLogin(f.Username)
	f.Email = model.NormalizeLogin(f.Email)
	if f.FirstName == "" || f.LastName == "" || f.Username == "" || f.Email == "" || f.Password == "" {
		return util.BadRequestError("all fields are required: firstName, lastName, username, email, password")
	}
	return nil
}

func (f *SignupForm) toUser(cost int) (*model.User, error) {
	hashed, err := hashPassword(f.Password, cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &model.User{
		Email:        f.Email,
		Username:     f.Username,
		PasswordHash: hashed,
		FirstName:    f.FirstName,
		LastName:     f.LastName,
	}, nil
}

func checkLoginAvailable(ctx context.Context, users UserStore, email, username string) error {
	emailTaken, usernameTaken, err := users.LoginTaken(ctx, email, username)
	if err != nil {
		return fmt.Errorf("check login: %w", err)
	}
	switch {
	case emailTaken:
		return util.ConflictError("email already in use")
	case usernameTaken:
		return util.ConflictError("username already taken")
	}
	return nil
}
