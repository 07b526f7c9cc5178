package service

import (
	"classroom_backend/internal/config"
	"classroom_backend/internal/model"
	"classroom_backend/internal/repository"
	"classroom_backend/internal/util"
	"classroom_backend/pkg/logger"
	"classroom_backend/pkg/monitoring"
	"classroom_backend/pkg/tracing"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type InvitationService struct {
	Invitations InvitationStore
	Classes     ClassStore
	Users       UserStore
	Auth        *AuthService
	Cfg         *config.Config
}

func NewInvitationService(invitations InvitationStore, classes ClassStore, users UserStore, auth *AuthService, cfg *config.Config) *InvitationService {
	return &InvitationService{
		Invitations: invitations,
		Classes:     classes,
		Users:       users,
		Auth:        auth,
		Cfg:         cfg,
	}
}

type InvitationPreview struct {
	Valid       bool   `json:"valid"`
	ClassID     string `json:"classId"`
	ClassName   string `json:"className"`
	TeacherName string `json:"teacherName"`
}

type CreateInvitationRequest struct {
	ClassID       string `json:"classId"`
	ExpiresInDays *int   `json:"expiresInDays"`
	MaxUses       *int   `json:"maxUses"`
}

// CreatedInvitation 邀请本身加上可分享的链接
type CreatedInvitation struct {
	model.Invitation
	URL string `json:"url"`
}

type ConsumeResult struct {
	Success   bool   `json:"success"`
	ClassID   string `json:"classId"`
	StudentID string `json:"studentId"`
	Enrolled  bool   `json:"enrolled"`
	// Token 新注册学生的登录令牌
	Token string `json:"token,omitempty"`
}

// lookup 按 token 查找并校验可用性，校验规则与消费时一致
func (s *InvitationService) lookup(ctx context.Context, token string) (*model.Invitation, error) {
	if strings.TrimSpace(token) == "" {
		return nil, util.NotFoundError("invalid invitation link")
	}
	inv, err := s.Invitations.FindByToken(ctx, token)
	if err != nil {
		return nil, storeError(err, "invalid invitation link")
	}
	if !inv.Usable(time.Now()) {
		return nil, util.GoneError("%s", goneReason(inv))
	}
	return inv, nil
}

// goneReason 仅用于选择提示文案，可用性以 Invitation.Usable 为准
func goneReason(inv *model.Invitation) string {
	switch {
	case !inv.Active:
		return "this invitation link has been deactivated"
	case inv.MaxUses != nil && inv.UsedCount >= *inv.MaxUses:
		return "this invitation link has reached its maximum uses"
	}
	return "this invitation link has expired"
}

func (s *InvitationService) ValidateToken(ctx context.Context, token string) (*InvitationPreview, error) {
	inv, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	preview := &InvitationPreview{Valid: true, ClassID: inv.ClassID}
	if inv.Class != nil {
		preview.ClassName = inv.Class.Name
		if inv.Class.Teacher != nil && inv.Class.Teacher.User != nil {
			preview.TeacherName = inv.Class.Teacher.User.FullName()
		}
	}
	return preview, nil
}

func (s *InvitationService) shareURL(token string) string {
	return strings.TrimRight(s.Cfg.App.PublicURL, "/") + "/invite/" + token
}

func (s *InvitationService) CreateInvitation(ctx context.Context, who model.Identity, req CreateInvitationRequest) (*CreatedInvitation, error) {
	if _, err := requireTeacher(who); err != nil {
		return nil, err
	}
	if req.ExpiresInDays != nil && *req.ExpiresInDays <= 0 {
		return nil, util.BadRequestError("expiresInDays must be positive")
	}
	if req.MaxUses != nil && *req.MaxUses <= 0 {
		return nil, util.BadRequestError("maxUses must be positive")
	}
	if _, err := ownedClass(ctx, s.Classes, who, req.ClassID); err != nil {
		return nil, err
	}

	token, err := util.NewInviteToken()
	if err != nil {
		return nil, fmt.Errorf("generate invite token: %w", err)
	}
	inv := &model.Invitation{
		Token:   token,
		ClassID: req.ClassID,
		MaxUses: req.MaxUses,
		Active:  true,
	}
	if req.ExpiresInDays != nil {
		expiresAt := time.Now().AddDate(0, 0, *req.ExpiresInDays)
		inv.ExpiresAt = &expiresAt
	}
	if err := s.Invitations.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}
	return &CreatedInvitation{Invitation: *inv, URL: s.shareURL(inv.Token)}, nil
}

// ConsumeInvitation 已登录学生直接加入；未登录则用 signup 表单注册学生并加入。
// 使用次数的校验与累加在仓储层的同一事务内完成。
func (s *InvitationService) ConsumeInvitation(ctx context.Context, token string, who model.Identity, signup *SignupForm) (result *ConsumeResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "InvitationService.ConsumeInvitation")
	defer func() {
		if err != nil {
			monitoring.InvitationsRejected.WithLabelValues(rejectReason(err)).Inc()
		}
		tracing.End(span, err)
	}()

	inv, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("class.id", inv.ClassID))

	req := repository.ConsumeRequest{
		InvitationID: inv.ID,
		ClassID:      inv.ClassID,
		CountRejoins: s.Cfg.Invitation.CountRejoins,
		Now:          time.Now(),
	}
	mode := "existing_student"

	if who != nil {
		student, ok := who.(model.StudentIdentity)
		if !ok {
			return nil, util.ForbiddenError("only students can join classes")
		}
		req.StudentID = student.StudentID
	} else {
		if signup == nil {
			return nil, util.BadRequestError("all fields are required for signup")
		}
		form := *signup
		if err := form.validate(); err != nil {
			return nil, err
		}
		if err := checkLoginAvailable(ctx, s.Users, form.Email, form.Username); err != nil {
			return nil, err
		}
		user, err := form.toUser(s.Cfg.Auth.BcryptCost)
		if err != nil {
			return nil, err
		}
		req.NewStudent = user
		mode = "signup"
	}

	out, err := s.Invitations.Consume(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvitationUsedUp):
			return nil, util.GoneError("this invitation link is no longer valid")
		case errors.Is(err, util.ErrDuplicateIdentity):
			return nil, util.ConflictError("email or username already in use")
		}
		return nil, fmt.Errorf("consume invitation: %w", err)
	}

	result = &ConsumeResult{
		Success:   true,
		ClassID:   inv.ClassID,
		StudentID: out.StudentID,
		Enrolled:  out.Enrolled,
	}
	if req.NewStudent != nil && s.Auth != nil {
		loginToken, tokenErr := s.Auth.IssueToken(model.StudentIdentity{UserID: req.NewStudent.ID, StudentID: out.StudentID})
		if tokenErr != nil {
			logger.Log.Warn("issue token after signup failed", zap.Error(tokenErr))
		} else {
			result.Token = loginToken
		}
	}

	monitoring.InvitationsConsumed.WithLabelValues(mode).Inc()
	logger.Log.Info("invitation consumed",
		zap.String("invitation_id", inv.ID),
		zap.String("class_id", inv.ClassID),
		zap.String("student_id", out.StudentID),
		zap.Bool("new_enrollment", out.Enrolled),
		zap.String("mode", mode))
	return result, nil
}

func rejectReason(err error) string {
	if kind := util.KindOf(err); kind != "" {
		return string(kind)
	}
	return "INTERNAL"
}

func (s *InvitationService) ListInvitations(ctx context.Context, who model.Identity, classID string) ([]CreatedInvitation, error) {
	if _, err := ownedClass(ctx, s.Classes, who, classID); err != nil {
		return nil, err
	}
	invitations, err := s.Invitations.ListByClass(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	out := make([]CreatedInvitation, 0, len(invitations))
	for _, inv := range invitations {
		out = append(out, CreatedInvitation{Invitation: inv, URL: s.shareURL(inv.Token)})
	}
	return out, nil
}

func (s *InvitationService) DeactivateInvitation(ctx context.Context, who model.Identity, classID, invitationID string) error {
	if _, err := ownedClass(ctx, s.Classes, who, classID); err != nil {
		return err
	}
	inv, err := s.Invitations.FindByID(ctx, invitationID)
	if err != nil {
		return storeError(err, "invitation not found")
	}
	if inv.ClassID != classID {
		return util.NotFoundError("invitation not found")
	}
	if err := s.Invitations.Deactivate(ctx, inv.ID); err != nil {
		return fmt.Errorf("deactivate invitation: %w", err)
	}
	return nil
}
