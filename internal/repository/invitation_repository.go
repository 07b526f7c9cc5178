package repository

import (
	"classroom_backend/internal/model"
	"classroom_backend/internal/util"
	"context"
	"time"

	"gorm.io/gorm"
)

type InvitationRepository struct {
	DB *gorm.DB
}

func NewInvitationRepository(db *gorm.DB) *InvitationRepository {
	return &InvitationRepository{DB: db}
}

// ConsumeRequest StudentID 与 NewStudent 二选一
type ConsumeRequest struct {
	InvitationID string
	ClassID      string
	StudentID    string
	NewStudent   *model.User
	CountRejoins bool
	Now          time.Time
}

type ConsumeOutcome struct {
	StudentID string
	Enrolled  bool
}

func (r *InvitationRepository) Create(ctx context.Context, inv *model.Invitation) error {
	return r.DB.WithContext(ctx).Create(inv).Error
}

func (r *InvitationRepository) FindByToken(ctx context.Context, token string) (*model.Invitation, error) {
	var inv model.Invitation
	err := r.DB.WithContext(ctx).
		Preload("Class.Teacher.User").
		Where("token = ?", token).
		First(&inv).Error
	if err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

func (r *InvitationRepository) FindByID(ctx context.Context, id string) (*model.Invitation, error) {
	var inv model.Invitation
	if err := r.DB.WithContext(ctx).First(&inv, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

func (r *InvitationRepository) ListByClass(ctx context.Context, classID string) ([]model.Invitation, error) {
	var invitations []model.Invitation
	err := r.DB.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("created_at DESC").
		Find(&invitations).Error
	return invitations, err
}

func (r *InvitationRepository) Deactivate(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).
		Model(&model.Invitation{}).
		Where("id = ?", id).
		Update("active", false).Error
}

// Consume 在一个事务中完成：（可选）注册学生、选课、带条件地累加使用次数。
// 条件更新未命中说明邀请已失效或用尽，整个事务回滚。
func (r *InvitationRepository) Consume(ctx context.Context, req ConsumeRequest) (*ConsumeOutcome, error) {
	out := &ConsumeOutcome{StudentID: req.StudentID}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.NewStudent != nil {
			student, err := createStudentAccount(tx, req.NewStudent)
			if err != nil {
				return err
			}
			out.StudentID = student.ID
		}

		created, err := enroll(tx, req.ClassID, out.StudentID)
		if err != nil {
			return err
		}
		out.Enrolled = created

		if !created && !req.CountRejoins {
			return nil
		}
		return claimUse(tx, req.InvitationID, req.Now)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func claimUse(tx *gorm.DB, invitationID string, now time.Time) error {
	res := tx.Model(&model.Invitation{}).
		Where("id = ? AND active = ?", invitationID, true).
		Where("(expires_at IS NULL OR expires_at > ?)", now).
		Where("(max_uses IS NULL OR used_count < max_uses)").
		Updates(map[string]interface{}{
			"used_count": gorm.Expr("used_count + ?", 1),
			"updated_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrInvitationUsedUp
	}
	return nil
}
