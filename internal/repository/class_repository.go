package repository

import (
	"classroom_backend/internal/model"
	"classroom_backend/internal/util"
	"context"

	"gorm.io/gorm"
)

type ClassRepository struct {
	DB *gorm.DB
}

func NewClassRepository(db *gorm.DB) *ClassRepository {
	return &ClassRepository{DB: db}
}

func (r *ClassRepository) Create(ctx context.Context, class *model.Class) error {
	return r.DB.WithContext(ctx).Create(class).Error
}

func (r *ClassRepository) FindByID(ctx context.Context, id string) (*model.Class, error) {
	var class model.Class
	err := r.DB.WithContext(ctx).Preload("Teacher.User").First(&class, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &class, nil
}

func (r *ClassRepository) Update(ctx context.Context, class *model.Class) error {
	return r.DB.WithContext(ctx).
		Model(&model.Class{}).
		Where("id = ?", class.ID).
		Updates(map[string]interface{}{
			"name":        class.Name,
			"description": class.Description,
		}).Error
}

// Delete 硬删除，关联的主题、选课、邀请、测验记录由外键级联删除
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Delete(&model.Class{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrRecordNotFound
	}
	return nil
}

func (r *ClassRepository) ListByTeacher(ctx context.Context, teacherID string) ([]model.Class, error) {
	var classes []model.Class
	err := r.DB.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("created_at DESC").
		Find(&classes).Error
	return classes, err
}

func (r *ClassRepository) ListByStudent(ctx context.Context, studentID string) ([]model.Class, error) {
	var classes []model.Class
	err := r.DB.WithContext(ctx).
		Preload("Teacher.User").
		Joins("JOIN class_enrollments ON class_enrollments.class_id = classes.id").
		Where("class_enrollments.student_id = ?", studentID).
		Order("class_enrollments.joined_at DESC").
		Find(&classes).Error
	return classes, err
}

// CountEnrollments 按班级统计选课人数
func (r *ClassRepository) CountEnrollments(ctx context.Context, classIDs []string) (map[string]int64, error) {
	if len(classIDs) == 0 {
		return map[string]int64{}, nil
	}
	var rows []countRow
	err := r.DB.WithContext(ctx).
		Model(&model.ClassEnrollment{}).
		Select("class_id AS group_key, COUNT(*) AS n").
		Where("class_id IN ?", classIDs).
		Group("class_id").
		Scan(&rows).Error
	return toCountMap(rows), err
}

func (r *ClassRepository) CountTopics(ctx context.Context, classIDs []string) (map[string]int64, error) {
	if len(classIDs) == 0 {
		return map[string]int64{}, nil
	}
	var rows []countRow
	err := r.DB.WithContext(ctx).
		Model(&model.ClassTopic{}).
		Select("class_id AS group_key, COUNT(*) AS n").
		Where("class_id IN ?", classIDs).
		Group("class_id").
		Scan(&rows).Error
	return toCountMap(rows), err
}

func (r *ClassRepository) CountByTeacher(ctx context.Context, teacherID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Class{}).Where("teacher_id = ?", teacherID).Count(&n).Error
	return n, err
}

// ListClassTopics publishedOnly 为 true 时只返回已发布的主题
func (r *ClassRepository) ListClassTopics(ctx context.Context, classID string, publishedOnly bool) ([]model.ClassTopic, error) {
	var topics []model.ClassTopic
	q := r.DB.WithContext(ctx).
		Preload("Topic.Subtopics", func(db *gorm.DB) *gorm.DB {
			return db.Order("subtopics.sort_order ASC, subtopics.created_at ASC")
		}).
		Joins("JOIN topics ON topics.id = class_topics.topic_id").
		Where("class_topics.class_id = ?", classID)
	if publishedOnly {
		q = q.Where("class_topics.published = ?", true)
	}
	err := q.Order("topics.sort_order ASC, topics.created_at ASC").Find(&topics).Error
	return topics, err
}

func (r *ClassRepository) FindClassTopic(ctx context.Context, classID, topicID string) (*model.ClassTopic, error) {
	var ct model.ClassTopic
	err := r.DB.WithContext(ctx).
		Preload("Topic").
		Where("class_id = ? AND topic_id = ?", classID, topicID).
		First(&ct).Error
	if err != nil {
		return nil, translate(err)
	}
	return &ct, nil
}

func (r *ClassRepository) AssignTopic(ctx context.Context, ct *model.ClassTopic) error {
	if err := r.DB.WithContext(ctx).Create(ct).Error; err != nil {
		if isDuplicate(err) {
			return util.ErrAlreadyAssigned
		}
		return err
	}
	return nil
}

func (r *ClassRepository) SetTopicPublished(ctx context.Context, classID, topicID string, published bool) error {
	return r.DB.WithContext(ctx).
		Model(&model.ClassTopic{}).
		Where("class_id = ? AND topic_id = ?", classID, topicID).
		Update("published", published).Error
}

func (r *ClassRepository) RemoveTopic(ctx context.Context, classID, topicID string) error {
	res := r.DB.WithContext(ctx).
		Where("class_id = ? AND topic_id = ?", classID, topicID).
		Delete(&model.ClassTopic{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrRecordNotFound
	}
	return nil
}

func (r *ClassRepository) IsTopicPublished(ctx context.Context, classID, topicID string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).
		Model(&model.ClassTopic{}).
		Where("class_id = ? AND topic_id = ? AND published = ?", classID, topicID, true).
		Count(&n).Error
	return n > 0, err
}

func (r *ClassRepository) ClassIDsForTopic(ctx context.Context, topicID string) ([]string, error) {
	var ids []string
	err := r.DB.WithContext(ctx).
		Model(&model.ClassTopic{}).
		Where("topic_id = ?", topicID).
		Pluck("class_id", &ids).Error
	return ids, err
}

// ListPublishedModules 班级已发布主题下的全部子主题，按主题顺序再按子主题顺序
func (r *ClassRepository) ListPublishedModules(ctx context.Context, classID string) ([]model.PublishedModule, error) {
	var modules []model.PublishedModule
	err := r.DB.WithContext(ctx).
		Table("subtopics").
		Select(`subtopics.id AS subtopic_id, subtopics.name AS subtopic_name, subtopics.sort_order AS subtopic_order,
			topics.id AS topic_id, topics.name AS topic_name, topics.sort_order AS topic_order`).
		Joins("JOIN topics ON topics.id = subtopics.topic_id").
		Joins("JOIN class_topics ON class_topics.topic_id = topics.id").
		Where("class_topics.class_id = ? AND class_topics.published = ?", classID, true).
		Order("topics.sort_order ASC, topics.created_at ASC, subtopics.sort_order ASC, subtopics.created_at ASC").
		Scan(&modules).Error
	return modules, err
}

// CountPublishedModules 按班级统计已发布模块数
func (r *ClassRepository) CountPublishedModules(ctx context.Context, classIDs []string) (map[string]int64, error) {
	if len(classIDs) == 0 {
		return map[string]int64{}, nil
	}
	var rows []countRow
	err := r.DB.WithContext(ctx).
		Table("subtopics").
		Select("class_topics.class_id AS group_key, COUNT(*) AS n").
		Joins("JOIN class_topics ON class_topics.topic_id = subtopics.topic_id").
		Where("class_topics.class_id IN ? AND class_topics.published = ?", classIDs, true).
		Group("class_topics.class_id").
		Scan(&rows).Error
	return toCountMap(rows), err
}
