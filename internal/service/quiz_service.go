package service

import (
	"classroom_backend/internal/model"
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

type QuizService struct {
	Attempts    AttemptStore
	Enrollments EnrollmentStore
	Classes     ClassStore
	Topics      TopicStore
	Questions   QuestionStore
}

func NewQuizService(attempts AttemptStore, enrollments EnrollmentStore, classes ClassStore, topics TopicStore, questions QuestionStore) *QuizService {
	return &QuizService{
		Attempts:    attempts,
		Enrollments: enrollments,
		Classes:     classes,
		Topics:      topics,
		Questions:   questions,
	}
}

// QuizOption 作答阶段下发的选项，不含正确答案
type QuizOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type QuizQuestion struct {
	ID              string                `json:"id"`
	Text            string                `json:"text"`
	DifficultyLevel model.DifficultyLevel `json:"difficultyLevel"`
	Options         []QuizOption          `json:"options"`
}

type StartedAttempt struct {
	AttemptID string         `json:"attemptId"`
	Questions []QuizQuestion `json:"questions"`
}

type SubmittedAnswer struct {
	QuestionID       string  `json:"questionId"`
	SelectedOptionID *string `json:"selectedOptionId"`
}

type AttemptResult struct {
	AttemptID string             `json:"attemptId"`
	Score     float64            `json:"score"`
	Correct   int                `json:"correct"`
	Total     int                `json:"total"`
	Questions []model.Question   `json:"questions"`
	Answers   []model.QuizAnswer `json:"answers"`
}

func withoutKey(questions []model.Question) []QuizQuestion {
	out := make([]QuizQuestion, 0, len(questions))
	for _, q := range questions {
		item := QuizQuestion{
			ID:              q.ID,
			Text:            q.Text,
			DifficultyLevel: q.DifficultyLevel,
			Options:         make([]QuizOption, 0, len(q.Options)),
		}
		for _, o := range q.Options {
			item.Options = append(item.Options, QuizOption{ID: o.ID, Text: o.Text})
		}
		out = append(out, item)
	}
	return out
}

func (s *QuizService) StartAttempt(ctx context.Context, who model.Identity, classID, subtopicID string) (result *StartedAttempt, err error) {
	ctx, span := tracing.StartSpan(ctx, "QuizService.StartAttempt",
		attribute.String("class.id", classID),
		attribute.String("subtopic.id", subtopicID))
	defer func() { tracing.End(span, err) }()

	student, err := requireStudent(who)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(classID) == "" || strings.TrimSpace(subtopicID) == "" {
		return nil, util.BadRequestError("classId and subtopicId required")
	}

	enrolled, err := s.Enrollments.IsEnrolled(ctx, classID, student.StudentID)
	if err != nil {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return nil, util.ForbiddenError("not enrolled in this class")
	}

	subtopic, err := s.Topics.FindSubtopic(ctx, subtopicID)
	if err != nil {
		return nil, storeError(err, "subtopic not found")
	}

	published, err := s.Classes.IsTopicPublished(ctx, classID, subtopic.TopicID)
	if err != nil {
		return nil, fmt.Errorf("check publication: %w", err)
	}
	if !published {
		return nil, util.ForbiddenError("this module is not yet available")
	}

	questions, err := s.Questions.ListBySubtopic(ctx, subtopicID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, util.NotFoundError("no questions available for this module")
	}

	attempt := &model.QuizAttempt{
		StudentID:  student.StudentID,
		ClassID:    classID,
		SubtopicID: subtopicID,
	}
	if err := s.Attempts.StartAttempt(ctx, attempt); err != nil {
		return nil, fmt.Errorf("start attempt: %w", err)
	}

	monitoring.AttemptsStarted.Inc()
	logger.Log.Debug("quiz attempt started",
		zap.String("attempt_id", attempt.ID),
		zap.String("student_id", student.StudentID),
		zap.String("subtopic_id", subtopicID))

	return &StartedAttempt{AttemptID: attempt.ID, Questions: withoutKey(questions)}, nil
}

// ownAttempt 不存在或不属于该学生都返回 NotFound
func (s *QuizService) ownAttempt(ctx context.Context, student model.StudentIdentity, attemptID string) (*model.QuizAttempt, error) {
	attempt, err := s.Attempts.FindAttempt(ctx, attemptID)
	if err != nil {
		return nil, storeError(err, "attempt not found")
	}
	if attempt.StudentID != student.StudentID {
		return nil, util.NotFoundError("attempt not found")
	}
	return attempt, nil
}

// SubmitAttempt 每次作答只能提交一次；答案为 nil 视为缺参，空切片得 0 分
func (s *QuizService) SubmitAttempt(ctx context.Context, who model.Identity, attemptID string, answers []SubmittedAnswer) (result *AttemptResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "QuizService.SubmitAttempt", attribute.String("attempt.id", attemptID))
	defer func() { tracing.End(span, err) }()

	student, err := requireStudent(who)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(attemptID) == "" || answers == nil {
		return nil, util.BadRequestError("attemptId and answers required")
	}

	attempt, err := s.ownAttempt(ctx, student, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Completed() {
		return nil, util.ConflictError("attempt already submitted")
	}

	questions, err := s.Questions.ListBySubtopic(ctx, attempt.SubtopicID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	byID := make(map[string]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	vanished, err := s.vanishedQuestions(ctx, answers, byID)
	if err != nil {
		return nil, err
	}

	records := make([]model.QuizAnswer, 0, len(answers))
	seen := make(map[string]bool, len(answers))
	correct := 0
	for _, a := range answers {
		if seen[a.QuestionID] {
			return nil, util.BadRequestError("question %q answered more than once", a.QuestionID)
		}
		seen[a.QuestionID] = true
		// 作答期间被删除的题目不计分
		if vanished[a.QuestionID] {
			continue
		}
		q := byID[a.QuestionID]

		isCorrect := false
		if a.SelectedOptionID != nil {
			isCorrect = q.CorrectOptionIDs()[*a.SelectedOptionID]
		}
		if isCorrect {
			correct++
		}
		records = append(records, model.QuizAnswer{
			QuestionID:       a.QuestionID,
			SelectedOptionID: a.SelectedOptionID,
			IsCorrect:        isCorrect,
		})
	}

	score := util.Percentage(correct, len(records))
	now := time.Now()
	if err := s.Attempts.FinalizeAttempt(ctx, attempt, records, score, now); err != nil {
		if errors.Is(err, util.ErrAttemptFinalized) {
			return nil, util.ConflictError("attempt already submitted")
		}
		return nil, fmt.Errorf("finalize attempt: %w", err)
	}

	monitoring.AttemptsSubmitted.Inc()
	monitoring.AttemptScores.Observe(score)
	logger.Log.Info("quiz attempt submitted",
		zap.String("attempt_id", attempt.ID),
		zap.String("student_id", student.StudentID),
		zap.Float64("score", score),
		zap.Int("correct", correct),
		zap.Int("total", len(records)),
		zap.Int("skipped", len(vanished)))

	return &AttemptResult{
		AttemptID: attempt.ID,
		Score:     score,
		Correct:   correct,
		Total:     len(records),
		Questions: answeredQuestions(questions, seen),
		Answers:   records,
	}, nil
}

// vanishedQuestions 找出不在本次题目集合中的作答：已被删除的题目返回在集合里，
// 仍存在但属于其他模块的题目视为非法提交
func (s *QuizService) vanishedQuestions(ctx context.Context, answers []SubmittedAnswer, current map[string]*model.Question) (map[string]bool, error) {
	var unknown []string
	for _, a := range answers {
		if _, ok := current[a.QuestionID]; !ok {
			unknown = append(unknown, a.QuestionID)
		}
	}
	if len(unknown) == 0 {
		return nil, nil
	}
	existing, err := s.Questions.ListByIDs(ctx, unknown)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(existing) > 0 {
		return nil, util.BadRequestError("question %q is not part of this quiz", existing[0].ID)
	}
	vanished := make(map[string]bool, len(unknown))
	for _, id := range unknown {
		vanished[id] = true
	}
	return vanished, nil
}

// answeredQuestions 保持创建顺序，只保留作答过的题目
func answeredQuestions(questions []model.Question, answered map[string]bool) []model.Question {
	out := make([]model.Question, 0, len(answered))
	for _, q := range questions {
		if answered[q.ID] {
			out = append(out, q)
		}
	}
	return out
}

// GetAttemptReview 提交之后才能查看答案
func (s *QuizService) GetAttemptReview(ctx context.Context, who model.Identity, attemptID string) (*AttemptResult, error) {
	student, err := requireStudent(who)
	if err != nil {
		return nil, err
	}
	attempt, err := s.ownAttempt(ctx, student, attemptID)
	if err != nil {
		return nil, err
	}
	if !attempt.Completed() {
		return nil, util.ForbiddenError("answers are available after the attempt is submitted")
	}

	ids := make([]string, 0, len(attempt.Answers))
	correct := 0
	for _, a := range attempt.Answers {
		ids = append(ids, a.QuestionID)
		if a.IsCorrect {
			correct++
		}
	}
	questions, err := s.Questions.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	result := &AttemptResult{
		AttemptID: attempt.ID,
		Correct:   correct,
		Total:     len(attempt.Answers),
		Questions: questions,
		Answers:   attempt.Answers,
	}
	if attempt.Score != nil {
		result.Score = *attempt.Score
	}
	return result, nil
}
