package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExamEssayGradeModel holds the manual score of one essay question of a submitted attempt.
// Rows are upserted until the pair is finalized.
type ExamEssayGradeModel struct {
	ExamEssayGradeID         uuid.UUID `gorm:"column:exam_essay_grade_id;type:uuid;primaryKey" json:"exam_essay_grade_id"`
	ExamEssayGradeAttemptID  uuid.UUID `gorm:"column:exam_essay_grade_attempt_id;type:uuid;not null;uniqueIndex:idx_exam_essay_grades_question,priority:1" json:"exam_essay_grade_attempt_id"`
	ExamEssayGradeQuestionID uuid.UUID `gorm:"column:exam_essay_grade_question_id;type:uuid;not null;uniqueIndex:idx_exam_essay_grades_question,priority:2" json:"exam_essay_grade_question_id"`
	ExamEssayGradeExamID     uuid.UUID `gorm:"column:exam_essay_grade_exam_id;type:uuid;not null;index" json:"exam_essay_grade_exam_id"`
	ExamEssayGradeStudentID  uuid.UUID `gorm:"column:exam_essay_grade_student_id;type:uuid;not null" json:"exam_essay_grade_student_id"`

	ExamEssayGradeScore    float64   `gorm:"column:exam_essay_grade_score;not null" json:"exam_essay_grade_score"`
	ExamEssayGradeMaxScore float64   `gorm:"column:exam_essay_grade_max_score;not null" json:"exam_essay_grade_max_score"`
	ExamEssayGradeGradedBy uuid.UUID `gorm:"column:exam_essay_grade_graded_by;type:uuid;not null" json:"exam_essay_grade_graded_by"`
	ExamEssayGradeGradedAt time.Time `gorm:"column:exam_essay_grade_graded_at;not null" json:"exam_essay_grade_graded_at"`
}

func (ExamEssayGradeModel) TableName() string { return "exam_essay_grades" }

func (m *ExamEssayGradeModel) BeforeCreate(tx *gorm.DB) error {
	if m.ExamEssayGradeID == uuid.Nil {
		m.ExamEssayGradeID = uuid.New()
	}
	return nil
}
