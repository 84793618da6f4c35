// file: internals/features/exams/practicals/model/practical_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/*
Practical evaluation: 1 row = 1 exam × 1 student, written once.
Five axes, each within [0, 100].
*/
type ExamPracticalEvaluationModel struct {
	ExamPracticalID        uuid.UUID `gorm:"column:exam_practical_id;type:uuid;primaryKey" json:"exam_practical_id"`
	ExamPracticalExamID    uuid.UUID `gorm:"column:exam_practical_exam_id;type:uuid;not null;uniqueIndex:idx_exam_practicals_pair,priority:1" json:"exam_practical_exam_id"`
	ExamPracticalStudentID uuid.UUID `gorm:"column:exam_practical_student_id;type:uuid;not null;uniqueIndex:idx_exam_practicals_pair,priority:2;index" json:"exam_practical_student_id"`
	ExamPracticalAttemptID uuid.UUID `gorm:"column:exam_practical_attempt_id;type:uuid;not null" json:"exam_practical_attempt_id"`

	ExamPracticalMorality  float64 `gorm:"column:exam_practical_morality;not null" json:"exam_practical_morality"`
	ExamPracticalMethod    float64 `gorm:"column:exam_practical_method;not null" json:"exam_practical_method"`
	ExamPracticalTechnique float64 `gorm:"column:exam_practical_technique;not null" json:"exam_practical_technique"`
	ExamPracticalPhysical  float64 `gorm:"column:exam_practical_physical;not null" json:"exam_practical_physical"`
	ExamPracticalMental    float64 `gorm:"column:exam_practical_mental;not null" json:"exam_practical_mental"`

	ExamPracticalNote        *string   `gorm:"column:exam_practical_note;type:text" json:"exam_practical_note,omitempty"`
	ExamPracticalEvaluatedBy uuid.UUID `gorm:"column:exam_practical_evaluated_by;type:uuid;not null" json:"exam_practical_evaluated_by"`
	ExamPracticalCreatedAt   time.Time `gorm:"column:exam_practical_created_at;autoCreateTime" json:"exam_practical_created_at"`
}

func (ExamPracticalEvaluationModel) TableName() string { return "exam_practical_evaluations" }

func (m *ExamPracticalEvaluationModel) BeforeCreate(tx *gorm.DB) error {
	if m.ExamPracticalID == uuid.Nil {
		m.ExamPracticalID = uuid.New()
	}
	return nil
}

func (m *ExamPracticalEvaluationModel) Sum() float64 {
	return m.ExamPracticalMorality + m.ExamPracticalMethod + m.ExamPracticalTechnique +
		m.ExamPracticalPhysical + m.ExamPracticalMental
}
