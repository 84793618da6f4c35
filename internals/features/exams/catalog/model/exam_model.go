// file: internals/features/exams/catalog/model/exam_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "draft"
	ExamStatusPublished ExamStatus = "published"
	ExamStatusArchived  ExamStatus = "archived"
)

const (
	// five practical axes, each scored 0..100
	PracticalComponentMax = 100.0
	MaxPracticalScore     = 5 * PracticalComponentMax

	DefaultPassPercent = 60.0
	DefaultMaxScore    = 1.0
)

type ExamModel struct {
	ExamID          uuid.UUID  `gorm:"column:exam_id;type:uuid;primaryKey" json:"exam_id"`
	ExamTitle       string     `gorm:"column:exam_title;size:180;not null" json:"exam_title"`
	ExamDescription *string    `gorm:"column:exam_description;type:text" json:"exam_description,omitempty"`
	ExamBeltLevel   string     `gorm:"column:exam_belt_level;size:40;not null;index" json:"exam_belt_level"`
	ExamStatus      ExamStatus `gorm:"column:exam_status;size:16;not null;index" json:"exam_status"`

	ExamTimeLimitMinutes int `gorm:"column:exam_time_limit_minutes;not null" json:"exam_time_limit_minutes"`

	// effective marks (always filled)
	ExamMaxTheoryScore    float64 `gorm:"column:exam_max_theory_score;not null" json:"exam_max_theory_score"`
	ExamTheoryPassMark    float64 `gorm:"column:exam_theory_pass_mark;not null" json:"exam_theory_pass_mark"`
	ExamMaxPracticalScore float64 `gorm:"column:exam_max_practical_score;not null" json:"exam_max_practical_score"`
	ExamFinalPassMark     float64 `gorm:"column:exam_final_pass_mark;not null" json:"exam_final_pass_mark"`

	// explicit overrides; nil = derived
	ExamMaxTheoryScoreOverride *float64 `gorm:"column:exam_max_theory_score_override" json:"exam_max_theory_score_override,omitempty"`
	ExamTheoryPassMarkOverride *float64 `gorm:"column:exam_theory_pass_mark_override" json:"exam_theory_pass_mark_override,omitempty"`
	ExamFinalPassMarkOverride  *float64 `gorm:"column:exam_final_pass_mark_override" json:"exam_final_pass_mark_override,omitempty"`

	ExamCreatedBy   uuid.UUID  `gorm:"column:exam_created_by;type:uuid" json:"exam_created_by"`
	ExamPublishedAt *time.Time `gorm:"column:exam_published_at" json:"exam_published_at,omitempty"`
	ExamArchivedAt  *time.Time `gorm:"column:exam_archived_at" json:"exam_archived_at,omitempty"`
	ExamCreatedAt   time.Time  `gorm:"column:exam_created_at;autoCreateTime" json:"exam_created_at"`
	ExamUpdatedAt   time.Time  `gorm:"column:exam_updated_at;autoUpdateTime" json:"exam_updated_at"`

	Questions []ExamQuestionModel `gorm:"foreignKey:ExamQuestionExamID;references:ExamID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

func (ExamModel) TableName() string { return "exams" }

func (m *ExamModel) BeforeCreate(tx *gorm.DB) error {
	if m.ExamID == uuid.Nil {
		m.ExamID = uuid.New()
	}
	return nil
}

func (m *ExamModel) IsDraft() bool     { return m.ExamStatus == ExamStatusDraft }
func (m *ExamModel) IsPublished() bool { return m.ExamStatus == ExamStatusPublished }
func (m *ExamModel) IsArchived() bool  { return m.ExamStatus == ExamStatusArchived }

// PercentOf keeps integral totals exact (510 -> 306).
func PercentOf(total, pct float64) float64 {
	return total * pct / 100
}

// RecomputeMarks fills the effective marks from the questions and the overrides.
func (m *ExamModel) RecomputeMarks() {
	sum := 0.0
	for _, q := range m.Questions {
		sum += q.ExamQuestionMaxScore
	}

	m.ExamMaxTheoryScore = sum
	if m.ExamMaxTheoryScoreOverride != nil {
		m.ExamMaxTheoryScore = *m.ExamMaxTheoryScoreOverride
	}

	m.ExamTheoryPassMark = PercentOf(m.ExamMaxTheoryScore, DefaultPassPercent)
	if m.ExamTheoryPassMarkOverride != nil {
		m.ExamTheoryPassMark = *m.ExamTheoryPassMarkOverride
	}

	m.ExamMaxPracticalScore = MaxPracticalScore
	m.ExamFinalPassMark = PercentOf(m.ExamMaxTheoryScore+m.ExamMaxPracticalScore, DefaultPassPercent)
	if m.ExamFinalPassMarkOverride != nil {
		m.ExamFinalPassMark = *m.ExamFinalPassMarkOverride
	}
}
