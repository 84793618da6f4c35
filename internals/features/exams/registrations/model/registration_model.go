// file: internals/features/exams/registrations/model/registration_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
)

/*
1 row = 1 exam × 1 student.
A repeated register call hits idx_exam_registrations_pair and returns the stored row.
*/
type ExamRegistrationModel struct {
	ExamRegistrationID        uuid.UUID          `gorm:"column:exam_registration_id;type:uuid;primaryKey" json:"exam_registration_id"`
	ExamRegistrationExamID    uuid.UUID          `gorm:"column:exam_registration_exam_id;type:uuid;not null;uniqueIndex:idx_exam_registrations_pair,priority:1" json:"exam_registration_exam_id"`
	ExamRegistrationStudentID uuid.UUID          `gorm:"column:exam_registration_student_id;type:uuid;not null;uniqueIndex:idx_exam_registrations_pair,priority:2;index" json:"exam_registration_student_id"`
	ExamRegistrationStatus    RegistrationStatus `gorm:"column:exam_registration_status;size:16;not null;index" json:"exam_registration_status"`

	ExamRegistrationRequestedAt time.Time  `gorm:"column:exam_registration_requested_at;not null" json:"exam_registration_requested_at"`
	ExamRegistrationApprovedAt  *time.Time `gorm:"column:exam_registration_approved_at" json:"exam_registration_approved_at,omitempty"`
	ExamRegistrationRejectedAt  *time.Time `gorm:"column:exam_registration_rejected_at" json:"exam_registration_rejected_at,omitempty"`
	ExamRegistrationDecidedBy   *uuid.UUID `gorm:"column:exam_registration_decided_by;type:uuid" json:"exam_registration_decided_by,omitempty"`

	ExamRegistrationUpdatedAt time.Time `gorm:"column:exam_registration_updated_at;autoUpdateTime" json:"exam_registration_updated_at"`
}

func (ExamRegistrationModel) TableName() string { return "exam_registrations" }

func (m *ExamRegistrationModel) BeforeCreate(tx *gorm.DB) error {
	if m.ExamRegistrationID == uuid.Nil {
		m.ExamRegistrationID = uuid.New()
	}
	return nil
}

func (m *ExamRegistrationModel) IsApproved() bool {
	return m.ExamRegistrationStatus == RegistrationApproved
}
