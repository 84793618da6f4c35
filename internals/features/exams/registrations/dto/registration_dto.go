package dto

type ListRegistrationQuery struct {
	ExamID    string `query:"exam_id" validate:"omitempty,uuid"`
	StudentID string `query:"student_id" validate:"omitempty,uuid"`
	Status    string `query:"status" validate:"omitempty,oneof=pending approved rejected"`
}
