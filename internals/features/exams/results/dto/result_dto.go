package dto

type ListResultQuery struct {
	ExamID    string `query:"exam_id" validate:"omitempty,uuid"`
	StudentID string `query:"student_id" validate:"omitempty,uuid"`
	Passed    *bool  `query:"passed"`
}
