package dto

// BoundedScore fields are pointers so a missing value fails "required" instead of reading as 0.
type RecordPracticalRequest struct {
	Morality  *float64 `json:"morality" validate:"required,gte=0,lte=100"`
	Method    *float64 `json:"method" validate:"required,gte=0,lte=100"`
	Technique *float64 `json:"technique" validate:"required,gte=0,lte=100"`
	Physical  *float64 `json:"physical" validate:"required,gte=0,lte=100"`
	Mental    *float64 `json:"mental" validate:"required,gte=0,lte=100"`
	Note      *string  `json:"note,omitempty" validate:"omitempty,max=2000"`
}

// Scores is the validated five-axis set.
type Scores struct {
	Morality  float64
	Method    float64
	Technique float64
	Physical  float64
	Mental    float64
}

func (r RecordPracticalRequest) Scores() Scores {
	return Scores{
		Morality:  *r.Morality,
		Method:    *r.Method,
		Technique: *r.Technique,
		Physical:  *r.Physical,
		Mental:    *r.Mental,
	}
}

type ListPracticalQuery struct {
	ExamID    string `query:"exam_id" validate:"omitempty,uuid"`
	StudentID string `query:"student_id" validate:"omitempty,uuid"`
}
