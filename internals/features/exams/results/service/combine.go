package service

import attemptService "academy_backend/internals/features/exams/attempts/service"

// Practical is the five-axis practical score set.
type Practical struct {
	Morality  float64
	Method    float64
	Technique float64
	Physical  float64
	Mental    float64
}

type Outcome struct {
	TheoryScore    float64
	TheoryPassMark float64
	TheoryPass     bool
	MethodTotal    float64
	TotalScore     float64
	FinalPassMark  float64
	Passed         bool
}

// Combine folds the theory score into the method axis and applies both pass rules.
func Combine(theory, theoryPassMark float64, p Practical, finalPassMark float64) Outcome {
	methodTotal := theory + p.Method
	total := p.Morality + methodTotal + p.Technique + p.Physical + p.Mental
	theoryPass := attemptService.TheoryPass(theory, theoryPassMark)

	return Outcome{
		TheoryScore:    theory,
		TheoryPassMark: theoryPassMark,
		TheoryPass:     theoryPass,
		MethodTotal:    methodTotal,
		TotalScore:     total,
		FinalPassMark:  finalPassMark,
		Passed:         theoryPass && total >= finalPassMark,
	}
}
