// Package testutil builds throwaway databases, tokens and exam fixtures for package tests.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	database "academy_backend/internals/databases"
	attemptModel "academy_backend/internals/features/exams/attempts/model"
	attemptService "academy_backend/internals/features/exams/attempts/service"
	catalogDTO "academy_backend/internals/features/exams/catalog/dto"
	catalogModel "academy_backend/internals/features/exams/catalog/model"
	catalogService "academy_backend/internals/features/exams/catalog/service"
	registrationService "academy_backend/internals/features/exams/registrations/service"
)

const JWTSecret = "test-secret"

// NewDB opens a migrated SQLite database in the test's temp dir. One
// connection keeps concurrent callers serialized the way row locks would.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exam.db")
	db, err := gorm.Open(sqlite.Open(path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// PostgresDB opens EXAM_TEST_DSN and migrates it, or skips the test when unset.
// Rows are keyed by fresh uuids so runs can share one database.
func PostgresDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("EXAM_TEST_DSN")
	if dsn == "" {
		t.Skip("EXAM_TEST_DSN not set")
	}
	db, err := database.Open(dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Token signs an HS256 access token with the claims AuthJWT reads.
func Token(t testing.TB, userID uuid.UUID, role, belt string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":         userID.String(),
		"role":       role,
		"belt_level": belt,
		"exp":        time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(JWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

type ExamFixture struct {
	Belt           string
	MultipleChoice int     // one point each, correct choice 0
	Essays         int     // each worth EssayMax
	EssayMax       float64 // defaults to 5
	TimeLimit      int
	Draft          bool
}

// CreateExam stores an exam through ExamService so marks are derived the normal way.
func CreateExam(t testing.TB, db *gorm.DB, f ExamFixture) *catalogModel.ExamModel {
	t.Helper()
	if f.Belt == "" {
		f.Belt = "white"
	}
	if f.EssayMax == 0 {
		f.EssayMax = 5
	}

	req := catalogDTO.CreateExamRequest{
		Title:            fmt.Sprintf("%s belt theory", f.Belt),
		BeltLevel:        f.Belt,
		TimeLimitMinutes: f.TimeLimit,
		Publish:          !f.Draft,
	}
	for i := 0; i < f.MultipleChoice; i++ {
		correct := 0
		req.Questions = append(req.Questions, catalogDTO.QuestionInput{
			Type:          catalogModel.QuestionTypeMultipleChoice,
			Prompt:        fmt.Sprintf("question %d", i+1),
			Choices:       []string{"a", "b", "c"},
			CorrectChoice: &correct,
		})
	}
	for i := 0; i < f.Essays; i++ {
		max := f.EssayMax
		req.Questions = append(req.Questions, catalogDTO.QuestionInput{
			Type:     catalogModel.QuestionTypeEssay,
			Prompt:   fmt.Sprintf("essay %d", i+1),
			MaxScore: &max,
		})
	}

	exam, err := catalogService.NewExamService(db).Create(context.Background(), uuid.New(), req)
	if err != nil {
		t.Fatalf("create exam: %v", err)
	}
	loaded, err := catalogService.Load(context.Background(), db, exam.ExamID)
	if err != nil {
		t.Fatalf("reload exam: %v", err)
	}
	return loaded
}

// Approve registers the student and approves the registration.
func Approve(t testing.TB, db *gorm.DB, examID, studentID uuid.UUID) {
	t.Helper()
	svc := registrationService.NewRegistrationService(db)
	reg, _, err := svc.Register(context.Background(), examID, studentID)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Approve(context.Background(), reg.ExamRegistrationID, uuid.New()); err != nil {
		t.Fatalf("approve: %v", err)
	}
}

// Answers answers every multiple-choice question, the first `correct` of them right.
// Essays get a short text.
func Answers(exam *catalogModel.ExamModel, correct int) []attemptModel.AnswerInput {
	out := make([]attemptModel.AnswerInput, 0, len(exam.Questions))
	right := 0
	for _, q := range exam.Questions {
		switch q.ExamQuestionType {
		case catalogModel.QuestionTypeMultipleChoice:
			choice := 1
			if right < correct {
				choice = 0
				right++
			}
			out = append(out, attemptModel.AnswerInput{QuestionID: q.ExamQuestionID, Choice: &choice})
		case catalogModel.QuestionTypeEssay:
			text := "kihon before kata"
			out = append(out, attemptModel.AnswerInput{QuestionID: q.ExamQuestionID, Text: &text})
		}
	}
	return out
}

func Float(v float64) *float64 { return &v }

// WantStatus fails unless err is a *fiber.Error with the given code.
func WantStatus(t testing.TB, err error, code int) {
	t.Helper()
	var fe *fiber.Error
	if !errors.As(err, &fe) {
		t.Fatalf("want status %d, got %v", code, err)
	}
	if fe.Code != code {
		t.Fatalf("want status %d, got %d (%s)", code, fe.Code, fe.Message)
	}
}

// SubmitTheory approves the student, starts an attempt and submits it with
// `correct` right multiple-choice answers.
func SubmitTheory(t testing.TB, db *gorm.DB, exam *catalogModel.ExamModel, studentID uuid.UUID, correct int) *attemptModel.ExamAttemptModel {
	t.Helper()
	Approve(t, db, exam.ExamID, studentID)
	svc := attemptService.NewAttemptService(db)
	svc.Grace = 30 * time.Second
	ctx := context.Background()

	a, err := svc.Start(ctx, exam.ExamID, studentID)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	out, err := svc.Submit(ctx, a.ExamAttemptID, studentID, Answers(exam, correct), attemptService.AntiCheat{})
	if err != nil {
		t.Fatalf("submit attempt: %v", err)
	}
	return out
}
