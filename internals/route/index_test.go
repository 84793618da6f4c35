package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"academy_backend/internals/configs"
	"academy_backend/internals/constants"
	certificateService "academy_backend/internals/features/exams/certificates/service"
	helper "academy_backend/internals/helpers"
	"academy_backend/internals/testutil"
)

type envelope struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Data       json.RawMessage     `json:"data"`
	Errors     map[string][]string `json:"errors"`
	Pagination struct {
		Count int `json:"count"`
	} `json:"pagination"`
}

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	configs.JWTSecret = testutil.JWTSecret
	db := testutil.NewDB(t)
	app := fiber.New(fiber.Config{ErrorHandler: helper.ErrorHandler})
	SetupRoutes(app, db, certificateService.NewCertificateService(db, nil, nil))
	return app
}

func call(t *testing.T, app *fiber.App, method, path, token string, body any) (int, envelope, string) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(raw, &env)
	}
	return resp.StatusCode, env, string(raw)
}

func decode(t *testing.T, raw json.RawMessage, dst any) {
	t.Helper()
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("decode data: %v (%s)", err, raw)
	}
}

func TestHealth(t *testing.T) {
	app := newApp(t)
	code, _, body := call(t, app, http.MethodGet, "/health", "", nil)
	if code != fiber.StatusOK || !strings.Contains(body, `"database":"Connected"`) {
		t.Fatalf("health = %d %s", code, body)
	}
}

func TestAuthGates(t *testing.T) {
	app := newApp(t)
	student := testutil.Token(t, uuid.New(), constants.RoleStudent, "white")

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"no token on user api", "/api/u/exams", "", fiber.StatusUnauthorized},
		{"garbage token", "/api/u/exams", "not-a-jwt", fiber.StatusUnauthorized},
		{"student on admin api", "/api/a/exams", student, fiber.StatusForbidden},
		{"student on user api", "/api/u/exams", student, fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, body := call(t, app, http.MethodGet, tt.path, tt.token, nil)
			if code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", code, tt.want, body)
			}
		})
	}
}

func TestCreateExamValidation(t *testing.T) {
	app := newApp(t)
	staff := testutil.Token(t, uuid.New(), constants.RoleInstructor, "")

	code, env, body := call(t, app, http.MethodPost, "/api/a/exams", staff, map[string]any{
		"title":              "Yellow belt theory",
		"belt_level":         "yellow",
		"time_limit_minutes": -5,
	})
	if code != fiber.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 (%s)", code, body)
	}
	if _, ok := env.Errors["time_limit_minutes"]; !ok {
		t.Fatalf("errors = %v, want time_limit_minutes", env.Errors)
	}
}

// Walks one student from registration to certificate over HTTP.
func TestExamLifecycleOverHTTP(t *testing.T) {
	app := newApp(t)
	staffID, studentID, otherID := uuid.New(), uuid.New(), uuid.New()
	staff := testutil.Token(t, staffID, constants.RoleAdmin, "")
	student := testutil.Token(t, studentID, constants.RoleStudent, "white")
	other := testutil.Token(t, otherID, constants.RoleStudent, "white")

	questions := make([]map[string]any, 0, 10)
	for i := 0; i < 10; i++ {
		questions = append(questions, map[string]any{
			"type":           "multiple_choice",
			"prompt":         "Question " + string(rune('A'+i)),
			"choices":        []string{"right", "wrong"},
			"correct_choice": 0,
		})
	}
	code, env, body := call(t, app, http.MethodPost, "/api/a/exams", staff, map[string]any{
		"title":              "White belt theory",
		"belt_level":         "white",
		"time_limit_minutes": 30,
		"questions":          questions,
		"publish":            true,
	})
	if code != fiber.StatusCreated {
		t.Fatalf("create exam = %d %s", code, body)
	}
	var exam struct {
		ExamID    uuid.UUID `json:"exam_id"`
		Questions []struct {
			ID uuid.UUID `json:"exam_question_id"`
		} `json:"questions"`
	}
	decode(t, env.Data, &exam)
	if len(exam.Questions) != 10 {
		t.Fatalf("questions = %d, want 10", len(exam.Questions))
	}
	examPath := "/exams/" + exam.ExamID.String()
	pairPath := "/api/a" + examPath + "/students/" + studentID.String()

	code, env, body = call(t, app, http.MethodGet, "/api/u/exams", student, nil)
	if code != fiber.StatusOK || env.Pagination.Count != 1 {
		t.Fatalf("student list = %d %s", code, body)
	}

	// register twice: created then idempotent
	code, env, body = call(t, app, http.MethodPost, "/api/u"+examPath+"/registrations", student, nil)
	if code != fiber.StatusCreated {
		t.Fatalf("register = %d %s", code, body)
	}
	var reg struct {
		ID uuid.UUID `json:"exam_registration_id"`
	}
	decode(t, env.Data, &reg)
	if code, _, body = call(t, app, http.MethodPost, "/api/u"+examPath+"/registrations", student, nil); code != fiber.StatusOK {
		t.Fatalf("second register = %d %s", code, body)
	}

	// no approval yet
	if code, _, body = call(t, app, http.MethodPost, "/api/u"+examPath+"/attempts", student, nil); code != fiber.StatusForbidden {
		t.Fatalf("start before approval = %d %s", code, body)
	}
	if code, _, body = call(t, app, http.MethodPost, "/api/a/registrations/"+reg.ID.String()+"/approve", staff, nil); code != fiber.StatusOK {
		t.Fatalf("approve = %d %s", code, body)
	}

	code, env, body = call(t, app, http.MethodPost, "/api/u"+examPath+"/attempts", student, nil)
	if code != fiber.StatusOK {
		t.Fatalf("start = %d %s", code, body)
	}
	if strings.Contains(body, "correct_choice") {
		t.Fatalf("attempt view leaks the answer key: %s", body)
	}
	var attempt struct {
		AttemptID uuid.UUID `json:"attempt_id"`
	}
	decode(t, env.Data, &attempt)

	answers := make([]map[string]any, 0, len(exam.Questions))
	for i, q := range exam.Questions {
		choice := 1
		if i < 7 {
			choice = 0
		}
		answers = append(answers, map[string]any{"question_id": q.ID, "choice": choice})
	}
	submitPath := "/api/u/attempts/" + attempt.AttemptID.String() + "/submit"
	code, env, body = call(t, app, http.MethodPost, submitPath, student, map[string]any{"answers": answers})
	if code != fiber.StatusOK {
		t.Fatalf("submit = %d %s", code, body)
	}
	var summary struct {
		TheoryScore float64 `json:"theory_score"`
		TheoryPass  bool    `json:"theory_pass"`
	}
	decode(t, env.Data, &summary)
	if summary.TheoryScore != 7 || !summary.TheoryPass {
		t.Fatalf("summary = %+v, want 7 and pass", summary)
	}
	if code, _, body = call(t, app, http.MethodPost, submitPath, student, map[string]any{"answers": answers}); code != fiber.StatusConflict {
		t.Fatalf("second submit = %d %s", code, body)
	}

	code, env, body = call(t, app, http.MethodPost, pairPath+"/practical", staff, map[string]any{
		"morality": 70, "method": 75, "technique": 60, "physical": 50,
	})
	if code != fiber.StatusUnprocessableEntity || len(env.Errors["mental"]) == 0 {
		t.Fatalf("practical without mental = %d %s", code, body)
	}
	code, _, body = call(t, app, http.MethodPost, pairPath+"/practical", staff, map[string]any{
		"morality": 101, "method": 75, "technique": 60, "physical": 50, "mental": 45,
	})
	if code != fiber.StatusUnprocessableEntity {
		t.Fatalf("practical out of range = %d %s", code, body)
	}
	code, _, body = call(t, app, http.MethodPost, pairPath+"/practical", staff, map[string]any{
		"morality": 70, "method": 75, "technique": 60, "physical": 50, "mental": 45,
	})
	if code != fiber.StatusCreated {
		t.Fatalf("practical = %d %s", code, body)
	}

	code, env, body = call(t, app, http.MethodPost, pairPath+"/finalize", staff, nil)
	if code != fiber.StatusCreated {
		t.Fatalf("finalize = %d %s", code, body)
	}
	var result struct {
		TotalScore float64 `json:"exam_result_total_score"`
		Passed     bool    `json:"exam_result_passed"`
	}
	decode(t, env.Data, &result)
	if result.TotalScore != 307 || !result.Passed {
		t.Fatalf("result = %+v, want 307 and passed", result)
	}
	if code, _, body = call(t, app, http.MethodPost, pairPath+"/finalize", staff, nil); code != fiber.StatusConflict {
		t.Fatalf("second finalize = %d %s", code, body)
	}

	var exists struct {
		Exists bool `json:"exists"`
	}
	certPath := "/api/u/certificates/" + exam.ExamID.String()
	code, env, body = call(t, app, http.MethodGet, certPath, student, nil)
	if code != fiber.StatusOK {
		t.Fatalf("certificate = %d %s", code, body)
	}
	decode(t, env.Data, &exists)
	if !exists.Exists {
		t.Fatalf("certificate should exist after finalize")
	}

	code, env, body = call(t, app, http.MethodGet, certPath, other, nil)
	if code != fiber.StatusOK {
		t.Fatalf("other certificate = %d %s", code, body)
	}
	decode(t, env.Data, &exists)
	if exists.Exists {
		t.Fatalf("unfinalized student must not have a certificate")
	}

	if code, _, body = call(t, app, http.MethodGet, certPath+"/pdf", student, nil); code != fiber.StatusNotImplemented {
		t.Fatalf("pdf without renderer = %d %s", code, body)
	}

	code, env, body = call(t, app, http.MethodGet, "/api/u/results", student, nil)
	if code != fiber.StatusOK || env.Pagination.Count != 1 {
		t.Fatalf("own results = %d %s", code, body)
	}
	code, env, body = call(t, app, http.MethodGet, "/api/u/exams", student, nil)
	if code != fiber.StatusOK || env.Pagination.Count != 0 {
		t.Fatalf("finalized exam still listed = %d %s", code, body)
	}
}
