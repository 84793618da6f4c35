package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CertificateData is what the renderer receives for one finalized pair.
type CertificateData struct {
	ExamID        uuid.UUID `json:"exam_id"`
	ExamTitle     string    `json:"exam_title"`
	BeltLevel     string    `json:"belt_level"`
	StudentID     uuid.UUID `json:"student_id"`
	TheoryScore   float64   `json:"theory_score"`
	Morality      float64   `json:"morality"`
	MethodTotal   float64   `json:"method_total"`
	Technique     float64   `json:"technique"`
	Physical      float64   `json:"physical"`
	Mental        float64   `json:"mental"`
	TotalScore    float64   `json:"total_score"`
	FinalPassMark float64   `json:"final_pass_mark"`
	Passed        bool      `json:"passed"`
	FinalizedAt   time.Time `json:"finalized_at"`
}

type Renderer interface {
	Render(ctx context.Context, data CertificateData) ([]byte, error)
}

// HTTPRenderer posts the certificate data as JSON and expects PDF bytes back.
type HTTPRenderer struct {
	URL     string
	Timeout time.Duration
}

func NewHTTPRenderer(url string) *HTTPRenderer {
	return &HTTPRenderer{URL: url, Timeout: 15 * time.Second}
}

func (r *HTTPRenderer) Render(ctx context.Context, data CertificateData) ([]byte, error) {
	timeout := r.Timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	a := fiber.Post(r.URL)
	a.JSONEncoder(sonic.Marshal)
	a.JSON(data)
	a.Set(fiber.HeaderAccept, "application/pdf")
	a.Timeout(timeout)

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("certificate renderer: %w", errs[0])
	}
	if code != fiber.StatusOK {
		return nil, fmt.Errorf("certificate renderer: status %d", code)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("certificate renderer: empty body")
	}
	return body, nil
}
