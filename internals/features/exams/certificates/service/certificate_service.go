// file: internals/features/exams/certificates/service/certificate_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"academy_backend/internals/configs"
	catalogService "academy_backend/internals/features/exams/catalog/service"
	resultModel "academy_backend/internals/features/exams/results/model"
	resultService "academy_backend/internals/features/exams/results/service"
	helper "academy_backend/internals/helpers"
)

// Cache is the slice of *redis.Client the gate needs.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

type CertificateService struct {
	DB       *gorm.DB
	Cache    Cache    // nil disables caching
	TTL      time.Duration
	Renderer Renderer // nil answers 501
}

func NewCertificateService(db *gorm.DB, cache Cache, renderer Renderer) *CertificateService {
	return &CertificateService{
		DB:       db,
		Cache:    cache,
		TTL:      configs.CertificateCacheTTL,
		Renderer: renderer,
	}
}

func cacheKey(examID, studentID uuid.UUID) string {
	return fmt.Sprintf("cert:exists:%s:%s", examID, studentID)
}

// Exists reports whether the pair holds a final result. Only positive
// answers are cached since a result is never removed.
func (s *CertificateService) Exists(ctx context.Context, examID, studentID uuid.UUID) (bool, error) {
	key := cacheKey(examID, studentID)
	if s.Cache != nil {
		v, err := s.Cache.Get(ctx, key).Result()
		switch {
		case err == nil && v == "1":
			return true, nil
		case err != nil && !errors.Is(err, redis.Nil):
			log.Printf("[CertificateService] cache get %s: %v", key, err)
		}
	}

	ok, err := resultModel.Exists(s.DB.WithContext(ctx), examID, studentID)
	if err != nil {
		return false, err
	}
	if ok && s.Cache != nil {
		if err := s.Cache.Set(ctx, key, "1", s.TTL).Err(); err != nil {
			log.Printf("[CertificateService] cache set %s: %v", key, err)
		}
	}
	return ok, nil
}

// Data assembles the renderer payload. 404 when the pair is not finalized.
func (s *CertificateService) Data(ctx context.Context, examID, studentID uuid.UUID) (*CertificateData, error) {
	res, err := resultService.Find(ctx, s.DB, examID, studentID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, helper.ErrNotFound("certificate not available")
	}
	exam, err := catalogService.LoadHeader(ctx, s.DB, examID)
	if err != nil {
		return nil, err
	}
	return &CertificateData{
		ExamID:        examID,
		ExamTitle:     exam.ExamTitle,
		BeltLevel:     exam.ExamBeltLevel,
		StudentID:     studentID,
		TheoryScore:   res.ExamResultTheoryScore,
		Morality:      res.ExamResultMorality,
		MethodTotal:   res.ExamResultMethodTotal,
		Technique:     res.ExamResultTechnique,
		Physical:      res.ExamResultPhysical,
		Mental:        res.ExamResultMental,
		TotalScore:    res.ExamResultTotalScore,
		FinalPassMark: res.ExamResultFinalPassMark,
		Passed:        res.ExamResultPassed,
		FinalizedAt:   res.ExamResultFinalizedAt,
	}, nil
}

func (s *CertificateService) Render(ctx context.Context, examID, studentID uuid.UUID) ([]byte, error) {
	data, err := s.Data(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}
	if s.Renderer == nil {
		return nil, helper.ErrNotImplemented("certificate renderer not configured")
	}
	pdf, err := s.Renderer.Render(ctx, *data)
	if err != nil {
		return nil, err
	}
	log.Printf("[CertificateService] rendered exam=%s student=%s bytes=%d", examID, studentID, len(pdf))
	return pdf, nil
}
