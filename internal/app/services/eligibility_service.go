package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/exchangeintake/internal/app/models/dto"
	"github.com/yigit/exchangeintake/internal/pkg/apperrors"
	"github.com/yigit/exchangeintake/internal/pkg/catalog"
	"github.com/yigit/exchangeintake/internal/pkg/eligibility"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// EligibilityService answers catalog and course-eligibility questions
type EligibilityService interface {
	GetCatalog(ctx context.Context, refresh bool) (*dto.CatalogResponse, error)
	GetCountries(ctx context.Context) (*dto.CountriesResponse, error)
	GetUniversities(ctx context.Context, country string) (*dto.UniversitiesResponse, error)
	Evaluate(ctx context.Context, req dto.EvaluateRequest) (*dto.EvaluateResponse, error)
	Recommend(ctx context.Context, req dto.RecommendRequest) (*dto.RecommendResponse, error)
	EvaluateCourses(ctx context.Context, codes []string, country, university string) ([]eligibility.EvaluatedCourse, error)
}

type eligibilityServiceImpl struct {
	provider catalog.Provider
	logger   zerolog.Logger
}

// NewEligibilityService creates an eligibility service over a catalog provider
func NewEligibilityService(provider catalog.Provider, logger zerolog.Logger) EligibilityService {
	return &eligibilityServiceImpl{
		provider: provider,
		logger:   logger,
	}
}

func (s *eligibilityServiceImpl) snapshot(ctx context.Context) ([]eligibility.CourseMappingRow, error) {
	rows, err := s.provider.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: course catalog: %v", apperrors.ErrUpstreamUnavailable, err)
	}
	return rows, nil
}

// GetCatalog returns the current snapshot, refetching first when refresh is set
func (s *eligibilityServiceImpl) GetCatalog(ctx context.Context, refresh bool) (*dto.CatalogResponse, error) {
	var (
		rows []eligibility.CourseMappingRow
		err  error
	)
	if refresh {
		rows, err = s.provider.Refresh(ctx)
		if err != nil {
			err = fmt.Errorf("%w: course catalog: %v", apperrors.ErrUpstreamUnavailable, err)
		}
	} else {
		rows, err = s.snapshot(ctx)
	}
	if err != nil {
		return nil, err
	}

	info := s.provider.Info()
	return &dto.CatalogResponse{
		Rows:      rows,
		Count:     len(rows),
		Source:    info.Source,
		FetchedAt: info.FetchedAt,
		Fallback:  info.Fallback,
	}, nil
}

// GetCountries lists destination countries
func (s *eligibilityServiceImpl) GetCountries(ctx context.Context) (*dto.CountriesResponse, error) {
	rows, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.CountriesResponse{Countries: eligibility.Countries(rows)}, nil
}

// GetUniversities lists the partner universities of country
func (s *eligibilityServiceImpl) GetUniversities(ctx context.Context, country string) (*dto.UniversitiesResponse, error) {
	country = strings.TrimSpace(country)
	if country == "" {
		return nil, apperrors.NewBadRequestError("country is required")
	}
	rows, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.UniversitiesResponse{
		Country:      country,
		Universities: eligibility.Universities(rows, country),
	}, nil
}

// EvaluateCourses checks each code against the mappings of one university
func (s *eligibilityServiceImpl) EvaluateCourses(ctx context.Context, codes []string, country, university string) ([]eligibility.EvaluatedCourse, error) {
	ctx, span := otel.Tracer("services.eligibility").Start(ctx, "eligibility.evaluate")
	defer span.End()
	span.SetAttributes(
		attribute.String("university", university),
		attribute.Int("codes", len(codes)),
	)

	rows, err := s.snapshot(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return eligibility.Evaluate(codes, rows, eligibility.Filter{Country: country, University: university}), nil
}

// Evaluate answers the eligibility check endpoint
func (s *eligibilityServiceImpl) Evaluate(ctx context.Context, req dto.EvaluateRequest) (*dto.EvaluateResponse, error) {
	if strings.TrimSpace(req.University) == "" {
		return nil, apperrors.NewBadRequestError("university is required")
	}
	evaluations, err := s.EvaluateCourses(ctx, req.Codes, req.Country, req.University)
	if err != nil {
		return nil, err
	}
	return &dto.EvaluateResponse{
		Evaluations: evaluations,
		Summary:     eligibility.Summarise(evaluations),
	}, nil
}

// Recommend ranks universities by how well they cover the requested codes
func (s *eligibilityServiceImpl) Recommend(ctx context.Context, req dto.RecommendRequest) (*dto.RecommendResponse, error) {
	ctx, span := otel.Tracer("services.eligibility").Start(ctx, "eligibility.recommend")
	defer span.End()
	span.SetAttributes(attribute.Int("codes", len(req.Codes)))

	rows, err := s.snapshot(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	recs := eligibility.Recommend(req.Codes, rows, eligibility.Options{Limit: req.Limit})
	s.logger.Debug().Int("codes", len(req.Codes)).Int("universities", len(recs)).Msg("Recommendations computed")
	return &dto.RecommendResponse{Recommendations: recs}, nil
}
