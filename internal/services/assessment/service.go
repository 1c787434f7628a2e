// Package assessment coordinates one analysis request: input checks, demo
// short-circuit, the model call and normalization of its output.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"labelcheck/internal/domain"
	"labelcheck/internal/metrics"
	"labelcheck/internal/normalize"
	"labelcheck/internal/ports"
	"labelcheck/internal/prompt"
)

// Result is an assessment tagged with whether it came from the model.
type Result struct {
	Record domain.AssessmentRecord `json:"data"`
	Demo   bool                    `json:"demo"`
}

// ExtractResult is the first step of the two-step flow.
type ExtractResult struct {
	Data domain.ProductData `json:"data"`
	Demo bool               `json:"demo"`
}

type Service struct {
	model   ports.ModelClient
	schema  normalize.Schema
	timeout time.Duration
	log     *zap.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithTimeout(d time.Duration) Option { return func(s *Service) { s.timeout = d } }

func WithSchema(schema normalize.Schema) Option { return func(s *Service) { s.schema = schema } }

func WithLogger(log *zap.Logger) Option { return func(s *Service) { s.log = log } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

// New returns a Service. A nil model puts the service in demo mode.
func New(model ports.ModelClient, opts ...Option) *Service {
	s := &Service{
		model:   model,
		schema:  normalize.AssessmentSchema,
		timeout: 90 * time.Second,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	return s
}

func (s *Service) Live() bool { return s.model != nil }

// Analyze assesses uploaded packaging artifacts.
func (s *Service) Analyze(ctx context.Context, artifacts []ports.Artifact, lang domain.Language) (Result, error) {
	const flow = "analyze"
	if len(artifacts) == 0 {
		s.count(flow, "none", domain.ErrNoInputProvided)
		return Result{}, domain.ErrNoInputProvided
	}
	if !s.Live() {
		s.count(flow, "demo", nil)
		return Result{Record: DemoRecord(lang), Demo: true}, nil
	}
	media, err := readMedia(artifacts)
	if err != nil {
		s.count(flow, "live", err)
		return Result{}, err
	}
	raw, err := s.generate(ctx, flow, prompt.Build(prompt.KindImageAnalysis, lang), media)
	if err != nil {
		s.count(flow, "live", err)
		return Result{}, err
	}
	rec, tier, err := normalize.NormalizeWith(raw, s.schema)
	s.observe(flow, tier, err)
	s.count(flow, "live", err)
	if err != nil {
		return Result{}, err
	}
	return Result{Record: rec}, nil
}

// Extract returns the printed product data for user confirmation.
func (s *Service) Extract(ctx context.Context, artifacts []ports.Artifact, lang domain.Language) (ExtractResult, error) {
	const flow = "extract"
	if len(artifacts) == 0 {
		s.count(flow, "none", domain.ErrNoInputProvided)
		return ExtractResult{}, domain.ErrNoInputProvided
	}
	if !s.Live() {
		s.count(flow, "demo", nil)
		return ExtractResult{Data: DemoProduct(lang), Demo: true}, nil
	}
	media, err := readMedia(artifacts)
	if err != nil {
		s.count(flow, "live", err)
		return ExtractResult{}, err
	}
	raw, err := s.generate(ctx, flow, prompt.Build(prompt.KindExtraction, lang), media)
	if err != nil {
		s.count(flow, "live", err)
		return ExtractResult{}, err
	}
	data, tier, err := normalize.NormalizeProduct(raw)
	s.observe(flow, tier, err)
	s.count(flow, "live", err)
	if err != nil {
		return ExtractResult{}, err
	}
	return ExtractResult{Data: data}, nil
}

// AnalyzeConfirmed assesses product data the user has reviewed.
func (s *Service) AnalyzeConfirmed(ctx context.Context, data domain.ProductData, lang domain.Language) (Result, error) {
	const flow = "analyze_confirmed"
	if data.ProductName == "" && data.ProductNameZh == "" && len(data.Ingredients) == 0 && data.LabelText == "" {
		s.count(flow, "none", domain.ErrNoInputProvided)
		return Result{}, domain.ErrNoInputProvided
	}
	if !s.Live() {
		s.count(flow, "demo", nil)
		return Result{Record: DemoRecord(lang), Demo: true}, nil
	}
	raw, err := s.generate(ctx, flow, prompt.BuildConfirmed(data, lang), nil)
	if err != nil {
		s.count(flow, "live", err)
		return Result{}, err
	}
	rec, tier, err := normalize.NormalizeWith(raw, s.schema)
	s.observe(flow, tier, err)
	s.count(flow, "live", err)
	if err != nil {
		return Result{}, err
	}
	return Result{Record: rec}, nil
}

func (s *Service) generate(ctx context.Context, flow, text string, media []ports.Media) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	raw, err := s.model.Generate(ctx, text, media)
	elapsed := time.Since(start)
	s.metrics.ModelLatency.WithLabelValues(flow).Observe(elapsed.Seconds())
	if err != nil {
		s.log.Error("model call failed", zap.String("flow", flow), zap.Duration("elapsed", elapsed), zap.Error(err))
		return "", fmt.Errorf("model call: %w", err)
	}
	s.log.Info("model call", zap.String("flow", flow), zap.Duration("elapsed", elapsed), zap.Int("media", len(media)), zap.Int("response_bytes", len(raw)))
	return raw, nil
}

func (s *Service) observe(flow string, tier normalize.Tier, err error) {
	code := "ok"
	var mr *normalize.MalformedResponse
	if errors.As(err, &mr) {
		code = string(mr.Code)
		s.log.Warn("model response rejected",
			zap.String("flow", flow),
			zap.String("code", code),
			zap.String("field", mr.Field),
			zap.Stringer("tier", mr.Tier),
			zap.String("excerpt", mr.Excerpt))
	}
	s.metrics.Recoveries.WithLabelValues(tier.String(), code).Inc()
}

func (s *Service) count(flow, mode string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.metrics.Analyses.WithLabelValues(flow, mode, outcome).Inc()
}

func readMedia(artifacts []ports.Artifact) ([]ports.Media, error) {
	media := make([]ports.Media, 0, len(artifacts))
	for _, a := range artifacts {
		data, err := os.ReadFile(a.Path)
		if err != nil {
			return nil, fmt.Errorf("read artifact %s: %w", a.Name, err)
		}
		media = append(media, ports.Media{MIMEType: a.MIMEType, Data: data})
	}
	return media, nil
}
