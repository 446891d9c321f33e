package scan

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/wudi/cardkit/catalog"
	"github.com/wudi/cardkit/detect"
	"github.com/wudi/cardkit/imaging"
	"github.com/wudi/cardkit/nameplate"
	"github.com/wudi/cardkit/normalize"
	"github.com/wudi/cardkit/observability"
	"github.com/wudi/cardkit/ocr"
	"github.com/wudi/cardkit/rectify"
)

// Matcher is the catalog capability the orchestrator consumes.
// *catalog.Matcher satisfies it.
type Matcher interface {
	Match(ctx context.Context, name string) (*catalog.Card, error)
	Search(ctx context.Context, query string, limit int) ([]catalog.Card, error)
}

const (
	// DefaultMinConfidence is the OCR confidence floor below which text is
	// treated as unrecognized.
	DefaultMinConfidence = 0.4
	// DefaultMaxDimension downscales larger photos before geometric work.
	DefaultMaxDimension = 1600
	// DefaultWorkers bounds concurrent slot processing for a binder page.
	// OCR and warping are CPU-bound and lookups are throttled anyway.
	DefaultWorkers = 3
	// defaultVarianceFloor rejects near-uniform rectified cells (blank
	// photos, empty sleeves, glare) before wasting an OCR pass.
	defaultVarianceFloor = 100.0
	// DefaultSearchLimit caps manual-override search results.
	DefaultSearchLimit = 20
)

// Orchestrator drives the identification pipeline. It is stateless across
// requests; the shared limiter and cache live inside the Matcher.
type Orchestrator struct {
	locator       *detect.Locator
	engine        ocr.Engine
	matcher       Matcher
	log           observability.Logger
	tracer        observability.Tracer
	metrics       observability.Metrics
	band          nameplate.Band
	langs         []string
	minConfidence float64
	maxDim        int
	workers       int
	varianceFloor float64
	searchLimit   int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLocator substitutes a tuned quad locator.
func WithLocator(l *detect.Locator) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.locator = l
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(log observability.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

// WithTracer attaches a tracer for per-request pipeline spans.
func WithTracer(tr observability.Tracer) Option {
	return func(o *Orchestrator) {
		if tr != nil {
			o.tracer = tr
		}
	}
}

// WithMetrics attaches a metrics sink.
func WithMetrics(m observability.Metrics) Option {
	return func(o *Orchestrator) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithPlateBand overrides the title-band crop rectangle.
func WithPlateBand(b nameplate.Band) Option {
	return func(o *Orchestrator) { o.band = b }
}

// WithLanguages sets OCR language hints.
func WithLanguages(langs ...string) Option {
	return func(o *Orchestrator) { o.langs = append([]string(nil), langs...) }
}

// WithMinConfidence sets the OCR confidence floor.
func WithMinConfidence(min float64) Option {
	return func(o *Orchestrator) { o.minConfidence = min }
}

// WithMaxDimension sets the pre-processing downscale bound.
func WithMaxDimension(px int) Option {
	return func(o *Orchestrator) { o.maxDim = px }
}

// WithWorkers bounds binder-slot parallelism.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// New builds an Orchestrator around an OCR engine and a catalog matcher.
func New(engine ocr.Engine, matcher Matcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		engine:        engine,
		matcher:       matcher,
		log:           observability.NopLogger{},
		tracer:        observability.NopTracer(),
		metrics:       observability.NopMetrics{},
		band:          nameplate.DefaultBand,
		minConfidence: DefaultMinConfidence,
		maxDim:        DefaultMaxDimension,
		workers:       DefaultWorkers,
		varianceFloor: defaultVarianceFloor,
		searchLimit:   DefaultSearchLimit,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.locator == nil {
		o.locator = detect.NewLocator(detect.Config{}, o.log)
	}
	return o
}

// Single scans a one-card photo. The request fails only for undecodable
// bytes or cancellation; every pipeline failure lands in the slot status.
func (o *Orchestrator) Single(ctx context.Context, data []byte) (Slot, error) {
	ctx, span := o.tracer.StartSpan(ctx, "scan.single")
	defer span.Finish()
	start := time.Now()

	raw, err := imaging.Decode(data)
	if err != nil {
		err = fmt.Errorf("scan single: %w", err)
		span.SetError(err)
		return Slot{}, err
	}
	img := imaging.Downscale(raw.Bitmap, o.maxDim)

	quad, found := o.locator.Single(img)
	slot := Slot{Position: 0, Status: StatusNoQuad}
	if found {
		q := quad
		slot.Quad = &q
	}
	if err := o.process(ctx, img, quad, found, &slot); err != nil {
		span.SetError(err)
		return Slot{}, err
	}
	span.SetTag("status", string(slot.Status))
	o.metrics.Observe(observability.MetricScanTime, time.Since(start).Seconds())
	if slot.Status == StatusMatched {
		o.metrics.Incr(observability.MetricSlotsMatched, 1)
	}
	o.log.Info("scan: single complete",
		observability.String("status", string(slot.Status)),
		observability.String("ocr_text", slot.OCRText))
	return slot, nil
}

// Binder scans a 3x3 binder page. The result always holds exactly nine
// slots in row-major order; slots without a detected card carry
// StatusNoQuad. Slot processing runs on a bounded worker pool, but output
// order is fixed regardless of completion order.
func (o *Orchestrator) Binder(ctx context.Context, data []byte) ([]Slot, error) {
	ctx, span := o.tracer.StartSpan(ctx, "scan.binder")
	defer span.Finish()
	start := time.Now()

	raw, err := imaging.Decode(data)
	if err != nil {
		err = fmt.Errorf("scan binder: %w", err)
		span.SetError(err)
		return nil, err
	}
	img := imaging.Downscale(raw.Bitmap, o.maxDim)

	quads := o.locator.Binder(img)
	found := 0
	for _, q := range quads {
		if q != nil {
			found++
		}
	}
	o.metrics.Incr(observability.MetricQuadCount, found)

	slots := make([]Slot, detect.GridSlots)
	for i := range slots {
		slots[i] = Slot{Position: i, Status: StatusNoQuad}
	}

	sem := make(chan struct{}, o.workers)
	var wg sync.WaitGroup
	for i, q := range quads {
		if q == nil {
			continue
		}
		slots[i].Quad = q
		wg.Add(1)
		go func(i int, q detect.Quad) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			// Cancellation surfaces via ctx after Wait; a cancelled
			// slot's partial state is discarded with the request.
			_ = o.process(ctx, img, q, true, &slots[i])
		}(i, *q)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		span.SetError(err)
		return nil, err
	}
	matched := 0
	for i := range slots {
		if slots[i].Status == StatusMatched {
			matched++
		}
	}
	span.SetTag("matched", matched)
	o.metrics.Observe(observability.MetricScanTime, time.Since(start).Seconds())
	o.metrics.Incr(observability.MetricSlotsMatched, matched)
	o.log.Info("scan: binder complete", observability.Int("matched", matched))
	return slots, nil
}

// process runs one slot through rectification, recognition, normalization
// and matching. Every failure is recorded on the slot; the only returned
// errors are context cancellation.
func (o *Orchestrator) process(ctx context.Context, img image.Image, quad detect.Quad, detected bool, slot *Slot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	card, err := rectify.Card(img, quad)
	if err != nil {
		// Degenerate corner geometry is a detection failure.
		o.log.Debug("scan: rectification failed", observability.Error("err", err))
		slot.setStatus(StatusNoQuad)
		return nil
	}

	// A near-uniform cell holds no card face: an empty sleeve, glare, or a
	// blank full-frame fallback.
	if imaging.Variance(imaging.Gray(card)) < o.varianceFloor {
		slot.setStatus(StatusNoQuad)
		return nil
	}

	plate := nameplate.Crop(card, o.band)
	in, err := ocr.Prepare(plate, o.langs)
	if err != nil {
		o.log.Warn("scan: plate preparation failed", observability.Error("err", err))
		slot.setStatus(StatusLowConfidence)
		return nil
	}

	ocrStart := time.Now()
	res, err := o.engine.Recognize(ctx, in)
	o.metrics.Observe(observability.MetricOCRTime, time.Since(ocrStart).Seconds())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		o.log.Warn("scan: recognition failed", observability.Error("err", err))
		slot.setStatus(StatusLowConfidence)
		return nil
	}
	slot.OCRText = res.Text
	slot.Confidence = res.Confidence

	if strings.TrimSpace(res.Text) == "" || res.Confidence < o.minConfidence {
		if !detected && strings.TrimSpace(res.Text) == "" {
			// Nothing detected and nothing read: the frame held no card.
			slot.setStatus(StatusNoQuad)
			return nil
		}
		slot.setStatus(StatusLowConfidence)
		return nil
	}

	candidate := normalize.Candidate(res.Text)
	if candidate == "" {
		slot.setStatus(StatusLowConfidence)
		return nil
	}

	record, err := o.matcher.Match(ctx, candidate)
	if err != nil {
		return err
	}
	if record == nil {
		slot.setStatus(StatusNoMatch)
		return nil
	}
	slot.Card = record
	slot.setStatus(StatusMatched)
	return nil
}
