package middleware

import (
	"context"
	"sync"

	"github.com/vango-dev/waypoint/pkg/router"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTracerName = "waypoint"
	spanName          = "waypoint.transition"
)

// OTelConfig configures the OpenTelemetry plugin.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "waypoint").
	TracerName string

	// TracerProvider supplies the tracer. If nil, the global provider is used.
	TracerProvider trace.TracerProvider

	// Filter determines which transitions to trace.
	// Return true to trace the transition, false to skip.
	// If nil, all transitions are traced.
	Filter func(to, from *router.State) bool

	// AttributeExtractor adds custom attributes to each span.
	AttributeExtractor func(to, from *router.State) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry plugin.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithTransitionFilter sets a filter function for transitions.
func WithTransitionFilter(filter func(to, from *router.State) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(to, from *router.State) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// Tracing is a router plugin that records one span per transition.
type Tracing struct {
	config OTelConfig
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]trace.Span
}

// OpenTelemetry creates a plugin that traces every router transition.
//
// A span named "waypoint.transition" starts when the transition starts and ends
// when it succeeds, is cancelled, or fails. Failures record the error and set the
// span status to the router error code.
//
//	r.Use(middleware.OpenTelemetry(middleware.WithTracerName("my-app")))
//
// Without WithTracerProvider the global provider is used. Configure it in main()
// before starting the router:
//
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) *Tracing {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	var tracer trace.Tracer
	if config.TracerProvider != nil {
		tracer = config.TracerProvider.Tracer(config.TracerName)
	} else {
		tracer = otel.Tracer(config.TracerName)
	}

	return &Tracing{
		config: config,
		tracer: tracer,
		spans:  make(map[string]trace.Span),
	}
}

// Attach registers the transition listeners on r.
func (p *Tracing) Attach(r *router.Router) {
	r.OnTransitionStart(p.start)
	r.AddListener(func(to, _ *router.State) {
		if span := p.take(to); span != nil {
			span.SetStatus(codes.Ok, "")
			span.End()
		}
	})
	r.OnTransitionCancel(func(to, _ *router.State) {
		if span := p.take(to); span != nil {
			span.SetAttributes(attribute.Bool("waypoint.cancelled", true))
			span.End()
		}
	})
	r.OnTransitionError(func(to, _ *router.State, err error) {
		span := p.take(to)
		if span == nil {
			return
		}
		code := string(router.CodeOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
		span.SetAttributes(attribute.String("waypoint.error_code", code))
		span.End()
	})
}

func (p *Tracing) start(to, from *router.State) {
	if to == nil {
		return
	}
	if p.config.Filter != nil && !p.config.Filter(to, from) {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("waypoint.to", to.Name),
		attribute.String("waypoint.path", to.Path),
		attribute.String("waypoint.transition_id", to.ID),
	}
	if from != nil {
		attrs = append(attrs, attribute.String("waypoint.from", from.Name))
	}
	if p.config.AttributeExtractor != nil {
		attrs = append(attrs, p.config.AttributeExtractor(to, from)...)
	}

	_, span := p.tracer.Start(context.Background(), spanName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)

	p.mu.Lock()
	p.spans[to.ID] = span
	p.mu.Unlock()
}

func (p *Tracing) take(to *router.State) trace.Span {
	if to == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	span, ok := p.spans[to.ID]
	if !ok {
		return nil
	}
	delete(p.spans, to.ID)
	return span
}

// SpanFor returns the span of the transition into state while it runs.
// Returns nil once the transition has finished or if it was not traced.
func (p *Tracing) SpanFor(state *router.State) trace.Span {
	if state == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.spans[state.ID]
}

// TraceContext returns ctx carrying the span of the transition into state, so
// guards can parent their own spans on it. ctx is returned unchanged if there is
// no such span.
//
//	r.CanActivate("users", func(ctx context.Context, to, from *router.State) error {
//	    ctx, span := tracer.Start(tracing.TraceContext(ctx, to), "load user")
//	    defer span.End()
//	    return loadUser(ctx, to.Params["id"])
//	})
func (p *Tracing) TraceContext(ctx context.Context, state *router.State) context.Context {
	if span := p.SpanFor(state); span != nil {
		return trace.ContextWithSpan(ctx, span)
	}
	return ctx
}
