package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricOpts holds options for creating metrics
type MetricOpts struct {
	Name        string
	Description string
	Unit        string
}

// Counter wraps an OTel counter for easier use
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a new counter metric
func NewCounter(opts MetricOpts) (*Counter, error) {
	counter, err := GetMeter().Int64Counter(
		opts.Name,
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	)
	if err != nil {
		return nil, err
	}
	return &Counter{counter: counter}, nil
}

// Add increments the counter by the given value. Safe on a nil counter.
func (c *Counter) Add(ctx context.Context, value int64, attrs ...attribute.KeyValue) {
	if c == nil {
		return
	}
	c.counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

// Inc increments the counter by 1
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.Add(ctx, 1, attrs...)
}

// Gauge wraps an OTel gauge for easier use
type Gauge struct {
	gauge metric.Int64Gauge
}

// NewGauge creates a new gauge metric
func NewGauge(opts MetricOpts) (*Gauge, error) {
	gauge, err := GetMeter().Int64Gauge(
		opts.Name,
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	)
	if err != nil {
		return nil, err
	}
	return &Gauge{gauge: gauge}, nil
}

// Record sets the gauge to the given value. Safe on a nil gauge.
func (g *Gauge) Record(ctx context.Context, value int64, attrs ...attribute.KeyValue) {
	if g == nil {
		return
	}
	g.gauge.Record(ctx, value, metric.WithAttributes(attrs...))
}

// Histogram wraps an OTel histogram for easier use
type Histogram struct {
	histogram metric.Float64Histogram
}

// NewHistogram creates a new histogram metric
func NewHistogram(opts MetricOpts) (*Histogram, error) {
	histogram, err := GetMeter().Float64Histogram(
		opts.Name,
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	)
	if err != nil {
		return nil, err
	}
	return &Histogram{histogram: histogram}, nil
}

// Record records a value in the histogram. Safe on a nil histogram.
func (h *Histogram) Record(ctx context.Context, value float64, attrs ...attribute.KeyValue) {
	if h == nil {
		return
	}
	h.histogram.Record(ctx, value, metric.WithAttributes(attrs...))
}

// Common metric attribute keys
const (
	AttrServiceName       = "service.name"
	AttrEnvironment       = "environment"
	AttrMethod            = "http.method"
	AttrPath              = "http.path"
	AttrStatusCode        = "http.status_code"
	AttrErrorType         = "error.type"
	AttrEventID           = "event.id"
	AttrUserID            = "user.id"
	AttrTransactionStatus = "transaction.status"
)

func MethodAttr(method string) attribute.KeyValue {
	return attribute.String(AttrMethod, method)
}

func PathAttr(path string) attribute.KeyValue {
	return attribute.String(AttrPath, path)
}

func StatusCodeAttr(code int) attribute.KeyValue {
	return attribute.Int(AttrStatusCode, code)
}

func ErrorTypeAttr(errType string) attribute.KeyValue {
	return attribute.String(AttrErrorType, errType)
}

func EventIDAttr(eventID string) attribute.KeyValue {
	return attribute.String(AttrEventID, eventID)
}

func TransactionStatusAttr(status string) attribute.KeyValue {
	return attribute.String(AttrTransactionStatus, status)
}
