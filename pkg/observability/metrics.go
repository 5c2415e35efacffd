package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// MetricsAPI is the subset of the CloudWatch client we depend on.
type MetricsAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// MetricsPublisher emits operational metrics to CloudWatch. Publication is
// best-effort: a metrics failure is logged and never fails the request.
type MetricsPublisher struct {
	client    MetricsAPI
	namespace string
	logger    *zap.Logger
}

// NewMetricsPublisher creates a CloudWatch metrics publisher.
func NewMetricsPublisher(client MetricsAPI, namespace string, logger *zap.Logger) *MetricsPublisher {
	return &MetricsPublisher{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// Count emits a count metric with optional dimensions.
func (m *MetricsPublisher) Count(ctx context.Context, name string, value float64, dims map[string]string) {
	m.put(ctx, name, value, types.StandardUnitCount, dims)
}

// Duration emits a latency metric in milliseconds.
func (m *MetricsPublisher) Duration(ctx context.Context, name string, d time.Duration, dims map[string]string) {
	m.put(ctx, name, float64(d.Milliseconds()), types.StandardUnitMilliseconds, dims)
}

// Gauge emits a point-in-time value, such as a composite index score.
func (m *MetricsPublisher) Gauge(ctx context.Context, name string, value float64, dims map[string]string) {
	m.put(ctx, name, value, types.StandardUnitNone, dims)
}

func (m *MetricsPublisher) put(ctx context.Context, name string, value float64, unit types.StandardUnit, dims map[string]string) {
	if m.client == nil {
		return
	}

	datum := types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(time.Now()),
	}
	for k, v := range dims {
		datum.Dimensions = append(datum.Dimensions, types.Dimension{
			Name:  aws.String(k),
			Value: aws.String(v),
		})
	}

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: []types.MetricDatum{datum},
	})
	if err != nil {
		m.logger.Warn("failed to publish metric",
			zap.String("metric", name),
			zap.Error(err))
	}
}
