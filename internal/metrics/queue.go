package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// QueueLengthFunc returns the current length of a named queue.
type QueueLengthFunc func(ctx context.Context, queue string) (int64, error)

// RegisterQueueDepthGauge exports the length of each queue as
// {namespace}_queue_depth{queue="..."}, sampled on every collection. Queues whose
// length cannot be read are skipped for that collection.
func RegisterQueueDepthGauge(
	meterProvider metric.MeterProvider,
	namespace string,
	queues []string,
	length QueueLengthFunc,
) error {
	meter := meterProvider.Meter(namespace)

	gauge, err := meter.Int64ObservableGauge(
		fmt.Sprintf("%s_queue_depth", namespace),
		metric.WithDescription("Number of entries waiting in an overflow queue"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create queue depth gauge: %w", err)
	}

	_, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		for _, queue := range queues {
			n, err := length(ctx, queue)
			if err != nil {
				continue
			}
			o.ObserveInt64(gauge, n, metric.WithAttributes(attribute.String("queue", queue)))
		}
		return nil
	}, gauge)
	if err != nil {
		return fmt.Errorf("failed to register queue depth callback: %w", err)
	}

	return nil
}
