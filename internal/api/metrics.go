package api

import (
	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the ordering API counters.
type Metrics struct {
	ordersPlaced    metric.Int64Counter
	ordersCancelled metric.Int64Counter
	orderFailures   metric.Int64Counter
}

// NewMetrics registers the API counters on the given meter provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter("wholesale-orders/api")

	placed, err := meter.Int64Counter("orders.placed",
		metric.WithDescription("Orders successfully placed"))
	if err != nil {
		return nil, errors.Wrap(err, "orders.placed counter")
	}
	cancelled, err := meter.Int64Counter("orders.cancelled",
		metric.WithDescription("Orders successfully cancelled"))
	if err != nil {
		return nil, errors.Wrap(err, "orders.cancelled counter")
	}
	failures, err := meter.Int64Counter("orders.failed",
		metric.WithDescription("Order operations rejected or failed"))
	if err != nil {
		return nil, errors.Wrap(err, "orders.failed counter")
	}

	return &Metrics{
		ordersPlaced:    placed,
		ordersCancelled: cancelled,
		orderFailures:   failures,
	}, nil
}

func opAttr(op string) metric.AddOption {
	return metric.WithAttributes(attribute.String("operation", op))
}
