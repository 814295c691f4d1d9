package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arklim/social-platform-feed/internal/infra/config"
)

// Provider represents a telemetry provider handle.
type Provider struct {
	notificationsDelivered prometheus.Counter
	interactionsPublished  prometheus.Counter
}

// Attach configures telemetry collectors and returns a provider handle.
func Attach(_ context.Context, cfg *config.AppConfig) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	namespace := cfg.Telemetry.MetricsNamespace
	if namespace == "" {
		namespace = "feed"
	}

	return &Provider{
		notificationsDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_delivered_total",
			Help:      "Total number of notifications pushed over the realtime channel",
		}),
		interactionsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interaction_events_published_total",
			Help:      "Total number of interaction events published to the change stream",
		}),
	}, nil
}

// NotificationsDelivered exposes the realtime delivery counter.
func (p *Provider) NotificationsDelivered() prometheus.Counter {
	if p == nil {
		return prometheus.NewCounter(prometheus.CounterOpts{})
	}
	return p.notificationsDelivered
}

// InteractionsPublished exposes the change-stream publish counter.
func (p *Provider) InteractionsPublished() prometheus.Counter {
	if p == nil {
		return prometheus.NewCounter(prometheus.CounterOpts{})
	}
	return p.interactionsPublished
}
