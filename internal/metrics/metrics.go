package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/license-portal/internal/core/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	LicensesIssued       *prometheus.CounterVec
	LicenseStatusChanges *prometheus.CounterVec
	BulkItems            *prometheus.CounterVec
	TicketEvents         *prometheus.CounterVec

	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// New registers the portal counters on reg. Pass a fresh registry in tests.
func New(reg *prometheus.Registry, logger *slog.Logger) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LicensesIssued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_licenses_issued_total",
				Help: "Total number of licenses issued",
			},
			[]string{"product"},
		),
		LicenseStatusChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_license_status_changes_total",
				Help: "Total number of license status transitions",
			},
			[]string{"status"},
		),
		BulkItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_bulk_items_total",
				Help: "Items processed by bulk license actions",
			},
			[]string{"action", "outcome"},
		),
		TicketEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_ticket_events_total",
				Help: "Total number of ticket mutations",
			},
			[]string{"event"},
		),
		gatherer: reg,
		logger:   logger,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordBulk(action string, success, failed int) {
	m.BulkItems.WithLabelValues(action, "success").Add(float64(success))
	m.BulkItems.WithLabelValues(action, "failed").Add(float64(failed))
}

func (m *Metrics) handleLicenseIssued(_ context.Context, event events.Event) error {
	e, ok := event.(*events.LicenseIssuedEvent)
	if !ok {
		return fmt.Errorf("expected LicenseIssuedEvent, got %T", event)
	}
	m.LicensesIssued.WithLabelValues(e.ProductName).Inc()
	return nil
}

func (m *Metrics) handleStatusChanged(_ context.Context, event events.Event) error {
	e, ok := event.(*events.LicenseStatusChangedEvent)
	if !ok {
		return fmt.Errorf("expected LicenseStatusChangedEvent, got %T", event)
	}
	m.LicenseStatusChanges.WithLabelValues(e.NewStatus).Inc()
	return nil
}

func (m *Metrics) handleTicketEvent(_ context.Context, event events.Event) error {
	m.TicketEvents.WithLabelValues(event.EventType()).Inc()
	return nil
}

func (m *Metrics) RegisterEventHandlers(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeLicenseIssued, m.handleLicenseIssued)
	bus.Subscribe(events.EventTypeLicenseStatusChanged, m.handleStatusChanged)
	for _, t := range []string{events.EventTypeTicketUpdated, events.EventTypeTicketFlagged, events.EventTypeTicketEscalated} {
		bus.Subscribe(t, m.handleTicketEvent)
	}

	m.logger.Info("metrics event handlers registered")
}
