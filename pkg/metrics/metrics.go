package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	OrdersReceived      prometheus.Counter
	UpdatesProcessed    prometheus.Counter
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter
	CatalogSaveFailures prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	orders := prometheus.NewCounter(prometheus.CounterOpts{Name: "shop_orders_received_total"})
	updates := prometheus.NewCounter(prometheus.CounterOpts{Name: "shop_bot_updates_processed_total"})
	sent := prometheus.NewCounter(prometheus.CounterOpts{Name: "shop_notifications_sent_total"})
	failed := prometheus.NewCounter(prometheus.CounterOpts{Name: "shop_notifications_failed_total"})
	saveFailed := prometheus.NewCounter(prometheus.CounterOpts{Name: "shop_catalog_save_failures_total"})

	r.MustRegister(orders, updates, sent, failed, saveFailed)
	return &Registry{
		reg:                 r,
		OrdersReceived:      orders,
		UpdatesProcessed:    updates,
		NotificationsSent:   sent,
		NotificationsFailed: failed,
		CatalogSaveFailures: saveFailed,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
