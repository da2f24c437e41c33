// Package metrics define las métricas Prometheus del servicio.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result de un grant para el label result.
const (
	ResultOK     = "ok"
	ResultDenied = "denied"
	ResultError  = "error"
)

type Metrics struct {
	GrantsTotal       *prometheus.CounterVec
	RefreshReuseTotal prometheus.Counter
	AuditDroppedTotal prometheus.Counter

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPInflight        *prometheus.GaugeVec

	gatherer prometheus.Gatherer
}

// New registra las métricas en reg (default si nil). Si ya estaban
// registradas se reutilizan los collectors existentes.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{gatherer: prometheus.DefaultGatherer}
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}

	var err error
	if m.GrantsTotal, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hellodesk_grants_total",
		Help: "Grants procesados por tipo y resultado",
	}, []string{"grant", "result"})); err != nil {
		return nil, err
	}
	if m.RefreshReuseTotal, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hellodesk_refresh_reuse_total",
		Help: "Refresh tokens reutilizados (posible robo)",
	})); err != nil {
		return nil, err
	}
	if m.AuditDroppedTotal, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hellodesk_audit_dropped_total",
		Help: "Eventos de auditoría descartados por cola llena",
	})); err != nil {
		return nil, err
	}
	if m.HTTPRequestsTotal, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Número total de requests procesadas",
	}, []string{"method", "path", "status"})); err != nil {
		return nil, err
	}
	if m.HTTPRequestDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latencia de los requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})); err != nil {
		return nil, err
	}
	if m.HTTPInflight, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "Requests en vuelo por método y ruta",
	}, []string{"method", "path"})); err != nil {
		return nil, err
	}
	return m, nil
}

// register ignora duplicados devolviendo el collector ya registrado.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// Handler sirve /metrics con el gatherer asociado al registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Grant cuenta un grant. nil-safe.
func (m *Metrics) Grant(grant, result string) {
	if m == nil {
		return
	}
	m.GrantsTotal.WithLabelValues(grant, result).Inc()
}

func (m *Metrics) RefreshReuse() {
	if m == nil {
		return
	}
	m.RefreshReuseTotal.Inc()
}

func (m *Metrics) AuditDropped() {
	if m == nil {
		return
	}
	m.AuditDroppedTotal.Inc()
}

// ObserveHTTP registra un request terminado.
func (m *Metrics) ObserveHTTP(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if status == 0 {
		status = http.StatusOK
	}
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

// Inflight incrementa el gauge y devuelve el decremento.
func (m *Metrics) Inflight(method, path string) func() {
	if m == nil {
		return func() {}
	}
	g := m.HTTPInflight.WithLabelValues(method, path)
	g.Inc()
	return g.Dec
}
