package smstats

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric label values.
const (
	stageLabelToken = "get_token"
	stageLabelPosts = "get_posts"

	resultOK            = "ok"
	resultTokenRejected = "token_rejected"
	resultError         = "error"
)

// Metrics counts the requests a PostManager makes. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Requests       *prometheus.CounterVec
	TokenRefreshes prometheus.Counter
	PostsFetched   prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg when reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smstats_requests_total",
				Help: "Requests made to the posts API by stage and result",
			},
			[]string{"stage", "result"},
		),
		TokenRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smstats_token_refreshes_total",
			Help: "Tokens re-registered after the server rejected the current one",
		}),
		PostsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smstats_posts_fetched_total",
			Help: "Posts received across all pages",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Requests, m.TokenRefreshes, m.PostsFetched)
	}
	return m
}

func (m *Metrics) incRequest(stage, result string) {
	if m == nil || m.Requests == nil {
		return
	}
	m.Requests.WithLabelValues(stage, result).Inc()
}

func (m *Metrics) incRefresh() {
	if m == nil || m.TokenRefreshes == nil {
		return
	}
	m.TokenRefreshes.Inc()
}

func (m *Metrics) addPosts(n int) {
	if m == nil || m.PostsFetched == nil {
		return
	}
	m.PostsFetched.Add(float64(n))
}
