package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesAppended = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clubchat_messages_appended_total",
		Help: "Messages accepted by the append operation.",
	})
	ConversationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clubchat_conversations_created_total",
		Help: "Conversations created by get-or-create.",
	})
	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clubchat_ws_connections",
		Help: "Currently open websocket connections.",
	})
)

// Handler returns an http.Handler for Prometheus scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
