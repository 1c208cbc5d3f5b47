package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "castctl_frames_received_total",
		Help: "Total number of inbound frames read from the device",
	})

	framesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "castctl_frames_dropped_total",
		Help: "Total number of inbound frames discarded or cut short, by reason",
	}, []string{"reason"})

	bytesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "castctl_bytes_dropped_total",
		Help: "Total number of inbound bytes discarded, by reason",
	}, []string{"reason"})

	messagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "castctl_messages_sent_total",
		Help: "Total number of envelopes written, by channel and namespace",
	}, []string{"channel", "namespace"})

	sendErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "castctl_send_errors_total",
		Help: "Total number of failed writes, by error type",
	}, []string{"type"})

	deadLinks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "castctl_dead_link_total",
		Help: "Total number of connections torn down after unanswered requests",
	})

	connectionState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "castctl_connection_state",
		Help: "Current connection phase (active phase=1, others 0)",
	}, []string{"state"})

	commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "castctl_commands_total",
		Help: "Total number of control commands, by command and result",
	}, []string{"command", "result"})

	reconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "castctl_reconnects_total",
		Help: "Total number of reconnect attempts made by the poll supervisor",
	})
)

// ConnectionStates lists every phase reported by SetConnectionState
var ConnectionStates = []string{
	"disconnected",
	"transport-alive",
	"connected",
	"application-running",
	"waiting-for-response",
	"connect-to-application",
}

func label(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

// IncFrameReceived records one inbound frame
func IncFrameReceived() {
	framesReceived.Inc()
}

// RecordFrameDrop records a discarded or truncated frame
func RecordFrameDrop(reason string, bytes int) {
	reason = label(reason)
	framesDropped.WithLabelValues(reason).Inc()
	if bytes > 0 {
		bytesDropped.WithLabelValues(reason).Add(float64(bytes))
	}
}

// IncMessageSent records one envelope written on a channel
func IncMessageSent(channel, namespace string) {
	messagesSent.WithLabelValues(label(channel), label(namespace)).Inc()
}

// IncSendError records a failed write
func IncSendError(errType string) {
	sendErrors.WithLabelValues(label(errType)).Inc()
}

// IncDeadLink records a dead-link teardown
func IncDeadLink() {
	deadLinks.Inc()
}

// SetConnectionState marks state as the active phase
func SetConnectionState(state string) {
	for _, s := range ConnectionStates {
		value := 0.0
		if s == state {
			value = 1.0
		}
		connectionState.WithLabelValues(s).Set(value)
	}
}

// RecordCommand records the outcome of a control command
func RecordCommand(command, result string) {
	commands.WithLabelValues(label(command), label(result)).Inc()
}

// IncReconnect records a reconnect attempt
func IncReconnect() {
	reconnects.Inc()
}
