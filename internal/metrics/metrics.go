package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "moderator"

var (
	BotActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "bot_actions_total",
		Help:      "Total number of bot actions",
	}, []string{"action"})

	Decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "decisions_total",
		Help:      "Moderation decisions by action and reason",
	}, []string{"action", "reason"})

	DeletedMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "deleted_messages_total",
		Help:      "Total number of deleted messages",
	}, []string{"reason"})

	UpdateProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "update_processing_duration_seconds",
		Help:      "Duration of update processing",
		Buckets:   prometheus.DefBuckets,
	}, []string{"type", "status"})

	AdminLookupFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "admin_lookup_failures_total",
		Help:      "Administrator list lookups that failed and were treated as non-admin",
	})

	PlatformErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "platform_errors_total",
		Help:      "Failed platform calls by operation and error kind",
	}, []string{"op", "kind"})

	NightTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "night_transitions_total",
		Help:      "Night-mode phase transitions by phase and platform result",
	}, []string{"phase", "result"})

	NightModeChats = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "night_mode_chats",
		Help:      "Number of chats with night mode enabled",
	})

	ActivityWindows = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "activity_windows",
		Help:      "Number of tracked (chat, user) spam windows",
	})

	ActiveMutes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "active_mutes",
		Help:      "Number of currently active mutes",
	})

	DispatchQueued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "dispatch_items_added_total",
		Help:      "Updates handed to the dispatcher",
	})

	DispatchProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "dispatch_items_processed_total",
		Help:      "Updates processed by dispatcher workers",
	})

	DispatchActiveChats = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "dispatch_active_chats",
		Help:      "Chats with queued or running updates",
	})
)

func IncBotAction(action string) {
	BotActions.WithLabelValues(action).Inc()
}

func IncDecision(action, reason string) {
	if reason == "" {
		reason = "none"
	}
	Decisions.WithLabelValues(action, reason).Inc()
}

func IncDeletedMessages(reason string) {
	DeletedMessages.WithLabelValues(reason).Inc()
}

func IncPlatformError(op, kind string) {
	PlatformErrors.WithLabelValues(op, kind).Inc()
}

func IncNightTransition(phase string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	NightTransitions.WithLabelValues(phase, result).Inc()
}

func SetActiveMutes(count float64) {
	ActiveMutes.Set(count)
}

func ObserveUpdateProcessing(updateType string, duration float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	UpdateProcessingDuration.WithLabelValues(updateType, status).Observe(duration)
}
