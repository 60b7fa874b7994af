package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "missioncontrol"

// Registry holds every mission control collector and backs the /metrics endpoint.
var Registry = prometheus.NewRegistry()

var (
	// MissionTransitions counts committed mission state transitions.
	MissionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mission_transitions_total",
			Help:      "Total number of mission state transitions, by event and resulting status.",
		},
		[]string{"event", "status"},
	)

	// Missions tracks how many missions are in each status.
	Missions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "missions",
			Help:      "Number of missions in the registry, by status.",
		},
		[]string{"status"},
	)

	// CommandsExecuted counts commands reaching a terminal status.
	CommandsExecuted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_executed_total",
			Help:      "Total number of executed commands, by type and terminal status.",
		},
		[]string{"type", "status"},
	)

	// CommandLatency records executor run time.
	CommandLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_execution_seconds",
			Help:      "Time spent in command executors.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"type"},
	)

	// TelemetryRecords counts accepted telemetry records.
	TelemetryRecords = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_records_total",
			Help:      "Total number of telemetry records accepted.",
		},
	)

	// HTTPRequestDuration records REST API latency.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of REST API requests.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method", "code"},
	)

	// MQTTMessages counts inbound MQTT messages by topic kind and outcome.
	MQTTMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mqtt_messages_total",
			Help:      "Inbound MQTT messages, by kind and result.",
		},
		[]string{"kind", "result"},
	)

	// MissionArchives counts archive uploads of finished missions.
	MissionArchives = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mission_archives_total",
			Help:      "Archive uploads of finished missions, by result.",
		},
		[]string{"result"},
	)

	// EffectsDropped counts notifications and archive uploads dropped because the queue was full.
	EffectsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effects_dropped_total",
			Help:      "Mission events and archive uploads dropped on a full queue, by kind.",
		},
		[]string{"kind"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		MissionTransitions,
		Missions,
		CommandsExecuted,
		CommandLatency,
		TelemetryRecords,
		HTTPRequestDuration,
		MQTTMessages,
		MissionArchives,
		EffectsDropped,
	)
}
