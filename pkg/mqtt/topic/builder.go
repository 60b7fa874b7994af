package topic

import (
	"fmt"
	"strings"
)

// MQTT wildcards. Wildcard matches one level, MultiWildcard the rest of the topic.
const (
	Wildcard      = "+"
	MultiWildcard = "#"
)

// Topic segments shared by the orchestrator and the devices and ground tools talking to it.
// Changing these values breaks existing publishers.
const (
	// SegmentMission prefixes every per-mission topic.
	// Structure: {root}/mission/{missionID}/{suffix}
	SegmentMission = "mission"

	// SuffixTelemetry carries telemetry readings (field -> mission control).
	SuffixTelemetry = "telemetry"

	// SuffixCommand carries command requests (Ground -> Orchestrator).
	SuffixCommand = "command"

	// SuffixEvents carries committed mission events (Orchestrator -> Subscribers).
	SuffixEvents = "events"
)

// TopicBuilder encapsulates the logic for constructing MQTT topic strings.
type TopicBuilder struct {
	// root is the base namespace for all topics (e.g., "missioncontrol/v1").
	root string
}

// NewTopicBuilder creates a new instance of TopicBuilder with the specified root namespace.
// Trailing slashes are trimmed.
func NewTopicBuilder(root string) *TopicBuilder {
	return &TopicBuilder{root: strings.TrimRight(root, "/")}
}

// Root returns the namespace topics are built under.
func (b *TopicBuilder) Root() string {
	return b.root
}

// Telemetry returns the topic field units publish readings for missionID on.
func (b *TopicBuilder) Telemetry(missionID string) string {
	return b.build(missionID, SuffixTelemetry)
}

// TelemetryWildcard returns the filter matching telemetry for every mission.
// Result: {root}/mission/+/telemetry
func (b *TopicBuilder) TelemetryWildcard() string {
	return b.build(Wildcard, SuffixTelemetry)
}

// Command returns the topic command requests for missionID arrive on.
func (b *TopicBuilder) Command(missionID string) string {
	return b.build(missionID, SuffixCommand)
}

// CommandWildcard returns the filter matching command requests for every mission.
// Result: {root}/mission/+/command
func (b *TopicBuilder) CommandWildcard() string {
	return b.build(Wildcard, SuffixCommand)
}

// Events returns the topic mission events for missionID are published on.
func (b *TopicBuilder) Events(missionID string) string {
	return b.build(missionID, SuffixEvents)
}

// EventsWildcard returns the filter matching events of every mission.
// Result: {root}/mission/+/events
func (b *TopicBuilder) EventsWildcard() string {
	return b.build(Wildcard, SuffixEvents)
}

// Parse extracts the mission id and suffix from a concrete topic built by this builder.
func (b *TopicBuilder) Parse(topic string) (missionID, suffix string, err error) {
	prefix := b.root + "/" + SegmentMission + "/"
	rest, ok := strings.CutPrefix(topic, prefix)
	if !ok {
		return "", "", fmt.Errorf("topic %q is outside %q", topic, prefix)
	}
	missionID, suffix, ok = strings.Cut(rest, "/")
	if !ok || missionID == "" || suffix == "" || strings.Contains(suffix, "/") {
		return "", "", fmt.Errorf("topic %q is not a mission topic", topic)
	}
	if missionID == Wildcard || missionID == MultiWildcard {
		return "", "", fmt.Errorf("topic %q has a wildcard mission id", topic)
	}
	return missionID, suffix, nil
}

// build constructs {root}/mission/{id}/{suffix}.
func (b *TopicBuilder) build(id, suffix string) string {
	return fmt.Sprintf("%s/%s/%s/%s", b.root, SegmentMission, id, suffix)
}
