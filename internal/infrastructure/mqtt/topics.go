package mqtt

import "fmt"

// Topic prefixes for the Sceneforge MQTT hierarchy.
//
// Render topics follow the scheme: sceneforge/render/{subject}/{id}/{event}
const (
	// TopicPrefix is the base for all Sceneforge topics.
	TopicPrefix = "sceneforge"

	// TopicPrefixRender is the base for render lifecycle topics.
	TopicPrefixRender = "sceneforge/render"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "sceneforge/system"
)

// Topics provides builders for Sceneforge MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	topic := topics.SceneOutcome("intro-01")
//	// Returns: "sceneforge/render/scene/intro-01/outcome"
type Topics struct{}

// RenderRequests returns the topic on which upstream pipeline stages submit
// batch render requests.
//
// Example: sceneforge/render/requests
func (Topics) RenderRequests() string {
	return fmt.Sprintf("%s/requests", TopicPrefixRender)
}

// SceneStarted returns the topic for scene render start events.
//
// Example: sceneforge/render/scene/intro-01/started
func (Topics) SceneStarted(sceneID string) string {
	return fmt.Sprintf("%s/scene/%s/started", TopicPrefixRender, sceneID)
}

// SceneOutcome returns the topic for per-scene render outcomes.
//
// Example: sceneforge/render/scene/intro-01/outcome
func (Topics) SceneOutcome(sceneID string) string {
	return fmt.Sprintf("%s/scene/%s/outcome", TopicPrefixRender, sceneID)
}

// BatchComplete returns the topic for batch completion events.
//
// Example: sceneforge/render/batch/b7f3.../complete
func (Topics) BatchComplete(batchID string) string {
	return fmt.Sprintf("%s/batch/%s/complete", TopicPrefixRender, batchID)
}

// SystemStatus returns the system status topic (online/offline, LWT).
//
// Example: sceneforge/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllSceneOutcomes returns a pattern matching every scene outcome.
//
// Pattern: sceneforge/render/scene/+/outcome
func (Topics) AllSceneOutcomes() string {
	return fmt.Sprintf("%s/scene/+/outcome", TopicPrefixRender)
}

// AllBatchCompletions returns a pattern matching every batch completion.
//
// Pattern: sceneforge/render/batch/+/complete
func (Topics) AllBatchCompletions() string {
	return fmt.Sprintf("%s/batch/+/complete", TopicPrefixRender)
}

// AllTopics returns a pattern matching all Sceneforge topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: sceneforge/#
func (Topics) AllTopics() string {
	return "sceneforge/#"
}
