// Package events bridges the render pipeline and the MQTT broker.
//
// Publisher implements render.EventPublisher, turning scene and batch
// lifecycle notifications into JSON messages on the sceneforge topic
// hierarchy. Listener subscribes to the render request topic so upstream
// pipeline stages can submit batches over MQTT instead of HTTP.
//
// Both sides are optional: when MQTT is disabled in configuration neither
// is wired and the pipeline runs unchanged.
package events
