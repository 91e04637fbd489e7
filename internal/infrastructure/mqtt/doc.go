// Package mqtt provides the MQTT client infrastructure for Sceneforge Core.
//
// It wraps paho.mqtt.golang with connection management, automatic
// reconnection, subscription restoration, and Sceneforge-specific topic
// builders. Render lifecycle events (scene started, scene outcome, batch
// complete) are published here, and batch render requests can be received
// from upstream pipeline stages over the request topic.
//
// The broker is optional: when mqtt.enabled is false in configuration the
// service runs without it and events are simply not published.
package mqtt
