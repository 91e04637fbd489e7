package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/sceneforge/sceneforge-core/internal/infrastructure/config"
)

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestHealthCheck_Disconnected(t *testing.T) {
	c := &Client{}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestWrite_DisconnectedIsNoop(t *testing.T) {
	c := &Client{}

	// Writes on a disconnected client must not panic; they are dropped.
	c.WriteRenderOutcome("intro-01", "manim", true, 42.5, 1024, 1)
	c.WriteBatchSummary("batch-1", 3, 2, 30)
	c.WritePoint("custom", map[string]string{"k": "v"}, map[string]interface{}{"f": 1})
}

func TestClose_NilClient(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v", err)
	}
}

func TestFlush_AfterCloseIsNoop(t *testing.T) {
	c := &Client{}
	c.Flush()
}
