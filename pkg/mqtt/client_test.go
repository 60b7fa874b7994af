package mqtt

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestClientConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ClientConfig
		wantErr bool
	}{
		{"tcp", ClientConfig{BrokerURL: "tcp://localhost:1883"}, false},
		{"websocket", ClientConfig{BrokerURL: "wss://broker.example.com/mqtt"}, false},
		{"empty", ClientConfig{}, true},
		{"scheme", ClientConfig{BrokerURL: "http://localhost:1883"}, true},
		{"will qos", ClientConfig{BrokerURL: "tcp://localhost:1883", WillQoS: 3}, true},
	}
	for _, tt := range tests {
		if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestNewClientDefaults(t *testing.T) {
	cfg := &ClientConfig{BrokerURL: "tcp://localhost:1883"}
	c, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if cfg.KeepAlive != 60 || cfg.ReconnectDelay != 3*time.Second || cfg.MaxInflightHandlers != 64 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if c.IsConnected() {
		t.Error("client reports connected before Start")
	}
}

func TestNewClientRejectsInvalidConfig(t *testing.T) {
	if _, err := NewClient(nil); err == nil {
		t.Error("NewClient(nil) succeeded")
	}
	if _, err := NewClient(&ClientConfig{BrokerURL: "ftp://localhost"}); err == nil {
		t.Error("NewClient accepted an unsupported scheme")
	}
}

func TestOperationsBeforeStart(t *testing.T) {
	c, err := NewClient(&ClientConfig{BrokerURL: "tcp://localhost:1883"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	ctx := context.Background()

	if err := c.Publish(ctx, "t", 0, false, nil); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Publish() error = %v, want ErrNotStarted", err)
	}
	if err := c.Subscribe(ctx, "t", 0, nil); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Subscribe() error = %v, want ErrNotStarted", err)
	}
	if err := c.AwaitConnection(ctx); !errors.Is(err, ErrNotStarted) {
		t.Errorf("AwaitConnection() error = %v, want ErrNotStarted", err)
	}
	c.Disconnect(ctx)
}
