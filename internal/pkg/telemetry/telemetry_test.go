package telemetry

import (
	"context"
	"testing"
)

func TestSetupDisabledIsNoop(t *testing.T) {
	t.Parallel()

	for name, cfg := range map[string]Config{
		"disabled":    {Enabled: false, Endpoint: "http://localhost:4318"},
		"no endpoint": {Enabled: true},
	} {
		shutdown, err := Setup(context.Background(), cfg)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
		if err := shutdown(context.Background()); err != nil {
			t.Fatalf("%s: noop shutdown failed: %v", name, err)
		}
	}
}

func TestSetupCreatesProviderWhenEnabled(t *testing.T) {
	// non-routable address; nothing is exported before shutdown
	shutdown, err := Setup(context.Background(), Config{
		Enabled:     true,
		Endpoint:    "http://192.0.2.1:4318",
		ServiceName: "courseenroll-test",
		Insecure:    true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}
