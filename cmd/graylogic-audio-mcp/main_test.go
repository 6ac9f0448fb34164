package main

import (
	"context"
	"strings"
	"testing"
)

func TestResolveConfigPath(t *testing.T) {
	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{"default", "", "", defaultConfigPath},
		{"env", "", "/etc/graylogic/audio.yaml", "/etc/graylogic/audio.yaml"},
		{"flag wins", "./local.yaml", "/etc/graylogic/audio.yaml", "./local.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(configEnvVar, tt.env)
			if got := resolveConfigPath(tt.flag); got != tt.want {
				t.Errorf("resolveConfigPath(%q) = %q, want %q", tt.flag, got, tt.want)
			}
		})
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	err := run(context.Background(), "/nonexistent/path/config.yaml")
	if err == nil || !strings.Contains(err.Error(), "loading config") {
		t.Fatalf("run() error = %v, want loading config error", err)
	}
}
