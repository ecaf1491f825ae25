package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid-redis", "redis://localhost:6379", false},
		{"valid-with-db", "redis://localhost:6379/0", false},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_UnreachableHost(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping unreachable host test in short mode")
	}

	ctx := t.Context()
	_, err := New(ctx, "redis://localhost:59999")
	if err == nil {
		t.Fatal("New() should return error for unreachable host")
	}
}

func TestGetJSON_UnreachableIsNotMiss(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping unreachable host test in short mode")
	}

	opts, err := ParseURL("redis://localhost:59999")
	if err != nil {
		t.Fatalf("ParseURL() error = %v", err)
	}
	opts.DialTimeout = 200 * time.Millisecond
	opts.MaxRetries = -1
	c := &Cache{Client: redis.NewClient(opts)}
	defer c.Close()

	var v map[string]int
	err = c.GetJSON(t.Context(), "academy:test", &v)
	if err == nil {
		t.Fatal("GetJSON() should fail for unreachable host")
	}
	if errors.Is(err, ErrMiss) {
		t.Error("connection failure must not be reported as a miss")
	}
}
