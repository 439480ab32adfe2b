package txn

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("some random error"), false},
		{"code 20", mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"}, true},
		{"code 51", mongo.CommandError{Code: 51, Message: "Illegal operation"}, true},
		{"code 263", mongo.CommandError{Code: 263, Message: "Cannot run in a multi-document transaction"}, true},
		{"other code", mongo.CommandError{Code: 100, Message: "Some other error"}, false},
		{"transaction and replica set", errors.New("transaction failed because this is not a replica set member"), true},
		{"session not supported", errors.New("session operations are not supported on this server"), true},
		{"transaction only", errors.New("transaction failed"), false},
		{"transaction and session", errors.New("cannot start transaction in current session state"), true},
		{"illegal operation", errors.New("illegal operation during transaction"), true},
		{"uppercase", errors.New("TRANSACTION FAILED on REPLICA SET"), true},
		{"duplicate key", errors.New("E11000 duplicate key error collection: memberships"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRunner_NilClientRunsDirectly(t *testing.T) {
	r := New(nil, nil)
	calls := 0
	err := r.Run(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRunner_PropagatesError(t *testing.T) {
	var r *Runner
	want := errors.New("already registered")
	err := r.Run(context.Background(), func(ctx context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Errorf("Run error = %v, want %v", err, want)
	}
}
