package main

import "testing"

func TestNeedsTracker(t *testing.T) {
	tests := []struct {
		command string
		want    bool
	}{
		{"init", false},
		{"migrate", false},
		{"doctor", false},
		{"keyring set <key> <secret>", false},
		{"backup restore <backup-file>", false},
		{"debug db-path", false},
		{"debug log-path", false},
		{"debug dump-habit <habit>", true},
		{"today", true},
		{"mark <habit>", true},
		{"habit add <name>", true},
		{"serve", true},
	}
	for _, tt := range tests {
		if got := needsTracker(tt.command); got != tt.want {
			t.Errorf("needsTracker(%q) = %v, want %v", tt.command, got, tt.want)
		}
	}
}
