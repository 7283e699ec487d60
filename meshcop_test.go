package meshcop

import "testing"

func TestCommissioner_CloseBeforeConnect(t *testing.T) {
	c := NewCommissioner()
	if err := c.Close(); err != nil {
		t.Fatalf("Close before Connect: %v", err)
	}
}

func TestLogLevelConstants(t *testing.T) {
	levels := []LogLevel{LogLevelNone, LogLevelError, LogLevelInfo, LogLevelVerbose}
	seen := map[LogLevel]bool{}
	for _, l := range levels {
		if seen[l] {
			t.Fatalf("duplicate LogLevel value %v", l)
		}
		seen[l] = true
	}
}
