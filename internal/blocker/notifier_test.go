package blocker

import (
	"bytes"
	"strings"
	"testing"

	"ipdnb/internal/domain"
)

func TestConsoleNotifier(t *testing.T) {
	var buf bytes.Buffer
	notifier := NewConsoleNotifier(&buf)

	notifier.Blocked(domain.BlockedIP{IP: "203.0.113.7", Country: "Russia"})
	notifier.FileNotFound("/var/log/missing.log")

	out := buf.String()
	for _, want := range []string{
		"[BLOCKED]",
		"IP 203.0.113.7 has been blocked due to suspicious activity.",
		"Error reading file /var/log/missing.log",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q does not contain %q", out, want)
		}
	}
}
