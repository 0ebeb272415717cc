package pipeline

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetLogWriters_RoutesStreams(t *testing.T) {
	var ops, diag, trace bytes.Buffer
	SetLogWriters(&ops, &diag, &trace)
	defer SetLogWriters(nil, nil, nil)

	opsf("ops %d", 1)
	diagf("diag %d", 2)
	tracef("trace %d", 3)

	for _, tt := range []struct {
		name string
		buf  *bytes.Buffer
		want string
	}{
		{"ops", &ops, "ops 1"},
		{"diag", &diag, "diag 2"},
		{"trace", &trace, "trace 3"},
	} {
		out := tt.buf.String()
		if !strings.Contains(out, tt.want) {
			t.Errorf("%s stream: expected %q, got %q", tt.name, tt.want, out)
		}
		if !strings.HasPrefix(out, "[pipeline] ") {
			t.Errorf("%s stream: expected [pipeline] prefix, got %q", tt.name, out)
		}
		if strings.Count(out, "\n") != 1 {
			t.Errorf("%s stream: expected one line, got %q", tt.name, out)
		}
	}
}

func TestSetLogWriters_Disable(t *testing.T) {
	var buf bytes.Buffer
	SetLogWriters(&buf, &buf, &buf)
	SetLogWriters(nil, nil, nil)

	if opsLogger != nil || diagLogger != nil || traceLogger != nil {
		t.Fatal("loggers should be nil after SetLogWriters(nil, nil, nil)")
	}
	// Should not panic with no logger configured.
	opsf("discarded %d", 1)
	diagf("discarded %d", 2)
	tracef("discarded %d", 3)
	if buf.Len() != 0 {
		t.Errorf("expected no output after disabling, got %q", buf.String())
	}
}
