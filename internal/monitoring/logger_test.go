package monitoring

import (
	"bytes"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	if !called {
		t.Error("Custom logger was not called")
	}

	// nil installs a no-op
	called = false
	SetLogger(nil)
	Logf("test message")
	if called {
		t.Error("No-op logger should not have triggered callback")
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}
}

func TestStreamWriters(t *testing.T) {
	var buf bytes.Buffer

	tests := []struct {
		name                         string
		level                        int
		wantOps, wantDiag, wantTrace bool
	}{
		{"ops only", LevelOps, true, false, false},
		{"diag", LevelDiag, true, true, false},
		{"trace", LevelTrace, true, true, true},
		{"above trace", 5, true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops, diag, trace := StreamWriters(tt.level, &buf)
			if (ops != nil) != tt.wantOps {
				t.Errorf("ops enabled = %v, want %v", ops != nil, tt.wantOps)
			}
			if (diag != nil) != tt.wantDiag {
				t.Errorf("diag enabled = %v, want %v", diag != nil, tt.wantDiag)
			}
			if (trace != nil) != tt.wantTrace {
				t.Errorf("trace enabled = %v, want %v", trace != nil, tt.wantTrace)
			}
		})
	}

	ops, diag, trace := StreamWriters(LevelTrace, nil)
	if ops != nil || diag != nil || trace != nil {
		t.Error("nil writer should disable every stream")
	}
}
