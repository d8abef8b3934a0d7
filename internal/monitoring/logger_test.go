package monitoring

import "testing"

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) { called = true })
	Logf("test message")
	if !called {
		t.Error("custom logger was not called")
	}

	// nil installs a no-op, not a nil func
	called = false
	SetLogger(nil)
	Logf("test message")
	if called {
		t.Error("no-op logger should not reach the previous sink")
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf should not be nil by default")
	}
	Logf("test message: %s", "value")
}
