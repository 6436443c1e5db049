package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestSpinnerLifecycle_StopWithSuccess(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(&buf, "Consultando")
	s.start()
	// Let it spin briefly
	time.Sleep(50 * time.Millisecond)
	s.stopWithSuccess("done")

	if !strings.Contains(buf.String(), "done") {
		t.Errorf("output %q should end with the success message", buf.String())
	}
	if !strings.Contains(buf.String(), "\033[?25h") {
		t.Error("cursor should be restored")
	}
}

func TestSpinnerLifecycle_StopWithError(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(&buf, "Consultando")
	s.start()
	time.Sleep(30 * time.Millisecond)
	s.stopWithError()
	// A second stop must not panic on the closed channel.
	s.stopOnce()
}
