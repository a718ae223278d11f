package shared

import (
	"errors"
	"testing"

	"github.com/NSvoltage/BCCE-dev-sub002/pkg/artifact"
)

func TestExitErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	exitErr := &ExitError{Code: ExitConfigError, Message: "failed", Cause: inner}

	if got := errors.Unwrap(exitErr); got != inner {
		t.Fatalf("expected unwrapped error to be inner, got %v", got)
	}
	if exitErr.Error() != "failed: boom" {
		t.Fatalf("unexpected Error() text: %q", exitErr.Error())
	}
}

func TestExitErrorWithoutCause(t *testing.T) {
	exitErr := &ExitError{Code: ExitRunFailed, Message: "run failed"}
	if exitErr.Error() != "run failed" {
		t.Fatalf("unexpected Error() text: %q", exitErr.Error())
	}
	if errors.Unwrap(exitErr) != nil {
		t.Fatalf("expected nil Unwrap for a cause-less ExitError")
	}
}

func TestRunExitCode(t *testing.T) {
	cases := []struct {
		status artifact.RunStatus
		want   int
	}{
		{artifact.StatusCompleted, ExitOK},
		{artifact.StatusFailed, ExitRunFailed},
		{artifact.StatusBlocked, ExitRunFailed},
		{artifact.StatusPaused, ExitOK},
		{artifact.StatusPendingApproval, ExitOK},
	}
	for _, c := range cases {
		if got := RunExitCode(c.status); got != c.want {
			t.Errorf("RunExitCode(%s) = %d, want %d", c.status, got, c.want)
		}
	}
}
