package domain

import "testing"

func TestJobStatusValid(t *testing.T) {
	valid := []JobStatus{JobQueued, JobProcessing, JobDone, JobFailed}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if JobStatus("indexing").Valid() {
		t.Error("expected unknown status to be invalid")
	}
	if JobStatus(StatusUploaded).Valid() {
		t.Error("uploaded is a synthetic status, not a job state")
	}
}

func TestJobStatusTerminal(t *testing.T) {
	if JobQueued.Terminal() || JobProcessing.Terminal() {
		t.Error("queued and processing are not terminal")
	}
	if !JobDone.Terminal() || !JobFailed.Terminal() {
		t.Error("done and failed are terminal")
	}
}

func TestJobStatusCanTransition(t *testing.T) {
	cases := []struct {
		from, to JobStatus
		want     bool
	}{
		{JobQueued, JobProcessing, true},
		{JobQueued, JobDone, false},
		{JobQueued, JobFailed, false},
		{JobProcessing, JobDone, true},
		{JobProcessing, JobFailed, true},
		{JobProcessing, JobQueued, false},
		{JobDone, JobProcessing, false},
		{JobDone, JobFailed, false},
		{JobFailed, JobProcessing, false},
		{JobFailed, JobDone, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Errorf("CanTransition(%q -> %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
