package report

import "testing"

func TestNewTestReportStartsWithUnsetMin(t *testing.T) {
	r := NewTestReport("cfg")
	if r.MinExploredFairSteps >= 0 {
		t.Errorf("expected MinExploredFairSteps to start negative (unset), got %d", r.MinExploredFairSteps)
	}
}

func TestRecordScheduleTracksMinAndMax(t *testing.T) {
	r := NewTestReport("cfg")
	r.RecordSchedule(true, 10, 0, false, false)
	r.RecordSchedule(true, 3, 0, false, false)
	r.RecordSchedule(true, 7, 0, false, false)

	if r.MinExploredFairSteps != 3 {
		t.Errorf("expected min=3, got %d", r.MinExploredFairSteps)
	}
	if r.MaxExploredFairSteps != 10 {
		t.Errorf("expected max=10, got %d", r.MaxExploredFairSteps)
	}
	if r.TotalExploredFairSteps != 20 {
		t.Errorf("expected total=20, got %d", r.TotalExploredFairSteps)
	}
	if r.NumExploredFairSchedules != 3 {
		t.Errorf("expected 3 fair schedules, got %d", r.NumExploredFairSchedules)
	}
}

func TestRecordBugIncrementsCount(t *testing.T) {
	r := NewTestReport("cfg")
	r.RecordBug(BugReport{Kind: LivelockDetected, Message: "stuck"})
	r.RecordBug(BugReport{Kind: AssertionFailure, Message: "bad"})

	if r.NumBugs != 2 {
		t.Errorf("expected NumBugs=2, got %d", r.NumBugs)
	}
	if len(r.BugReports) != 2 {
		t.Errorf("expected 2 bug reports, got %d", len(r.BugReports))
	}
}
