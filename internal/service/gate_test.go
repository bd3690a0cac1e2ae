package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kivosy/aegis/internal/domain"
)

// recordingDispatcher tracks dispatched tags so tests can assert on ordering
// relative to the audit trail.
type recordingDispatcher struct {
	dispatched []domain.CommandTag
	output     string
	err        error

	audit *mockAuditStore
	// auditLenAtDispatch captures how many audit entries existed when each
	// dispatch fired, to verify log-then-act.
	auditLenAtDispatch []int
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, tag domain.CommandTag) (string, error) {
	d.dispatched = append(d.dispatched, tag)
	if d.audit != nil {
		d.auditLenAtDispatch = append(d.auditLenAtDispatch, len(d.audit.entries))
	}
	if d.err != nil {
		return "", d.err
	}
	return d.output, nil
}

var defaultWhitelist = []string{"YT_SEARCH", "MAP", "WEATHER", "TIME"}

func TestGateBlocksDangerousCommand(t *testing.T) {
	audit := &mockAuditStore{}
	disp := &recordingDispatcher{}
	svc := NewGateService(audit, disp, defaultWhitelist, zap.NewNop())

	results, err := svc.GateResponse(context.Background(), "[CMD: EXEC|rm -rf /]")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].Status != domain.AuditBlocked {
		t.Errorf("status = %s, want blocked", results[0].Status)
	}
	if results[0].Reason != "Shell execution (RCE risk)" {
		t.Errorf("reason = %q", results[0].Reason)
	}
	if len(disp.dispatched) != 0 {
		t.Error("blocked command reached the dispatcher")
	}
	if len(audit.entries) != 1 || audit.entries[0].Status != domain.AuditBlocked {
		t.Errorf("audit entries = %+v", audit.entries)
	}
}

func TestGateBlacklistBeatsWhitelist(t *testing.T) {
	audit := &mockAuditStore{}
	disp := &recordingDispatcher{}
	// EXEC on the whitelist must still be blocked.
	svc := NewGateService(audit, disp, []string{"EXEC", "YT_SEARCH"}, zap.NewNop())

	results, err := svc.GateResponse(context.Background(), "[CMD: EXEC|whoami]")
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Status != domain.AuditBlocked {
		t.Errorf("status = %s, want blocked despite whitelist entry", results[0].Status)
	}
	if len(disp.dispatched) != 0 {
		t.Error("blacklisted command dispatched")
	}
}

func TestGateExecutesWhitelistedCommand(t *testing.T) {
	audit := &mockAuditStore{}
	disp := &recordingDispatcher{output: "done", audit: audit}
	svc := NewGateService(audit, disp, defaultWhitelist, zap.NewNop())

	results, err := svc.GateResponse(context.Background(), "검색해줄게 [CMD: YT_SEARCH|아이유 신곡]")
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Status != domain.AuditExecuted || results[0].Output != "done" {
		t.Errorf("result = %+v", results[0])
	}
	if len(disp.dispatched) != 1 || disp.dispatched[0].RawArgs != "아이유 신곡" {
		t.Errorf("dispatched = %+v", disp.dispatched)
	}
	// The audit entry must exist before the dispatcher runs.
	if disp.auditLenAtDispatch[0] != 1 {
		t.Errorf("audit entries at dispatch time = %d, want 1", disp.auditLenAtDispatch[0])
	}
}

func TestGateDispatchFailureKeepsExecutedStatus(t *testing.T) {
	audit := &mockAuditStore{}
	disp := &recordingDispatcher{err: errors.New("network down")}
	svc := NewGateService(audit, disp, defaultWhitelist, zap.NewNop())

	results, err := svc.GateResponse(context.Background(), "[CMD: WEATHER|서울]")
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Status != domain.AuditExecuted {
		t.Errorf("status = %s", results[0].Status)
	}
	if !strings.Contains(results[0].Output, "dispatch failed") {
		t.Errorf("output = %q, want dispatch failure note", results[0].Output)
	}
}

func TestGateUnknownCommandPendsApproval(t *testing.T) {
	audit := &mockAuditStore{}
	disp := &recordingDispatcher{}
	svc := NewGateService(audit, disp, defaultWhitelist, zap.NewNop())

	results, err := svc.GateResponse(context.Background(), "[CMD: CALENDAR|내일 일정]")
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Status != domain.AuditPendingApproval || results[0].Reason != "unknown_command" {
		t.Errorf("result = %+v", results[0])
	}
	if len(disp.dispatched) != 0 {
		t.Error("unknown command dispatched")
	}
	if len(audit.entries) != 1 || audit.entries[0].Status != domain.AuditPendingApproval {
		t.Errorf("audit entries = %+v", audit.entries)
	}
}

func TestGateAuditFailureStopsDispatch(t *testing.T) {
	audit := &mockAuditStore{appendErr: errors.New("disk full")}
	disp := &recordingDispatcher{}
	svc := NewGateService(audit, disp, defaultWhitelist, zap.NewNop())

	_, err := svc.GateResponse(context.Background(), "[CMD: YT_SEARCH|lofi]")
	if err == nil {
		t.Fatal("expected error when audit write fails")
	}
	if len(disp.dispatched) != 0 {
		t.Error("command dispatched despite audit write failure")
	}
}

func TestGateMultipleTagsInOrder(t *testing.T) {
	audit := &mockAuditStore{}
	disp := &recordingDispatcher{output: "ok", audit: audit}
	svc := NewGateService(audit, disp, defaultWhitelist, zap.NewNop())

	text := "일정: [CMD: TIME|] 그리고 [CMD: DELETE|/tmp] 마지막으로 [CMD: MAP|강남역]"
	results, err := svc.GateResponse(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	wantStatus := []domain.AuditStatus{domain.AuditExecuted, domain.AuditBlocked, domain.AuditExecuted}
	for i, want := range wantStatus {
		if results[i].Status != want {
			t.Errorf("results[%d].Status = %s, want %s", i, results[i].Status, want)
		}
	}
	if len(audit.entries) != 3 {
		t.Errorf("audit entries = %d, want 3", len(audit.entries))
	}
	if len(disp.dispatched) != 2 {
		t.Errorf("dispatched = %d, want 2", len(disp.dispatched))
	}
}

func TestGateNoTags(t *testing.T) {
	svc := NewGateService(&mockAuditStore{}, &recordingDispatcher{}, defaultWhitelist, zap.NewNop())

	results, err := svc.GateResponse(context.Background(), "그냥 평범한 대답입니다.")
	if err != nil {
		t.Fatal(err)
	}
	if results != nil {
		t.Errorf("results = %+v, want nil", results)
	}
}
