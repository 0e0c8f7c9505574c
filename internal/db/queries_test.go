package db

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/drafting"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/errors"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/pipeline"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/proposal"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/run"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestRun(id string, createdAt int64, success bool) *run.Run {
	res := &pipeline.Result{
		RunID:     id,
		Success:   success,
		Timestamp: time.Unix(createdAt, 0).UTC(),
		Proposals: []*proposal.FeatureProposal{
			{Title: "Community-Requested: Enhanced Cosmetics Cosmetic", Category: "feature_request", Topic: "cosmetics", MonetizationType: proposal.Cosmetic, Priority: 0.8, F2PCompliant: true},
			{Title: "Community-Requested: Enhanced Balance Qol", Category: "complaint", MonetizationType: proposal.QoL, Priority: 0.4},
		},
		Drafts: []drafting.Issue{
			{Title: "[Feature] Cosmetics", Body: "body one", Labels: []string{"community-driven", "f2p-approved"}, Priority: "high", Milestone: "Next Release", CreatedAt: time.Unix(createdAt, 0).UTC()},
			{Title: "[Feature] Balance", Body: "body two", Labels: []string{"needs-review"}, Priority: "medium", CreatedAt: time.Unix(createdAt, 0).UTC()},
		},
	}
	res.TotalProposals = 2
	res.CompliantProposals = 1
	if !success {
		res.ErrorMessage = "validate stage failed: boom"
	}
	return run.FromResult(res)
}

func TestInsertAndGetRunByID(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	r := newTestRun("01J0000000000000000000000A", 1000, true)
	if err := InsertRun(ctx, db, r); err != nil {
		t.Fatalf("InsertRun() error = %v", err)
	}

	got, err := GetRunByID(ctx, db, r.ID, false)
	if err != nil {
		t.Fatalf("GetRunByID() error = %v", err)
	}
	if got.ID != r.ID || !got.Success || got.CreatedAt != 1000 {
		t.Errorf("got %+v", got)
	}
	if got.TotalProposals != 2 || got.CompliantProposals != 1 {
		t.Errorf("totals = %d/%d, want 2/1", got.TotalProposals, got.CompliantProposals)
	}
	if got.ErrorMessage != nil {
		t.Errorf("ErrorMessage = %v, want nil", *got.ErrorMessage)
	}
	if len(got.Result.Proposals) != 2 || got.Result.Proposals[0].Topic != "cosmetics" {
		t.Errorf("Result.Proposals = %+v", got.Result.Proposals)
	}
}

func TestInsertRun_FailedRun(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	r := newTestRun("01J0000000000000000000000B", 1000, false)
	if err := InsertRun(ctx, db, r); err != nil {
		t.Fatalf("InsertRun() error = %v", err)
	}
	got, err := GetRunByID(ctx, db, r.ID, false)
	if err != nil {
		t.Fatalf("GetRunByID() error = %v", err)
	}
	if got.Success || got.ErrorMessage == nil || *got.ErrorMessage != "validate stage failed: boom" {
		t.Errorf("got success=%v error=%v", got.Success, got.ErrorMessage)
	}
}

func TestInsertRun_Conflict(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	r := newTestRun("01J0000000000000000000000C", 1000, true)
	if err := InsertRun(ctx, db, r); err != nil {
		t.Fatalf("InsertRun() error = %v", err)
	}
	err := InsertRun(ctx, db, r)
	if !errors.Is(err, errors.ErrConflict) {
		t.Fatalf("second InsertRun() error = %v, want CONFLICT", err)
	}

	// The failed insert must not leave partial child rows behind.
	rows, err := ListProposals(ctx, db, ProposalFilter{RunID: r.ID})
	if err != nil {
		t.Fatalf("ListProposals() error = %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("proposals = %d, want 2", len(rows))
	}
}

func TestInsertRun_NoResult(t *testing.T) {
	db := openTestDB(t)
	err := InsertRun(context.Background(), db, &run.Run{ID: "x"})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Fatalf("error = %v, want INVALID_REQUEST", err)
	}
}

func TestGetRunByID_NotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := GetRunByID(context.Background(), db, "missing", false)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("error = %v, want NOT_FOUND", err)
	}
}

func TestGetLatestRun(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	latest, err := GetLatestRun(ctx, db, false)
	if err != nil {
		t.Fatalf("GetLatestRun() error = %v", err)
	}
	if latest != nil {
		t.Fatalf("GetLatestRun() on empty db = %v, want nil", latest)
	}

	for _, r := range []*run.Run{
		newTestRun("01J0000000000000000000000A", 1000, true),
		newTestRun("01J0000000000000000000000C", 2000, true),
		newTestRun("01J0000000000000000000000B", 2000, false),
	} {
		if err := InsertRun(ctx, db, r); err != nil {
			t.Fatalf("InsertRun() error = %v", err)
		}
	}

	latest, err = GetLatestRun(ctx, db, false)
	if err != nil {
		t.Fatalf("GetLatestRun() error = %v", err)
	}
	if latest.ID != "01J0000000000000000000000C" {
		t.Errorf("latest = %s, want ...C (id breaks created_at tie)", latest.ID)
	}

	if err := SoftDeleteRun(ctx, db, latest.ID); err != nil {
		t.Fatalf("SoftDeleteRun() error = %v", err)
	}
	latest, err = GetLatestRun(ctx, db, false)
	if err != nil {
		t.Fatalf("GetLatestRun() error = %v", err)
	}
	if latest.ID != "01J0000000000000000000000B" {
		t.Errorf("latest after delete = %s, want ...B", latest.ID)
	}
	withDeleted, err := GetLatestRun(ctx, db, true)
	if err != nil {
		t.Fatalf("GetLatestRun(includeDeleted) error = %v", err)
	}
	if withDeleted.ID != "01J0000000000000000000000C" || withDeleted.DeletedAt == nil {
		t.Errorf("latest including deleted = %s deleted=%v", withDeleted.ID, withDeleted.DeletedAt)
	}
}

func TestListRuns_Pagination(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for i := range 5 {
		r := newTestRun(fmt.Sprintf("01J000000000000000000000%02d", i), int64(1000+i), i%2 == 0)
		if err := InsertRun(ctx, db, r); err != nil {
			t.Fatalf("InsertRun() error = %v", err)
		}
	}

	page, total, err := ListRuns(ctx, db, RunFilter{}, 2, 0, false)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if total != 5 || len(page) != 2 {
		t.Fatalf("total=%d len=%d, want 5/2", total, len(page))
	}
	if page[0].ID != "01J00000000000000000000004" || page[1].ID != "01J00000000000000000000003" {
		t.Errorf("order = %s, %s", page[0].ID, page[1].ID)
	}

	page, _, err = ListRuns(ctx, db, RunFilter{}, 2, 4, false)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(page) != 1 || page[0].ID != "01J00000000000000000000000" {
		t.Errorf("last page = %+v", page)
	}

	failed := false
	page, total, err = ListRuns(ctx, db, RunFilter{Success: &failed}, 10, 0, false)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if total != 2 || len(page) != 2 {
		t.Errorf("failed runs total=%d len=%d, want 2/2", total, len(page))
	}
}

func TestListRuns_IncludeDeleted(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	r := newTestRun("01J0000000000000000000000A", 1000, true)
	if err := InsertRun(ctx, db, r); err != nil {
		t.Fatalf("InsertRun() error = %v", err)
	}
	if err := SoftDeleteRun(ctx, db, r.ID); err != nil {
		t.Fatalf("SoftDeleteRun() error = %v", err)
	}

	page, total, err := ListRuns(ctx, db, RunFilter{}, 10, 0, false)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if total != 0 || page == nil || len(page) != 0 {
		t.Errorf("active runs = %v (total %d), want empty non-nil", page, total)
	}

	page, total, err = ListRuns(ctx, db, RunFilter{}, 10, 0, true)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if total != 1 || page[0].DeletedAt == nil {
		t.Errorf("with deleted = %+v", page)
	}
}

func TestListProposals(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	older := newTestRun("01J0000000000000000000000A", 1000, true)
	newer := newTestRun("01J0000000000000000000000B", 2000, true)
	for _, r := range []*run.Run{older, newer} {
		if err := InsertRun(ctx, db, r); err != nil {
			t.Fatalf("InsertRun() error = %v", err)
		}
	}

	all, err := ListProposals(ctx, db, ProposalFilter{})
	if err != nil {
		t.Fatalf("ListProposals() error = %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("len = %d, want 4", len(all))
	}
	if all[0].RunID != newer.ID || all[0].Position != 0 || all[1].Position != 1 {
		t.Errorf("order = %+v", all)
	}

	compliant, err := ListProposals(ctx, db, ProposalFilter{RunID: older.ID, CompliantOnly: true})
	if err != nil {
		t.Fatalf("ListProposals() error = %v", err)
	}
	if len(compliant) != 1 || !compliant[0].Proposal.F2PCompliant {
		t.Errorf("compliant = %+v", compliant)
	}

	byCategory, err := ListProposals(ctx, db, ProposalFilter{Category: "complaint"})
	if err != nil {
		t.Fatalf("ListProposals() error = %v", err)
	}
	if len(byCategory) != 2 {
		t.Errorf("complaint proposals = %d, want 2", len(byCategory))
	}

	if err := SoftDeleteRun(ctx, db, newer.ID); err != nil {
		t.Fatalf("SoftDeleteRun() error = %v", err)
	}
	all, err = ListProposals(ctx, db, ProposalFilter{})
	if err != nil {
		t.Fatalf("ListProposals() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("after delete len = %d, want 2", len(all))
	}
}

func TestListDrafts(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	r := newTestRun("01J0000000000000000000000A", 1000, true)
	if err := InsertRun(ctx, db, r); err != nil {
		t.Fatalf("InsertRun() error = %v", err)
	}

	drafts, err := ListDrafts(ctx, db, r.ID)
	if err != nil {
		t.Fatalf("ListDrafts() error = %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("len = %d, want 2", len(drafts))
	}
	if drafts[0].Title != "[Feature] Cosmetics" || drafts[0].Milestone != "Next Release" {
		t.Errorf("drafts[0] = %+v", drafts[0])
	}
	if len(drafts[1].Labels) != 1 || drafts[1].Labels[0] != "needs-review" || drafts[1].Milestone != "" {
		t.Errorf("drafts[1] = %+v", drafts[1])
	}
	if !drafts[0].CreatedAt.Equal(time.Unix(1000, 0)) {
		t.Errorf("CreatedAt = %v", drafts[0].CreatedAt)
	}

	none, err := ListDrafts(ctx, db, "missing")
	if err != nil {
		t.Fatalf("ListDrafts() error = %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("ListDrafts(missing) = %v, want empty", none)
	}
}

func TestSoftDeleteRun(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	r := newTestRun("01J0000000000000000000000A", 1000, true)
	if err := InsertRun(ctx, db, r); err != nil {
		t.Fatalf("InsertRun() error = %v", err)
	}
	if err := SoftDeleteRun(ctx, db, r.ID); err != nil {
		t.Fatalf("SoftDeleteRun() error = %v", err)
	}

	if _, err := GetRunByID(ctx, db, r.ID, false); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetRunByID() after delete error = %v, want NOT_FOUND", err)
	}
	got, err := GetRunByID(ctx, db, r.ID, true)
	if err != nil {
		t.Fatalf("GetRunByID(includeDeleted) error = %v", err)
	}
	if got.DeletedAt == nil {
		t.Error("DeletedAt = nil, want set")
	}

	if err := SoftDeleteRun(ctx, db, r.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second SoftDeleteRun() error = %v, want NOT_FOUND", err)
	}
}

func TestPurgeDeleted(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	keep := newTestRun("01J0000000000000000000000A", 1000, true)
	drop := newTestRun("01J0000000000000000000000B", 2000, true)
	for _, r := range []*run.Run{keep, drop} {
		if err := InsertRun(ctx, db, r); err != nil {
			t.Fatalf("InsertRun() error = %v", err)
		}
	}
	if err := SoftDeleteRun(ctx, db, drop.ID); err != nil {
		t.Fatalf("SoftDeleteRun() error = %v", err)
	}

	days := 7
	count, err := PurgeDeleted(ctx, db, &days)
	if err != nil {
		t.Fatalf("PurgeDeleted(7 days) error = %v", err)
	}
	if count != 0 {
		t.Errorf("purged recently deleted run: count = %d", count)
	}

	count, err = PurgeDeleted(ctx, db, nil)
	if err != nil {
		t.Fatalf("PurgeDeleted() error = %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	if _, err := GetRunByID(ctx, db, drop.ID, true); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("purged run still present: %v", err)
	}
	var children int
	if err := db.QueryRow("SELECT (SELECT COUNT(*) FROM proposals WHERE run_id = ?) + (SELECT COUNT(*) FROM drafts WHERE run_id = ?)", drop.ID, drop.ID).Scan(&children); err != nil {
		t.Fatalf("count children: %v", err)
	}
	if children != 0 {
		t.Errorf("child rows left = %d", children)
	}
	if _, err := GetRunByID(ctx, db, keep.ID, false); err != nil {
		t.Errorf("active run removed: %v", err)
	}
}

func TestStreamForExport(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, r := range []*run.Run{
		newTestRun("01J0000000000000000000000B", 2000, true),
		newTestRun("01J0000000000000000000000A", 1000, true),
	} {
		if err := InsertRun(ctx, db, r); err != nil {
			t.Fatalf("InsertRun() error = %v", err)
		}
	}

	rows, err := StreamForExport(ctx, db, false)
	if err != nil {
		t.Fatalf("StreamForExport() error = %v", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		r, err := ScanRunFromRows(rows)
		if err != nil {
			t.Fatalf("ScanRunFromRows() error = %v", err)
		}
		ids = append(ids, r.ID)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows.Err() = %v", err)
	}
	if len(ids) != 2 || ids[0] != "01J0000000000000000000000A" {
		t.Errorf("ids = %v, want oldest first", ids)
	}
}
