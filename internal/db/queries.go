package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/drafting"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/errors"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/pipeline"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/proposal"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/run"
)

const runColumns = `
	id, success, total_insights, total_proposals, compliant_proposals,
	skipped_records, source_errors, execution_time_seconds, error_message,
	result_json, created_at, deleted_at`

// RunFilter narrows ListRuns.
type RunFilter struct {
	// Success, when set, keeps only successful (true) or failed (false) runs.
	Success *bool
}

// ProposalFilter narrows ListProposals. Proposals of soft-deleted runs are never returned.
type ProposalFilter struct {
	RunID         string
	Category      string
	CompliantOnly bool
}

// ProposalRow is a stored proposal with its run and position.
type ProposalRow struct {
	RunID    string                    `json:"run_id"`
	Position int                       `json:"position"`
	Proposal *proposal.FeatureProposal `json:"proposal"`
}

// InsertRun stores a run with its proposals and drafts in one transaction.
func InsertRun(ctx context.Context, db *sql.DB, r *run.Run) error {
	if r.Result == nil {
		return errors.NewInvalidRequest("run has no result")
	}
	resultJSON, err := json.Marshal(r.Result)
	if err != nil {
		return errors.NewInternal(err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Success, r.TotalInsights, r.TotalProposals, r.CompliantProposals,
		r.SkippedRecords, r.SourceErrors, r.ExecutionTimeSeconds, toNullString(r.ErrorMessage),
		string(resultJSON), r.CreatedAt, toNullInt64(r.DeletedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewConflict(r.ID)
		}
		return errors.NewInternal(err)
	}

	for i, p := range r.Result.Proposals {
		data, err := json.Marshal(p)
		if err != nil {
			return errors.NewInternal(err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO proposals (
				run_id, position, title, category, topic, monetization_type,
				priority, f2p_compliant, proposal_json
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, i, p.Title, p.Category, nullIfEmpty(p.Topic), string(p.MonetizationType),
			p.Priority, p.F2PCompliant, string(data),
		)
		if err != nil {
			return errors.NewInternal(err)
		}
	}

	for i, d := range r.Result.Drafts {
		labels, err := json.Marshal(d.Labels)
		if err != nil {
			return errors.NewInternal(err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO drafts (
				run_id, position, title, priority, labels_json, milestone, body, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, i, d.Title, d.Priority, string(labels), nullIfEmpty(d.Milestone),
			d.Body, d.CreatedAt.Unix(),
		)
		if err != nil {
			return errors.NewInternal(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetRunByID retrieves a run by its ULID.
// If includeDeleted is false, soft-deleted runs are excluded.
func GetRunByID(ctx context.Context, db *sql.DB, id string, includeDeleted bool) (*run.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ?`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}

	r, err := scanRun(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// GetLatestRun returns the most recent run, or nil when there is none.
// Ties on created_at are broken by id, which sorts by creation for ULIDs.
func GetLatestRun(ctx context.Context, db *sql.DB, includeDeleted bool) (*run.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	if !includeDeleted {
		query += " WHERE deleted_at IS NULL"
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT 1"

	r, err := scanRun(db.QueryRowContext(ctx, query))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// ListRuns returns run summaries newest first, plus the total matching count.
func ListRuns(ctx context.Context, db *sql.DB, filter RunFilter, limit, offset int, includeDeleted bool) ([]run.Summary, int, error) {
	var (
		where []string
		args  []any
	)
	if !includeDeleted {
		where = append(where, "deleted_at IS NULL")
	}
	if filter.Success != nil {
		where = append(where, "success = ?")
		args = append(args, *filter.Success)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs"+clause, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `SELECT ` + runColumns + ` FROM runs` + clause +
		" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	summaries := []run.Summary{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		summaries = append(summaries, r.ToSummary())
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return summaries, total, nil
}

// ListProposals returns stored proposals ordered by run recency, then position.
func ListProposals(ctx context.Context, db *sql.DB, filter ProposalFilter) ([]ProposalRow, error) {
	where := []string{"r.deleted_at IS NULL"}
	var args []any
	if filter.RunID != "" {
		where = append(where, "p.run_id = ?")
		args = append(args, filter.RunID)
	}
	if filter.Category != "" {
		where = append(where, "p.category = ?")
		args = append(args, filter.Category)
	}
	if filter.CompliantOnly {
		where = append(where, "p.f2p_compliant = 1")
	}

	query := `
		SELECT p.run_id, p.position, p.proposal_json
		FROM proposals p JOIN runs r ON r.id = p.run_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY r.created_at DESC, r.id DESC, p.position ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	out := []ProposalRow{}
	for rows.Next() {
		var (
			row  ProposalRow
			data string
		)
		if err := rows.Scan(&row.RunID, &row.Position, &data); err != nil {
			return nil, errors.NewInternal(err)
		}
		row.Proposal = &proposal.FeatureProposal{}
		if err := json.Unmarshal([]byte(data), row.Proposal); err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// ListDrafts returns the drafted issues of a run in position order.
func ListDrafts(ctx context.Context, db *sql.DB, runID string) ([]drafting.Issue, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT title, priority, labels_json, milestone, body, created_at
		FROM drafts WHERE run_id = ?
		ORDER BY position ASC`, runID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	out := []drafting.Issue{}
	for rows.Next() {
		var (
			d         drafting.Issue
			labels    string
			milestone sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&d.Title, &d.Priority, &labels, &milestone, &d.Body, &createdAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		if err := json.Unmarshal([]byte(labels), &d.Labels); err != nil {
			return nil, errors.NewInternal(err)
		}
		d.Milestone = milestone.String
		d.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// SoftDeleteRun marks a run as deleted by setting deleted_at.
func SoftDeleteRun(ctx context.Context, db *sql.DB, id string) error {
	result, err := db.ExecContext(ctx, `
		UPDATE runs SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL`, time.Now().Unix(), id)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}
	return nil
}

// PurgeDeleted permanently removes soft-deleted runs with their proposals and drafts.
// If olderThanDays is set, only runs deleted before now minus that many days are removed.
func PurgeDeleted(ctx context.Context, db *sql.DB, olderThanDays *int) (int, error) {
	where := "deleted_at IS NOT NULL"
	var args []any
	if olderThanDays != nil {
		cutoff := time.Now().Add(-time.Duration(*olderThanDays) * 24 * time.Hour).Unix()
		where += " AND deleted_at < ?"
		args = append(args, cutoff)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	defer tx.Rollback()

	for _, child := range []string{"proposals", "drafts"} {
		_, err := tx.ExecContext(ctx,
			"DELETE FROM "+child+" WHERE run_id IN (SELECT id FROM runs WHERE "+where+")", args...)
		if err != nil {
			return 0, errors.NewInternal(err)
		}
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE "+where, args...)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(count), nil
}

// StreamForExport returns rows of every run, oldest first, for ScanRunFromRows.
// The caller must close the rows.
func StreamForExport(ctx context.Context, db *sql.DB, includeDeleted bool) (*sql.Rows, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	if !includeDeleted {
		query += " WHERE deleted_at IS NULL"
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return rows, nil
}

// ScanRunFromRows scans the current row of StreamForExport.
func ScanRunFromRows(rows *sql.Rows) (*run.Run, error) {
	return scanRun(rows)
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*run.Run, error) {
	var (
		r          run.Run
		errMsg     sql.NullString
		resultJSON string
		deletedAt  sql.NullInt64
	)

	err := s.Scan(
		&r.ID, &r.Success, &r.TotalInsights, &r.TotalProposals, &r.CompliantProposals,
		&r.SkippedRecords, &r.SourceErrors, &r.ExecutionTimeSeconds, &errMsg,
		&resultJSON, &r.CreatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	r.ErrorMessage = fromNullString(errMsg)
	if deletedAt.Valid {
		r.DeletedAt = &deletedAt.Int64
	}

	r.Result = &pipeline.Result{}
	if err := json.Unmarshal([]byte(resultJSON), r.Result); err != nil {
		return nil, err
	}
	return &r, nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toNullInt64(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}
