package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prepdesk/session-backend/internal/model"
)

// ResultRepository handles submitted-result data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Create inserts a freshly computed result. Results are write-once;
// a conflicting id is a programming error and surfaces as such.
func (r *ResultRepository) Create(ctx context.Context, res *model.Result) error {
	answers, err := json.Marshal(res.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	saved, err := json.Marshal(res.SavedAnswers)
	if err != nil {
		return fmt.Errorf("encode saved answers: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO exam_results
		   (id, test_id, test_name, owner_id, score, total_marks, attempted,
		    correct, incorrect, unattempted, time_taken, answers, saved_answers, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		res.ID, res.TestID, res.TestName, res.OwnerID, res.Score, res.TotalMarks,
		res.Attempted, res.Correct, res.Incorrect, res.Unattempted, res.TimeTaken,
		answers, saved, res.SubmittedAt,
	)
	return err
}

// GetByID retrieves a result for the review screen.
func (r *ResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Result, error) {
	var (
		res     model.Result
		answers []byte
		saved   []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, test_id, test_name, owner_id, score, total_marks, attempted,
		        correct, incorrect, unattempted, time_taken, answers, saved_answers,
		        submitted_at, synced_at
		 FROM exam_results
		 WHERE id = $1`, id,
	).Scan(&res.ID, &res.TestID, &res.TestName, &res.OwnerID, &res.Score, &res.TotalMarks,
		&res.Attempted, &res.Correct, &res.Incorrect, &res.Unattempted, &res.TimeTaken,
		&answers, &saved, &res.SubmittedAt, &res.SyncedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(answers, &res.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	if err := json.Unmarshal(saved, &res.SavedAnswers); err != nil {
		return nil, fmt.Errorf("decode saved answers: %w", err)
	}
	return &res, nil
}

// ListByOwner retrieves an owner's past results, newest first.
func (r *ResultRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]model.Result, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, test_id, test_name, owner_id, score, total_marks, attempted,
		        correct, incorrect, unattempted, time_taken, submitted_at, synced_at
		 FROM exam_results
		 WHERE owner_id = $1
		 ORDER BY submitted_at DESC
		 LIMIT $2`, ownerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		var res model.Result
		if err := rows.Scan(&res.ID, &res.TestID, &res.TestName, &res.OwnerID, &res.Score,
			&res.TotalMarks, &res.Attempted, &res.Correct, &res.Incorrect, &res.Unattempted,
			&res.TimeTaken, &res.SubmittedAt, &res.SyncedAt); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// MarkSynced records a successful push to the upstream content API.
func (r *ResultRepository) MarkSynced(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exam_results SET synced_at = $1 WHERE id = $2`, at, id)
	return err
}
