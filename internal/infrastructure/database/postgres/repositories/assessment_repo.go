package repositories

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/recidivism-forecast/internal/domain/assessment"
	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/recidivism-forecast/pkg/errors"
)

// AssessmentRepository is the PostgreSQL implementation of
// assessment.Repository.  The full report is stored as JSONB next to the
// indexed headline columns.
type AssessmentRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

var _ assessment.Repository = (*AssessmentRepository)(nil)

// NewAssessmentRepository constructs a ready-to-use AssessmentRepository.
func NewAssessmentRepository(pool *pgxpool.Pool, logger logging.Logger) *AssessmentRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &AssessmentRepository{pool: pool, logger: logger.Named("assessment_repo")}
}

const assessmentColumns = `id, person_id, source, profile_hash, report, created_at`

// ─────────────────────────────────────────────────────────────────────────────
// Save
// ─────────────────────────────────────────────────────────────────────────────

// Save inserts a new assessment.
func (r *AssessmentRepository) Save(ctx context.Context, a *assessment.Assessment) error {
	r.logger.Debug("AssessmentRepository.Save", logging.String("assessment_id", a.ID))

	reportJSON, err := json.Marshal(a.Report)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeSerialization, "failed to encode report")
	}

	_, err = conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO assessments (id, person_id, source, profile_hash, risk_score, risk_level, report, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.PersonID, string(a.Source), a.ProfileHash, a.Score(), string(a.Level()), reportJSON, a.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.Conflict("assessment already exists").WithDetail(a.ID)
		}
		r.logger.Error("AssessmentRepository.Save: insert", logging.Err(err))
		return appErrors.Wrap(err, appErrors.ErrCodeAssessmentSaveFailed, "failed to insert assessment")
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Queries
// ─────────────────────────────────────────────────────────────────────────────

// FindByID loads an assessment by its primary key.
func (r *AssessmentRepository) FindByID(ctx context.Context, id string) (*assessment.Assessment, error) {
	r.logger.Debug("AssessmentRepository.FindByID", logging.String("assessment_id", id))
	return r.scanAssessment(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+assessmentColumns+` FROM assessments WHERE id = $1`, id))
}

// FindByPerson lists a person's assessments, newest first.
func (r *AssessmentRepository) FindByPerson(ctx context.Context, personID string, opts ...assessment.QueryOption) ([]*assessment.Assessment, error) {
	o := assessment.ApplyOptions(opts...)
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+assessmentColumns+`
		FROM assessments
		WHERE person_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`, personID, o.Limit, o.Offset)
	if err != nil {
		r.logger.Error("AssessmentRepository.FindByPerson: query", logging.Err(err))
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to list assessments")
	}
	defer rows.Close()

	out := make([]*assessment.Assessment, 0, o.Limit)
	for rows.Next() {
		a, err := r.scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to iterate assessments")
	}
	return out, nil
}

// CountByLevel returns the number of stored assessments per risk level.
func (r *AssessmentRepository) CountByLevel(ctx context.Context) (map[risk.Level]int64, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT risk_level, COUNT(*) FROM assessments GROUP BY risk_level`)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to count assessments")
	}
	defer rows.Close()

	counts := make(map[risk.Level]int64)
	for rows.Next() {
		var level string
		var n int64
		if err := rows.Scan(&level, &n); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to scan level count")
		}
		counts[risk.Level(level)] = n
	}
	return counts, rows.Err()
}

// scanAssessment maps one row; pgx.Rows satisfies pgx.Row.
func (r *AssessmentRepository) scanAssessment(row pgx.Row) (*assessment.Assessment, error) {
	var (
		a          assessment.Assessment
		source     string
		reportJSON []byte
	)
	err := row.Scan(&a.ID, &a.PersonID, &source, &a.ProfileHash, &reportJSON, &a.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, appErrors.New(appErrors.ErrCodeAssessmentNotFound, "assessment not found")
		}
		r.logger.Error("scanAssessment", logging.Err(err))
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to scan assessment row")
	}
	a.Source = assessment.Source(source)
	if err := json.Unmarshal(reportJSON, &a.Report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeSerialization, "failed to decode stored report")
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

//Personal.AI order the ending
