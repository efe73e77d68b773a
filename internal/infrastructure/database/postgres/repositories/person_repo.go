package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/recidivism-forecast/internal/domain/assessment"
	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/recidivism-forecast/pkg/errors"
)

// PersonRepository is the PostgreSQL implementation of
// assessment.PersonRepository.
type PersonRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

var _ assessment.PersonRepository = (*PersonRepository)(nil)

// NewPersonRepository constructs a ready-to-use PersonRepository.
func NewPersonRepository(pool *pgxpool.Pool, logger logging.Logger) *PersonRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &PersonRepository{pool: pool, logger: logger.Named("person_repo")}
}

// SavePerson inserts or updates a person.
func (r *PersonRepository) SavePerson(ctx context.Context, p *assessment.Person) error {
	if strings.TrimSpace(p.ID) == "" {
		return appErrors.InvalidParam("person id is required")
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO persons (id, display_name, birth_date, has_property, has_job, has_family, substance_abuse, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			display_name    = EXCLUDED.display_name,
			birth_date      = EXCLUDED.birth_date,
			has_property    = EXCLUDED.has_property,
			has_job         = EXCLUDED.has_job,
			has_family      = EXCLUDED.has_family,
			substance_abuse = EXCLUDED.substance_abuse,
			updated_at      = EXCLUDED.updated_at`,
		p.ID, p.DisplayName, nullableDate(p.BirthDate), p.HasProperty, p.HasJob, p.HasFamily, p.SubstanceAbuse,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("PersonRepository.SavePerson", logging.String("person_id", p.ID), logging.Err(err))
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to save person")
	}
	return nil
}

// FindPerson loads a person by id.
func (r *PersonRepository) FindPerson(ctx context.Context, id string) (*assessment.Person, error) {
	var (
		p         assessment.Person
		birthDate *time.Time
	)
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, display_name, birth_date, has_property, has_job, has_family, substance_abuse, created_at, updated_at
		FROM persons WHERE id = $1`, id).
		Scan(&p.ID, &p.DisplayName, &birthDate, &p.HasProperty, &p.HasJob, &p.HasFamily, &p.SubstanceAbuse,
			&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, appErrors.New(appErrors.ErrCodePersonNotFound, "person not found").WithDetail(id)
		}
		r.logger.Error("PersonRepository.FindPerson", logging.String("person_id", id), logging.Err(err))
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to load person")
	}
	if birthDate != nil {
		p.BirthDate = birthDate.UTC()
	}
	return &p, nil
}

// AddViolation records one violation.  A missing id is generated.
func (r *PersonRepository) AddViolation(ctx context.Context, v *risk.Violation) error {
	if v.Kind != risk.KindCriminal && v.Kind != risk.KindAdministrative {
		return appErrors.InvalidParam("violation kind must be criminal or administrative").WithDetail(string(v.Kind))
	}
	if v.Date.IsZero() {
		return appErrors.InvalidParam("violation_date is required")
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	}

	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO violations (id, person_id, violation_date, kind, category, description)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		v.ID, v.PersonID, v.Date.UTC(), string(v.Kind), v.Category, v.Description,
	)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return appErrors.New(appErrors.ErrCodePersonNotFound, "person not found").WithDetail(v.PersonID)
		case isUniqueViolation(err):
			return appErrors.Conflict("violation already exists").WithDetail(v.ID)
		}
		r.logger.Error("PersonRepository.AddViolation", logging.String("person_id", v.PersonID), logging.Err(err))
		return appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to insert violation")
	}
	return nil
}

// ListViolations returns a person's violations in chronological order.
func (r *PersonRepository) ListViolations(ctx context.Context, personID string) ([]risk.Violation, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, person_id, violation_date, kind, category, description
		FROM violations
		WHERE person_id = $1
		ORDER BY violation_date, id`, personID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to list violations")
	}
	defer rows.Close()

	out := make([]risk.Violation, 0)
	for rows.Next() {
		var (
			v    risk.Violation
			kind string
		)
		if err := rows.Scan(&v.ID, &v.PersonID, &v.Date, &kind, &v.Category, &v.Description); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to scan violation")
		}
		v.Kind = risk.ViolationKind(kind)
		v.Date = v.Date.UTC()
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeDatabaseError, "failed to iterate violations")
	}
	return out, nil
}

func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

//Personal.AI order the ending
