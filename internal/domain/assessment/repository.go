package assessment

import (
	"context"

	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
)

// Repository defines the persistence operations for assessments.
type Repository interface {
	Save(ctx context.Context, a *Assessment) error
	FindByID(ctx context.Context, id string) (*Assessment, error)
	FindByPerson(ctx context.Context, personID string, opts ...QueryOption) ([]*Assessment, error)
	CountByLevel(ctx context.Context) (map[risk.Level]int64, error)
}

// PersonRepository defines the persistence operations for people and their
// violation records.
type PersonRepository interface {
	SavePerson(ctx context.Context, p *Person) error
	FindPerson(ctx context.Context, id string) (*Person, error)
	AddViolation(ctx context.Context, v *risk.Violation) error
	ListViolations(ctx context.Context, personID string) ([]risk.Violation, error)
}

// QueryOptions encapsulates list parameters.
type QueryOptions struct {
	Offset int
	Limit  int
}

// QueryOption is a functional option for QueryOptions.
type QueryOption func(*QueryOptions)

// DefaultListLimit and MaxListLimit bound list queries.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// WithPagination sets pagination options.
func WithPagination(offset, limit int) QueryOption {
	return func(o *QueryOptions) {
		if offset < 0 {
			offset = 0
		}
		if limit < 1 {
			limit = DefaultListLimit
		}
		if limit > MaxListLimit {
			limit = MaxListLimit
		}
		o.Offset = offset
		o.Limit = limit
	}
}

// ApplyOptions applies the functional options to create QueryOptions.
func ApplyOptions(opts ...QueryOption) QueryOptions {
	o := QueryOptions{Limit: DefaultListLimit}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

//Personal.AI order the ending
