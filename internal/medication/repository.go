package medication

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned by FindByName when no medication matches.
var ErrNotFound = errors.New("medication not found")

const searchLimit = 20

type Repository interface {
	List(ctx context.Context) ([]Medication, error)
	Search(ctx context.Context, query string) ([]Medication, error)
	FindByName(ctx context.Context, name string) (*Medication, error)
	Interactions(ctx context.Context, medicationID int64) ([]Interaction, error)
}

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const selectWithCategory = `
SELECT m.id, m.name, COALESCE(m.generic_name, ''), COALESCE(m.cyp450_enzyme, ''),
       COALESCE(m.description, ''), COALESCE(m.common_dosage, ''),
       mc.id, mc.name, mc.risk_level, mc.can_reduce_to_zero,
       mc.default_min_target_fraction, mc.max_weekly_reduction_pct,
       mc.requires_specialist, mc.notes
FROM medications m
LEFT JOIN medication_categories mc ON m.category_id = mc.id`

func (r *postgresRepo) List(ctx context.Context) ([]Medication, error) {
	rows, err := r.pool.Query(ctx, selectWithCategory+` ORDER BY m.name`)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	return collectMedications(rows)
}

func (r *postgresRepo) Search(ctx context.Context, query string) ([]Medication, error) {
	rows, err := r.pool.Query(ctx,
		selectWithCategory+` WHERE m.name ILIKE $1 ESCAPE '\' OR m.generic_name ILIKE $1 ESCAPE '\' ORDER BY m.name LIMIT $2`,
		containsPattern(query), searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search medications: %w", err)
	}
	return collectMedications(rows)
}

func (r *postgresRepo) FindByName(ctx context.Context, name string) (*Medication, error) {
	row := r.pool.QueryRow(ctx,
		selectWithCategory+` WHERE m.name ILIKE $1 ESCAPE '\' OR m.generic_name ILIKE $1 ESCAPE '\' ORDER BY m.id LIMIT 1`,
		containsPattern(name))
	m, err := scanMedication(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find medication %q: %w", name, err)
	}
	return m, nil
}

func (r *postgresRepo) Interactions(ctx context.Context, medicationID int64) ([]Interaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT medication_id, interaction_type, severity, COALESCE(description, ''),
		       COALESCE(mechanism, ''), COALESCE(recommendation, '')
		FROM cbd_interactions
		WHERE medication_id = $1
		ORDER BY id`, medicationID)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	out := []Interaction{}
	for rows.Next() {
		var i Interaction
		var severity string
		if err := rows.Scan(&i.MedicationID, &i.InteractionType, &severity, &i.Description, &i.Mechanism, &i.Recommendation); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		i.Severity = Severity(severity)
		out = append(out, i)
	}
	return out, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern matches input literally anywhere in the column.
func containsPattern(input string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(input)) + "%"
}

func collectMedications(rows pgx.Rows) ([]Medication, error) {
	defer rows.Close()
	out := []Medication{}
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medication: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func scanMedication(row pgx.Row) (*Medication, error) {
	var (
		m          Medication
		catID      *int64
		catName    *string
		risk       *string
		zero       *bool
		minFrac    *float64
		maxWeekly  *float64
		specialist *bool
		notes      *string
	)
	err := row.Scan(&m.ID, &m.Name, &m.GenericName, &m.CYP450Enzyme, &m.Description, &m.CommonDosage,
		&catID, &catName, &risk, &zero, &minFrac, &maxWeekly, &specialist, &notes)
	if err != nil {
		return nil, err
	}
	if catID != nil {
		m.Category = &Category{
			ID:                       *catID,
			Name:                     deref(catName),
			RiskLevel:                deref(risk),
			CanReduceToZero:          zero,
			DefaultMinTargetFraction: minFrac,
			MaxWeeklyReductionPct:    maxWeekly,
			RequiresSpecialist:       specialist != nil && *specialist,
			Notes:                    deref(notes),
		}
	}
	return &m, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
