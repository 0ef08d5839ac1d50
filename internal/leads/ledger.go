package leads

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"marketing-api/internal/common/errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Dispatch statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Routing steps, in execution order.
const (
	StepContact     = "contact"
	StepOpportunity = "opportunity"
	StepWorkflow    = "workflow"
	StepAppointment = "appointment"
)

// Dispatch is one routing attempt. A failed row lists every ID created
// before the failing step so the partial CRM state can be cleaned up.
type Dispatch struct {
	ID            uuid.UUID
	Kind          string
	Email         string
	Score         int
	Priority      Priority
	ContactID     string
	OpportunityID string
	WorkflowID    string
	AppointmentID string
	Status        string
	FailedStep    string
	Error         string
	CreatedAt     time.Time
}

// Ledger records dispatches.
type Ledger interface {
	Record(ctx context.Context, d Dispatch) error
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS lead_dispatches (
	id             UUID PRIMARY KEY,
	kind           TEXT NOT NULL,
	email          TEXT NOT NULL,
	score          INTEGER NOT NULL,
	priority       TEXT NOT NULL,
	contact_id     TEXT,
	opportunity_id TEXT,
	workflow_id    TEXT,
	appointment_id TEXT,
	status         TEXT NOT NULL,
	failed_step    TEXT,
	error          TEXT,
	created_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS lead_dispatches_status_idx ON lead_dispatches (status, created_at DESC);`

const insertSQL = `
INSERT INTO lead_dispatches (
	id, kind, email, score, priority, contact_id, opportunity_id, workflow_id,
	appointment_id, status, failed_step, error, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

const failedSQL = `
SELECT id, kind, email, score, priority, contact_id, opportunity_id, workflow_id,
	appointment_id, status, failed_step, error, created_at
FROM lead_dispatches
WHERE status = $1
ORDER BY created_at DESC
LIMIT $2`

// PostgresLedger stores dispatches in the lead_dispatches table.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, schemaSQL); err != nil {
		return ledgerError(err)
	}
	return nil
}

func (l *PostgresLedger) Record(ctx context.Context, d Dispatch) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := l.db.ExecContext(ctx, insertSQL,
		d.ID.String(), d.Kind, d.Email, d.Score, string(d.Priority),
		nullable(d.ContactID), nullable(d.OpportunityID), nullable(d.WorkflowID),
		nullable(d.AppointmentID), d.Status, nullable(d.FailedStep), nullable(d.Error),
		d.CreatedAt.UTC(),
	)
	if err != nil {
		return ledgerError(err)
	}
	return nil
}

// Failed returns the most recent failed dispatches, newest first.
func (l *PostgresLedger) Failed(ctx context.Context, limit int) ([]Dispatch, error) {
	rows, err := l.db.QueryContext(ctx, failedSQL, StatusFailed, limit)
	if err != nil {
		return nil, ledgerError(err)
	}
	defer rows.Close()

	var out []Dispatch
	for rows.Next() {
		var (
			d                                           Dispatch
			id, priority                                string
			contact, opp, workflow, appt, step, message sql.NullString
		)
		if err := rows.Scan(&id, &d.Kind, &d.Email, &d.Score, &priority, &contact, &opp,
			&workflow, &appt, &d.Status, &step, &message, &d.CreatedAt); err != nil {
			return nil, ledgerError(err)
		}
		d.ID, _ = uuid.Parse(id)
		d.Priority = Priority(priority)
		d.ContactID = contact.String
		d.OpportunityID = opp.String
		d.WorkflowID = workflow.String
		d.AppointmentID = appt.String
		d.FailedStep = step.String
		d.Error = message.String
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, ledgerError(err)
	}
	return out, nil
}

func ledgerError(err error) error {
	stdErr := errors.NewLedgerWriteFailedError(err)
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		stdErr.WithMetadata("pgCode", string(pqErr.Code))
	}
	return stdErr
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
