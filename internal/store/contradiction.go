package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/credence-ai/credence/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ContradictionStore struct {
	db *pgxpool.Pool
}

func NewContradictionStore(db *pgxpool.Pool) *ContradictionStore {
	return &ContradictionStore{db: db}
}

const contradictionColumns = `id, old_memory_id, new_memory_id, drift_mean, confidence_delta, status, contradiction_type, affects_slots, summary, confirmation_count, confirmed_memory_id, deferred_at, resolved_at, created_at`

func scanContradiction(row pgx.Row) (*domain.Contradiction, error) {
	c := &domain.Contradiction{}
	err := row.Scan(&c.ID, &c.OldMemoryID, &c.NewMemoryID, &c.DriftMean, &c.ConfidenceDelta, &c.Status, &c.Type, &c.AffectsSlots, &c.Summary, &c.ConfirmationCount, &c.ConfirmedMemoryID, &c.DeferredAt, &c.ResolvedAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Record appends a ledger entry, or bumps the confirmation counter when an
// unresolved entry for the same pair carries an identical signature (same
// sorted slot set, driftMean within epsilon). A new entry and the penalty on
// the old memory commit in one transaction, so a crash can never leave a
// contradiction referencing a not-yet-degraded memory.
func (s *ContradictionStore) Record(ctx context.Context, e *domain.Contradiction, opts domain.RecordOpts) (*domain.Contradiction, bool, error) {
	if e.AffectsSlots == nil {
		e.AffectsSlots = []string{}
	}
	sort.Strings(e.AffectsSlots)
	if e.Status == "" {
		e.Status = domain.StatusOpen
	}
	if e.ConfirmationCount == 0 {
		e.ConfirmationCount = 1
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	existing, err := scanContradiction(tx.QueryRow(ctx,
		`SELECT `+contradictionColumns+` FROM contradictions
		 WHERE old_memory_id = $1 AND new_memory_id = $2
		   AND status IN ('open', 'settling')
		   AND affects_slots = $3
		   AND ABS(drift_mean - $4) <= $5
		 ORDER BY created_at ASC
		 LIMIT 1
		 FOR UPDATE`,
		e.OldMemoryID, e.NewMemoryID, e.AffectsSlots, e.DriftMean, opts.SignatureEpsilon,
	))
	switch {
	case err == nil:
		if err := tx.QueryRow(ctx,
			`UPDATE contradictions SET confirmation_count = confirmation_count + 1
			 WHERE id = $1 RETURNING confirmation_count`,
			existing.ID,
		).Scan(&existing.ConfirmationCount); err != nil {
			return nil, false, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, false, fmt.Errorf("lookup contradiction signature: %w", err)
	}

	if err := tx.QueryRow(ctx,
		`INSERT INTO contradictions (old_memory_id, new_memory_id, drift_mean, confidence_delta, status, contradiction_type, affects_slots, summary, confirmation_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at`,
		e.OldMemoryID, e.NewMemoryID, e.DriftMean, e.ConfidenceDelta, e.Status, e.Type, e.AffectsSlots, e.Summary, e.ConfirmationCount,
	).Scan(&e.ID, &e.CreatedAt); err != nil {
		return nil, false, fmt.Errorf("insert contradiction: %w", err)
	}

	if opts.Penalty != nil {
		if _, err := applyTrustTx(ctx, tx, e.OldMemoryID, opts.Penalty); err != nil {
			return nil, false, fmt.Errorf("degrade contradicted memory: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return e, true, nil
}

func (s *ContradictionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contradiction, error) {
	c, err := scanContradiction(s.db.QueryRow(ctx,
		`SELECT `+contradictionColumns+` FROM contradictions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// ListOpen returns unresolved entries, optionally scoped to fact slots. The
// scoping is a correctness requirement: a conflict about one slot must never
// block answers about another.
func (s *ContradictionStore) ListOpen(ctx context.Context, slotFilter []string) ([]domain.Contradiction, error) {
	query := `SELECT ` + contradictionColumns + ` FROM contradictions
		 WHERE status IN ('open', 'settling')`
	var args []any
	if len(slotFilter) > 0 {
		query += ` AND affects_slots && $1`
		args = append(args, slotFilter)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list open contradictions: %w", err)
	}
	defer rows.Close()

	var results []domain.Contradiction
	for rows.Next() {
		c, err := scanContradiction(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *c)
	}
	return results, rows.Err()
}

func (s *ContradictionStore) UnresolvedCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM contradictions WHERE status IN ('open', 'settling')`,
	).Scan(&count)
	return count, err
}

// ConfirmSide registers that a later query resolved to memoryID's side.
// Repeated confirmations of the same side age the entry toward Settled; a
// confirmation of the other side switches sides and restarts the count.
// Terminal entries are returned unchanged.
func (s *ContradictionStore) ConfirmSide(ctx context.Context, id, memoryID uuid.UUID, settlingAt, settledAt int) (*domain.Contradiction, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	c, err := scanContradiction(tx.QueryRow(ctx,
		`SELECT `+contradictionColumns+` FROM contradictions WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if memoryID != c.OldMemoryID && memoryID != c.NewMemoryID {
		return nil, ErrInvalidResolution
	}
	if c.Status.Terminal() {
		return c, tx.Commit(ctx)
	}

	if c.ConfirmedMemoryID != nil && *c.ConfirmedMemoryID == memoryID {
		c.ConfirmationCount++
	} else {
		c.ConfirmedMemoryID = &memoryID
		c.ConfirmationCount = 1
	}

	switch {
	case c.ConfirmationCount >= settledAt:
		c.Status = domain.StatusSettled
	case c.ConfirmationCount >= settlingAt:
		c.Status = domain.StatusSettling
	}

	if _, err := tx.Exec(ctx,
		`UPDATE contradictions SET status = $1, confirmation_count = $2, confirmed_memory_id = $3 WHERE id = $4`,
		c.Status, c.ConfirmationCount, c.ConfirmedMemoryID, c.ID,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Resolve applies an explicit decision. Override degrades the losing
// memory's trust in the same transaction; Preserve keeps both valid; AskUser
// defers, leaving the entry Open but stamped so it is not re-surfaced every
// turn.
func (s *ContradictionStore) Resolve(ctx context.Context, id uuid.UUID, decision domain.ResolutionDecision, chosen *uuid.UUID, penalty domain.TrustApplyFunc) (*domain.Contradiction, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	c, err := scanContradiction(tx.QueryRow(ctx,
		`SELECT `+contradictionColumns+` FROM contradictions WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if c.Status.Terminal() {
		return nil, ErrAlreadyResolved
	}

	switch decision {
	case domain.DecisionOverride:
		if chosen == nil || (*chosen != c.OldMemoryID && *chosen != c.NewMemoryID) {
			return nil, ErrInvalidResolution
		}
		loser := c.OldMemoryID
		if *chosen == c.OldMemoryID {
			loser = c.NewMemoryID
		}
		if penalty != nil {
			if _, err := applyTrustTx(ctx, tx, loser, penalty); err != nil {
				return nil, fmt.Errorf("degrade overridden memory: %w", err)
			}
		}
		c.Status = domain.StatusResolved
		c.ConfirmedMemoryID = chosen
		if err := tx.QueryRow(ctx,
			`UPDATE contradictions SET status = $1, confirmed_memory_id = $2, resolved_at = NOW()
			 WHERE id = $3 RETURNING resolved_at`,
			c.Status, chosen, c.ID,
		).Scan(&c.ResolvedAt); err != nil {
			return nil, err
		}

	case domain.DecisionPreserve:
		c.Status = domain.StatusResolved
		if err := tx.QueryRow(ctx,
			`UPDATE contradictions SET status = $1, resolved_at = NOW()
			 WHERE id = $2 RETURNING resolved_at`,
			c.Status, c.ID,
		).Scan(&c.ResolvedAt); err != nil {
			return nil, err
		}

	case domain.DecisionAskUser:
		if err := tx.QueryRow(ctx,
			`UPDATE contradictions SET deferred_at = NOW()
			 WHERE id = $1 RETURNING deferred_at`,
			c.ID,
		).Scan(&c.DeferredAt); err != nil {
			return nil, err
		}

	default:
		return nil, ErrInvalidResolution
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return c, nil
}
