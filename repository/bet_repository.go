package repository

import (
	"context"
	"fmt"

	"wagerpool/database"
	"wagerpool/models"
	"wagerpool/service"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const betColumns = `
	id, initiator, subject, duration, direction, threshold::text, approved_observed_at,
	status::text, group1_pool::text, group2_pool::text, winning_group, observed_value::text,
	residual::text, void, created_at, approved_at, closed_at, settled_at`

const memberColumns = `
	id, bet_id, group_number, position, address, wager::text, payout::text, created_at`

// BetRepository implements bet and member data access
type BetRepository struct {
	q queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

// newBetRepositoryWithTx creates a new bet repository with a transaction
func newBetRepositoryWithTx(tx queryable) service.BetRepository {
	return &BetRepository{q: tx}
}

// Create inserts a new bet and fills in its ID and creation time
func (r *BetRepository) Create(ctx context.Context, bet *models.Bet) error {
	query := `
		INSERT INTO bets (
			initiator, subject, duration, direction, status, group1_pool, group2_pool
		)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.Initiator,
		bet.Subject,
		bet.Duration,
		int16(bet.Direction),
		string(bet.Status),
		bet.Group1Pool.String(),
		bet.Group2Pool.String(),
	).Scan(&bet.ID, &bet.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bet: %w", err)
	}

	return nil
}

// GetByID retrieves a bet by its ID
func (r *BetRepository) GetByID(ctx context.Context, id int64) (*models.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE id = $1`

	bet, err := scanBet(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}

	return bet, nil
}

// GetByIDForUpdate retrieves a bet and holds its row lock until the transaction ends
func (r *BetRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE id = $1 FOR UPDATE`

	bet, err := scanBet(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock bet: %w", err)
	}

	return bet, nil
}

// GetDetailByID retrieves a bet with both member lists in position order
func (r *BetRepository) GetDetailByID(ctx context.Context, id int64) (*models.BetDetail, error) {
	bet, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bet == nil {
		return nil, nil
	}

	query := `SELECT ` + memberColumns + `
		FROM bet_members
		WHERE bet_id = $1
		ORDER BY group_number, position
	`

	rows, err := r.q.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query bet members: %w", err)
	}
	defer rows.Close()

	detail := &models.BetDetail{
		Bet:           bet,
		Group1Members: []*models.BetMember{},
		Group2Members: []*models.BetMember{},
	}
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet member: %w", err)
		}
		if member.Group == models.GroupTwo {
			detail.Group2Members = append(detail.Group2Members, member)
		} else {
			detail.Group1Members = append(detail.Group1Members, member)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bet members: %w", err)
	}

	return detail, nil
}

// Update persists the mutable fields of a bet
func (r *BetRepository) Update(ctx context.Context, bet *models.Bet) error {
	query := `
		UPDATE bets
		SET status = $2,
			threshold = $3::numeric,
			approved_observed_at = $4,
			group1_pool = $5::numeric,
			group2_pool = $6::numeric,
			winning_group = $7,
			observed_value = $8::numeric,
			residual = $9::numeric,
			void = $10,
			approved_at = $11,
			closed_at = $12,
			settled_at = $13
		WHERE id = $1
	`

	// NUMERIC(78, 0) rounds on insert; refuse instead of storing a different value
	for name, v := range map[string]*decimal.Decimal{
		"threshold":      bet.Threshold,
		"observed value": bet.ObservedValue,
		"residual":       bet.Residual,
	} {
		if v != nil && !v.IsInteger() {
			return fmt.Errorf("bet %d: %s %s is not a whole number", bet.ID, name, v)
		}
	}

	var winningGroup *int16
	if bet.WinningGroup != nil {
		g := int16(*bet.WinningGroup)
		winningGroup = &g
	}

	result, err := r.q.Exec(ctx, query,
		bet.ID,
		string(bet.Status),
		nullDecimalArg(bet.Threshold),
		bet.ApprovedObservedAt,
		bet.Group1Pool.String(),
		bet.Group2Pool.String(),
		winningGroup,
		nullDecimalArg(bet.ObservedValue),
		nullDecimalArg(bet.Residual),
		bet.Void,
		bet.ApprovedAt,
		bet.ClosedAt,
		bet.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update bet: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("bet %d not found", bet.ID)
	}

	return nil
}

// List returns bets newest first, optionally filtered by status
func (r *BetRepository) List(ctx context.Context, status *models.BetStatus, limit int) ([]*models.Bet, error) {
	var query string
	var args []any

	if status != nil {
		query = `SELECT ` + betColumns + `
			FROM bets
			WHERE status = $1
			ORDER BY id DESC
			LIMIT $2
		`
		args = append(args, string(*status), limit)
	} else {
		query = `SELECT ` + betColumns + `
			FROM bets
			ORDER BY id DESC
			LIMIT $1
		`
		args = append(args, limit)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bets: %w", err)
	}
	defer rows.Close()

	bets := []*models.Bet{}
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}

	return bets, nil
}

// AddMember appends a member after the last position of its group.
// Callers hold the bet row lock so positions stay dense.
func (r *BetRepository) AddMember(ctx context.Context, member *models.BetMember) error {
	query := `
		INSERT INTO bet_members (bet_id, group_number, position, address, wager)
		VALUES (
			$1, $2,
			(SELECT COALESCE(MAX(position) + 1, 0) FROM bet_members WHERE bet_id = $1 AND group_number = $2),
			$3, $4::numeric
		)
		RETURNING id, position, created_at
	`

	err := r.q.QueryRow(ctx, query,
		member.BetID,
		int16(member.Group),
		member.Address,
		member.Wager.String(),
	).Scan(&member.ID, &member.Position, &member.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add bet member: %w", err)
	}

	return nil
}

// GetMember returns the member at a 0-based position within a group
func (r *BetRepository) GetMember(ctx context.Context, betID int64, group models.Group, position int) (*models.BetMember, error) {
	query := `SELECT ` + memberColumns + `
		FROM bet_members
		WHERE bet_id = $1 AND group_number = $2 AND position = $3
	`

	member, err := scanMember(r.q.QueryRow(ctx, query, betID, int16(group), position))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet member: %w", err)
	}

	return member, nil
}

// UpdateMemberPayouts stores the payout computed for each member
func (r *BetRepository) UpdateMemberPayouts(ctx context.Context, members []*models.BetMember) error {
	if len(members) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, member := range members {
		batch.Queue(`UPDATE bet_members SET payout = $2::numeric WHERE id = $1`,
			member.ID, nullDecimalArg(member.Payout))
	}

	results := r.q.SendBatch(ctx, batch)
	defer results.Close()

	for range members {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to update member payout: %w", err)
		}
	}

	return nil
}

func scanBet(row rowScanner) (*models.Bet, error) {
	var (
		bet                           models.Bet
		direction                     int16
		status                        string
		threshold, observed, residual *string
		group1Pool, group2Pool        string
		winningGroup                  *int16
	)

	err := row.Scan(
		&bet.ID,
		&bet.Initiator,
		&bet.Subject,
		&bet.Duration,
		&direction,
		&threshold,
		&bet.ApprovedObservedAt,
		&status,
		&group1Pool,
		&group2Pool,
		&winningGroup,
		&observed,
		&residual,
		&bet.Void,
		&bet.CreatedAt,
		&bet.ApprovedAt,
		&bet.ClosedAt,
		&bet.SettledAt,
	)
	if err != nil {
		return nil, err
	}

	bet.Direction = models.Direction(direction)
	bet.Status = models.BetStatus(status)
	if winningGroup != nil {
		g := models.Group(*winningGroup)
		bet.WinningGroup = &g
	}

	if bet.Group1Pool, err = parseDecimal(group1Pool); err != nil {
		return nil, err
	}
	if bet.Group2Pool, err = parseDecimal(group2Pool); err != nil {
		return nil, err
	}
	if bet.Threshold, err = parseNullDecimal(threshold); err != nil {
		return nil, err
	}
	if bet.ObservedValue, err = parseNullDecimal(observed); err != nil {
		return nil, err
	}
	if bet.Residual, err = parseNullDecimal(residual); err != nil {
		return nil, err
	}

	return &bet, nil
}

func scanMember(row rowScanner) (*models.BetMember, error) {
	var (
		member models.BetMember
		group  int16
		wager  string
		payout *string
	)

	err := row.Scan(
		&member.ID,
		&member.BetID,
		&group,
		&member.Position,
		&member.Address,
		&wager,
		&payout,
		&member.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	member.Group = models.Group(group)
	if member.Wager, err = parseDecimal(wager); err != nil {
		return nil, err
	}
	if member.Payout, err = parseNullDecimal(payout); err != nil {
		return nil, err
	}

	return &member, nil
}
