package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ============================================
// PostgreSQL Role Repository
// ============================================

type pgRoleRepository struct {
	pool *pgxpool.Pool
}

func (r *pgRoleRepository) Create(ctx context.Context, role *Role) error {
	query := `
		INSERT INTO roles (event_id, name, description, total_positions, minimum_volunteers,
			required_credentials, required_training, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, filled_positions, created_at, updated_at
	`
	if role.Status == "" {
		role.Status = "ACTIVE"
	}
	if role.RequiredCredentials == nil {
		role.RequiredCredentials = []string{}
	}
	if role.RequiredTraining == nil {
		role.RequiredTraining = []string{}
	}
	return r.pool.QueryRow(ctx, query,
		role.EventID, role.Name, role.Description, role.TotalPositions, role.MinimumVolunteers,
		role.RequiredCredentials, role.RequiredTraining, role.Status,
	).Scan(&role.ID, &role.FilledPositions, &role.CreatedAt, &role.UpdatedAt)
}

func (r *pgRoleRepository) FindByID(ctx context.Context, id string) (*Role, error) {
	query := `
		SELECT id, event_id, name, description, total_positions, filled_positions,
			minimum_volunteers, required_credentials, required_training, status,
			deleted_at, created_at, updated_at
		FROM roles WHERE id = $1 AND deleted_at IS NULL
	`
	role := &Role{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&role.ID, &role.EventID, &role.Name, &role.Description,
		&role.TotalPositions, &role.FilledPositions, &role.MinimumVolunteers,
		&role.RequiredCredentials, &role.RequiredTraining, &role.Status,
		&role.DeletedAt, &role.CreatedAt, &role.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return role, nil
}

func (r *pgRoleRepository) FindByEventID(ctx context.Context, eventID string) ([]*Role, error) {
	query := `
		SELECT id, event_id, name, description, total_positions, filled_positions,
			minimum_volunteers, required_credentials, required_training, status,
			deleted_at, created_at, updated_at
		FROM roles WHERE event_id = $1 AND deleted_at IS NULL
		ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []*Role
	for rows.Next() {
		role := &Role{}
		if err := rows.Scan(
			&role.ID, &role.EventID, &role.Name, &role.Description,
			&role.TotalPositions, &role.FilledPositions, &role.MinimumVolunteers,
			&role.RequiredCredentials, &role.RequiredTraining, &role.Status,
			&role.DeletedAt, &role.CreatedAt, &role.UpdatedAt,
		); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, nil
}

// Update never touches filled_positions; the counter is owned by the
// assignment operations below.
func (r *pgRoleRepository) Update(ctx context.Context, role *Role) error {
	query := `
		UPDATE roles SET name = $2, description = $3, total_positions = $4,
			minimum_volunteers = $5, required_credentials = $6, required_training = $7,
			status = $8, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	_, err := r.pool.Exec(ctx, query,
		role.ID, role.Name, role.Description, role.TotalPositions,
		role.MinimumVolunteers, role.RequiredCredentials, role.RequiredTraining, role.Status,
	)
	return err
}

func (r *pgRoleRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE roles SET status = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	_, err := r.pool.Exec(ctx, query, id, status)
	return err
}

func (r *pgRoleRepository) SoftDeleteByEventID(ctx context.Context, eventID string) error {
	query := `UPDATE roles SET deleted_at = NOW(), updated_at = NOW() WHERE event_id = $1 AND deleted_at IS NULL`
	_, err := r.pool.Exec(ctx, query, eventID)
	return err
}

func (r *pgRoleRepository) SummariesByEventID(ctx context.Context, eventID string) ([]*RoleSummary, error) {
	query := `
		SELECT id, name, total_positions, filled_positions, minimum_volunteers
		FROM roles WHERE event_id = $1 AND deleted_at IS NULL
		ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*RoleSummary
	for rows.Next() {
		s := &RoleSummary{}
		if err := rows.Scan(
			&s.RoleID, &s.RoleName, &s.TotalPositions, &s.FilledPositions, &s.MinimumVolunteers,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// ============================================
// PostgreSQL Assignment Repository
// ============================================

type pgAssignmentRepository struct {
	pool *pgxpool.Pool
}

// Reserve serializes on a row-level lock so two concurrent reservations cannot
// both observe a free slot and both commit.
func (r *pgAssignmentRepository) Reserve(ctx context.Context, roleID, volunteerID string) (*Assignment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var filled, total int
	var status string
	err = tx.QueryRow(ctx, `
		SELECT filled_positions, total_positions, status
		FROM roles WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`, roleID).Scan(&filled, &total, &status)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if status != "ACTIVE" {
		return nil, ErrRoleNotOpen
	}
	if filled >= total {
		return nil, ErrCapacityExceeded
	}

	assignment := &Assignment{RoleID: roleID, VolunteerID: volunteerID, Status: "PENDING"}
	err = tx.QueryRow(ctx, `
		INSERT INTO assignments (role_id, volunteer_id, status)
		VALUES ($1, $2, 'PENDING')
		RETURNING id, created_at
	`, roleID, volunteerID).Scan(&assignment.ID, &assignment.CreatedAt)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE roles SET filled_positions = filled_positions + 1, updated_at = NOW()
		WHERE id = $1
	`, roleID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return assignment, nil
}

func (r *pgAssignmentRepository) Confirm(ctx context.Context, assignmentID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE assignments SET status = 'CONFIRMED', confirmed_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
	`, assignmentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}

func (r *pgAssignmentRepository) Release(ctx context.Context, assignmentID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var roleID string
	err = tx.QueryRow(ctx, `
		SELECT a.role_id
		FROM assignments a
		JOIN roles r ON r.id = a.role_id
		WHERE a.id = $1
		FOR UPDATE OF r
	`, assignmentID).Scan(&roleID)
	if err == pgx.ErrNoRows {
		return errors.New("assignment not found")
	}
	if err != nil {
		return err
	}

	// Re-read under the role lock: a concurrent release of the same
	// assignment has already committed its WITHDRAWN by the time the lock is
	// granted, so only one release ever decrements.
	var status string
	if err := tx.QueryRow(ctx, `
		SELECT status FROM assignments WHERE id = $1
	`, assignmentID).Scan(&status); err != nil {
		return err
	}

	// Idempotent: a second release is a no-op.
	if status == "WITHDRAWN" {
		return tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE assignments SET status = 'WITHDRAWN', withdrawn_at = NOW() WHERE id = $1
	`, assignmentID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE roles SET filled_positions = filled_positions - 1, updated_at = NOW()
		WHERE id = $1 AND filled_positions > 0
	`, roleID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *pgAssignmentRepository) FindByID(ctx context.Context, id string) (*Assignment, error) {
	query := `
		SELECT id, role_id, volunteer_id, status, created_at, confirmed_at, withdrawn_at
		FROM assignments WHERE id = $1
	`
	a := &Assignment{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.RoleID, &a.VolunteerID, &a.Status, &a.CreatedAt, &a.ConfirmedAt, &a.WithdrawnAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *pgAssignmentRepository) FindByVolunteer(ctx context.Context, volunteerID string) ([]*Assignment, error) {
	query := `
		SELECT id, role_id, volunteer_id, status, created_at, confirmed_at, withdrawn_at
		FROM assignments WHERE volunteer_id = $1 ORDER BY created_at DESC
	`
	return r.scanMany(ctx, query, volunteerID)
}

func (r *pgAssignmentRepository) FindByRole(ctx context.Context, roleID string) ([]*Assignment, error) {
	query := `
		SELECT id, role_id, volunteer_id, status, created_at, confirmed_at, withdrawn_at
		FROM assignments WHERE role_id = $1 ORDER BY created_at
	`
	return r.scanMany(ctx, query, roleID)
}

func (r *pgAssignmentRepository) scanMany(ctx context.Context, query string, arg string) ([]*Assignment, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []*Assignment
	for rows.Next() {
		a := &Assignment{}
		if err := rows.Scan(
			&a.ID, &a.RoleID, &a.VolunteerID, &a.Status, &a.CreatedAt, &a.ConfirmedAt, &a.WithdrawnAt,
		); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, nil
}

func (r *pgAssignmentRepository) FindConfirmedRoleIDs(ctx context.Context, volunteerID string) ([]string, error) {
	query := `SELECT role_id FROM assignments WHERE volunteer_id = $1 AND status = 'CONFIRMED'`
	rows, err := r.pool.Query(ctx, query, volunteerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roleIDs []string
	for rows.Next() {
		var roleID string
		if err := rows.Scan(&roleID); err != nil {
			return nil, err
		}
		roleIDs = append(roleIDs, roleID)
	}
	return roleIDs, nil
}

func (r *pgAssignmentRepository) HasActiveAssignment(ctx context.Context, roleID, volunteerID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM assignments
			WHERE role_id = $1 AND volunteer_id = $2 AND status IN ('PENDING', 'CONFIRMED')
		)
	`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, roleID, volunteerID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
