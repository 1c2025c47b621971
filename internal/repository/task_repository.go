package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ============================================
// PostgreSQL Task Repository
// ============================================

type pgTaskRepository struct {
	pool *pgxpool.Pool
}

const taskColumns = `
	id, event_id, role_id, title, description, assignment_type, task_type,
	verification_type, mandatory, active, deadline, send_reminders,
	reminder_frequency_days, min_words, max_words, created_by, created_at, updated_at
`

func (r *pgTaskRepository) Create(ctx context.Context, task *Task) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO tasks (event_id, role_id, title, description, assignment_type, task_type,
			verification_type, mandatory, active, deadline, send_reminders,
			reminder_frequency_days, min_words, max_words, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at
	`,
		task.EventID, task.RoleID, task.Title, task.Description,
		task.AssignmentType, task.TaskType, task.VerificationType,
		task.Mandatory, task.Active, task.Deadline, task.SendReminders,
		task.ReminderFrequencyDays, task.MinWords, task.MaxWords, task.CreatedBy,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return err
	}

	for _, prereqID := range task.Prerequisites {
		if _, err := tx.Exec(ctx, `
			INSERT INTO task_prerequisites (task_id, prerequisite_id) VALUES ($1, $2)
		`, task.ID, prereqID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *pgTaskRepository) FindByID(ctx context.Context, id string) (*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task := &Task{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&task.ID, &task.EventID, &task.RoleID, &task.Title, &task.Description,
		&task.AssignmentType, &task.TaskType, &task.VerificationType,
		&task.Mandatory, &task.Active, &task.Deadline, &task.SendReminders,
		&task.ReminderFrequencyDays, &task.MinWords, &task.MaxWords,
		&task.CreatedBy, &task.CreatedAt, &task.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadPrerequisites(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *pgTaskRepository) FindAll(ctx context.Context, activeOnly bool) ([]*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY created_at`
	return r.queryTasks(ctx, query)
}

func (r *pgTaskRepository) FindApplicable(ctx context.Context, roleIDs []string) ([]*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE active = TRUE
		  AND (assignment_type = 'ALL_VOLUNTEERS'
		       OR (assignment_type = 'SPECIFIC_ROLE' AND role_id = ANY($1)))
		ORDER BY created_at
	`
	return r.queryTasks(ctx, query, roleIDs)
}

func (r *pgTaskRepository) queryTasks(ctx context.Context, query string, args ...interface{}) ([]*Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		task := &Task{}
		if err := rows.Scan(
			&task.ID, &task.EventID, &task.RoleID, &task.Title, &task.Description,
			&task.AssignmentType, &task.TaskType, &task.VerificationType,
			&task.Mandatory, &task.Active, &task.Deadline, &task.SendReminders,
			&task.ReminderFrequencyDays, &task.MinWords, &task.MaxWords,
			&task.CreatedBy, &task.CreatedAt, &task.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, task := range tasks {
		if err := r.loadPrerequisites(ctx, task); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

func (r *pgTaskRepository) loadPrerequisites(ctx context.Context, task *Task) error {
	rows, err := r.pool.Query(ctx,
		`SELECT prerequisite_id FROM task_prerequisites WHERE task_id = $1`, task.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	task.Prerequisites = []string{}
	for rows.Next() {
		var prereqID string
		if err := rows.Scan(&prereqID); err != nil {
			return err
		}
		task.Prerequisites = append(task.Prerequisites, prereqID)
	}
	return rows.Err()
}

func (r *pgTaskRepository) Update(ctx context.Context, task *Task) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE tasks SET title = $2, description = $3, mandatory = $4, deadline = $5,
			send_reminders = $6, reminder_frequency_days = $7, min_words = $8,
			max_words = $9, updated_at = NOW()
		WHERE id = $1
	`,
		task.ID, task.Title, task.Description, task.Mandatory, task.Deadline,
		task.SendReminders, task.ReminderFrequencyDays, task.MinWords, task.MaxWords,
	); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM task_prerequisites WHERE task_id = $1`, task.ID); err != nil {
		return err
	}
	for _, prereqID := range task.Prerequisites {
		if _, err := tx.Exec(ctx, `
			INSERT INTO task_prerequisites (task_id, prerequisite_id) VALUES ($1, $2)
		`, task.ID, prereqID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Deactivate takes a task out of resolution and reminder scans. Tasks are
// never deleted once instances exist.
func (r *pgTaskRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE tasks SET active = FALSE, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// ============================================
// PostgreSQL Task Instance Repository
// ============================================

type pgInstanceRepository struct {
	pool *pgxpool.Pool
}

const instanceColumns = `
	id, task_id, volunteer_id, state, checked, text_response, photo_url,
	photo_size, photo_mime_type, started_at, submitted_at, reviewed_by,
	reviewed_at, rejection_reason, last_reminder_sent_at, created_at, updated_at
`

func (r *pgInstanceRepository) Create(ctx context.Context, instance *TaskInstance) error {
	query := `
		INSERT INTO task_instances (task_id, volunteer_id, state)
		VALUES ($1, $2, $3)
		ON CONFLICT (task_id, volunteer_id) DO NOTHING
		RETURNING id, created_at, updated_at
	`
	if instance.State == "" {
		instance.State = "NOT_STARTED"
	}
	err := r.pool.QueryRow(ctx, query,
		instance.TaskID, instance.VolunteerID, instance.State,
	).Scan(&instance.ID, &instance.CreatedAt, &instance.UpdatedAt)
	if err == pgx.ErrNoRows {
		// Instance already exists for this volunteer and task.
		existing, findErr := r.FindByTaskAndVolunteer(ctx, instance.TaskID, instance.VolunteerID)
		if findErr != nil {
			return findErr
		}
		if existing != nil {
			*instance = *existing
		}
		return nil
	}
	return err
}

func (r *pgInstanceRepository) FindByID(ctx context.Context, id string) (*TaskInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM task_instances WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *pgInstanceRepository) FindByTaskAndVolunteer(ctx context.Context, taskID, volunteerID string) (*TaskInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM task_instances WHERE task_id = $1 AND volunteer_id = $2`
	return r.scanOne(r.pool.QueryRow(ctx, query, taskID, volunteerID))
}

func (r *pgInstanceRepository) scanOne(row pgx.Row) (*TaskInstance, error) {
	i := &TaskInstance{}
	err := row.Scan(
		&i.ID, &i.TaskID, &i.VolunteerID, &i.State, &i.Checked, &i.TextResponse,
		&i.PhotoURL, &i.PhotoSize, &i.PhotoMimeType, &i.StartedAt, &i.SubmittedAt,
		&i.ReviewedBy, &i.ReviewedAt, &i.RejectionReason, &i.LastReminderSentAt,
		&i.CreatedAt, &i.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return i, nil
}

func (r *pgInstanceRepository) FindByVolunteer(ctx context.Context, volunteerID string) ([]*TaskInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM task_instances WHERE volunteer_id = $1 ORDER BY created_at`
	return r.queryInstances(ctx, query, volunteerID)
}

func (r *pgInstanceRepository) FindPendingReview(ctx context.Context) ([]*TaskInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM task_instances WHERE state = 'SUBMITTED' ORDER BY submitted_at`
	return r.queryInstances(ctx, query)
}

func (r *pgInstanceRepository) FindOpen(ctx context.Context) ([]*TaskInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM task_instances
		WHERE state IN ('NOT_STARTED', 'IN_PROGRESS') ORDER BY created_at`
	return r.queryInstances(ctx, query)
}

func (r *pgInstanceRepository) queryInstances(ctx context.Context, query string, args ...interface{}) ([]*TaskInstance, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instances []*TaskInstance
	for rows.Next() {
		i := &TaskInstance{}
		if err := rows.Scan(
			&i.ID, &i.TaskID, &i.VolunteerID, &i.State, &i.Checked, &i.TextResponse,
			&i.PhotoURL, &i.PhotoSize, &i.PhotoMimeType, &i.StartedAt, &i.SubmittedAt,
			&i.ReviewedBy, &i.ReviewedAt, &i.RejectionReason, &i.LastReminderSentAt,
			&i.CreatedAt, &i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		instances = append(instances, i)
	}
	return instances, rows.Err()
}

func (r *pgInstanceRepository) Update(ctx context.Context, instance *TaskInstance) error {
	query := `
		UPDATE task_instances SET state = $2, checked = $3, text_response = $4,
			photo_url = $5, photo_size = $6, photo_mime_type = $7, started_at = $8,
			submitted_at = $9, reviewed_by = $10, reviewed_at = $11,
			rejection_reason = $12, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query,
		instance.ID, instance.State, instance.Checked, instance.TextResponse,
		instance.PhotoURL, instance.PhotoSize, instance.PhotoMimeType,
		instance.StartedAt, instance.SubmittedAt, instance.ReviewedBy,
		instance.ReviewedAt, instance.RejectionReason,
	)
	return err
}

func (r *pgInstanceRepository) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE task_instances SET last_reminder_sent_at = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, at)
	return err
}

func (r *pgInstanceRepository) CountByState(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT state, COUNT(*) FROM task_instances GROUP BY state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var state string
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		counts[state] = count
	}
	return counts, rows.Err()
}
