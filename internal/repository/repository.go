// internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Capacity and assignment errors surfaced by the persistence layer. The
// repositories are the sole mutator of a role's filled_positions counter, so
// these conditions are detected at commit time.
var (
	ErrCapacityExceeded = errors.New("role capacity exceeded")
	ErrRoleNotOpen      = errors.New("role is not open for assignment")
	ErrNotPending       = errors.New("assignment is not pending")
)

// ============================================
// Models / Entities
// ============================================

type User struct {
	ID               string
	Email            string
	Password         string
	Name             string
	UserType         string
	IsSupervisor     bool
	MembershipNumber *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type RefreshToken struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type Event struct {
	ID        string
	Name      string
	Slug      string
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Role struct {
	ID                  string
	EventID             string
	Name                string
	Description         *string
	TotalPositions      int
	FilledPositions     int
	MinimumVolunteers   int
	RequiredCredentials []string
	RequiredTraining    []string
	Status              string
	DeletedAt           *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type Assignment struct {
	ID          string
	RoleID      string
	VolunteerID string
	Status      string
	CreatedAt   time.Time
	ConfirmedAt *time.Time
	WithdrawnAt *time.Time
}

type Task struct {
	ID                    string
	EventID               *string
	RoleID                *string
	Title                 string
	Description           *string
	AssignmentType        string
	TaskType              string
	VerificationType      string
	Mandatory             bool
	Active                bool
	Deadline              *time.Time
	SendReminders         bool
	ReminderFrequencyDays int
	MinWords              int
	MaxWords              int
	Prerequisites         []string
	CreatedBy             *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type TaskInstance struct {
	ID                 string
	TaskID             string
	VolunteerID        string
	State              string
	Checked            bool
	TextResponse       *string
	PhotoURL           *string
	PhotoSize          *int64
	PhotoMimeType      *string
	StartedAt          *time.Time
	SubmittedAt        *time.Time
	ReviewedBy         *string
	ReviewedAt         *time.Time
	RejectionReason    *string
	LastReminderSentAt *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Notification struct {
	ID        string
	UserID    string
	Type      string
	Title     string
	Message   string
	Read      bool
	Data      map[string]interface{}
	CreatedAt time.Time
}

type ConfigEntry struct {
	Key         string
	Value       string
	Description *string
	UpdatedAt   time.Time
}

// RoleSummary aggregates staffing numbers for the admin dashboard.
type RoleSummary struct {
	RoleID            string
	RoleName          string
	TotalPositions    int
	FilledPositions   int
	MinimumVolunteers int
}

// ============================================
// Repository Interfaces
// ============================================

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindAll(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, user *User) error
	SaveRefreshToken(ctx context.Context, token *RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
	DeleteUserRefreshTokens(ctx context.Context, userID string) error
}

type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	FindByID(ctx context.Context, id string) (*Event, error)
	FindBySlug(ctx context.Context, slug string) (*Event, error)
	FindAll(ctx context.Context) ([]*Event, error)
	Update(ctx context.Context, event *Event) error
}

type RoleRepository interface {
	Create(ctx context.Context, role *Role) error
	FindByID(ctx context.Context, id string) (*Role, error)
	FindByEventID(ctx context.Context, eventID string) ([]*Role, error)
	Update(ctx context.Context, role *Role) error
	UpdateStatus(ctx context.Context, id, status string) error
	SoftDeleteByEventID(ctx context.Context, eventID string) error
	SummariesByEventID(ctx context.Context, eventID string) ([]*RoleSummary, error)
}

type AssignmentRepository interface {
	// Reserve atomically checks capacity, increments the role counter and
	// creates a PENDING assignment. Concurrent reservations against one role
	// are serialized; overshoot fails with ErrCapacityExceeded.
	Reserve(ctx context.Context, roleID, volunteerID string) (*Assignment, error)
	// Confirm transitions PENDING to CONFIRMED; the slot was already counted
	// at reservation time. Fails with ErrNotPending otherwise.
	Confirm(ctx context.Context, assignmentID string) error
	// Release decrements the role counter and marks the assignment WITHDRAWN.
	// A second release of the same assignment is a no-op.
	Release(ctx context.Context, assignmentID string) error
	FindByID(ctx context.Context, id string) (*Assignment, error)
	FindByVolunteer(ctx context.Context, volunteerID string) ([]*Assignment, error)
	FindByRole(ctx context.Context, roleID string) ([]*Assignment, error)
	FindConfirmedRoleIDs(ctx context.Context, volunteerID string) ([]string, error)
	HasActiveAssignment(ctx context.Context, roleID, volunteerID string) (bool, error)
}

type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	FindByID(ctx context.Context, id string) (*Task, error)
	FindAll(ctx context.Context, activeOnly bool) ([]*Task, error)
	// FindApplicable returns active ALL_VOLUNTEERS tasks plus SPECIFIC_ROLE
	// tasks whose role is in roleIDs.
	FindApplicable(ctx context.Context, roleIDs []string) ([]*Task, error)
	Update(ctx context.Context, task *Task) error
	Deactivate(ctx context.Context, id string) error
}

type TaskInstanceRepository interface {
	Create(ctx context.Context, instance *TaskInstance) error
	FindByID(ctx context.Context, id string) (*TaskInstance, error)
	FindByTaskAndVolunteer(ctx context.Context, taskID, volunteerID string) (*TaskInstance, error)
	FindByVolunteer(ctx context.Context, volunteerID string) ([]*TaskInstance, error)
	FindPendingReview(ctx context.Context) ([]*TaskInstance, error)
	// FindOpen returns instances still in NOT_STARTED or IN_PROGRESS.
	FindOpen(ctx context.Context) ([]*TaskInstance, error)
	Update(ctx context.Context, instance *TaskInstance) error
	MarkReminderSent(ctx context.Context, id string, at time.Time) error
	CountByState(ctx context.Context) (map[string]int, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *Notification) error
	FindByUserID(ctx context.Context, userID string, unreadOnly bool) ([]*Notification, error)
	CountByUserID(ctx context.Context, userID string) (total int, unread int, err error)
	MarkAsRead(ctx context.Context, id string) error
	MarkAllAsRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, id string) error
	DeleteOlderThan(ctx context.Context, olderThan time.Time, readOnly bool) (int, error)
}

type ConfigRepository interface {
	Upsert(ctx context.Context, entry *ConfigEntry) error
	Find(ctx context.Context, key string) (*ConfigEntry, error)
	FindAll(ctx context.Context) ([]*ConfigEntry, error)
}

// ============================================
// Repositories Container
// ============================================

type Repositories struct {
	UserRepo         UserRepository
	EventRepo        EventRepository
	RoleRepo         RoleRepository
	AssignmentRepo   AssignmentRepository
	TaskRepo         TaskRepository
	InstanceRepo     TaskInstanceRepository
	NotificationRepo NotificationRepository
	ConfigRepo       ConfigRepository
}

// NewRepositories creates in-memory repositories (for testing/fallback)
func NewRepositories() *Repositories {
	roles := newInMemoryRoleRepository()
	return &Repositories{
		UserRepo:         newInMemoryUserRepository(),
		EventRepo:        newInMemoryEventRepository(),
		RoleRepo:         roles,
		AssignmentRepo:   newInMemoryAssignmentRepository(roles),
		TaskRepo:         newInMemoryTaskRepository(),
		InstanceRepo:     newInMemoryInstanceRepository(),
		NotificationRepo: newInMemoryNotificationRepository(),
		ConfigRepo:       newInMemoryConfigRepository(),
	}
}

// NewPgRepositories creates PostgreSQL-backed repositories
func NewPgRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepo:         &pgUserRepository{pool: pool},
		EventRepo:        &pgEventRepository{pool: pool},
		RoleRepo:         &pgRoleRepository{pool: pool},
		AssignmentRepo:   &pgAssignmentRepository{pool: pool},
		TaskRepo:         &pgTaskRepository{pool: pool},
		InstanceRepo:     &pgInstanceRepository{pool: pool},
		NotificationRepo: &pgNotificationRepository{pool: pool},
		ConfigRepo:       &pgConfigRepository{pool: pool},
	}
}

// ============================================
// PostgreSQL User Repository
// ============================================

type pgUserRepository struct {
	pool *pgxpool.Pool
}

func (r *pgUserRepository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (email, password, name, user_type, is_supervisor, membership_number)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	if user.UserType == "" {
		user.UserType = "volunteer"
	}
	return r.pool.QueryRow(ctx, query,
		user.Email, user.Password, user.Name, user.UserType, user.IsSupervisor, user.MembershipNumber,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, email, password, name, user_type, is_supervisor, membership_number, created_at, updated_at
		FROM users WHERE id = $1
	`
	user := &User{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.Password, &user.Name, &user.UserType,
		&user.IsSupervisor, &user.MembershipNumber, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, password, name, user_type, is_supervisor, membership_number, created_at, updated_at
		FROM users WHERE LOWER(email) = LOWER($1)
	`
	user := &User{}
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.Password, &user.Name, &user.UserType,
		&user.IsSupervisor, &user.MembershipNumber, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *pgUserRepository) FindAll(ctx context.Context) ([]*User, error) {
	query := `
		SELECT id, email, password, name, user_type, is_supervisor, membership_number, created_at, updated_at
		FROM users ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user := &User{}
		if err := rows.Scan(
			&user.ID, &user.Email, &user.Password, &user.Name, &user.UserType,
			&user.IsSupervisor, &user.MembershipNumber, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (r *pgUserRepository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users SET email = $2, name = $3, user_type = $4, is_supervisor = $5,
			membership_number = $6, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Email, user.Name, user.UserType, user.IsSupervisor, user.MembershipNumber,
	)
	return err
}

func (r *pgUserRepository) SaveRefreshToken(ctx context.Context, token *RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query, token.Token, token.UserID, token.ExpiresAt).
		Scan(&token.ID, &token.CreatedAt)
}

func (r *pgUserRepository) FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	query := `
		SELECT id, token, user_id, expires_at, created_at
		FROM refresh_tokens WHERE token = $1
	`
	rt := &RefreshToken{}
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&rt.ID, &rt.Token, &rt.UserID, &rt.ExpiresAt, &rt.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *pgUserRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	query := `DELETE FROM refresh_tokens WHERE token = $1`
	_, err := r.pool.Exec(ctx, query, token)
	return err
}

func (r *pgUserRepository) DeleteUserRefreshTokens(ctx context.Context, userID string) error {
	query := `DELETE FROM refresh_tokens WHERE user_id = $1`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

// ============================================
// PostgreSQL Event Repository
// ============================================

type pgEventRepository struct {
	pool *pgxpool.Pool
}

func (r *pgEventRepository) Create(ctx context.Context, event *Event) error {
	query := `
		INSERT INTO events (name, slug, status, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	if event.Status == "" {
		event.Status = "draft"
	}
	return r.pool.QueryRow(ctx, query,
		event.Name, event.Slug, event.Status, event.StartDate, event.EndDate,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
}

func (r *pgEventRepository) FindByID(ctx context.Context, id string) (*Event, error) {
	query := `
		SELECT id, name, slug, status, start_date, end_date, created_at, updated_at
		FROM events WHERE id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *pgEventRepository) FindBySlug(ctx context.Context, slug string) (*Event, error) {
	query := `
		SELECT id, name, slug, status, start_date, end_date, created_at, updated_at
		FROM events WHERE slug = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, slug))
}

func (r *pgEventRepository) scanOne(row pgx.Row) (*Event, error) {
	event := &Event{}
	err := row.Scan(
		&event.ID, &event.Name, &event.Slug, &event.Status,
		&event.StartDate, &event.EndDate, &event.CreatedAt, &event.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (r *pgEventRepository) FindAll(ctx context.Context) ([]*Event, error) {
	query := `
		SELECT id, name, slug, status, start_date, end_date, created_at, updated_at
		FROM events ORDER BY start_date
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		event := &Event{}
		if err := rows.Scan(
			&event.ID, &event.Name, &event.Slug, &event.Status,
			&event.StartDate, &event.EndDate, &event.CreatedAt, &event.UpdatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func (r *pgEventRepository) Update(ctx context.Context, event *Event) error {
	query := `
		UPDATE events SET name = $2, slug = $3, status = $4, start_date = $5, end_date = $6, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query,
		event.ID, event.Name, event.Slug, event.Status, event.StartDate, event.EndDate,
	)
	return err
}

// ============================================
// PostgreSQL Notification Repository
// ============================================

type pgNotificationRepository struct {
	pool *pgxpool.Pool
}

func (r *pgNotificationRepository) Create(ctx context.Context, notification *Notification) error {
	query := `
		INSERT INTO notifications (user_id, type, title, message, read, data)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query,
		notification.UserID, notification.Type, notification.Title,
		notification.Message, notification.Read, notification.Data,
	).Scan(&notification.ID, &notification.CreatedAt)
}

func (r *pgNotificationRepository) FindByUserID(ctx context.Context, userID string, unreadOnly bool) ([]*Notification, error) {
	query := `
		SELECT id, user_id, type, title, message, read, data, created_at
		FROM notifications WHERE user_id = $1
	`
	if unreadOnly {
		query += ` AND read = FALSE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*Notification
	for rows.Next() {
		n := &Notification{}
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Read, &n.Data, &n.CreatedAt,
		); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

func (r *pgNotificationRepository) CountByUserID(ctx context.Context, userID string) (int, int, error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE read = FALSE)
		FROM notifications WHERE user_id = $1
	`
	var total, unread int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&total, &unread); err != nil {
		return 0, 0, err
	}
	return total, unread, nil
}

func (r *pgNotificationRepository) MarkAsRead(ctx context.Context, id string) error {
	query := `UPDATE notifications SET read = TRUE WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *pgNotificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	query := `UPDATE notifications SET read = TRUE WHERE user_id = $1`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

func (r *pgNotificationRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM notifications WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *pgNotificationRepository) DeleteOlderThan(ctx context.Context, olderThan time.Time, readOnly bool) (int, error) {
	query := `DELETE FROM notifications WHERE created_at < $1`
	if readOnly {
		query += ` AND read = TRUE`
	}
	tag, err := r.pool.Exec(ctx, query, olderThan)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// ============================================
// PostgreSQL Config Repository
// ============================================

type pgConfigRepository struct {
	pool *pgxpool.Pool
}

func (r *pgConfigRepository) Upsert(ctx context.Context, entry *ConfigEntry) error {
	query := `
		INSERT INTO system_config (key, value, description, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE SET value = $2, description = $3, updated_at = NOW()
		RETURNING updated_at
	`
	return r.pool.QueryRow(ctx, query, entry.Key, entry.Value, entry.Description).
		Scan(&entry.UpdatedAt)
}

func (r *pgConfigRepository) Find(ctx context.Context, key string) (*ConfigEntry, error) {
	query := `SELECT key, value, description, updated_at FROM system_config WHERE key = $1`
	entry := &ConfigEntry{}
	err := r.pool.QueryRow(ctx, query, key).Scan(
		&entry.Key, &entry.Value, &entry.Description, &entry.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *pgConfigRepository) FindAll(ctx context.Context) ([]*ConfigEntry, error) {
	query := `SELECT key, value, description, updated_at FROM system_config ORDER BY key`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*ConfigEntry
	for rows.Next() {
		entry := &ConfigEntry{}
		if err := rows.Scan(&entry.Key, &entry.Value, &entry.Description, &entry.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
