package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ============================================
// In-Memory Repository Implementations (Fallback)
// ============================================

// In-memory User Repository
type inMemoryUserRepository struct {
	mu            sync.RWMutex
	users         map[string]*User
	refreshTokens map[string]*RefreshToken
}

func newInMemoryUserRepository() *inMemoryUserRepository {
	return &inMemoryUserRepository{
		users:         make(map[string]*User),
		refreshTokens: make(map[string]*RefreshToken),
	}
}

func (r *inMemoryUserRepository) Create(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = uuid.New().String()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	if user.UserType == "" {
		user.UserType = "volunteer"
	}
	r.users[user.ID] = user
	return nil
}

func (r *inMemoryUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, nil
}

func (r *inMemoryUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return nil, nil
}

func (r *inMemoryUserRepository) FindAll(ctx context.Context) ([]*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]*User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	return users, nil
}

func (r *inMemoryUserRepository) Update(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.UpdatedAt = time.Now()
	r.users[user.ID] = user
	return nil
}

func (r *inMemoryUserRepository) SaveRefreshToken(ctx context.Context, token *RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token.ID = uuid.New().String()
	token.CreatedAt = time.Now()
	r.refreshTokens[token.Token] = token
	return nil
}

func (r *inMemoryUserRepository) FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rt, ok := r.refreshTokens[token]; ok {
		return rt, nil
	}
	return nil, nil
}

func (r *inMemoryUserRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.refreshTokens, token)
	return nil
}

func (r *inMemoryUserRepository) DeleteUserRefreshTokens(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, rt := range r.refreshTokens {
		if rt.UserID == userID {
			delete(r.refreshTokens, token)
		}
	}
	return nil
}

// In-memory Event Repository
type inMemoryEventRepository struct {
	mu     sync.RWMutex
	events map[string]*Event
}

func newInMemoryEventRepository() *inMemoryEventRepository {
	return &inMemoryEventRepository{events: make(map[string]*Event)}
}

func (r *inMemoryEventRepository) Create(ctx context.Context, event *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.ID = uuid.New().String()
	event.CreatedAt = time.Now()
	event.UpdatedAt = time.Now()
	if event.Status == "" {
		event.Status = "draft"
	}
	r.events[event.ID] = event
	return nil
}

func (r *inMemoryEventRepository) FindByID(ctx context.Context, id string) (*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if event, ok := r.events[id]; ok {
		return event, nil
	}
	return nil, nil
}

func (r *inMemoryEventRepository) FindBySlug(ctx context.Context, slug string) (*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, event := range r.events {
		if event.Slug == slug {
			return event, nil
		}
	}
	return nil, nil
}

func (r *inMemoryEventRepository) FindAll(ctx context.Context) ([]*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	events := make([]*Event, 0, len(r.events))
	for _, event := range r.events {
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.Before(events[j].CreatedAt) })
	return events, nil
}

func (r *inMemoryEventRepository) Update(ctx context.Context, event *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.UpdatedAt = time.Now()
	r.events[event.ID] = event
	return nil
}

// In-memory Role Repository
type inMemoryRoleRepository struct {
	mu    sync.Mutex
	roles map[string]*Role
}

func newInMemoryRoleRepository() *inMemoryRoleRepository {
	return &inMemoryRoleRepository{roles: make(map[string]*Role)}
}

func (r *inMemoryRoleRepository) Create(ctx context.Context, role *Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	role.ID = uuid.New().String()
	role.CreatedAt = time.Now()
	role.UpdatedAt = time.Now()
	if role.Status == "" {
		role.Status = "ACTIVE"
	}
	if role.RequiredCredentials == nil {
		role.RequiredCredentials = []string{}
	}
	if role.RequiredTraining == nil {
		role.RequiredTraining = []string{}
	}
	r.roles[role.ID] = role
	return nil
}

func (r *inMemoryRoleRepository) FindByID(ctx context.Context, id string) (*Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if role, ok := r.roles[id]; ok && role.DeletedAt == nil {
		copied := *role
		return &copied, nil
	}
	return nil, nil
}

func (r *inMemoryRoleRepository) FindByEventID(ctx context.Context, eventID string) ([]*Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var roles []*Role
	for _, role := range r.roles {
		if role.EventID == eventID && role.DeletedAt == nil {
			copied := *role
			roles = append(roles, &copied)
		}
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

func (r *inMemoryRoleRepository) Update(ctx context.Context, role *Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.roles[role.ID]
	if !ok {
		return errors.New("role not found")
	}
	// filled_positions is owned by the assignment operations.
	role.FilledPositions = existing.FilledPositions
	role.UpdatedAt = time.Now()
	r.roles[role.ID] = role
	return nil
}

func (r *inMemoryRoleRepository) UpdateStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if role, ok := r.roles[id]; ok {
		role.Status = status
		role.UpdatedAt = time.Now()
	}
	return nil
}

func (r *inMemoryRoleRepository) SoftDeleteByEventID(ctx context.Context, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, role := range r.roles {
		if role.EventID == eventID && role.DeletedAt == nil {
			role.DeletedAt = &now
		}
	}
	return nil
}

func (r *inMemoryRoleRepository) SummariesByEventID(ctx context.Context, eventID string) ([]*RoleSummary, error) {
	roles, err := r.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	summaries := make([]*RoleSummary, 0, len(roles))
	for _, role := range roles {
		summaries = append(summaries, &RoleSummary{
			RoleID:            role.ID,
			RoleName:          role.Name,
			TotalPositions:    role.TotalPositions,
			FilledPositions:   role.FilledPositions,
			MinimumVolunteers: role.MinimumVolunteers,
		})
	}
	return summaries, nil
}

// In-memory Assignment Repository. Shares the role repository's mutex-guarded
// state so reservation is a single critical section, matching the row-lock
// semantics of the Postgres implementation.
type inMemoryAssignmentRepository struct {
	mu          sync.Mutex
	roles       *inMemoryRoleRepository
	assignments map[string]*Assignment
}

func newInMemoryAssignmentRepository(roles *inMemoryRoleRepository) *inMemoryAssignmentRepository {
	return &inMemoryAssignmentRepository{
		roles:       roles,
		assignments: make(map[string]*Assignment),
	}
}

func (r *inMemoryAssignmentRepository) Reserve(ctx context.Context, roleID, volunteerID string) (*Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles.mu.Lock()
	defer r.roles.mu.Unlock()

	role, ok := r.roles.roles[roleID]
	if !ok || role.DeletedAt != nil {
		return nil, nil
	}
	if role.Status != "ACTIVE" {
		return nil, ErrRoleNotOpen
	}
	if role.FilledPositions >= role.TotalPositions {
		return nil, ErrCapacityExceeded
	}

	assignment := &Assignment{
		ID:          uuid.New().String(),
		RoleID:      roleID,
		VolunteerID: volunteerID,
		Status:      "PENDING",
		CreatedAt:   time.Now(),
	}
	r.assignments[assignment.ID] = assignment
	role.FilledPositions++
	role.UpdatedAt = time.Now()
	return assignment, nil
}

func (r *inMemoryAssignmentRepository) Confirm(ctx context.Context, assignmentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	assignment, ok := r.assignments[assignmentID]
	if !ok || assignment.Status != "PENDING" {
		return ErrNotPending
	}
	now := time.Now()
	assignment.Status = "CONFIRMED"
	assignment.ConfirmedAt = &now
	return nil
}

func (r *inMemoryAssignmentRepository) Release(ctx context.Context, assignmentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	assignment, ok := r.assignments[assignmentID]
	if !ok {
		return errors.New("assignment not found")
	}
	if assignment.Status == "WITHDRAWN" {
		return nil
	}

	r.roles.mu.Lock()
	defer r.roles.mu.Unlock()
	now := time.Now()
	assignment.Status = "WITHDRAWN"
	assignment.WithdrawnAt = &now
	if role, ok := r.roles.roles[assignment.RoleID]; ok && role.FilledPositions > 0 {
		role.FilledPositions--
		role.UpdatedAt = now
	}
	return nil
}

func (r *inMemoryAssignmentRepository) FindByID(ctx context.Context, id string) (*Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if assignment, ok := r.assignments[id]; ok {
		copied := *assignment
		return &copied, nil
	}
	return nil, nil
}

func (r *inMemoryAssignmentRepository) FindByVolunteer(ctx context.Context, volunteerID string) ([]*Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var assignments []*Assignment
	for _, a := range r.assignments {
		if a.VolunteerID == volunteerID {
			copied := *a
			assignments = append(assignments, &copied)
		}
	}
	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].CreatedAt.Before(assignments[j].CreatedAt)
	})
	return assignments, nil
}

func (r *inMemoryAssignmentRepository) FindByRole(ctx context.Context, roleID string) ([]*Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var assignments []*Assignment
	for _, a := range r.assignments {
		if a.RoleID == roleID {
			copied := *a
			assignments = append(assignments, &copied)
		}
	}
	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].CreatedAt.Before(assignments[j].CreatedAt)
	})
	return assignments, nil
}

func (r *inMemoryAssignmentRepository) FindConfirmedRoleIDs(ctx context.Context, volunteerID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var roleIDs []string
	for _, a := range r.assignments {
		if a.VolunteerID == volunteerID && a.Status == "CONFIRMED" {
			roleIDs = append(roleIDs, a.RoleID)
		}
	}
	return roleIDs, nil
}

func (r *inMemoryAssignmentRepository) HasActiveAssignment(ctx context.Context, roleID, volunteerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.assignments {
		if a.RoleID == roleID && a.VolunteerID == volunteerID &&
			(a.Status == "PENDING" || a.Status == "CONFIRMED") {
			return true, nil
		}
	}
	return false, nil
}

// In-memory Task Repository
type inMemoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

func newInMemoryTaskRepository() *inMemoryTaskRepository {
	return &inMemoryTaskRepository{tasks: make(map[string]*Task)}
}

func (r *inMemoryTaskRepository) Create(ctx context.Context, task *Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task.ID = uuid.New().String()
	task.CreatedAt = time.Now()
	task.UpdatedAt = time.Now()
	if task.Prerequisites == nil {
		task.Prerequisites = []string{}
	}
	r.tasks[task.ID] = task
	return nil
}

func (r *inMemoryTaskRepository) FindByID(ctx context.Context, id string) (*Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if task, ok := r.tasks[id]; ok {
		copied := *task
		return &copied, nil
	}
	return nil, nil
}

func (r *inMemoryTaskRepository) FindAll(ctx context.Context, activeOnly bool) ([]*Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var tasks []*Task
	for _, task := range r.tasks {
		if activeOnly && !task.Active {
			continue
		}
		copied := *task
		tasks = append(tasks, &copied)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.Before(tasks[j].CreatedAt) })
	return tasks, nil
}

func (r *inMemoryTaskRepository) FindApplicable(ctx context.Context, roleIDs []string) ([]*Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roleSet := make(map[string]bool, len(roleIDs))
	for _, id := range roleIDs {
		roleSet[id] = true
	}

	var tasks []*Task
	for _, task := range r.tasks {
		if !task.Active {
			continue
		}
		switch task.AssignmentType {
		case "ALL_VOLUNTEERS":
			copied := *task
			tasks = append(tasks, &copied)
		case "SPECIFIC_ROLE":
			if task.RoleID != nil && roleSet[*task.RoleID] {
				copied := *task
				tasks = append(tasks, &copied)
			}
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.Before(tasks[j].CreatedAt) })
	return tasks, nil
}

func (r *inMemoryTaskRepository) Update(ctx context.Context, task *Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task.UpdatedAt = time.Now()
	r.tasks[task.ID] = task
	return nil
}

func (r *inMemoryTaskRepository) Deactivate(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if task, ok := r.tasks[id]; ok {
		task.Active = false
		task.UpdatedAt = time.Now()
	}
	return nil
}

// In-memory Task Instance Repository
type inMemoryInstanceRepository struct {
	mu        sync.RWMutex
	instances map[string]*TaskInstance
}

func newInMemoryInstanceRepository() *inMemoryInstanceRepository {
	return &inMemoryInstanceRepository{instances: make(map[string]*TaskInstance)}
}

func (r *inMemoryInstanceRepository) Create(ctx context.Context, instance *TaskInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.instances {
		if existing.TaskID == instance.TaskID && existing.VolunteerID == instance.VolunteerID {
			*instance = *existing
			return nil
		}
	}
	instance.ID = uuid.New().String()
	instance.CreatedAt = time.Now()
	instance.UpdatedAt = time.Now()
	if instance.State == "" {
		instance.State = "NOT_STARTED"
	}
	copied := *instance
	r.instances[instance.ID] = &copied
	return nil
}

func (r *inMemoryInstanceRepository) FindByID(ctx context.Context, id string) (*TaskInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if instance, ok := r.instances[id]; ok {
		copied := *instance
		return &copied, nil
	}
	return nil, nil
}

func (r *inMemoryInstanceRepository) FindByTaskAndVolunteer(ctx context.Context, taskID, volunteerID string) (*TaskInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, instance := range r.instances {
		if instance.TaskID == taskID && instance.VolunteerID == volunteerID {
			copied := *instance
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *inMemoryInstanceRepository) FindByVolunteer(ctx context.Context, volunteerID string) ([]*TaskInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var instances []*TaskInstance
	for _, instance := range r.instances {
		if instance.VolunteerID == volunteerID {
			copied := *instance
			instances = append(instances, &copied)
		}
	}
	sort.Slice(instances, func(i, j int) bool {
		return instances[i].CreatedAt.Before(instances[j].CreatedAt)
	})
	return instances, nil
}

func (r *inMemoryInstanceRepository) FindPendingReview(ctx context.Context) ([]*TaskInstance, error) {
	return r.findByStates(map[string]bool{"SUBMITTED": true})
}

func (r *inMemoryInstanceRepository) FindOpen(ctx context.Context) ([]*TaskInstance, error) {
	return r.findByStates(map[string]bool{"NOT_STARTED": true, "IN_PROGRESS": true})
}

func (r *inMemoryInstanceRepository) findByStates(states map[string]bool) ([]*TaskInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var instances []*TaskInstance
	for _, instance := range r.instances {
		if states[instance.State] {
			copied := *instance
			instances = append(instances, &copied)
		}
	}
	sort.Slice(instances, func(i, j int) bool {
		return instances[i].CreatedAt.Before(instances[j].CreatedAt)
	})
	return instances, nil
}

func (r *inMemoryInstanceRepository) Update(ctx context.Context, instance *TaskInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.instances[instance.ID]
	if !ok {
		return errors.New("task instance not found")
	}
	instance.LastReminderSentAt = existing.LastReminderSentAt
	instance.UpdatedAt = time.Now()
	copied := *instance
	r.instances[instance.ID] = &copied
	return nil
}

func (r *inMemoryInstanceRepository) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if instance, ok := r.instances[id]; ok {
		instance.LastReminderSentAt = &at
		instance.UpdatedAt = time.Now()
	}
	return nil
}

func (r *inMemoryInstanceRepository) CountByState(ctx context.Context) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int)
	for _, instance := range r.instances {
		counts[instance.State]++
	}
	return counts, nil
}

// In-memory Notification Repository
type inMemoryNotificationRepository struct {
	mu            sync.Mutex
	notifications map[string]*Notification
}

func newInMemoryNotificationRepository() *inMemoryNotificationRepository {
	return &inMemoryNotificationRepository{notifications: make(map[string]*Notification)}
}

func (r *inMemoryNotificationRepository) Create(ctx context.Context, notification *Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	notification.ID = uuid.New().String()
	notification.CreatedAt = time.Now()
	r.notifications[notification.ID] = notification
	return nil
}

func (r *inMemoryNotificationRepository) FindByUserID(ctx context.Context, userID string, unreadOnly bool) ([]*Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var notifications []*Notification
	for _, n := range r.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		notifications = append(notifications, n)
	}
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	return notifications, nil
}

func (r *inMemoryNotificationRepository) CountByUserID(ctx context.Context, userID string) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total, unread int
	for _, n := range r.notifications {
		if n.UserID == userID {
			total++
			if !n.Read {
				unread++
			}
		}
	}
	return total, unread, nil
}

func (r *inMemoryNotificationRepository) MarkAsRead(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.notifications[id]; ok {
		n.Read = true
	}
	return nil
}

func (r *inMemoryNotificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

func (r *inMemoryNotificationRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.notifications, id)
	return nil
}

func (r *inMemoryNotificationRepository) DeleteOlderThan(ctx context.Context, olderThan time.Time, readOnly bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int
	for id, n := range r.notifications {
		if n.CreatedAt.Before(olderThan) && (!readOnly || n.Read) {
			delete(r.notifications, id)
			deleted++
		}
	}
	return deleted, nil
}

// In-memory Config Repository
type inMemoryConfigRepository struct {
	mu      sync.RWMutex
	entries map[string]*ConfigEntry
}

func newInMemoryConfigRepository() *inMemoryConfigRepository {
	return &inMemoryConfigRepository{entries: make(map[string]*ConfigEntry)}
}

func (r *inMemoryConfigRepository) Upsert(ctx context.Context, entry *ConfigEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.UpdatedAt = time.Now()
	r.entries[entry.Key] = entry
	return nil
}

func (r *inMemoryConfigRepository) Find(ctx context.Context, key string) (*ConfigEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.entries[key]; ok {
		return entry, nil
	}
	return nil, nil
}

func (r *inMemoryConfigRepository) FindAll(ctx context.Context) ([]*ConfigEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]*ConfigEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}
