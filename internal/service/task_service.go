package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/soihub/soi-hub-backend/internal/repository"
	"github.com/soihub/soi-hub-backend/internal/types"
)

// ============================================
// Task Service
// ============================================

type TaskService interface {
	CreateTask(ctx context.Context, input *CreateTaskInput) (*repository.Task, error)
	GetTask(ctx context.Context, id string) (*repository.Task, error)
	ListTasks(ctx context.Context, activeOnly bool) ([]*repository.Task, error)
	UpdateTask(ctx context.Context, id string, input *UpdateTaskInput) (*repository.Task, error)
	// DeactivateTask retires a task. Existing instances keep their state;
	// the task stops appearing in volunteer task lists and reminder passes.
	DeactivateTask(ctx context.Context, id string) error

	// ApplicableTasks resolves the task list for a volunteer: every active
	// ALL_VOLUNTEERS task plus SPECIFIC_ROLE tasks for the volunteer's
	// confirmed roles, deduplicated by task, ordered so prerequisites come
	// before their dependents.
	ApplicableTasks(ctx context.Context, volunteerID string) ([]*ResolvedTask, error)
	// EnsureInstances creates missing NOT_STARTED instances for every task
	// applicable to the volunteer. Safe to call repeatedly.
	EnsureInstances(ctx context.Context, volunteerID string) error
	// IsBlocked reports whether the task has prerequisites the volunteer has
	// not completed yet.
	IsBlocked(ctx context.Context, task *repository.Task, volunteerID string) (bool, []string, error)
}

// ResolvedTask is a task in a volunteer's worklist together with its
// completion state.
type ResolvedTask struct {
	Task     *repository.Task
	Instance *repository.TaskInstance
	Blocked  bool
	// MissingPrerequisites lists prerequisite task IDs not yet approved.
	MissingPrerequisites []string
}

type CreateTaskInput struct {
	EventID               *string
	RoleID                *string
	Title                 string
	Description           *string
	AssignmentType        string
	TaskType              string
	VerificationType      string
	Mandatory             bool
	Deadline              *string
	SendReminders         bool
	ReminderFrequencyDays int
	MinWords              int
	MaxWords              int
	Prerequisites         []string
	CreatedBy             *string
}

type UpdateTaskInput struct {
	Title                 *string
	Description           *string
	Mandatory             *bool
	Deadline              *string
	SendReminders         *bool
	ReminderFrequencyDays *int
	MinWords              *int
	MaxWords              *int
	Prerequisites         []string
}

type taskService struct {
	taskRepo       repository.TaskRepository
	assignmentRepo repository.AssignmentRepository
	instanceRepo   repository.TaskInstanceRepository
	eventRepo      repository.EventRepository
	roleRepo       repository.RoleRepository
}

func NewTaskService(
	taskRepo repository.TaskRepository,
	assignmentRepo repository.AssignmentRepository,
	instanceRepo repository.TaskInstanceRepository,
	eventRepo repository.EventRepository,
	roleRepo repository.RoleRepository,
) TaskService {
	return &taskService{
		taskRepo:       taskRepo,
		assignmentRepo: assignmentRepo,
		instanceRepo:   instanceRepo,
		eventRepo:      eventRepo,
		roleRepo:       roleRepo,
	}
}

func (s *taskService) CreateTask(ctx context.Context, input *CreateTaskInput) (*repository.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrInvalidInput
	}
	if !types.IsValidAssignmentType(input.AssignmentType) ||
		!types.IsValidTaskType(input.TaskType) ||
		!types.IsValidVerificationType(input.VerificationType) {
		return nil, ErrInvalidInput
	}
	if input.AssignmentType == types.AssignSpecificRole && input.RoleID == nil {
		return nil, ErrInvalidInput
	}
	if input.MinWords < 0 || input.MaxWords < 0 || (input.MaxWords > 0 && input.MinWords > input.MaxWords) {
		return nil, ErrInvalidInput
	}

	if input.RoleID != nil {
		role, err := s.roleRepo.FindByID(ctx, *input.RoleID)
		if err != nil {
			return nil, fmt.Errorf("failed to get role: %w", err)
		}
		if role == nil {
			return nil, ErrNotFound
		}
	}
	if input.EventID != nil {
		event, err := s.eventRepo.FindByID(ctx, *input.EventID)
		if err != nil {
			return nil, fmt.Errorf("failed to get event: %w", err)
		}
		if event == nil {
			return nil, ErrNotFound
		}
	}

	task := &repository.Task{
		EventID:               input.EventID,
		RoleID:                input.RoleID,
		Title:                 input.Title,
		Description:           input.Description,
		AssignmentType:        input.AssignmentType,
		TaskType:              input.TaskType,
		VerificationType:      input.VerificationType,
		Mandatory:             input.Mandatory,
		Active:                true,
		SendReminders:         input.SendReminders,
		ReminderFrequencyDays: input.ReminderFrequencyDays,
		MinWords:              input.MinWords,
		MaxWords:              input.MaxWords,
		Prerequisites:         input.Prerequisites,
		CreatedBy:             input.CreatedBy,
	}
	if input.Deadline != nil {
		t, err := parseDate(*input.Deadline)
		if err != nil {
			return nil, ErrInvalidInput
		}
		task.Deadline = t
	}

	if err := s.validatePrerequisites(ctx, "", input.Prerequisites); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

func (s *taskService) GetTask(ctx context.Context, id string) (*repository.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, ErrNotFound
	}
	return task, nil
}

func (s *taskService) ListTasks(ctx context.Context, activeOnly bool) ([]*repository.Task, error) {
	return s.taskRepo.FindAll(ctx, activeOnly)
}

func (s *taskService) UpdateTask(ctx context.Context, id string, input *UpdateTaskInput) (*repository.Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrInvalidInput
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = input.Description
	}
	if input.Mandatory != nil {
		task.Mandatory = *input.Mandatory
	}
	if input.Deadline != nil {
		t, err := parseDate(*input.Deadline)
		if err != nil {
			return nil, ErrInvalidInput
		}
		task.Deadline = t
	}
	if input.SendReminders != nil {
		task.SendReminders = *input.SendReminders
	}
	if input.ReminderFrequencyDays != nil {
		task.ReminderFrequencyDays = *input.ReminderFrequencyDays
	}
	if input.MinWords != nil {
		task.MinWords = *input.MinWords
	}
	if input.MaxWords != nil {
		task.MaxWords = *input.MaxWords
	}
	if task.MinWords < 0 || task.MaxWords < 0 || (task.MaxWords > 0 && task.MinWords > task.MaxWords) {
		return nil, ErrInvalidInput
	}
	if input.Prerequisites != nil {
		if err := s.validatePrerequisites(ctx, task.ID, input.Prerequisites); err != nil {
			return nil, err
		}
		task.Prerequisites = input.Prerequisites
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

func (s *taskService) DeactivateTask(ctx context.Context, id string) error {
	if _, err := s.GetTask(ctx, id); err != nil {
		return err
	}
	return s.taskRepo.Deactivate(ctx, id)
}

// validatePrerequisites checks that every prerequisite exists and that the
// resulting dependency graph stays acyclic. taskID is empty for a task being
// created.
func (s *taskService) validatePrerequisites(ctx context.Context, taskID string, prereqs []string) error {
	if len(prereqs) == 0 {
		return nil
	}

	all, err := s.taskRepo.FindAll(ctx, false)
	if err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}
	graph := make(map[string][]string, len(all)+1)
	for _, t := range all {
		graph[t.ID] = t.Prerequisites
	}
	for _, p := range prereqs {
		if p == taskID {
			return ErrDependencyCycle
		}
		if _, ok := graph[p]; !ok {
			return ErrNotFound
		}
	}
	// The new task's edges replace any existing ones before the walk.
	key := taskID
	if key == "" {
		key = "__new__"
	}
	graph[key] = prereqs

	// DFS from the changed node; a path back to it means a cycle.
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make(map[string]int, len(graph))
	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = grey
		for _, dep := range graph[id] {
			switch color[dep] {
			case grey:
				return false
			case white:
				if !visit(dep) {
					return false
				}
			}
		}
		color[id] = black
		return true
	}
	if !visit(key) {
		return ErrDependencyCycle
	}
	return nil
}

func (s *taskService) ApplicableTasks(ctx context.Context, volunteerID string) ([]*ResolvedTask, error) {
	roleIDs, err := s.assignmentRepo.FindConfirmedRoleIDs(ctx, volunteerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load confirmed roles: %w", err)
	}

	tasks, err := s.taskRepo.FindApplicable(ctx, roleIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load applicable tasks: %w", err)
	}

	// A task reachable both through ALL_VOLUNTEERS and a role match appears
	// once.
	byID := make(map[string]*repository.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	ordered := topoSort(byID)

	resolved := make([]*ResolvedTask, 0, len(ordered))
	for _, task := range ordered {
		instance, err := s.instanceRepo.FindByTaskAndVolunteer(ctx, task.ID, volunteerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load task instance: %w", err)
		}
		blocked, missing, err := s.IsBlocked(ctx, task, volunteerID)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, &ResolvedTask{
			Task:                 task,
			Instance:             instance,
			Blocked:              blocked,
			MissingPrerequisites: missing,
		})
	}
	return resolved, nil
}

// topoSort orders tasks so prerequisites precede dependents. Prerequisites
// outside the set do not constrain the order. Ties break on creation time
// then ID so the output is stable.
func topoSort(byID map[string]*repository.Task) []*repository.Task {
	indegree := make(map[string]int, len(byID))
	dependents := make(map[string][]string, len(byID))
	for id, t := range byID {
		if _, ok := indegree[id]; !ok {
			indegree[id] = 0
		}
		for _, p := range t.Prerequisites {
			if _, ok := byID[p]; !ok {
				continue
			}
			indegree[id]++
			dependents[p] = append(dependents[p], id)
		}
	}

	ready := make([]*repository.Task, 0, len(byID))
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, byID[id])
		}
	}
	sortTasks(ready)

	ordered := make([]*repository.Task, 0, len(byID))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		ordered = append(ordered, next)

		var unlocked []*repository.Task
		for _, depID := range dependents[next.ID] {
			indegree[depID]--
			if indegree[depID] == 0 {
				unlocked = append(unlocked, byID[depID])
			}
		}
		sortTasks(unlocked)
		ready = append(ready, unlocked...)
	}

	// Tasks left over sit on a cycle that slipped into storage; append them
	// rather than hiding them from the volunteer.
	if len(ordered) < len(byID) {
		var rest []*repository.Task
		seen := make(map[string]bool, len(ordered))
		for _, t := range ordered {
			seen[t.ID] = true
		}
		for id, t := range byID {
			if !seen[id] {
				rest = append(rest, t)
			}
		}
		sortTasks(rest)
		ordered = append(ordered, rest...)
	}
	return ordered
}

func sortTasks(tasks []*repository.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
}

func (s *taskService) EnsureInstances(ctx context.Context, volunteerID string) error {
	resolved, err := s.ApplicableTasks(ctx, volunteerID)
	if err != nil {
		return err
	}
	for _, r := range resolved {
		if r.Instance != nil {
			continue
		}
		instance := &repository.TaskInstance{
			TaskID:      r.Task.ID,
			VolunteerID: volunteerID,
			State:       types.InstanceNotStarted,
		}
		if err := s.instanceRepo.Create(ctx, instance); err != nil {
			return fmt.Errorf("failed to create task instance: %w", err)
		}
	}
	return nil
}

func (s *taskService) IsBlocked(ctx context.Context, task *repository.Task, volunteerID string) (bool, []string, error) {
	if len(task.Prerequisites) == 0 {
		return false, nil, nil
	}
	var missing []string
	for _, prereqID := range task.Prerequisites {
		instance, err := s.instanceRepo.FindByTaskAndVolunteer(ctx, prereqID, volunteerID)
		if err != nil {
			return false, nil, fmt.Errorf("failed to load prerequisite instance: %w", err)
		}
		if instance == nil || instance.State != types.InstanceApproved {
			missing = append(missing, prereqID)
		}
	}
	return len(missing) > 0, missing, nil
}
