package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"smarttasker/internal/model"
)

// CreateTask inserts a new task. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateTask(ctx context.Context, task model.Task) error {
	if strings.TrimSpace(task.Title) == "" {
		return fmt.Errorf("task title must not be empty")
	}
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}
	if task.Reminder == "" {
		task.Reminder = model.ReminderNone
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, title, description, due_date, has_time,
			priority, reminder, completed, notification_sent,
			calendar_event_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Title, task.Description, task.DueDate, boolToInt(task.HasTime),
		task.Priority, string(task.Reminder), boolToInt(task.Completed),
		boolToInt(task.NotificationSent),
		task.CalendarEventID, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}

	s.notifyWatchers()
	return nil
}

// GetTasks retrieves tasks matching the filter.
func (s *SQLiteStore) GetTasks(
	ctx context.Context,
	filter TaskFilter,
) ([]model.Task, error) {
	var conditions []string
	var args []interface{}

	if filter.Completed != nil {
		conditions = append(conditions, "completed = ?")
		args = append(args, boolToInt(*filter.Completed))
	}
	if filter.HasDueDate != nil {
		if *filter.HasDueDate {
			conditions = append(conditions, "due_date IS NOT NULL")
		} else {
			conditions = append(conditions, "due_date IS NULL")
		}
	}
	if filter.Priority != nil {
		conditions = append(conditions, "priority = ?")
		args = append(args, *filter.Priority)
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions, "(title LIKE ? OR description LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q)
	}

	query := "SELECT * FROM tasks"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	sortBy := "created_at"
	if filter.SortBy != "" {
		allowedSorts := map[string]bool{
			"title":      true,
			"priority":   true,
			"due_date":   true,
			"created_at": true,
			"updated_at": true,
		}
		if allowedSorts[filter.SortBy] {
			sortBy = filter.SortBy
		}
	}

	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, direction)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// GetTaskByID retrieves a single task by its ID.
func (s *SQLiteStore) GetTaskByID(
	ctx context.Context,
	id string,
) (*model.Task, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT * FROM tasks WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("getting task %s: %w", id, err)
		}
		return nil, fmt.Errorf("task %s not found", id)
	}

	task, err := scanTask(rows)
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}

	return &task, nil
}

// UpdateTaskFields applies a partial update to a task. Only fields with
// non-nil pointers (and ClearDueDate) produce SET clauses.
func (s *SQLiteStore) UpdateTaskFields(
	ctx context.Context,
	id string,
	fields TaskUpdate,
) error {
	var sets []string
	var args []interface{}

	if fields.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *fields.Title)
	}
	if fields.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *fields.Description)
	}
	if fields.ClearDueDate {
		sets = append(sets, "due_date = NULL")
	} else if fields.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, fields.DueDate.UTC())
	}
	if fields.HasTime != nil {
		sets = append(sets, "has_time = ?")
		args = append(args, boolToInt(*fields.HasTime))
	}
	if fields.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, *fields.Priority)
	}
	if fields.Reminder != nil {
		sets = append(sets, "reminder = ?")
		args = append(args, string(*fields.Reminder))
	}
	if fields.Completed != nil {
		sets = append(sets, "completed = ?")
		args = append(args, boolToInt(*fields.Completed))
	}
	if fields.NotificationSent != nil {
		sets = append(sets, "notification_sent = ?")
		args = append(args, boolToInt(*fields.NotificationSent))
	}
	if fields.CalendarEventID != nil {
		sets = append(sets, "calendar_event_id = ?")
		args = append(args, *fields.CalendarEventID)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC())
	args = append(args, id)

	query := "UPDATE tasks SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating task %s: %w", id, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s not found", id)
	}

	s.notifyWatchers()
	return nil
}

// DeleteTask removes a task by ID.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s not found", id)
	}

	s.notifyWatchers()
	return nil
}

// GetSubscription returns the stored push subscription, or (nil, nil)
// when the install has no subscription.
func (s *SQLiteStore) GetSubscription(
	ctx context.Context,
) (*model.PushSubscriptionRecord, error) {
	var (
		sub            model.PushSubscriptionRecord
		expirationTime sql.NullTime
	)

	row := s.db.QueryRowxContext(ctx,
		"SELECT endpoint, p256dh, auth, expiration_time, created_at FROM push_subscription WHERE id = 1",
	)
	err := row.Scan(
		&sub.Endpoint, &sub.Keys.P256dh, &sub.Keys.Auth,
		&expirationTime, &sub.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting push subscription: %w", err)
	}

	if expirationTime.Valid {
		t := expirationTime.Time
		sub.ExpirationTime = &t
	}

	return &sub, nil
}

// SaveSubscription stores the push subscription, replacing any previous one.
func (s *SQLiteStore) SaveSubscription(
	ctx context.Context,
	sub model.PushSubscriptionRecord,
) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO push_subscription (
			id, endpoint, p256dh, auth, expiration_time, created_at
		) VALUES (1, ?, ?, ?, ?, ?)`,
		sub.Endpoint, sub.Keys.P256dh, sub.Keys.Auth,
		sub.ExpirationTime, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving push subscription: %w", err)
	}

	s.notifyWatchers()
	return nil
}

// DeleteSubscription removes the stored push subscription.
func (s *SQLiteStore) DeleteSubscription(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM push_subscription WHERE id = 1")
	if err != nil {
		return fmt.Errorf("deleting push subscription: %w", err)
	}

	s.notifyWatchers()
	return nil
}

// scanTask scans a task row from a sqlx.Rows result set.
func scanTask(rows *sqlx.Rows) (model.Task, error) {
	var (
		task     model.Task
		dueDate  sql.NullTime
		hasTime  int
		reminder string
		complete int
		notified int
	)

	err := rows.Scan(
		&task.ID, &task.Title, &task.Description, &dueDate, &hasTime,
		&task.Priority, &reminder, &complete, &notified,
		&task.CalendarEventID, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("scanning task row: %w", err)
	}

	if dueDate.Valid {
		t := dueDate.Time
		task.DueDate = &t
	}
	task.HasTime = hasTime != 0
	task.Reminder = model.ReminderOption(reminder)
	task.Completed = complete != 0
	task.NotificationSent = notified != 0

	return task, nil
}
