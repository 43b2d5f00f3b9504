package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/zarathustragosling/project-management/internal/models"
)

// NotificationService translates domain events into persisted per-user
// notifications. Creation failures are logged and swallowed: a missing
// notification is a degraded outcome, never a failure of the workflow that
// triggered it.
type NotificationService struct {
	db        *gorm.DB
	lookahead time.Duration
	interval  time.Duration
	ticker    *time.Ticker
	done      chan bool
}

func NewNotificationService(db *gorm.DB, lookahead, interval time.Duration) *NotificationService {
	return &NotificationService{
		db:        db,
		lookahead: lookahead,
		interval:  interval,
		done:      make(chan bool),
	}
}

// Start begins the periodic deadline sweep. A sweep runs immediately, then on
// every tick until Stop.
func (ns *NotificationService) Start() {
	log.Printf("Starting deadline sweep with interval %v, lookahead %v", ns.interval, ns.lookahead)

	ns.runSweep()

	ns.ticker = time.NewTicker(ns.interval)
	go func() {
		for {
			select {
			case <-ns.ticker.C:
				ns.runSweep()
			case <-ns.done:
				return
			}
		}
	}()
}

// Stop stops the periodic sweep.
func (ns *NotificationService) Stop() {
	log.Println("Stopping deadline sweep")
	if ns.ticker != nil {
		ns.ticker.Stop()
	}
	ns.done <- true
}

func (ns *NotificationService) runSweep() {
	if created, err := ns.SweepUpcomingDeadlines(); err != nil {
		log.Printf("Error sweeping upcoming deadlines: %v", err)
	} else if created > 0 {
		log.Printf("Deadline sweep created %d notifications", created)
	}
}

// NotifyTaskAssigned creates a TASK_ASSIGNED notification for the assignee.
// No-op if the task is unassigned. Callers invoke this only when the assignee
// actually changed, not on every save.
func (ns *NotificationService) NotifyTaskAssigned(task *models.Task) {
	if task.AssignedTo == nil {
		return
	}

	ns.create(&models.Notification{
		UserID:  *task.AssignedTo,
		Type:    models.NotificationTaskAssigned,
		Message: fmt.Sprintf("Вы назначены ответственным за задачу '%s'", task.Title),
		TaskID:  &task.ID,
	}, map[string]any{
		"project_id": task.ProjectID,
	})
}

// NotifyTaskDeadline creates a TASK_DEADLINE notification for the assignee.
// No-op if the task is unassigned or has no deadline.
func (ns *NotificationService) NotifyTaskDeadline(task *models.Task) {
	if task.AssignedTo == nil || task.Deadline == nil {
		return
	}

	ns.create(&models.Notification{
		UserID: *task.AssignedTo,
		Type:   models.NotificationTaskDeadline,
		Message: fmt.Sprintf("Приближается срок выполнения задачи '%s'. Дедлайн: %s",
			task.Title, task.Deadline.Format("02.01.2006")),
		TaskID: &task.ID,
	}, map[string]any{
		"project_id": task.ProjectID,
		"deadline":   task.Deadline.Format("2006-01-02"),
	})
}

// NotifyTeamMemberJoined fans out one notification per current team member,
// excluding the user who joined.
func (ns *NotificationService) NotifyTeamMemberJoined(user *models.User, team *models.Team) {
	message := fmt.Sprintf("Пользователь %s присоединился к команде", user.Username)
	ns.fanOut(user, team, models.NotificationTeamMemberJoined, message)
}

// NotifyTeamMemberLeft fans out one notification per remaining team member,
// excluding the user who left.
func (ns *NotificationService) NotifyTeamMemberLeft(user *models.User, team *models.Team) {
	message := fmt.Sprintf("Пользователь %s покинул команду", user.Username)
	ns.fanOut(user, team, models.NotificationTeamMemberLeft, message)
}

func (ns *NotificationService) fanOut(user *models.User, team *models.Team, nType models.NotificationType, message string) {
	var members []models.User
	if err := ns.db.Where("team_id = ? AND id <> ?", team.ID, user.ID).Find(&members).Error; err != nil {
		log.Printf("Failed to load members of team %d for notification fan-out: %v", team.ID, err)
		return
	}

	data, err := json.Marshal(map[string]any{
		"team_id":  team.ID,
		"user_id":  user.ID,
		"username": user.Username,
	})
	if err != nil {
		log.Printf("Failed to encode notification payload: %v", err)
		return
	}

	err = ns.db.Transaction(func(tx *gorm.DB) error {
		for _, member := range members {
			notification := models.Notification{
				UserID:  member.ID,
				Type:    nType,
				Message: message,
				Data:    data,
			}
			if err := tx.Create(&notification).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("Failed to fan out %s notifications for team %d: %v", nType, team.ID, err)
	}
}

// SweepUpcomingDeadlines creates a TASK_DEADLINE notification for every
// assigned, unfinished task whose deadline falls within the lookahead window.
// Idempotent: a (task, assignee) pair that already has one is skipped, so
// repeated sweeps over an unchanged task set create nothing new.
func (ns *NotificationService) SweepUpcomingDeadlines() (int, error) {
	now := time.Now()
	cutoff := now.Add(ns.lookahead)

	var tasks []models.Task
	err := ns.db.
		Where("deadline IS NOT NULL AND deadline <= ? AND deadline >= ?", cutoff, now.Truncate(24*time.Hour)).
		Where("assigned_to IS NOT NULL").
		Where("status <> ?", models.StatusDone).
		Find(&tasks).Error
	if err != nil {
		return 0, fmt.Errorf("failed to select tasks with upcoming deadlines: %w", err)
	}

	created := 0
	for _, task := range tasks {
		var count int64
		err := ns.db.Model(&models.Notification{}).
			Where("type = ? AND task_id = ? AND user_id = ?",
				models.NotificationTaskDeadline, task.ID, *task.AssignedTo).
			Count(&count).Error
		if err != nil {
			// A task deleted or reassigned mid-sweep is skipped, not an error.
			log.Printf("Skipping deadline notification for task %d: %v", task.ID, err)
			continue
		}
		if count > 0 {
			continue
		}

		ns.NotifyTaskDeadline(&task)
		created++
	}

	return created, nil
}

func (ns *NotificationService) create(notification *models.Notification, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to encode notification payload: %v", err)
		return
	}
	notification.Data = data

	if err := ns.db.Create(notification).Error; err != nil {
		log.Printf("Failed to create %s notification for user %d: %v",
			notification.Type, notification.UserID, err)
	}
}
