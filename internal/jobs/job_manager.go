package jobs

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Reminders - источник проходов напоминаний.
type Reminders interface {
	SendDeadlineReminders(ctx context.Context) (int, error)
	SendPaymentReminders(ctx context.Context) (int, error)
}

type Schedules struct {
	Deadline string
	Payment  string
}

// JobManager запускает и останавливает все фоновые задания по расписанию.
type JobManager struct {
	jobs []*ReminderJob
}

// NewJobManager создаёт задания. Пустое расписание отключает задание.
func NewJobManager(reminders Reminders, schedules Schedules, log *logrus.Logger) *JobManager {
	jm := &JobManager{}
	if schedules.Deadline != "" {
		jm.jobs = append(jm.jobs, NewReminderJob("deadline_reminders", schedules.Deadline, reminders.SendDeadlineReminders, log))
	}
	if schedules.Payment != "" {
		jm.jobs = append(jm.jobs, NewReminderJob("payment_reminders", schedules.Payment, reminders.SendPaymentReminders, log))
	}
	return jm
}

// StartAll запускает задания. При ошибке уже запущенные останавливаются.
func (jm *JobManager) StartAll() error {
	for i, job := range jm.jobs {
		if err := job.Start(); err != nil {
			for _, started := range jm.jobs[:i] {
				started.Stop()
			}
			return fmt.Errorf("failed to start %s job: %w", job.name, err)
		}
	}
	return nil
}

func (jm *JobManager) StopAll() {
	for _, job := range jm.jobs {
		job.Stop()
	}
}
