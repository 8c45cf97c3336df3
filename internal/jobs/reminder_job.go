package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ReminderFunc выполняет один проход и возвращает число напоминаний.
type ReminderFunc func(ctx context.Context) (int, error)

// ReminderJob запускает проход напоминаний по расписанию cron (с секундами).
type ReminderJob struct {
	name    string
	spec    string
	run     ReminderFunc
	timeout time.Duration
	cron    *cron.Cron
	log     *logrus.Entry
}

func NewReminderJob(name, spec string, run ReminderFunc, log *logrus.Logger) *ReminderJob {
	return &ReminderJob{
		name:    name,
		spec:    spec,
		run:     run,
		timeout: time.Minute,
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:     log.WithField("job", name),
	}
}

// Start регистрирует расписание. Неверное выражение cron - ошибка запуска.
func (j *ReminderJob) Start() error {
	if _, err := j.cron.AddFunc(j.spec, j.RunOnce); err != nil {
		return err
	}
	j.cron.Start()
	j.log.WithField("schedule", j.spec).Info("reminder job started")
	return nil
}

// RunOnce выполняет один проход с ограничением по времени.
func (j *ReminderJob) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	count, err := j.run(ctx)
	if err != nil {
		j.log.WithError(err).Error("reminder job failed")
		return
	}
	j.log.WithField("count", count).Debug("reminder job finished")
}

// Stop останавливает расписание и дожидается текущего прохода.
func (j *ReminderJob) Stop() {
	<-j.cron.Stop().Done()
	j.log.Info("reminder job stopped")
}
