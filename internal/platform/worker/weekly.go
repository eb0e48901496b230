package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/reading-bot/internal/platform/schedule"
)

// WeeklyTask represents a task that runs once per week at a specific time.
type WeeklyTask struct {
	// Name identifies the task for logging.
	Name string

	// Slot is the weekly day and hour the task is due at.
	Slot schedule.Weekly

	// IsEnabled returns whether the task is currently enabled.
	// If nil, task is always enabled.
	IsEnabled func(ctx context.Context) bool

	// Run executes the task.
	Run func(ctx context.Context, logger *zerolog.Logger) error

	// OnError is called when Run returns an error.
	// If nil, errors are only logged.
	OnError func(err error)

	// lastRun tracks when the task last executed successfully.
	lastRun time.Time
}

// WeeklyScheduler manages a collection of weekly tasks. A task whose slot
// passed while the process was down runs on the next check.
type WeeklyScheduler struct {
	tasks  []*WeeklyTask
	logger *zerolog.Logger
	now    func() time.Time
}

// NewWeeklyScheduler creates a new weekly task scheduler.
func NewWeeklyScheduler(logger *zerolog.Logger) *WeeklyScheduler {
	return &WeeklyScheduler{
		tasks:  make([]*WeeklyTask, 0),
		logger: getLogger(logger),
		now:    time.Now,
	}
}

// SetClock replaces the time source used to decide whether a task is due.
func (ws *WeeklyScheduler) SetClock(now func() time.Time) {
	ws.now = now
}

// AddTask adds a task to the scheduler.
func (ws *WeeklyScheduler) AddTask(task *WeeklyTask) {
	ws.tasks = append(ws.tasks, task)
}

// CheckAndRun checks all tasks and runs any that are due.
// Call this from your main scheduler loop.
func (ws *WeeklyScheduler) CheckAndRun(ctx context.Context) {
	for _, task := range ws.tasks {
		ws.checkAndRunTask(ctx, task)
	}
}

func (ws *WeeklyScheduler) checkAndRunTask(ctx context.Context, task *WeeklyTask) {
	if task.IsEnabled != nil && !task.IsEnabled(ctx) {
		return
	}

	now := ws.now()

	if !task.Slot.Due(now, task.lastRun) {
		return
	}

	logger := ws.logger.With().Str(logFieldTask, task.Name).Logger()
	logger.Info().Time("slot", task.Slot.Previous(now)).Msgf("Starting weekly %s", task.Name)

	if err := task.Run(ctx, &logger); err != nil {
		logger.Error().Err(err).Msgf("failed to run weekly %s", task.Name)

		if task.OnError != nil {
			task.OnError(err)
		}

		return
	}

	task.lastRun = now
}

// SetLastRun allows setting the last run time for a task (e.g., from persisted state).
func (ws *WeeklyScheduler) SetLastRun(taskName string, lastRun time.Time) {
	for _, task := range ws.tasks {
		if task.Name == taskName {
			task.lastRun = lastRun
			return
		}
	}
}

// GetLastRun returns the last run time for a task.
func (ws *WeeklyScheduler) GetLastRun(taskName string) (time.Time, bool) {
	for _, task := range ws.tasks {
		if task.Name == taskName {
			return task.lastRun, true
		}
	}

	return time.Time{}, false
}
