// internal/common/camunda/worker.go
package camunda

import (
	"fmt"
	"time"

	"marketing-api/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Worker is implemented by every job handler under internal/workers.
type Worker interface {
	GetTaskType() string
	IsEnabled() bool
	Register() error
	Close()
}

// OpenJobWorker starts polling taskType with the shared worker settings.
func OpenJobWorker(client zbc.Client, taskType string, handler worker.JobHandler, maxJobsActive int, timeout time.Duration) worker.JobWorker {
	return client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(maxJobsActive).
		Timeout(timeout).
		Name(fmt.Sprintf("%s-worker", taskType)).
		Open()
}

// Manager registers a set of workers and closes them in reverse order.
type Manager struct {
	workers    []Worker
	registered []Worker
	logger     logger.Logger
}

func NewManager(log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Manager{logger: log}
}

func (m *Manager) Add(w Worker) {
	m.workers = append(m.workers, w)
}

// RegisterAll opens every enabled worker. On the first failure the workers
// opened so far are closed again.
func (m *Manager) RegisterAll() (int, error) {
	for _, w := range m.workers {
		if !w.IsEnabled() {
			m.logger.Info("Worker disabled", map[string]interface{}{"taskType": w.GetTaskType()})
			continue
		}
		if err := w.Register(); err != nil {
			m.Close()
			return 0, fmt.Errorf("register %s: %w", w.GetTaskType(), err)
		}
		m.registered = append(m.registered, w)
	}
	m.logger.Info("Workers registered", map[string]interface{}{
		"registered": len(m.registered),
		"total":      len(m.workers),
	})
	return len(m.registered), nil
}

// TaskTypes lists the task types of the registered workers.
func (m *Manager) TaskTypes() []string {
	out := make([]string, len(m.registered))
	for i, w := range m.registered {
		out[i] = w.GetTaskType()
	}
	return out
}

func (m *Manager) Close() {
	for i := len(m.registered) - 1; i >= 0; i-- {
		m.registered[i].Close()
	}
	m.registered = nil
}
