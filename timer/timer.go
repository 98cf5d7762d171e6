// timer/timer.go
package timer

import (
	"container/heap"
	"sync"
	"time"
)

// Task is a scheduled callback. Interval > 0 makes it repeat.
type Task struct {
	ID       int64
	Execute  time.Time
	Interval time.Duration
	Callback func()
	index    int
}

type taskQueue []*Task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	return q[i].Execute.Before(q[j].Execute)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x interface{}) {
	n := len(*q)
	task := x.(*Task)
	task.index = n
	*q = append(*q, task)
}

func (q *taskQueue) Pop() interface{} {
	old := *q
	n := len(old)
	task := old[n-1]
	task.index = -1
	*q = old[0 : n-1]
	return task
}

// TimerManager schedules one-shot and repeating callbacks off a single
// min-heap. Due tasks are detected on a coarse tick, so firing resolution
// is the tick period, not the wall clock. Callbacks run in their own
// goroutine and must arrange their own synchronization.
type TimerManager struct {
	queue   taskQueue
	mutex   sync.Mutex
	nextID  int64
	trigger chan *Task
	stop    chan struct{}
	once    sync.Once
}

// NewTimerManager creates a manager and starts its scheduling loop.
func NewTimerManager() *TimerManager {
	manager := &TimerManager{
		queue:   make(taskQueue, 0),
		trigger: make(chan *Task, 1000),
		nextID:  1,
		stop:    make(chan struct{}),
	}
	heap.Init(&manager.queue)
	go manager.process()
	return manager
}

// AddTimer schedules callback after delay. A positive interval reschedules
// it after every run. The returned ID cancels the task via RemoveTimer.
func (m *TimerManager) AddTimer(delay time.Duration, interval time.Duration, callback func()) int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	task := &Task{
		ID:       m.nextID,
		Execute:  time.Now().Add(delay),
		Interval: interval,
		Callback: callback,
	}
	m.nextID++

	heap.Push(&m.queue, task)
	return task.ID
}

// RemoveTimer cancels a pending task. Unknown IDs, including tasks that
// already fired, are ignored.
func (m *TimerManager) RemoveTimer(timerID int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for i, task := range m.queue {
		if task.ID == timerID {
			heap.Remove(&m.queue, i)
			break
		}
	}
}

// Pending returns the number of scheduled tasks.
func (m *TimerManager) Pending() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.queue.Len()
}

// Stop halts the scheduling loop. Pending tasks never fire; callbacks
// already dispatched keep running. Safe to call more than once.
func (m *TimerManager) Stop() {
	m.once.Do(func() {
		close(m.stop)
	})
}

func (m *TimerManager) process() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mutex.Lock()
			now := time.Now()

			for m.queue.Len() > 0 {
				task := m.queue[0]
				if task.Execute.After(now) {
					break
				}

				heap.Pop(&m.queue)
				m.trigger <- task

				if task.Interval > 0 {
					task.Execute = now.Add(task.Interval)
					heap.Push(&m.queue, task)
				}
			}
			m.mutex.Unlock()

		case task := <-m.trigger:
			go task.Callback()

		case <-m.stop:
			return
		}
	}
}
