// Package async runs small batches of named tasks concurrently. Analytics
// handlers use it to fan out independent aggregate queries for one response.
package async

import (
	"fmt"
	"sync"
)

// Task is a named unit of work.
type Task struct {
	Name string
	Fn   func() (interface{}, error)
}

// Outcome is the result of one task. Value is nil when Err is set.
type Outcome struct {
	Name  string
	Value interface{}
	Err   error
}

// Run executes tasks concurrently, at most limit at a time (limit <= 0 means
// unbounded), and returns outcomes in task order. A panicking task is
// reported as a failed outcome instead of taking down the caller.
func Run(tasks []Task, limit int) []Outcome {
	if limit <= 0 || limit > len(tasks) {
		limit = len(tasks)
	}

	outcomes := make([]Outcome, len(tasks))
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task Task) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					outcomes[i] = Outcome{Name: task.Name, Err: fmt.Errorf("task %s panicked: %v", task.Name, r)}
				}
			}()

			value, err := task.Fn()
			outcomes[i] = Outcome{Name: task.Name, Value: value, Err: err}
		}(i, task)
	}

	wg.Wait()
	return outcomes
}
