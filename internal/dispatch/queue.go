// Package dispatch funnels every hangar command through one ordered
// execution stream and implements the player command surface on top of it.
// The single global queue is the only synchronization in the core: pipeline
// and store are never invoked concurrently for overlapping state.
package dispatch

import (
	"fmt"
	"log"
	"sync"
)

type task struct {
	op        string
	accountID int64
	fn        func() error
}

// Queue runs submitted units of work strictly FIFO on one worker. A unit
// that fails or panics is logged and reported; the queue keeps going.
type Queue struct {
	log   *log.Logger
	tasks chan task
	wg    sync.WaitGroup
	once  sync.Once

	// OnFault notifies the account that its command died on an internal
	// error. Set by the wiring before any Submit.
	OnFault func(accountID int64)
}

func NewQueue(logger *log.Logger) *Queue {
	q := &Queue{
		log:   logger,
		tasks: make(chan task, 256),
	}
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for t := range q.tasks {
			q.run(t)
		}
	}()
	return q
}

// Submit queues a unit of work and returns immediately; the caller is
// notified through the response channel when the unit completes. Returns
// false when the queue is saturated.
func (q *Queue) Submit(op string, accountID int64, fn func() error) bool {
	select {
	case q.tasks <- task{op: op, accountID: accountID, fn: fn}:
		return true
	default:
		return false
	}
}

func (q *Queue) run(t task) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return t.fn()
	}()
	if err != nil {
		q.log.Printf("queue: %s (account %d): %v", t.op, t.accountID, err)
		if q.OnFault != nil {
			q.OnFault(t.accountID)
		}
	}
}

// Close drains the queue and stops the worker.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.tasks) })
	q.wg.Wait()
}
