// Package compute provides the data-parallel dispatch layer the kernels run on.
//
// Work is organized into fixed-size groups of GroupSize lanes. A dispatch
// fans the groups out over a persistent worker pool and returns only once
// every group has finished, so a returned Dispatch call is the
// synchronization barrier between dependent pipeline stages. Lanes within a
// group execute sequentially on one worker, which stands in for the
// group-local barrier of the original scheduling model.
package compute

import (
	"runtime"
	"sync"
)

// GroupSize is the number of lanes per work group.
const GroupSize = 256

// parallelThreshold is the minimum group count to use the worker pool.
// Below this, dispatching inline is faster than channel round-trips.
const parallelThreshold = 2

// groupTask is a contiguous range of groups for one worker.
type groupTask struct {
	start, end int
	fn         func(group int)
}

// Dispatcher owns a persistent pool of workers that execute group kernels.
type Dispatcher struct {
	numWorkers int

	workChan chan groupTask // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

// NewDispatcher creates a dispatcher with the given worker count.
// workers <= 0 uses GOMAXPROCS.
func NewDispatcher(workers int) *Dispatcher {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Dispatcher{numWorkers: workers}
}

// Workers returns the worker count.
func (d *Dispatcher) Workers() int {
	return d.numWorkers
}

// Start launches the persistent worker goroutines.
func (d *Dispatcher) Start() {
	if d.running {
		return
	}

	d.workChan = make(chan groupTask, d.numWorkers)
	d.doneChan = make(chan struct{}, d.numWorkers)
	d.stopChan = make(chan struct{})
	d.running = true

	for i := 0; i < d.numWorkers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

// Stop signals all workers to exit and waits for them.
func (d *Dispatcher) Stop() {
	if !d.running {
		return
	}

	close(d.stopChan)
	d.wg.Wait()
	close(d.workChan)
	close(d.doneChan)
	d.running = false
}

// worker runs in a goroutine, processing group ranges until stopped.
func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for {
		select {
		case <-d.stopChan:
			return
		case task, ok := <-d.workChan:
			if !ok {
				return
			}
			for g := task.start; g < task.end; g++ {
				task.fn(g)
			}
			d.doneChan <- struct{}{}
		}
	}
}

// Dispatch runs fn once per group and returns after every group has retired.
// The return is the inter-stage barrier: no writes made by fn are still in
// flight once Dispatch returns.
func (d *Dispatcher) Dispatch(groups int, fn func(group int)) {
	if groups <= 0 {
		return
	}

	if !d.running || groups < parallelThreshold || d.numWorkers == 1 {
		for g := 0; g < groups; g++ {
			fn(g)
		}
		return
	}

	chunk := (groups + d.numWorkers - 1) / d.numWorkers
	sent := 0
	for start := 0; start < groups; start += chunk {
		end := start + chunk
		if end > groups {
			end = groups
		}
		d.workChan <- groupTask{start: start, end: end, fn: fn}
		sent++
	}
	for i := 0; i < sent; i++ {
		<-d.doneChan
	}
}

// ForEach runs fn once per element index in [0, count), grouped into
// GroupSize-lane groups. Out-of-range lanes in the trailing group are inert.
func (d *Dispatcher) ForEach(count int, fn func(i int)) {
	d.Dispatch(GroupCount(count), func(group int) {
		start := group * GroupSize
		end := start + GroupSize
		if end > count {
			end = count
		}
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}

// GroupCount returns the number of GroupSize-lane groups covering count elements.
func GroupCount(count int) int {
	return (count + GroupSize - 1) / GroupSize
}
