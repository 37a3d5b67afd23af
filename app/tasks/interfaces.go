package tasks

// TaskSchedulerInterface is the queue-and-workers contract shared by the
// display loader (one worker, strict FIFO) and the background prefetcher.
//
//	scheduler := NewScheduler(Options{Name: "prefetch", WorkerCount: 3, Interval: time.Minute, Producer: produce})
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(task)
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
