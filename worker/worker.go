package worker

import (
	"GrayscaleMandelbrot/coordinator"
	"GrayscaleMandelbrot/mandelbrot"
	"GrayscaleMandelbrot/misc"
	"GrayscaleMandelbrot/task"
	"fmt"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/BrugadaSyndrome/bslogger"
	"github.com/BrugadaSyndrome/multirpc"
	"github.com/pkg/errors"
)

// caller is the part of an rpc client the worker needs to talk to the coordinator
type caller interface {
	Call(method string, request interface{}, reply interface{}) error
}

// Worker renders bands handed out by a coordinator until there are none left. A new worker serves its own rpc server,
// used by the coordinator for roll calls, and is already registered with the coordinator.
type Worker struct {
	client             caller
	coordinatorAddress string
	logger             bslogger.Logger
	myAddress          string
	retryDelay         time.Duration // pause before asking again while the last bands are out
	shutdown           chan struct{}
	tasksCompleted     atomic.Int64

	ServerClient multirpc.TcpServerClient
}

func NewWorker(settings Settings) (*Worker, error) {
	if err := settings.Verify(); err != nil {
		return nil, err
	}

	worker := &Worker{
		coordinatorAddress: settings.CoordinatorAddress,
		logger:             bslogger.NewLogger("Worker", bslogger.Normal, nil),
		retryDelay:         time.Second,
		shutdown:           make(chan struct{}),
	}

	// Find a free port to use for this worker
	port, err := misc.GetFreePort()
	if err != nil {
		return nil, err
	}
	worker.logger.Debugf("Found free port: %d", port)
	host, err := misc.GetLocalAddress()
	if err != nil {
		worker.logger.Warningf("Falling back to localhost: %s", err)
		host = "127.0.0.1"
	}
	worker.myAddress = net.JoinHostPort(host, strconv.Itoa(port))
	worker.logger = bslogger.NewLogger(fmt.Sprintf("Worker %s", worker.myAddress), bslogger.Normal, nil)

	worker.ServerClient = multirpc.NewTcpServerClient(worker, worker.myAddress, worker.myAddress, settings.CoordinatorAddress, settings.CoordinatorAddress)
	if err := worker.ServerClient.Server.Run(); err != nil {
		return nil, errors.Wrapf(err, "serving at %s", worker.myAddress)
	}

	// Register with the coordinator
	if err := worker.ServerClient.Client.Connect(); err != nil {
		misc.CheckError(worker.ServerClient.Server.Stop(), worker.logger, misc.Warning)
		return nil, errors.Wrapf(err, "connecting to coordinator at %s", settings.CoordinatorAddress)
	}
	worker.client = &worker.ServerClient.Client

	var nothing misc.Nothing
	if err := worker.client.Call("Coordinator.RegisterWorker", worker.myAddress, &nothing); err != nil {
		worker.disconnect()
		return nil, errors.Wrap(err, "registering with coordinator")
	}
	worker.logger.Infof("Registered with coordinator at %s", worker.coordinatorAddress)

	return worker, nil
}

// Run processes tasks until the coordinator has none left, then deregisters and shuts the worker down
func (w *Worker) Run() error {
	go w.tickers()
	defer close(w.shutdown)

	err := w.processTasks()

	w.logger.Info("Shutting down")
	var nothing misc.Nothing
	misc.CheckError(w.client.Call("Coordinator.DeRegisterWorker", w.myAddress, &nothing), w.logger, misc.Warning)
	w.disconnect()
	return err
}

func (w *Worker) disconnect() {
	misc.CheckError(w.ServerClient.Client.Disconnect(), w.logger, misc.Warning)
	misc.CheckError(w.ServerClient.Server.Stop(), w.logger, misc.Warning)
}

func (w *Worker) tickers() {
	heartBeat := time.NewTicker(30 * time.Second)
	defer heartBeat.Stop()

	for {
		select {
		case <-w.shutdown:
			return
		case <-heartBeat.C:
			w.logger.Debug("Heart beat ticker")
			w.logger.Infof("Tasks [Completed: %d]", w.tasksCompleted.Load())
		}
	}
}

func (w *Worker) processTasks() error {
	w.logger.Info("Processing tasks")

	var nothing misc.Nothing
	startTime := time.Now()

	for {
		var taskTodo task.Task
		err := w.client.Call("Coordinator.GetTask", w.myAddress, &taskTodo)
		if err != nil {
			// This is an expected error. No more work to do
			if err.Error() == coordinator.ErrAllTasksHandedOut.Error() {
				break
			}
			// Another worker still has the last bands, one may come back if it leaves
			if err.Error() == coordinator.ErrNoTaskYet.Error() {
				time.Sleep(w.retryDelay)
				continue
			}
			return errors.Wrap(err, "unable to get a task")
		}

		taskTodo.Results = make([]byte, taskTodo.Band.Len())
		bounds := mandelbrot.Bounds{Width: taskTodo.Band.Width, Height: taskTodo.ImageHeight}
		mandelbrot.RenderBand(taskTodo.Results, bounds, taskTodo.Band, taskTodo.ImageUpperLeft, taskTodo.ImageLowerRight)

		err = w.client.Call("Coordinator.ReturnTask", taskTodo, &nothing)
		if err != nil {
			// The coordinator rejects bands it already has, the next task may still be wanted
			w.logger.Errorf("Unable to return task %d: %s", taskTodo.ID, err)
			continue
		}
		w.tasksCompleted.Add(1)
	}

	w.logger.Info("Done processing tasks")
	w.logger.Debugf("Processed %d tasks in %s", w.tasksCompleted.Load(), time.Since(startTime))
	return nil
}

func (w *Worker) RollCall(request misc.Nothing, reply *bool) error {
	*reply = true
	return nil
}
