package coordinator

import (
	"GrayscaleMandelbrot/encoder"
	"GrayscaleMandelbrot/mandelbrot"
	"GrayscaleMandelbrot/misc"
	"GrayscaleMandelbrot/task"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/BrugadaSyndrome/bslogger"
	"github.com/BrugadaSyndrome/multirpc"
	"github.com/pkg/errors"
)

var (
	// ErrAllTasksHandedOut tells a worker every band has been rendered and there is nothing left to do. The message is
	// what workers check for since rpc errors only carry their text.
	ErrAllTasksHandedOut = errors.New("all tasks handed out")

	// ErrNoTaskYet tells a worker every band is handed out but some are still being rendered. One of them may come back
	// to the pool if its worker leaves, so the worker should ask again later.
	ErrNoTaskYet = errors.New("no task available yet")
)

// Coordinator hands the bands of one image out to remote workers and assembles the results
type Coordinator struct {
	bands          *task.Cursor
	bandsDone      map[uint]bool
	bandsLeft      int
	chunks         map[uint][]byte // part of pixels each task fills
	clients        map[string]*multirpc.TcpClient
	done           chan struct{}
	encoder        encoder.Encoder
	finishOnce     sync.Once
	finishErr      error
	heartBeatEvery time.Duration
	logger         bslogger.Logger
	mutex          sync.Mutex
	pixels         []byte
	requeued       []task.Task
	rollCallEvery  time.Duration
	serving        bool
	settings       Settings
	stop           chan struct{} // closed once every worker has left
	stopOnce       sync.Once
	tasksHandedOut map[string]map[uint]task.Task // keep track of all tasks workers have
	workerWait     *sync.WaitGroup

	Server multirpc.TcpServer
}

func NewCoordinator(settings Settings) (*Coordinator, error) {
	if err := settings.Verify(); err != nil {
		return nil, err
	}

	render := settings.RenderSettings
	bounds := render.Bounds()
	if err := mandelbrot.Validate(bounds, render.UpperLeft(), render.LowerRight(), render.ThreadCount); err != nil {
		return nil, err
	}
	imageEncoder, err := render.Encoder()
	if err != nil {
		return nil, err
	}

	pixels := make([]byte, bounds.Pixels())
	bands := task.NewCursor(pixels, bounds.Width, task.BandRows(bounds.Height, render.ThreadCount))

	coordinator := &Coordinator{
		bands:          bands,
		bandsDone:      make(map[uint]bool),
		bandsLeft:      bands.Count(),
		chunks:         make(map[uint][]byte),
		clients:        make(map[string]*multirpc.TcpClient),
		done:           make(chan struct{}),
		encoder:        imageEncoder,
		heartBeatEvery: 30 * time.Second,
		logger:         bslogger.NewLogger("Coordinator", bslogger.Normal, nil),
		pixels:         pixels,
		rollCallEvery:  time.Minute,
		settings:       settings,
		stop:           make(chan struct{}),
		tasksHandedOut: make(map[string]map[uint]task.Task),
		workerWait:     &sync.WaitGroup{},
	}
	coordinator.Server = multirpc.NewTcpServer(coordinator, settings.ServerAddress, "CoordinatorServer")

	return coordinator, nil
}

// Run prepares the run directory and starts serving tasks to workers
func (c *Coordinator) Run() error {
	// Create directory to store files for this run
	if err := misc.MakeDirectory(c.settings.RunPath()); err != nil {
		return err
	}

	// Copy the settings to the directory so the run can be duplicated in the future
	settingsBytes, err := json.MarshalIndent(c.settings, "", "\t")
	if err != nil {
		return errors.Wrap(err, "marshalling settings")
	}
	if _, err := misc.WriteFile(filepath.Join(c.settings.RunPath(), "settings.json"), settingsBytes); err != nil {
		return errors.Wrap(err, "unable to make a backup copy of the settings")
	}

	// Create a log file to record the run
	logFile, err := os.Create(filepath.Join(c.settings.RunPath(), "coordinator.log"))
	if !misc.CheckError(err, c.logger, misc.Warning) {
		c.logger = bslogger.NewLogger("Coordinator", bslogger.Normal, logFile)
	}

	// Start up the rpc tcp server to allow workers to communicate with the coordinator
	if err := c.Server.Run(); err != nil {
		return errors.Wrapf(err, "serving at %s", c.settings.ServerAddress)
	}
	c.serving = true

	c.logger.Infof("Rendering %d bands for %s", c.bands.Count(), c.settings.OutputPath())
	go c.tickers()
	return nil
}

// Wait blocks until every band is rendered and saved and all workers have left, then stops the server.
// Roll call keeps running while waiting so workers that vanish without deregistering are still dropped.
func (c *Coordinator) Wait() error {
	<-c.done
	if c.finishErr != nil {
		c.stopTickers()
		return c.finishErr
	}

	c.logger.Infof("Waiting for %d workers to disconnect", c.workerCount())
	c.workerWait.Wait()
	c.stopTickers()
	if c.serving {
		misc.CheckError(c.Server.Stop(), c.logger, misc.Warning)
		c.serving = false
	}
	return nil
}

// Done is closed once the image has been saved, or saving it failed
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Address is where the coordinator serves workers
func (c *Coordinator) Address() string {
	return c.settings.ServerAddress
}

// OutputPath is where the finished image is saved
func (c *Coordinator) OutputPath() string {
	return c.settings.OutputPath()
}

// Progress returns the number of bands rendered and the total number of bands
func (c *Coordinator) Progress() (int, int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.bands.Count() - c.bandsLeft, c.bands.Count()
}

func (c *Coordinator) tickers() {
	rollCall := time.NewTicker(c.rollCallEvery)
	heartBeat := time.NewTicker(c.heartBeatEvery)
	defer rollCall.Stop()
	defer heartBeat.Stop()

	for {
		select {
		case <-c.stop:
			return

		case <-rollCall.C:
			c.logger.Debug("Roll call ticker")
			c.rollCall()

		case <-heartBeat.C:
			c.logger.Debug("Heart beat ticker")
			done, total := c.Progress()
			c.logger.Infof("Bands [Rendered: %d/%d] | Workers [%d]", done, total, c.workerCount())
		}
	}
}

func (c *Coordinator) stopTickers() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

// rollCall drops every worker that does not answer, putting its unfinished tasks back in the pool
func (c *Coordinator) rollCall() {
	c.mutex.Lock()
	clients := make([]*multirpc.TcpClient, 0, len(c.clients))
	for _, client := range c.clients {
		clients = append(clients, client)
	}
	c.mutex.Unlock()

	for _, client := range clients {
		var junk misc.Nothing
		var reply bool
		if err := client.Call("Worker.RollCall", junk, &reply); err != nil {
			c.logger.Warningf("Worker %s missed roll call: %s", client.Name(), err)
			var nothing misc.Nothing
			misc.CheckError(c.DeRegisterWorker(client.Name(), &nothing), c.logger, misc.Warning)
		}
	}
}

func (c *Coordinator) workerCount() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.clients)
}

// finish encodes the image and saves it once the last band came back
func (c *Coordinator) finish() {
	c.finishOnce.Do(func() {
		defer close(c.done)

		encoded, err := c.encoder.Encode(c.pixels, c.settings.RenderSettings.Width, c.settings.RenderSettings.Height)
		if err != nil {
			c.finishErr = err
			c.logger.Errorf("Unable to encode image: %s", err)
			return
		}

		if err := misc.MakeDirectory(c.settings.RunPath()); err != nil {
			c.finishErr = err
			c.logger.Error(err.Error())
			return
		}
		if _, err := misc.WriteFile(c.settings.OutputPath(), encoded); err != nil {
			c.finishErr = err
			c.logger.Errorf("Unable to save image: %s", err)
			return
		}
		c.logger.Infof("Saved image to %s", c.settings.OutputPath())
	})
}

func (c *Coordinator) RegisterWorker(workerServerAddress string, reply *misc.Nothing) error {
	// Create a client to communicate with this worker
	client := multirpc.NewTcpClient(workerServerAddress, workerServerAddress)
	misc.CheckError(client.Connect(), c.logger, misc.Warning)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, ok := c.clients[workerServerAddress]; ok {
		return errors.Errorf("worker %s is already registered", workerServerAddress)
	}
	c.clients[workerServerAddress] = &client

	// Track all tasks this worker checks out
	c.tasksHandedOut[workerServerAddress] = make(map[uint]task.Task)

	c.logger.Infof("Worker joined: %s", workerServerAddress)
	c.workerWait.Add(1)

	return nil
}

func (c *Coordinator) DeRegisterWorker(workerServerAddress string, reply *misc.Nothing) error {
	c.mutex.Lock()
	client, ok := c.clients[workerServerAddress]
	if !ok {
		c.mutex.Unlock()
		return errors.Errorf("worker %s is not registered", workerServerAddress)
	}

	// Put tasks this worker has not returned yet back into the pool, lowest band first
	unfinished := make([]task.Task, 0, len(c.tasksHandedOut[workerServerAddress]))
	for _, v := range c.tasksHandedOut[workerServerAddress] {
		unfinished = append(unfinished, v)
	}
	sort.Slice(unfinished, func(i, j int) bool { return unfinished[i].ID < unfinished[j].ID })
	c.requeued = append(c.requeued, unfinished...)

	// Remove stored values associated with this worker
	delete(c.tasksHandedOut, workerServerAddress)
	delete(c.clients, workerServerAddress)
	c.mutex.Unlock()

	if len(unfinished) > 0 {
		c.logger.Warningf("Worker %s left with %d unfinished tasks", workerServerAddress, len(unfinished))
	}

	// Disconnect from worker
	misc.CheckError(client.Disconnect(), c.logger, misc.Debug)

	c.logger.Infof("Worker left: %s", workerServerAddress)
	c.workerWait.Done()

	return nil
}

func (c *Coordinator) RollCall(nothing misc.Nothing, present *bool) error {
	*present = true
	return nil
}

// GetTask hands the next band to a worker. Bands given up by workers that left go out before new ones.
func (c *Coordinator) GetTask(workerAddress string, reply *task.Task) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// A worker dropped by roll call may still have returned its band
	for len(c.requeued) > 0 && c.bandsDone[c.requeued[0].ID] {
		c.requeued = c.requeued[1:]
	}

	var todo task.Task
	if len(c.requeued) > 0 {
		todo = c.requeued[0]
		c.requeued = c.requeued[1:]
	} else {
		band, chunk, more := c.bands.Next()
		if !more {
			// Bands still out may be requeued if their worker leaves
			if c.bandsLeft > 0 {
				c.logger.Debugf("Telling worker %s to wait for %d bands still being rendered", workerAddress, c.bandsLeft)
				return ErrNoTaskYet
			}
			c.logger.Debugf("Telling worker %s that all tasks are handed out", workerAddress)
			return ErrAllTasksHandedOut
		}

		render := c.settings.RenderSettings
		bounds := render.Bounds()
		upperLeft, lowerRight := mandelbrot.BandCorners(bounds, band, render.UpperLeft(), render.LowerRight())

		todo = task.NewTask(uint(band.Index), band, upperLeft, lowerRight)
		todo.ForImage(bounds.Height, render.UpperLeft(), render.LowerRight())
		c.chunks[todo.ID] = chunk
	}

	todo.WorkerAddress = workerAddress
	if _, ok := c.tasksHandedOut[workerAddress]; !ok {
		c.tasksHandedOut[workerAddress] = make(map[uint]task.Task)
	}
	c.tasksHandedOut[workerAddress][todo.ID] = todo
	*reply = todo
	return nil
}

// ReturnTask records the pixels a worker rendered for a band. Each band is accepted exactly once.
func (c *Coordinator) ReturnTask(done task.Task, nothing *misc.Nothing) error {
	c.mutex.Lock()
	chunk, ok := c.chunks[done.ID]
	if !ok {
		c.mutex.Unlock()
		return errors.Errorf("task %d was never handed out", done.ID)
	}
	if c.bandsDone[done.ID] {
		c.mutex.Unlock()
		return errors.Errorf("task %d was already returned", done.ID)
	}
	if err := done.Verify(); err != nil {
		c.mutex.Unlock()
		return err
	}
	if len(done.Results) != len(chunk) {
		c.mutex.Unlock()
		return errors.Errorf("task %d returned %d results for %d pixels", done.ID, len(done.Results), len(chunk))
	}

	copy(chunk, done.Results)
	c.bandsDone[done.ID] = true
	c.bandsLeft--
	delete(c.tasksHandedOut[done.WorkerAddress], done.ID)
	left := c.bandsLeft
	c.mutex.Unlock()

	c.logger.Debugf("Recorded %s from %s", done.Band.String(), done.WorkerAddress)
	if left == 0 {
		c.finish()
	}
	return nil
}

func (c *Coordinator) GetRenderSettings(nothing misc.Nothing, settings *mandelbrot.Settings) error {
	*settings = c.settings.RenderSettings
	return nil
}
