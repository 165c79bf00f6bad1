package mailer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull = errors.New("mail queue is full")
	ErrStopped   = errors.New("mail dispatcher stopped")
)

// Dispatcher delivers mail on a bounded pool of background workers.
// Delivery is best-effort: failures are logged and never retried.
type Dispatcher interface {
	Start(ctx context.Context)
	Shutdown()
	Enqueue(msg Message) error
}

type Config struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
	Logger      *logrus.Logger
}

type dispatcher struct {
	cfg    Config
	sender Sender

	queue  chan Message
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
}

func NewDispatcher(cfg Config, sender Sender) Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.SendTimeout == 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &dispatcher{
		cfg:    cfg,
		sender: sender,
		queue:  make(chan Message, cfg.QueueSize),
	}
}

func (d *dispatcher) Start(ctx context.Context) {
	d.ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.work(i)
	}
	d.cfg.Logger.Infof("mail dispatcher started, workers: %d", d.cfg.Workers)
}

// Shutdown stops accepting mail, lets the workers drain the queue, then returns.
func (d *dispatcher) Shutdown() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	d.wg.Wait()
	if d.cancel != nil {
		d.cancel()
	}
	d.cfg.Logger.Info("mail dispatcher stopped")
}

// Enqueue never blocks. A full queue drops the message.
func (d *dispatcher) Enqueue(msg Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrStopped
	}

	select {
	case d.queue <- msg:
		return nil
	default:
		d.cfg.Logger.WithField("to", msg.To).Warn("mail queue full, dropping message")
		return ErrQueueFull
	}
}

func (d *dispatcher) work(id int) {
	defer d.wg.Done()
	logger := d.cfg.Logger.WithField("worker", id)

	for msg := range d.queue {
		d.deliver(logger, msg)
	}
}

func (d *dispatcher) deliver(logger *logrus.Entry, msg Message) {
	// shutdown drains the queue, so delivery is not tied to the start context
	ctx, cancel := context.WithTimeout(context.WithoutCancel(d.ctx), d.cfg.SendTimeout)
	defer cancel()

	logger = logger.WithFields(logrus.Fields{"to": msg.To, "subject": msg.Subject})
	if err := d.sender.Send(ctx, msg); err != nil {
		logger.Errorf("deliver mail: %v", err)
		return
	}
	logger.Debug("mail delivered")
}
