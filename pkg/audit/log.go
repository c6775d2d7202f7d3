package audit

import (
	"sync"

	"go.uber.org/zap"

	"github.com/uhyunpark/ome/pkg/app/core/orderbook"
	"github.com/uhyunpark/ome/pkg/util"
)

// Sink persists audit records. Write is only ever called from the Log's writer
// goroutine, so sinks need no locking of their own.
type Sink interface {
	Write(Record) error
	Close() error
}

// Log is a single-writer audit trail. Producers enqueue records with Append;
// Run assigns sequence numbers and writes them to every sink in order.
type Log struct {
	in    chan Record
	sinks []Sink
	clock util.Clock
	log   *zap.SugaredLogger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}

	seq uint64 // owned by Run
}

type Options struct {
	Buffer int
	Clock  util.Clock
	Logger *zap.SugaredLogger
}

func NewLog(opts Options, sinks ...Sink) *Log {
	if opts.Buffer <= 0 {
		opts.Buffer = 1024
	}
	if opts.Clock == nil {
		opts.Clock = util.RealClock{}
	}
	return &Log{
		in:    make(chan Record, opts.Buffer),
		sinks: sinks,
		clock: opts.Clock,
		log:   util.OrNop(opts.Logger),
		done:  make(chan struct{}),
	}
}

// Append enqueues r, blocking while the inbox is full. It returns false if the
// log has been closed.
func (l *Log) Append(r Record) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return false
	}
	l.in <- r
	return true
}

func (l *Log) OrderAdded(o orderbook.Order)      { l.Append(orderRecord(KindAdded, o)) }
func (l *Log) OrderProcessing(o orderbook.Order) { l.Append(orderRecord(KindProcessing, o)) }
func (l *Log) Matched(f orderbook.Fill)          { l.Append(fillRecord(f)) }

var _ orderbook.Recorder = (*Log)(nil)

// Run writes records until Close is called and the inbox is drained, then
// closes every sink. It must be called exactly once.
func (l *Log) Run() error {
	defer close(l.done)

	for r := range l.in {
		l.seq++
		r.Seq = l.seq
		r.Time = l.clock.Now()
		for _, s := range l.sinks {
			if err := s.Write(r); err != nil {
				l.log.Errorw("audit_sink_write_failed", "seq", r.Seq, "kind", r.Kind.String(), "err", err)
			}
		}
	}

	for _, s := range l.sinks {
		if err := s.Close(); err != nil {
			l.log.Warnw("audit_sink_close_failed", "err", err)
		}
	}
	l.log.Infow("audit_log_closed", "records", l.seq)
	return nil
}

// Close stops accepting records. Run drains what is queued and returns.
func (l *Log) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	close(l.in)
}

// Done is closed once Run has flushed and closed all sinks.
func (l *Log) Done() <-chan struct{} { return l.done }
