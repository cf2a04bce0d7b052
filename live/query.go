// Package live is a client for remote-controlling Ableton Live through the
// AbletonOSC control surface. It exposes the session as a graph of proxy
// objects (Set, Track, Clip, DetailClip) whose methods translate into OSC
// queries and commands; the authoritative state always lives in Live itself.
package live

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultHost is where AbletonOSC usually runs.
	DefaultHost = "127.0.0.1"
	// DefaultSendPort is the UDP port AbletonOSC listens on for commands.
	DefaultSendPort = 11000
	// DefaultListenPort is the UDP port AbletonOSC sends replies and events to.
	DefaultListenPort = 11001
	// DefaultTimeout bounds how long a query waits for its response.
	DefaultTimeout = 3 * time.Second

	beatPath    = "/live/song/get/beat"
	startupPath = "/live/startup"
)

// Transport is the messaging contract the session proxies speak. Query blocks
// until the matching response arrives (or the transport's timeout elapses);
// Cmd is fire-and-forget. Implementations are responsible for serializing
// concurrent callers.
type Transport interface {
	Query(path string, args ...interface{}) ([]interface{}, error)
	Cmd(path string, args ...interface{}) error
}

// Handler receives the arguments of an unsolicited message for one address.
type Handler func(args []interface{})

// Query is the UDP Transport implementation. It sends commands to
// host:sendPort and receives responses and events on listenPort. Responses
// are correlated to queries by message address, which is how AbletonOSC
// replies: the response reuses the address of the query that caused it.
type Query struct {
	host       string
	sendPort   int
	listenPort int

	client *osc.Client
	conn   net.PacketConn
	server *osc.Server

	reqMu sync.Mutex // one query round-trip in flight at a time

	mu        sync.Mutex
	timeout   time.Duration
	pending   map[string]chan []interface{}
	handlers  map[string][]Handler
	onBeat    func(beat int)
	onStartup func()

	log *logrus.Entry
}

// NewQuery returns a transport talking to AbletonOSC at host:sendPort and
// expecting replies on listenPort. Call Listen before issuing queries.
func NewQuery(host string, sendPort, listenPort int) *Query {
	return &Query{
		host:       host,
		sendPort:   sendPort,
		listenPort: listenPort,
		client:     osc.NewClient(host, sendPort),
		timeout:    DefaultTimeout,
		pending:    make(map[string]chan []interface{}),
		handlers:   make(map[string][]Handler),
		log:        logrus.WithField("component", "query"),
	}
}

// SetTimeout changes how long Query waits for a response.
func (q *Query) SetTimeout(d time.Duration) {
	q.mu.Lock()
	q.timeout = d
	q.mu.Unlock()
}

// Listen binds the reply port and starts dispatching incoming messages. It
// returns once the socket is bound; dispatch runs in the background until
// Close is called.
func (q *Query) Listen() error {
	conn, err := net.ListenPacket("udp", fmt.Sprintf(":%d", q.listenPort))
	if err != nil {
		return fmt.Errorf("bind reply port %d: %w", q.listenPort, err)
	}
	dispatcher := osc.NewStandardDispatcher()
	if err := dispatcher.AddMsgHandler("*", q.dispatch); err != nil {
		conn.Close()
		return fmt.Errorf("install dispatcher: %w", err)
	}
	q.conn = conn
	q.server = &osc.Server{Addr: conn.LocalAddr().String(), Dispatcher: dispatcher}
	go func() {
		if err := q.server.Serve(conn); err != nil {
			q.log.Debugf("listener stopped: %v", err)
		}
	}()
	q.log.Infof("listening for Live replies on %s", conn.LocalAddr())
	return nil
}

// Close stops the reply listener. In-flight queries fail with their timeout.
func (q *Query) Close() error {
	if q.conn == nil {
		return nil
	}
	return q.conn.Close()
}

// Query sends path with args and blocks until the response addressed to the
// same path arrives. The returned slice is the raw response argument list,
// echoed routing indices included.
func (q *Query) Query(path string, args ...interface{}) ([]interface{}, error) {
	q.reqMu.Lock()
	defer q.reqMu.Unlock()

	ch := make(chan []interface{}, 1)
	q.mu.Lock()
	q.pending[path] = ch
	timeout := q.timeout
	q.mu.Unlock()
	defer func() {
		q.mu.Lock()
		delete(q.pending, path)
		q.mu.Unlock()
	}()

	if err := q.Cmd(path, args...); err != nil {
		return nil, err
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-time.After(timeout):
		return nil, &ConnectionError{Op: "query", Path: path, Err: ErrTimeout}
	}
}

// Cmd sends path with args and does not wait for anything.
func (q *Query) Cmd(path string, args ...interface{}) error {
	msg := osc.NewMessage(path)
	for _, arg := range args {
		msg.Append(oscArg(arg))
	}
	q.log.Debugf("send %s %v", path, args)
	if err := q.client.Send(msg); err != nil {
		return &ConnectionError{Op: "cmd", Path: path, Err: err}
	}
	return nil
}

// AddHandler registers fn for unsolicited messages addressed to path. Several
// handlers may share one address; they run in registration order on the
// dispatch goroutine.
func (q *Query) AddHandler(path string, fn Handler) {
	q.mu.Lock()
	q.handlers[path] = append(q.handlers[path], fn)
	q.mu.Unlock()
}

// OnBeat registers cb for Live's beat events. The stream itself is started
// per set, see Set.StartBeatListener.
func (q *Query) OnBeat(cb func(beat int)) {
	q.mu.Lock()
	q.onBeat = cb
	q.mu.Unlock()
}

// OnStartup registers cb for Live's startup announcement, sent when the
// control surface finishes loading.
func (q *Query) OnStartup(cb func()) {
	q.mu.Lock()
	q.onStartup = cb
	q.mu.Unlock()
}

func (q *Query) dispatch(msg *osc.Message) {
	q.log.Debugf("recv %s %v", msg.Address, msg.Arguments)

	q.mu.Lock()
	waiter := q.pending[msg.Address]
	handlers := append([]Handler(nil), q.handlers[msg.Address]...)
	onBeat := q.onBeat
	onStartup := q.onStartup
	q.mu.Unlock()

	if waiter != nil {
		select {
		case waiter <- msg.Arguments:
		default:
		}
	}
	for _, fn := range handlers {
		fn(msg.Arguments)
	}

	switch msg.Address {
	case beatPath:
		if onBeat != nil && len(msg.Arguments) > 0 {
			if beat, err := asInt(msg.Arguments[0]); err == nil {
				onBeat(beat)
			}
		}
	case startupPath:
		if onStartup != nil {
			onStartup()
		}
	}
}

// oscArg narrows Go values to the OSC argument types AbletonOSC expects:
// 32-bit ints, 32-bit floats, strings and bools.
func oscArg(v interface{}) interface{} {
	switch x := v.(type) {
	case int:
		return int32(x)
	case int8:
		return int32(x)
	case int16:
		return int32(x)
	case int64:
		return int32(x)
	case uint:
		return int32(x)
	case uint8:
		return int32(x)
	case uint16:
		return int32(x)
	case uint32:
		return int32(x)
	case float64:
		return float32(x)
	default:
		return v
	}
}
