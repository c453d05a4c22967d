package events

import (
	"bufio"
	"encoding/json"
	"log"
	"net"
	"os"
	"sync"
)

// Server rebroadcasts bus events to every connected frontend over a
// unix socket, so separate processes see session transitions without
// sharing memory.
type Server struct {
	path     string
	bus      *Bus
	listener net.Listener
	clients  map[net.Conn]bool
	mu       sync.RWMutex
	done     chan struct{}
	unsub    func()
}

// NewServer creates a socket server bridging the given bus.
func NewServer(path string, bus *Bus) *Server {
	return &Server{
		path:    path,
		bus:     bus,
		clients: make(map[net.Conn]bool),
		done:    make(chan struct{}),
	}
}

// Start begins listening and forwarding bus events to clients.
func (s *Server) Start() error {
	os.Remove(s.path)

	listener, err := net.Listen("unix", s.path)
	if err != nil {
		return err
	}
	s.listener = listener
	os.Chmod(s.path, 0700)

	s.unsub = s.bus.Subscribe(s.broadcast)

	go s.acceptLoop()
	return nil
}

// Stop shuts down the server and disconnects all clients.
func (s *Server) Stop() {
	close(s.done)
	if s.unsub != nil {
		s.unsub()
	}
	if s.listener != nil {
		s.listener.Close()
	}

	s.mu.Lock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[net.Conn]bool)
	s.mu.Unlock()

	os.Remove(s.path)
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) broadcast(evt Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	data = append(data, '\n')

	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.clients {
		conn.Write(data)
	}
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				log.Printf("[events] accept error: %v", err)
				continue
			}
		}

		s.mu.Lock()
		s.clients[conn] = true
		s.mu.Unlock()
		log.Printf("[events] client connected (%d total)", s.ClientCount())

		go s.readUntilClosed(conn)
	}
}

// readUntilClosed drains the connection so client disconnects are
// noticed; incoming lines are republished onto the local bus, which is
// how a second instance's session operations reach this one.
func (s *Server) readUntilClosed(conn net.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
		log.Printf("[events] client disconnected (%d total)", s.ClientCount())
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var evt Event
		if err := json.Unmarshal(scanner.Bytes(), &evt); err != nil {
			continue
		}
		s.bus.Publish(evt)
	}
}

// Client connects a frontend process to a running Server.
type Client struct {
	conn      net.Conn
	connected bool
	onEvent   func(Event)
	mu        sync.Mutex
}

// NewClient creates an unconnected client.
func NewClient() *Client {
	return &Client{}
}

// Connect dials the server socket and starts the read loop.
func (c *Client) Connect(path string) error {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readLoop()
	return nil
}

// Close closes the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.connected = false
	}
}

// IsConnected reports whether the client is connected.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Send forwards an event to the server for rebroadcast.
func (c *Client) Send(evt Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return nil
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = c.conn.Write(data)
	return err
}

// OnEvent sets the callback for events from the server.
func (c *Client) OnEvent(fn func(Event)) {
	c.onEvent = fn
}

func (c *Client) readLoop() {
	scanner := bufio.NewScanner(c.conn)
	for scanner.Scan() {
		var evt Event
		if err := json.Unmarshal(scanner.Bytes(), &evt); err != nil {
			continue
		}
		if c.onEvent != nil {
			c.onEvent(evt)
		}
	}

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
}
