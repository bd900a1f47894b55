package model

import "sync"

// Client owns the store connection and creates models on top of it.
type Client struct {
	conn   Connection
	config Config

	mu       sync.Mutex // guards closing and detached.Add
	closing  bool
	detached sync.WaitGroup
}

// NewClient creates a client for conn. A nil config uses DefaultConfig.
// The connection is not opened before Connect is called.
func NewClient(conn Connection, config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	return &Client{
		conn:   conn,
		config: config.withDefaults(),
	}
}

// Connect starts connecting to the store and returns immediately.
// Model operations wait (bounded by Config.Gate) until the connection is ready.
func (c *Client) Connect() {
	c.conn.Connect()
}

// Destroy waits for running detached operations and closes the connection.
// All models of this client become unusable.
func (c *Client) Destroy() error {
	c.mu.Lock()
	c.closing = true
	c.mu.Unlock()

	c.detached.Wait()
	return c.conn.Destroy()
}

// detach runs fn in the background. Errors are logged and passed to Config.OnDetachedError.
// Once Destroy has been called fn runs synchronously instead.
func (c *Client) detach(op, key string, fn func() error) {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		if err := fn(); err != nil {
			c.detachedError(op, key, err)
		}
		return
	}
	c.detached.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.detached.Done()
		if err := fn(); err != nil {
			c.detachedError(op, key, err)
		}
	}()
}

// Ready waits until the connection is ready, see Gate.Await.
func (c *Client) Ready() error {
	return c.config.Gate.Await(c.conn)
}

// Config returns the effective configuration of the client.
func (c *Client) Config() Config {
	return c.config
}

func (c *Client) detachedError(op, key string, err error) {
	detachedErrors.Inc()
	Logger.Warningf("detached %s of key %s failed: %v", op, key, err)
	if c.config.OnDetachedError != nil {
		c.config.OnDetachedError(op, key, err)
	}
}
