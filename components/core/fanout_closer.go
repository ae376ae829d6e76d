package core

// FanoutCloser propagates a close call to the registered closers.
//
// Closers are closed in reverse registration order, so that resources
// registered later (which typically depend on earlier ones) are released
// first.
type FanoutCloser struct {
	closers []closerNode
}

// Add registers closer with id to be notified when the close event happens.
func (c *FanoutCloser) Add(id string, closer Closer) {
	c.closers = append(c.closers, closerNode{id: id, c: closer})
}

// Close closes all registered closers.
func (c *FanoutCloser) Close() error {
	for i := len(c.closers) - 1; i >= 0; i-- {
		node := c.closers[i]

		if err := node.c.Close(); err != nil {
			LogErr.Printf("fanout-closer: failed to close: id=%s err=%v\n", node.id, err)
		}
	}

	return nil
}

type closerNode struct {
	id string
	c  Closer
}
