package client

import (
	"net"
	"sync/atomic"
	"time"
)

type connReturn struct {
	conn net.Conn
	err  error
}

// connectionPool hands out tcp connections to the socket transport. All
// bookkeeping happens in the run loop, the channels are its only interface.
type connectionPool struct {
	address        string
	drained        *atomic.Bool
	chanConnGet    chan chan net.Conn
	chanConnReturn chan connReturn
	chanDrainPool  chan int
	chanPoolDone   chan struct{}
}

func newConnectionPool(address string, connectionPoolSize int, waitTimeout time.Duration) *connectionPool {
	connPool := &connectionPool{
		address:        address,
		drained:        &atomic.Bool{},
		chanConnGet:    make(chan chan net.Conn),
		chanConnReturn: make(chan connReturn),
		chanDrainPool:  make(chan int),
		chanPoolDone:   make(chan struct{}),
	}
	go connPool.run(connectionPoolSize, waitTimeout)
	return connPool
}

// drain stops the run loop and closes the pooled connections, it is safe to
// call more than once
func (c *connectionPool) drain() {
	if c.drained.CompareAndSwap(false, true) {
		c.chanDrainPool <- 1
	}
}

func (c *connectionPool) run(connectionPoolSize int, waitTimeout time.Duration) {
	type poolEntry struct {
		busy bool
		err  error
		conn net.Conn
	}
	type waitPoolEntry struct {
		entryTime time.Time
		chanConn  chan net.Conn
	}

	defer close(c.chanPoolDone)

	var (
		pool       = make([]*poolEntry, connectionPoolSize)
		waitPool   = map[int]*waitPoolEntry{}
		nextWaitID = 0
	)
	for i := range pool {
		pool[i] = &poolEntry{}
	}
RunLoop:
	for {
		select {
		case <-c.chanDrainPool:
			for _, waiter := range waitPool {
				waiter.chanConn <- nil
			}
			for _, entry := range pool {
				if entry.conn != nil {
					entry.conn.Close()
				}
			}
			break RunLoop
		case <-time.After(waitTimeout):
			// fall through to the wait pool cleanup below
		case chanConn := <-c.chanConnGet:
			waitPool[nextWaitID] = &waitPoolEntry{
				chanConn:  chanConn,
				entryTime: time.Now(),
			}
			nextWaitID++
		case returned := <-c.chanConnReturn:
			for _, entry := range pool {
				if entry.conn == returned.conn {
					entry.busy = false
					if returned.err != nil {
						entry.err = returned.err
						entry.conn.Close()
						entry.conn = nil
					}
				}
			}
		}
		// refill the pool
		for _, entry := range pool {
			if entry.conn == nil {
				entry.conn, entry.err = net.Dial("tcp", c.address)
			}
		}
		// redistribute idle connections
		for _, entry := range pool {
			if len(waitPool) == 0 {
				break
			}
			if entry.err == nil && entry.conn != nil && !entry.busy {
				for id, waiter := range waitPool {
					entry.busy = true
					delete(waitPool, id)
					waiter.chanConn <- entry.conn
					break
				}
			}
		}
		// give up on waiters that have been waiting for too long
		now := time.Now()
		for id, waiter := range waitPool {
			if now.Sub(waiter.entryTime) > waitTimeout {
				delete(waitPool, id)
				waiter.chanConn <- nil
			}
		}
	}
}
