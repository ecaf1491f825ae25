package chat

import "sync"

// chatQueue hands messages to a handler one at a time per user, in arrival
// order. Different users are handled concurrently.
type chatQueue struct {
	handler func(InboundMessage)

	mu      sync.Mutex
	pending map[string][]InboundMessage
}

func newChatQueue(handler func(InboundMessage)) *chatQueue {
	return &chatQueue{handler: handler, pending: make(map[string][]InboundMessage)}
}

// push queues msg. A user present in pending has a running drain goroutine.
func (q *chatQueue) push(msg InboundMessage) {
	q.mu.Lock()
	defer q.mu.Unlock()

	backlog, running := q.pending[msg.UserID]
	q.pending[msg.UserID] = append(backlog, msg)
	if !running {
		go q.drain(msg.UserID)
	}
}

func (q *chatQueue) drain(userID string) {
	for {
		q.mu.Lock()
		backlog := q.pending[userID]
		if len(backlog) == 0 {
			delete(q.pending, userID)
			q.mu.Unlock()
			return
		}
		msg := backlog[0]
		q.pending[userID] = backlog[1:]
		q.mu.Unlock()

		q.handler(msg)
	}
}
