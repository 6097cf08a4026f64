package telegram

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/yuipii/strawberry-website-bot/pkg/metrics"
)

// Notifier sends chat messages through the bot API. SendAsync hands the
// message to a fixed pool of workers and returns immediately; callers get no
// handle to the outcome, so a slow Telegram API can never block an order
// acknowledgment or a command reply.
type Notifier struct {
	client      *Client
	sellerChat  int64
	reg         *metrics.Registry
	tasks       chan sendTask
	mu          sync.RWMutex
	closed      bool
	closeOnce   sync.Once
	workersDone sync.WaitGroup
}

type sendTask struct {
	chatID int64
	text   string
}

const (
	senderWorkers   = 3
	senderQueueSize = 64
)

// NewNotifier starts the worker pool. chatID 0 in Send/SendAsync targets the
// configured seller chat.
func NewNotifier(client *Client, sellerChat int64, reg *metrics.Registry) *Notifier {
	n := &Notifier{
		client:     client,
		sellerChat: sellerChat,
		reg:        reg,
		tasks:      make(chan sendTask, senderQueueSize),
	}

	n.workersDone.Add(senderWorkers)
	for i := 0; i < senderWorkers; i++ {
		go n.worker()
	}
	return n
}

func (n *Notifier) Send(chatID int64, text string) bool {
	if chatID == 0 {
		chatID = n.sellerChat
	}

	ok := n.client.SendMessage(chatID, text)
	if ok {
		n.reg.NotificationsSent.Inc()
	} else {
		n.reg.NotificationsFailed.Inc()
	}
	return ok
}

func (n *Notifier) SendAsync(chatID int64, text string) {
	// The read lock keeps Close from closing the channel mid-send, so a
	// late SendAsync during shutdown degrades to a dropped message instead
	// of a panic.
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		log.Warn("Notifier is closed, dropping message")
		n.reg.NotificationsFailed.Inc()
		return
	}

	select {
	case n.tasks <- sendTask{chatID: chatID, text: text}:
	default:
		log.Warn("Notification queue full, dropping message")
		n.reg.NotificationsFailed.Inc()
	}
}

// Close stops accepting new async sends and waits for queued ones to drain.
func (n *Notifier) Close() {
	n.closeOnce.Do(func() {
		n.mu.Lock()
		n.closed = true
		n.mu.Unlock()
		close(n.tasks)
	})
	n.workersDone.Wait()
}

func (n *Notifier) worker() {
	defer n.workersDone.Done()
	for task := range n.tasks {
		n.Send(task.chatID, task.text)
	}
}
