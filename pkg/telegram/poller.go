package telegram

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/yuipii/strawberry-website-bot/pkg/metrics"
)

// UpdateHandler receives each inbound text message in arrival order.
type UpdateHandler interface {
	HandleMessage(chatID int64, text string)
}

// UpdateSource is the long-poll side of the bot API, satisfied by Client.
type UpdateSource interface {
	GetUpdates(offset int64, timeout int) ([]Update, error)
}

const (
	pollTimeoutSeconds = 30
	pollRetryDelay     = 5 * time.Second
)

// Poller is the update ingestion loop: a single goroutine long polls the bot
// API and dispatches text messages sequentially. The offset cursor advances
// past every received update, so a message whose handling fails is never
// redelivered (at-most-once within a process lifetime).
type Poller struct {
	source  UpdateSource
	handler UpdateHandler
	reg     *metrics.Registry
	stop    chan struct{}
	done    chan struct{}
}

func NewPoller(source UpdateSource, handler UpdateHandler, reg *metrics.Registry) *Poller {
	return &Poller{
		source:  source,
		handler: handler,
		reg:     reg,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Run blocks until Stop is called; start it on its own goroutine.
func (p *Poller) Run() {
	defer close(p.done)

	var offset int64
	for {
		select {
		case <-p.stop:
			return
		default:
		}

		updates, err := p.source.GetUpdates(offset, pollTimeoutSeconds)
		if err != nil {
			if errors.Is(err, ErrPollTimeout) {
				continue
			}
			log.WithError(err).Warn("Long poll failed, backing off")
			select {
			case <-p.stop:
				return
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1

			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			p.reg.UpdatesProcessed.Inc()
			p.handler.HandleMessage(update.Message.Chat.ID, update.Message.Text)
		}
	}
}

// Stop signals the loop and waits for the current iteration to finish. An
// in-flight long poll is not interrupted; the loop exits at the next
// iteration boundary.
func (p *Poller) Stop() {
	close(p.stop)
	<-p.done
}
