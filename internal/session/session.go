// Package session owns one multiplayer game session end to end: the
// transport, the state store, the reconciler and the countdown coordinator
// are constructed together and torn down together. Consumers get snapshots
// and issue actions; they never mutate session state directly.
package session

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/wordrush/wordrush-go/internal/countdown"
	"github.com/wordrush/wordrush-go/internal/protocol"
	"github.com/wordrush/wordrush-go/internal/transport"
)

// Transport is the connection surface a session drives.
type Transport interface {
	Sender
	Connect(ctx context.Context) error
	Events() <-chan protocol.Envelope
	StatusChanges() <-chan transport.Status
	Close() error
}

// Options tune session behavior.
type Options struct {
	// Clock defaults to the real clock; tests inject a fake.
	Clock clockwork.Clock
	// AutoRejoin re-issues room:join with the remembered code after a
	// transport reconnect, so the fresh snapshot resyncs local state.
	AutoRejoin bool
	// AutoSubmit sends the current answer draft when the round countdown
	// expires locally. The phase still only advances on the server's word.
	AutoSubmit bool
}

// DefaultOptions returns the recommended session behavior.
func DefaultOptions() Options {
	return Options{
		Clock:      clockwork.NewRealClock(),
		AutoRejoin: true,
		AutoSubmit: true,
	}
}

// Update is a lightweight change notification emitted after each applied
// broadcast. Consumers read the store for the actual state.
type Update struct {
	Event protocol.EventType
	Phase protocol.Phase
}

// Session is the actor owning one game session.
type Session struct {
	*Dispatcher

	store *Store
	tp    Transport
	rec   *reconciler
	cd    *countdown.Coordinator
	opts  Options

	updates chan Update

	startOnce sync.Once
	closeOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// New wires a session around the given transport. Nothing runs until Start.
func New(tp Transport, opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	store := NewStore()
	cd := countdown.New(opts.Clock)
	s := &Session{
		Dispatcher: newDispatcher(store, tp),
		store:      store,
		tp:         tp,
		rec:        newReconciler(store, cd),
		cd:         cd,
		opts:       opts,
		updates:    make(chan Update, 32),
		done:       make(chan struct{}),
	}
	s.Dispatcher.stopTimers = cd.Stop

	if opts.AutoSubmit {
		cd.OnExpire(s.submitOnExpiry)
	}
	return s
}

// Store exposes read-only session state.
func (s *Session) Store() *Store { return s.store }

// Countdown exposes the per-round countdown for tick consumers.
func (s *Session) Countdown() *countdown.Coordinator { return s.cd }

// Updates notifies after every applied broadcast. Slow consumers lose
// notifications, never state.
func (s *Session) Updates() <-chan Update { return s.updates }

// Start connects the transport and begins consuming broadcasts. Idempotent.
func (s *Session) Start(ctx context.Context) error {
	var err error
	s.startOnce.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		s.cancel = cancel
		if err = s.tp.Connect(runCtx); err != nil {
			cancel()
			s.cancel = nil
			return
		}
		go s.loop(runCtx)
	})
	return err
}

// Close tears the session down: countdowns stop, the broadcast subscription
// ends, and the transport closes. A closed session never mutates state again.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.cd.Stop()
		err = s.tp.Close()
		if s.cancel != nil {
			<-s.done
		}
	})
	return err
}

// loop is the single goroutine that folds broadcasts into the store. All
// reconciliation happens here, in receipt order, with no buffering or
// reordering.
func (s *Session) loop(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return

		case env, ok := <-s.tp.Events():
			if !ok {
				return
			}
			s.rec.apply(env)
			s.notify(Update{Event: env.Type, Phase: s.store.Phase()})

		case status, ok := <-s.tp.StatusChanges():
			if !ok {
				return
			}
			s.handleStatus(status)
		}
	}
}

// handleStatus reacts to transport lifecycle signals. After a reconnect the
// transport has a fresh channel but no application state; re-joining with
// the remembered code requests the authoritative snapshot that resyncs us.
func (s *Session) handleStatus(status transport.Status) {
	switch status {
	case transport.StatusDisconnected:
		log.Warn().Msg("transport dropped; awaiting reconnect")

	case transport.StatusConnected:
		if !s.opts.AutoRejoin || !s.store.InRoom() {
			return
		}
		code := s.store.JoinCode()
		username, avatar := s.store.identity()
		if code == "" || username == "" {
			return
		}
		log.Info().Str("join_code", code).Msg("reconnected; requesting room resync")
		if err := s.tp.Send(protocol.EventRoomJoin, protocol.JoinRoomPayload{
			JoinCode: code,
			Username: username,
			Avatar:   avatar,
		}); err != nil {
			log.Warn().Err(err).Msg("resync request failed")
		}
	}
}

// submitOnExpiry fires when the local countdown hits zero. It only submits
// this client's draft; the phase waits for the server's broadcast.
func (s *Session) submitOnExpiry() {
	if s.store.Phase() != protocol.PhasePlaying {
		return
	}
	if err := s.SubmitAnswers(s.store.DraftAnswers()); err != nil {
		log.Warn().Err(err).Msg("auto-submit on expiry failed")
	}
}

func (s *Session) notify(u Update) {
	select {
	case s.updates <- u:
	default:
	}
}
