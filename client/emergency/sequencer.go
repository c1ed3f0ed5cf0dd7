package emergency

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/safeher/safeher/client/location"
	"github.com/safeher/safeher/server/logger"
)

const DefaultCountdown = 30 * time.Second

var (
	logg = logger.NewLogger()

	// ErrEpisodeActive is returned when Trigger is called while a
	// countdown/alert cycle is already in progress.
	ErrEpisodeActive = errors.New("an emergency episode is already active")
)

// EndReason distinguishes how an episode ended: cancelled by the user, or
// the countdown running to zero. Both lead to an inactive episode but
// originate differently.
type EndReason string

const (
	EndReasonNone      EndReason = ""
	EndReasonCancelled EndReason = "cancelled"
	EndReasonCompleted EndReason = "completed"
)

// Notifier is the slice of the remote API the sequencer depends on.
type Notifier interface {
	TriggerEmergency(ctx context.Context, latitude, longitude float64) (string, error)
}

// Haptics is the vibration feedback hook; implementations may be no-ops.
type Haptics interface {
	Vibrate(duration time.Duration)
	Cancel()
}

// NoopHaptics is used where no vibration hardware exists(e.g. the CLI).
type NoopHaptics struct{}

func (NoopHaptics) Vibrate(duration time.Duration) {}
func (NoopHaptics) Cancel()                        {}

// Episode is a snapshot of the active(or last) emergency cycle.
type Episode struct {
	Active        bool
	Location      *location.Coordinates
	LocationError string
	ServerAck     string
	NotifyError   string
	Remaining     time.Duration
	EndReason     EndReason
}

// Sequencer owns the lifecycle of a single emergency episode: permission,
// location sampling, server notification, countdown & cancellation.
// At most one episode is active at a time.
type Sequencer struct {
	mu sync.Mutex

	notifier  Notifier
	provider  location.Provider
	haptics   Haptics
	countdown time.Duration

	episode    Episode
	generation uint64
	cancelled  bool
	cancelChan chan struct{}
	doneChan   chan EndReason

	// countdown tick resolution, shortened in tests
	tickInterval time.Duration

	// OnTick, when set, is called once per countdown second with the time
	// remaining. Used by the CLI to render the live countdown.
	OnTick func(remaining time.Duration)
}

func NewSequencer(notifier Notifier, provider location.Provider, haptics Haptics, countdown time.Duration) *Sequencer {
	if haptics == nil {
		haptics = NoopHaptics{}
	}
	if countdown <= 0 {
		countdown = DefaultCountdown
	}

	return &Sequencer{
		notifier:     notifier,
		provider:     provider,
		haptics:      haptics,
		countdown:    countdown,
		tickInterval: 1 * time.Second,
	}
}

// Episode returns a snapshot of the current episode state.
func (s *Sequencer) Episode() Episode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.episode
}

// Trigger starts an emergency episode: it acquires location permission,
// samples the current position, fires the server notification & begins the
// countdown. No alert is sent without a coordinate - permission or sampling
// failures abort the sequence before any network call.
//
// The notification & the countdown are independent tasks: the countdown is a
// user-facing safety affordance & must run(and be cancellable) even when the
// network call is slow or fails.
func (s *Sequencer) Trigger(ctx context.Context) error {
	s.mu.Lock()
	if s.episode.Active {
		s.mu.Unlock()
		return ErrEpisodeActive
	}
	s.episode = Episode{}
	s.mu.Unlock()

	if err := s.provider.RequestPermission(ctx); err != nil {
		s.setLocationError("Permission to access location was denied")
		return location.ErrPermissionDenied
	}

	coords, err := s.provider.Current(ctx)
	if err != nil {
		logg.Errorf("location error: %v", err)
		s.setLocationError("Error getting location")
		return location.ErrUnavailable
	}

	s.mu.Lock()
	s.episode.Active = true
	s.episode.Location = &coords
	s.episode.Remaining = s.countdown
	s.generation++
	generation := s.generation
	s.cancelled = false
	s.cancelChan = make(chan struct{})
	s.doneChan = make(chan EndReason, 1)
	s.mu.Unlock()

	s.haptics.Vibrate(500 * time.Millisecond)

	// Fire & forget - once sent there is no transport-level cancellation,
	// only local state suppression.
	go s.notify(ctx, coords, generation)

	go s.runCountdown()

	return nil
}

// Cancel stops the countdown & vibration feedback. Safe to call at any point
// after Trigger, including before the network response arrives; it does not
// retract a notification already sent.
func (s *Sequencer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.episode.Active || s.cancelled {
		return
	}

	s.cancelled = true
	close(s.cancelChan)
}

// Wait blocks until the active episode ends & returns how it ended.
// Returns EndReasonNone when no episode was started.
func (s *Sequencer) Wait() EndReason {
	s.mu.Lock()
	done := s.doneChan
	s.mu.Unlock()

	if done == nil {
		return EndReasonNone
	}

	return <-done
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func (s *Sequencer) notify(ctx context.Context, coords location.Coordinates, generation uint64) {
	ack, err := s.notifier.TriggerEmergency(ctx, coords.Latitude, coords.Longitude)

	s.mu.Lock()
	defer s.mu.Unlock()

	// A response landing after its episode ended is discarded, even when a
	// newer episode has started since
	if !s.episode.Active || generation != s.generation {
		logg.Infof("discarding emergency notify outcome, episode already ended")
		return
	}

	if err != nil {
		logg.Errorf("error triggering emergency: %v", err)
		s.episode.NotifyError = err.Error()
		return
	}

	logg.Infof("emergency acknowledged by server: %v", ack)
	s.episode.ServerAck = ack
}

func (s *Sequencer) runCountdown() {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.cancelChan:
			s.endEpisode(EndReasonCancelled)
			return
		case <-ticker.C:
			s.mu.Lock()
			s.episode.Remaining -= s.tickInterval
			remaining := s.episode.Remaining
			s.mu.Unlock()

			if s.OnTick != nil {
				s.OnTick(remaining)
			}

			if remaining <= 0 {
				s.endEpisode(EndReasonCompleted)
				return
			}
		}
	}
}

func (s *Sequencer) endEpisode(reason EndReason) {
	s.haptics.Cancel()

	s.mu.Lock()
	s.episode.Active = false
	s.episode.EndReason = reason
	if reason == EndReasonCancelled {
		s.episode.Remaining = 0
	}
	done := s.doneChan
	s.mu.Unlock()

	done <- reason
}

func (s *Sequencer) setLocationError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.episode.LocationError = message
}
