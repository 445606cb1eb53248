package common

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Analysis struct {
	allowed bool          // If the request is allowed
	wait    time.Duration // The minimal time to wait before the request is allowed
}

// The rate limiter keeps a history of the outbound requests it has
// allowed and checks every new request against a set of restrictions.
// Vital requests block until they are allowed; non vital requests are
// rejected immediately if the restrictions do not allow them
type RateLimiter struct {
	mu                   sync.Mutex
	restrictions         []Restriction
	history              []time.Time
	duration             time.Duration          // Min duration to wait for all restrictions to be lifted
	pendingVitalRequests map[uuid.UUID]struct{} // Set of pending vital requests
}

func NewRateLimiter(restrictions []Restriction) *RateLimiter {
	rl := RateLimiter{}
	rl.restrictions = append(rl.restrictions, restrictions...)
	for _, restriction := range restrictions {
		if restriction.Duration > rl.duration {
			rl.duration = restriction.Duration
		}
	}
	rl.pendingVitalRequests = map[uuid.UUID]struct{}{}
	return &rl
}

// Decide if a request is allowed.
// If the request is not allowed but vital, execution
// will block here until it is allowed
func (rl *RateLimiter) Allowed(vital bool) bool {

	// Give this request a unique identifier
	thisuuid := uuid.New()
	for {
		rl.mu.Lock()
		// Trim history first
		rl.trim()
		// Check if the restrictions allow this request
		analysis := rl.analyse()
		if analysis.allowed {
			if !vital && len(rl.pendingVitalRequests) > 0 {
				// Vital requests waiting have priority
				rl.mu.Unlock()
				log.Warn().Msg("Rejecting non vital request because the vital queue is not empty")
				return false
			}
			delete(rl.pendingVitalRequests, thisuuid)
			// Include this request in the history as it is allowed
			rl.history = append(rl.history, time.Now())
			rl.mu.Unlock()
			return true
		}
		if !vital {
			rl.mu.Unlock()
			log.Warn().Msg("Rejecting a non vital request because restrictions do not allow it")
			return false
		}
		// Request is vital and not allowed, so we need
		// to add it to the queue and sleep for some time
		rl.pendingVitalRequests[thisuuid] = struct{}{}
		wait := analysis.wait
		rl.mu.Unlock()
		log.Warn().Msg(fmt.Sprintf("Vital request %s delayed %.2f seconds", thisuuid, wait.Seconds()))
		time.Sleep(wait)
	}
}

// Trim the current history, leaving only the requests
// that are young enough to be affected by at least one restriction
func (rl *RateLimiter) trim() {
	currentTime := time.Now()
	// Find the index from which we need to keep the history.
	// Times are stored in chronological order
	index := 0
	for i := len(rl.history) - 1; i >= 0; i-- {
		if currentTime.Sub(rl.history[i]) > rl.duration {
			index = i + 1
			break
		}
	}
	rl.history = rl.history[index:]
}

func (rl *RateLimiter) analyse() Analysis {

	// Merge the analyses of all restrictions
	now := time.Now()
	merged := Analysis{allowed: true}
	for i := range rl.restrictions {
		analysis := rl.restrictions[i].Analyse(rl.history, now)
		merged.allowed = merged.allowed && analysis.allowed
		if analysis.wait > merged.wait {
			merged.wait = analysis.wait
		}
	}
	return merged
}
