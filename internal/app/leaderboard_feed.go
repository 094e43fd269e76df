package app

import (
	"sync"

	"quiz-platform-service/internal/domain"
)

// LeaderboardFeed fans leaderboard updates out to per-quiz subscribers.
type LeaderboardFeed struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.Leaderboard]struct{}
}

func NewLeaderboardFeed() *LeaderboardFeed {
	return &LeaderboardFeed{
		subscribers: make(map[string]map[chan domain.Leaderboard]struct{}),
	}
}

// Subscribe registers a buffered update channel for the quiz. The caller
// must invoke the returned cancel function to avoid leaks.
func (f *LeaderboardFeed) Subscribe(quizID string) (chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	f.mu.Lock()
	subs, ok := f.subscribers[quizID]
	if !ok {
		subs = make(map[chan domain.Leaderboard]struct{})
		f.subscribers[quizID] = subs
	}
	subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		subs, ok := f.subscribers[quizID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(f.subscribers, quizID)
		}
	}
	return ch, cancel
}

// HasSubscribers reports whether anyone is listening for the quiz.
func (f *LeaderboardFeed) HasSubscribers(quizID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers[quizID]) > 0
}

// Publish delivers lb to every subscriber of the quiz. Slow subscribers
// have their stale snapshot dropped so they never block the publisher.
func (f *LeaderboardFeed) Publish(quizID string, lb domain.Leaderboard) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers[quizID] {
		select {
		case ch <- lb:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- lb:
			default:
			}
		}
	}
}

// Drop closes and removes all subscriptions for the quiz.
func (f *LeaderboardFeed) Drop(quizID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers[quizID] {
		close(ch)
	}
	delete(f.subscribers, quizID)
}
