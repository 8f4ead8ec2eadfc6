package channels

import "time"

// ReceiveAll collects messages from ch until it is closed, no message
// arrives within idle, or max messages were read. A max of 0 means no limit.
func ReceiveAll[T any](ch <-chan T, idle time.Duration, max int) []T {
	var out []T

	timer := time.NewTimer(idle)
	defer timer.Stop()

	for max == 0 || len(out) < max {
		select {
		case msg, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, msg)
			timer.Reset(idle)
		case <-timer.C:
			return out
		}
	}

	return out
}
