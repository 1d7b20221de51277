/*
Package resilience guards foreign-process launches with a circuit breaker.

A foreign executable that is missing or crashes at startup fails the
same way every time. After enough consecutive launch failures the breaker opens
and further launches fail immediately until the cool-down elapses, at which
point a single trial launch is let through.

# Usage

	guard := resilience.New("editor-launch", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	err := guard.Do(func() error {
		pid, err = launcher.Launch(ctx, workspace)
		return err
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                         Open
*/
package resilience
