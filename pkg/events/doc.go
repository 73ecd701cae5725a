/*
Package events provides the zone event log and the streaming event feed.

Each zone owns a Log: a bounded ring of recent structured events (combat,
kills, level-ups, gathers, transitions, gate activity, chat, system notices).
Events are append-only and immutable; clients poll with a since-timestamp and
a limit and always receive them oldest first.

The Feed fans events out to streaming subscribers. A subscription can be
scoped to one zone or receive everything; a subscriber that falls behind
loses events (counted on the subscription) instead of stalling the zone
tick, and re-syncs from the ring log.

	feed := events.NewFeed()
	feed.Start()
	defer feed.Stop()

	sub := feed.Subscribe("meadowbrook")
	go func() {
		for event := range sub.C {
			fmt.Println(event.Type, event.Message)
		}
	}()
*/
package events
