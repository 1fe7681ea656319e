// Package live keeps one WebSocket open to the backend's push feed and turns its events into
// query invalidations.
//
// A [Channel] moves between three states:
//
//	Disconnected -> Connecting -> Connected
//	Connecting|Connected -> Disconnected (dial failure, read error, close)
//
// Every drop schedules exactly one reconnect after a fixed delay; there is no backoff and no cap.
// The pending timer is replaced, never duplicated, and [Channel.Close] cancels it so nothing
// reconnects after teardown.
//
// Frames are decoded as [models.PushMessage]:
//   - pr_created invalidates the dashboard
//   - analysis_complete invalidates the dashboard and that pull request's analysis
//
// Anything else is logged and dropped.
package live
