// Package connection implements the Connection Manager component.
//
// The Connection Manager:
//   - Maintains one WebSocket connection to the odds provider push feed
//   - Subscribes the configured content ids and tracks their subscription ids
//   - Correlates command responses by id
//   - Reconnects with exponential backoff and re-subscribes every content
//   - Forwards every other message to the feed router as a RawMessage
package connection
