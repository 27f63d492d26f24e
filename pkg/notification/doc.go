// Package notification delivers decision events to registered
// listeners. The client facade dispatches one event per decide call;
// consumers typically forward them to an analytics pipeline.
package notification
