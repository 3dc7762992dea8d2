// Package eventbus carries alarm events between the state machine, its
// adapters and remote watchers.
//
// Bus wraps github.com/asaskevich/EventBus with one topic per alarm.EventKind
// and a single payload type (alarm.Event). Hub fans every outbound event out
// to any number of channel subscribers, which is what the gRPC Watch stream
// consumes.
package eventbus
