// Package alarm implements the gRPC transport for the alarm service.
//
// The API is described by a hand-registered service descriptor over
// well-known protobuf types, so no generated code is needed: events are
// posted as StringValue kinds and state is returned as a Struct. It adapts
// domain types to those messages and exposes a server that calls into a
// provided business-service interface.
package alarm
