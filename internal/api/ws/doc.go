// Package ws pushes desktop state changes to connected clients.
//
// Every domain mutation broadcasts a typed event through the hub;
// clients re-render from events instead of polling. The channel is
// strictly server-to-client: inbound frames only answer keepalives.
package ws
