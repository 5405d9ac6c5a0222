/*
Package eventbus provides the in-process publish/subscribe fabric for
slice-composed applications. It coordinates kind registration, subscriptions
and dispatch while remaining decoupled from concrete telemetry backends via
the observe.Sink interface.
*/
package eventbus
