/*
Package rabbitmq provides a RabbitMQ sink for dispatch records.
It publishes records as JSON to a topic exchange, routing by event kind,
and includes an auto-reconnect publisher for long-lived processes.
*/
package rabbitmq
