/*
Package container provides the service registry that composes an application
out of feature slices. Services are described once, constructed lazily on
first resolve, memoized for the life of the app, and torn down in reverse
construction order.
*/
package container
