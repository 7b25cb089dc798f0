// Package awaserver is a Management Application client for an LWM2M server
// daemon: it holds a session to the daemon over a local IPC channel,
// discovers the data model of registered LWM2M clients, and issues Read,
// Write, Delete, Execute, Discover, Write-Attributes, Define and Observe
// operations against them.
//
// A typical caller configures and connects a Session, builds an Operation
// (via NewReadOperation, NewWriteOperation, ...), adds one or more paths,
// calls Perform with a timeout, and inspects the per-path Response. The
// session separately receives asynchronous client Register/Update/Deregister
// events and Observe notifications; Process drains them from IPC and
// DispatchCallbacks invokes the caller's handlers on the caller's own
// goroutine.
package awaserver
