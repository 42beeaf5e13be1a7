// Package coordinator owns the single FPC2534 sensor resource and
// multiplexes access to it across concurrent HTTP requests and one
// continuous identify subscription.
//
// Global mutable coordinator state from the original Quart application
// (finite_action_queue, infinite_action_queue, finite_action_finished,
// identify_queues, identification_subscriber_appeared) is modeled as a
// single Coordinator value guarded by a mutex, following the teacher's own
// "one owned struct, one mutex" shape for its Server type.
//
// Exactly one "finite" operation (a bounded request/response exchange
// triggered by an HTTP handler) may be in flight at a time; it always
// preempts the "infinite" identify loop, which restarts its current
// identify attempt once the finite operation completes.
package coordinator
