/*
Package observability turns dispatcher lifecycle hooks into Prometheus
metrics and structured log lines.

Metrics registers a call counter and a duration histogram, labelled by
contract, method and terminal. Hooks combines several LifecycleHooks so a
runtime can feed metrics and logs at once.
*/
package observability
