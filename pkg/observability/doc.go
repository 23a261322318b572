/*
Package observability turns builder lifecycle hooks into logs and Prometheus metrics.

Both helpers return domain.LifecycleHooks, so they compose with each other and
with render-layer hooks through LifecycleHooks.Merge.
*/
package observability
