/* Tracing is a package that wraps go.opentelemetry.io/otel/trace for setting and retrieving tracers in a context.Context

This package aids in tracing instrumentation by using context for tracing instrumentation instead of using package global variables.
Span attributes recorded through it use the `dataforge.*` key family declared in const.go,
so dataset refs, session ids, and registry kinds stay greppable across trace storage.
*/
package tracing
