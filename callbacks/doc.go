// Package callbacks provides assistant callback handlers: a logger, a printer,
// a fan-out and a per-turn scratchpad collecting run statistics.
package callbacks
