// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics, debug introspection and configuration loading shared by
// servers, clients and the example programs.
//
// Provides concurrent-safe primitives including:
//   - Counters and gauges with snapshot export
//   - Named debug probes
//   - TOML/YAML configuration decoding into typed config structs
package control
