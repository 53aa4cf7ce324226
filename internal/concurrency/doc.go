// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Concurrency primitives backing event dispatch: an ordered executor that
// runs callbacks off the network loops while preserving submission order.
package concurrency
