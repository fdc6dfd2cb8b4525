// Package actuator turns horizontal offsets into control bytes and delivers
// them to the pan actuator over a serial link without blocking the caller.
package actuator

import "strconv"

// Encode renders dx as ASCII decimal text, sign included, with no terminator.
func Encode(dx int) []byte {
	return strconv.AppendInt(make([]byte, 0, 8), int64(dx), 10)
}
