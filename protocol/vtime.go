package protocol

// This file makes references to RFC 3626:
// https://datatracker.ietf.org/doc/html/rfc3626

import "time"

// vtimeUnit is C/16, where C = 1/16 seconds is the scaling factor of RFC 3626 section 18.3.
const vtimeUnit = time.Second / 256

// DecodeVtime expands the compact mantissa/exponent time field used by the Vtime and Htime fields.
func DecodeVtime(v uint8) time.Duration {
	// 18.3.  Holding Time
	//   The value is represented by its mantissa (four highest bits) and by its
	//   exponent (four lowest bits).  In other words:
	//
	//      value = C*(1+a/16)*2^b [in seconds]
	a := uint64(v >> 4)
	b := uint64(v & 0x0f)
	return time.Duration((16+a)<<b) * vtimeUnit
}

// EncodeVtime finds the smallest representable duration that is at least d.
// Durations below C encode as C, durations above the largest representable value saturate.
func EncodeVtime(d time.Duration) uint8 {
	if d <= 16*vtimeUnit {
		return 0
	}
	//   -    find the largest integer 'b' such that: T/C >= 2^b
	b := 15
	for b > 0 && d < time.Duration(16<<b)*vtimeUnit {
		b--
	}
	//   -    compute the expression 16*(T/(C*(2^b))-1), which may not be a
	//        integer, and round it up.  This results in the value for 'a'
	step := vtimeUnit << b
	a := int((d+step-1)/step) - 16
	//   -    if 'a' is equal to 16: increment 'b' by one, and set 'a' to 0
	if a >= 16 {
		a = 0
		b++
	}
	if b > 15 {
		return 0xff
	}
	return uint8(a<<4 | b)
}
