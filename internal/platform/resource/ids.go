package resource

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"
)

// RandomIntID draws identifiers uniformly from [1, upper], redrawing on
// collision. Once upper draws have collided it scans upward from 1, past upper
// if the whole range is taken.
func RandomIntID[I ~int](upper int) func(exists func(I) bool) I {
	return func(exists func(I) bool) I {
		for attempt := 0; attempt < upper; attempt++ {
			id := I(rand.Intn(upper) + 1)
			if !exists(id) {
				return id
			}
		}
		for id := I(1); ; id++ {
			if !exists(id) {
				return id
			}
		}
	}
}

// TimestampID builds identifiers as prefix-<unix millis>, appending a
// numeric suffix when two writes land in the same millisecond.
func TimestampID[I ~string](prefix string, now func() time.Time) func(exists func(I) bool) I {
	return func(exists func(I) bool) I {
		base := prefix + "-" + strconv.FormatInt(now().UnixMilli(), 10)
		id := I(base)
		for n := 2; exists(id); n++ {
			id = I(fmt.Sprintf("%s-%d", base, n))
		}
		return id
	}
}
