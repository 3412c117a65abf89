package apitype

// WrapIndex resolves current+offset modulo length so navigation and
// preloading treat the catalog as a ring.
func WrapIndex(current int, offset int, length int) int {
	if length == 0 {
		return 0
	}
	target := (current + offset) % length
	if target < 0 {
		target += length
	}
	return target
}

// CircularDistance is the shortest distance between two indices on a
// ring of the given length.
func CircularDistance(a int, b int, length int) int {
	if length == 0 {
		return 0
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	diff = diff % length
	if other := length - diff; other < diff {
		return other
	}
	return diff
}
