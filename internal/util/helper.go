// Package util holds small generic helpers shared by snapshot code.
package util

// CloneSlice clones slice with cloneSize.
// This function will use src length as the clone size if cloneSize is 0.
func CloneSlice[T any](src []T, cloneSize int) []T {
	if cloneSize == 0 {
		cloneSize = len(src)
	}
	clone := make([]T, cloneSize)
	copy(clone, src)

	return clone
}

// CloneMap returns a shallow copy of src. A nil map clones to nil.
func CloneMap[K comparable, V any](src map[K]V) map[K]V {
	if src == nil {
		return nil
	}
	clone := make(map[K]V, len(src))
	for k, v := range src {
		clone[k] = v
	}

	return clone
}

// Mean returns the arithmetic mean of values, or zero for an empty slice.
func Mean[T ~int64 | ~float64](values []T) T {
	if len(values) == 0 {
		return 0
	}
	var sum T
	for _, v := range values {
		sum += v
	}

	return sum / T(len(values))
}
