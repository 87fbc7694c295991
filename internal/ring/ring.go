// Package ring provides fixed-capacity list helpers for the bounded logs
// scattered through the world state (news, events, stories, quotes, mood).
package ring

// PushFront prepends v and truncates the list to max entries, newest first.
func PushFront[T any](list []T, v T, max int) []T {
	if max <= 0 {
		return list[:0]
	}
	list = append([]T{v}, list...)
	if len(list) > max {
		list = list[:max]
	}
	return list
}

// PushBack appends v and drops the oldest entries beyond max, newest last.
func PushBack[T any](list []T, v T, max int) []T {
	if max <= 0 {
		return list[:0]
	}
	list = append(list, v)
	if len(list) > max {
		list = list[len(list)-max:]
	}
	return list
}

// Head returns up to n entries from the front without copying the backing array.
func Head[T any](list []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if n > len(list) {
		n = len(list)
	}
	return list[:n]
}

// Tail returns up to n entries from the back, keeping the newest of a
// newest-last list. A nil input stays usable as an empty slice.
func Tail[T any](list []T, n int) []T {
	if list == nil {
		return []T{}
	}
	if n < 0 {
		n = 0
	}
	if n >= len(list) {
		return list
	}
	return list[len(list)-n:]
}
