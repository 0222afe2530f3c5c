package helpers

// Ptr returns a pointer to the provided value. Handy for optional patch fields.
func Ptr[T any](val T) *T {
	return &val
}
