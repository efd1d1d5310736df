package utils

// Value dereferences v, returning the zero value for nil. Used to read the
// optional fields of oauth2.TokenResponse, e.g. a missing refresh_token.
func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

// Ptr returns a pointer to a copy of v, for filling optional response fields
// such as the access and refresh tokens the test provider issues.
func Ptr[T any](v T) *T {
	return &v
}
