package apiclient

// Page is the backend's paginated envelope. It is mirrored into state as-is.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
}
