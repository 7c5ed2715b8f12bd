package endoflife

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrProductNotFound indicates the API has no product with the given slug.
var ErrProductNotFound = errors.New("endoflife: product not found")

// APIError represents an unexpected endoflife.date API response.
type APIError struct {
	StatusCode int
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("endoflife: API error %d (URL: %s)", e.StatusCode, e.URL)
}

// IsRetryable reports whether the request may succeed if repeated.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsNotFound checks if the error indicates an unknown product.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound)
}
