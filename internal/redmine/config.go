package redmine

import "time"

// Config holds the tracker endpoint settings.
type Config struct {
	// BaseURL is the Redmine instance root, without a trailing slash.
	BaseURL string

	// Timeout bounds every single API call.
	Timeout time.Duration

	// OpenIssuesLimit caps the number of open issues fetched for the
	// candidate list.
	OpenIssuesLimit int
}

// DefaultConfig returns settings suitable for a small Redmine instance.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:         baseURL,
		Timeout:         10 * time.Second,
		OpenIssuesLimit: 25,
	}
}
