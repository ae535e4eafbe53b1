package backend

import (
	"fmt"
	"net/url"
	"strings"
)

// LocalOrigin is where the backend listens during local development.
const LocalOrigin = "http://localhost:8000"

// ResolveBaseURL turns the deployment URL into the origin requests go to.
// A localhost deployment talks to the dev backend directly; anything else
// uses the deployment's own origin and relies on its reverse proxy.
func ResolveBaseURL(appURL string) (string, error) {
	raw := strings.TrimSpace(appURL)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("backend url %q must include a scheme and host", raw)
	}

	if u.Hostname() == "localhost" {
		return LocalOrigin, nil
	}
	return u.Scheme + "://" + u.Host, nil
}
