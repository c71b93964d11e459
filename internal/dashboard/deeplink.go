package dashboard

import (
	"fmt"
	"net/url"
	"strings"
)

// UserParam is the query parameter carrying the username in shared links
const UserParam = "user"

// ShareURL reflects username into base as ?user=. Other query parameters
// are kept; an empty username removes the parameter.
func ShareURL(base, username string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("failed to parse location %q: %w", base, err)
	}
	q := u.Query()
	if username = strings.TrimSpace(username); username == "" {
		q.Del(UserParam)
	} else {
		q.Set(UserParam, username)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// UsernameFromURL extracts the trimmed ?user= value from a shared link
func UsernameFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse link %q: %w", raw, err)
	}
	return strings.TrimSpace(u.Query().Get(UserParam)), nil
}
