package git

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	sshRemote   = regexp.MustCompile(`^git@[^:]+:([^/]+)/(.+?)(?:\.git)?/?$`)
	httpsRemote = regexp.MustCompile(`^https?://(?:[^@/]+@)?[^/]+/([^/]+)/(.+?)(?:\.git)?/?$`)
	credentials = regexp.MustCompile(`(https?://)[^@/\s]+@`)
)

// RepoSlug extracts "owner/repo" from an SSH or HTTPS remote URL.
func RepoSlug(remoteURL string) (string, error) {
	u := strings.TrimSpace(remoteURL)
	for _, re := range []*regexp.Regexp{sshRemote, httpsRemote} {
		if m := re.FindStringSubmatch(u); m != nil {
			return m[1] + "/" + m[2], nil
		}
	}
	return "", fmt.Errorf("cannot derive owner/repo from remote %q", redact(u))
}

// redact hides credentials embedded in HTTPS URLs.
func redact(s string) string {
	return credentials.ReplaceAllString(s, "${1}***@")
}
