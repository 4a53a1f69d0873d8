package feature

import (
	"fmt"
	"strings"
)

// Transport selects how feature repositories are cloned.
type Transport int

const (
	TransportHTTPS Transport = iota
	TransportHTTPSToken
	TransportSSH
)

func (t Transport) String() string {
	switch t {
	case TransportSSH:
		return "ssh"
	case TransportHTTPSToken:
		return "https (token)"
	default:
		return "https"
	}
}

// ChooseTransport prefers SSH when requested, then token HTTPS, then
// anonymous read-only HTTPS.
func ChooseTransport(useSSH bool, token string) Transport {
	switch {
	case useSSH:
		return TransportSSH
	case token != "":
		return TransportHTTPSToken
	default:
		return TransportHTTPS
	}
}

// RepoURL returns the GitHub clone URL for r.
func RepoURL(r Ref, t Transport, token string) string {
	switch t {
	case TransportSSH:
		return fmt.Sprintf("git@github.com:%s/%s.git", r.Namespace, r.Name)
	case TransportHTTPSToken:
		return fmt.Sprintf("https://%s@github.com/%s/%s.git", token, r.Namespace, r.Name)
	default:
		return fmt.Sprintf("https://github.com/%s/%s.git", r.Namespace, r.Name)
	}
}

// MirrorURL returns <base>/<namespace>/<name>.git. A non-empty base
// replaces GitHub entirely, for self-hosted mirrors and local fixtures.
func MirrorURL(base string, r Ref) string {
	return fmt.Sprintf("%s/%s/%s.git", strings.TrimRight(base, "/"), r.Namespace, r.Name)
}
