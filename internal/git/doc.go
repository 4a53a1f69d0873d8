// Package git wraps the git CLI for the feature cache: cloning pinned tags,
// tagging releases, pushing, and switching editable checkouts to main.
package git
