package git

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// CloneOpts configures a git clone operation.
type CloneOpts struct {
	Depth  int
	Branch string // branch or tag to check out
}

// Clone clones a repository to dest with the given options.
func Clone(url, dest string, opts CloneOpts) error {
	args := []string{"clone"}
	if opts.Depth > 0 {
		args = append(args, "--depth", fmt.Sprintf("%d", opts.Depth))
	}
	if opts.Branch != "" {
		args = append(args, "--branch", opts.Branch)
	}
	args = append(args, url, dest)

	if err := runQuiet(".", args...); err != nil {
		return fmt.Errorf("cloning %s: %w", redact(url), err)
	}
	return nil
}

// Fetch runs git fetch in the given repo directory.
func Fetch(repoDir string) error {
	return runQuiet(repoDir, "fetch", "--prune")
}

// FetchTags fetches all tags from origin.
func FetchTags(repoDir string) error {
	return runQuiet(repoDir, "fetch", "--tags")
}

// FetchBranches widens origin's fetch refspec to every branch and fetches.
// Single-branch clones (--depth with --branch <tag>) carry no heads refspec,
// so refs fetched into refs/remotes/origin without it cannot be tracked.
func FetchBranches(repoDir string) error {
	if err := runQuiet(repoDir, "remote", "set-branches", "origin", "*"); err != nil {
		return err
	}
	return runQuiet(repoDir, "fetch", "origin")
}

// FetchCommit fetches a single commit from origin, for shallow clones that
// do not contain it.
func FetchCommit(repoDir, commit string) error {
	return runQuiet(repoDir, "fetch", "--depth", "1", "origin", commit)
}

// Checkout checks out the given ref.
func Checkout(repoDir, ref string) error {
	return runQuiet(repoDir, "checkout", ref)
}

// Switch switches to branch, creating it from origin/<branch> when it only
// exists on the remote.
func Switch(repoDir, branch string) error {
	if ok, err := BranchExists(repoDir, branch); err != nil {
		return err
	} else if ok {
		return runQuiet(repoDir, "checkout", branch)
	}
	if ok, err := RemoteBranchExists(repoDir, branch); err != nil {
		return err
	} else if ok {
		if err := runQuiet(repoDir, "checkout", "-B", branch, "origin/"+branch); err != nil {
			return err
		}
		return runQuiet(repoDir, "branch", "--set-upstream-to=origin/"+branch, branch)
	}
	return runQuiet(repoDir, "checkout", "-b", branch)
}

// Pull fast-forwards the current branch from its upstream.
func Pull(repoDir string) error {
	return runQuiet(repoDir, "pull", "--ff-only")
}

// Push runs git push with the given arguments.
func Push(repoDir string, args ...string) error {
	return runQuiet(repoDir, append([]string{"push"}, args...)...)
}

// CurrentBranch returns the current branch name, or empty string if detached.
func CurrentBranch(repoDir string) (string, error) {
	out, err := outputQuiet(repoDir, "symbolic-ref", "--short", "HEAD")
	if err != nil {
		// Detached HEAD: symbolic-ref fails.
		return "", nil
	}
	return strings.TrimSpace(out), nil
}

// HeadCommit returns the short SHA of HEAD.
func HeadCommit(repoDir string) (string, error) {
	out, err := outputQuiet(repoDir, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// HeadCommitFull returns the full SHA of HEAD.
func HeadCommitFull(repoDir string) (string, error) {
	out, err := outputQuiet(repoDir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// IsDirty returns true if the working tree has uncommitted changes.
func IsDirty(repoDir string) (bool, error) {
	out, err := StatusShort(repoDir)
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// StatusShort returns `git status --short` output, trimmed.
func StatusShort(repoDir string) (string, error) {
	out, err := outputQuiet(repoDir, "status", "--short")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// BranchExists checks if a local branch exists.
func BranchExists(repoDir, branch string) (bool, error) {
	return refExists(repoDir, "refs/heads/"+branch)
}

// RemoteBranchExists checks if a remote branch exists (after fetch).
func RemoteBranchExists(repoDir, branch string) (bool, error) {
	return refExists(repoDir, "refs/remotes/origin/"+branch)
}

// TagExists checks if a local tag exists.
func TagExists(repoDir, tag string) (bool, error) {
	return refExists(repoDir, "refs/tags/"+tag)
}

func refExists(repoDir, ref string) (bool, error) {
	err := runQuiet(repoDir, "show-ref", "--verify", "--quiet", ref)
	if err != nil {
		if isExitError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreateAnnotatedTag creates tag at HEAD with the given message.
func CreateAnnotatedTag(repoDir, tag, message string) error {
	if err := ensureCommitIdentity(repoDir); err != nil {
		return fmt.Errorf("setting commit identity: %w", err)
	}
	return runQuiet(repoDir, "tag", "-a", tag, "-m", message)
}

// PushTag pushes a single tag to origin.
func PushTag(repoDir, tag string) error {
	return Push(repoDir, "origin", tag)
}

// Stash stashes uncommitted changes.
func Stash(repoDir string) error {
	return runQuiet(repoDir, "stash")
}

// ResetHard resets the working tree to the given ref.
func ResetHard(repoDir, ref string) error {
	return runQuiet(repoDir, "reset", "--hard", ref)
}

// RemoteURL returns the URL of origin.
func RemoteURL(repoDir string) (string, error) {
	out, err := outputQuiet(repoDir, "remote", "get-url", "origin")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// SetRemoteURL points origin at url.
func SetRemoteURL(repoDir, url string) error {
	return runQuiet(repoDir, "remote", "set-url", "origin", url)
}

// LsRemoteTags lists the tags of a remote repository, newest version first.
func LsRemoteTags(url string) ([]string, error) {
	out, err := outputQuiet(".", "ls-remote", "--tags", "--refs", "--sort=-version:refname", url)
	if err != nil {
		return nil, fmt.Errorf("ls-remote %s: %w", redact(url), err)
	}
	var tags []string
	for _, line := range strings.Split(out, "\n") {
		parts := strings.Fields(line)
		if len(parts) == 2 && strings.HasPrefix(parts[1], "refs/tags/") {
			tags = append(tags, strings.TrimPrefix(parts[1], "refs/tags/"))
		}
	}
	return tags, nil
}

// Tags lists local tags sorted by version, newest first.
func Tags(repoDir string) ([]string, error) {
	out, err := outputQuiet(repoDir, "tag", "--list", "--sort=-version:refname")
	if err != nil {
		return nil, err
	}
	return strings.Fields(out), nil
}

// DefaultBranch detects the default branch of a remote repository using
// git ls-remote --symref. Returns an error if the branch cannot be detected.
func DefaultBranch(url string) (string, error) {
	out, err := outputQuiet(".", "ls-remote", "--symref", url, "HEAD")
	if err != nil {
		return "", fmt.Errorf("ls-remote %s: %w", redact(url), err)
	}
	// Expected output line: "ref: refs/heads/main\tHEAD"
	for _, line := range strings.Split(out, "\n") {
		parts := strings.Fields(line)
		if len(parts) >= 2 && parts[0] == "ref:" && strings.HasPrefix(parts[1], "refs/heads/") {
			return strings.TrimPrefix(parts[1], "refs/heads/"), nil
		}
	}
	return "", fmt.Errorf("default branch not found for %s", redact(url))
}

// IsCloned returns true if the directory is a git repository.
func IsCloned(repoDir string) bool {
	info, err := os.Stat(filepath.Join(repoDir, ".git"))
	if err != nil {
		return false
	}
	return info.IsDir()
}

// IsGitInstalled returns true if git is available on the system PATH.
func IsGitInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// Version returns the output of `git version`.
func Version() (string, error) {
	out, err := outputQuiet(".", "version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Init runs git init in the given directory.
func Init(dir string) error {
	return runQuiet(dir, "init", "-b", "main")
}

// Add stages the given paths in the repository.
func Add(dir string, paths ...string) error {
	args := append([]string{"add", "--"}, paths...)
	return runQuiet(dir, args...)
}

// AddAll stages every change, including deletions.
func AddAll(dir string) error {
	return runQuiet(dir, "add", "-A")
}

// Commit creates a commit with the given message.
// If user.name or user.email is not configured, it sets repo-local fallback values.
func Commit(dir, message string) error {
	if err := ensureCommitIdentity(dir); err != nil {
		return fmt.Errorf("setting commit identity: %w", err)
	}
	return runQuiet(dir, "commit", "-m", message)
}

// ensureCommitIdentity sets repo-local user.name/user.email if they are not configured.
func ensureCommitIdentity(dir string) error {
	if _, err := outputQuiet(dir, "config", "user.name"); err != nil {
		if err2 := runQuiet(dir, "config", "user.name", "splent"); err2 != nil {
			return err2
		}
	}
	if _, err := outputQuiet(dir, "config", "user.email"); err != nil {
		if err2 := runQuiet(dir, "config", "user.email", "splent@localhost"); err2 != nil {
			return err2
		}
	}
	return nil
}

func command(dir string, args ...string) *exec.Cmd {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	// Never block on a credential prompt.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	return cmd
}

// runQuiet executes a git command without printing stdout.
// Stderr is captured and included in the error message on failure.
func runQuiet(dir string, args ...string) error {
	_, err := outputQuiet(dir, args...)
	return err
}

// outputQuiet executes a git command and returns its stdout without printing to the console.
func outputQuiet(dir string, args ...string) (string, error) {
	cmd := command(dir, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	log.Debug().
		Str("git", redact(strings.Join(args, " "))).
		Str("dir", dir).
		Bool("ok", err == nil).
		Dur("took", time.Since(start)).
		Msg("exec")
	if err != nil {
		return "", &Error{
			Args:   redact(strings.Join(args, " ")),
			Stderr: strings.TrimSpace(redact(stderr.String())),
			Err:    err,
		}
	}
	return stdout.String(), nil
}

// Error is a failed git invocation.
type Error struct {
	Args   string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("git %s: %v", e.Args, e.Err)
	}
	return fmt.Sprintf("git %s: %v: %s", e.Args, e.Err, e.Stderr)
}

func (e *Error) Unwrap() error { return e.Err }

func isExitError(err error) bool {
	var ee *exec.ExitError
	return errors.As(err, &ee)
}
