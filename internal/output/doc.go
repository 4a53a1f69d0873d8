// Package output renders command results for humans and scripts.
//
// A Printer writes styled lines when attached to a terminal and plain text
// otherwise. With --json it emits one JSON document per call instead.
//
// Commands return *ExitError values built with NewUserError,
// NewSystemError and NewConflictError; main turns them into process exit
// codes via GetExitCode.
package output
