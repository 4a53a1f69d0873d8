// Package workspace resolves the workspace a command runs against: its root,
// the merged view of the process environment and the workspace .env, the user
// config, and the active product. It also provides the Strategy type used to
// handle dirty editable checkouts.
package workspace
