// Package ui renders aligned tables and [n/total] progress lines for
// multi-feature commands.
package ui
