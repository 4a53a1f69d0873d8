// Package feature owns the naming contract for feature plugins.
//
// A feature is referenced as <namespace>/<name>[@<version>]. The namespace is
// the GitHub owner; on disk it is escaped with NamespaceSafe. A cached
// checkout lives at
//
//	<workspace>/.splent_cache/features/<namespace_safe>/<name>[@<version>]
//
// and a product binds it through the symlink
//
//	<product>/features/<namespace_safe>/<name>[@<version>]
//
// Without a version the feature is editable: it tracks main for local work.
package feature
