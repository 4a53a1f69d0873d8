package feature

import "path/filepath"

const (
	cacheDirName    = ".splent_cache"
	featuresDirName = "features"
)

// CacheRoot returns <ws>/.splent_cache/features.
func CacheRoot(workspace string) string {
	return filepath.Join(workspace, cacheDirName, featuresDirName)
}

// CacheDir returns the cache checkout for r.
func CacheDir(workspace string, r Ref) string {
	return filepath.Join(CacheRoot(workspace), r.SafeNamespace(), r.DirName())
}

// LinksRoot returns <product>/features.
func LinksRoot(productDir string) string {
	return filepath.Join(productDir, featuresDirName)
}

// LinkPath returns the product symlink for r.
func LinkPath(productDir string, r Ref) string {
	return filepath.Join(LinksRoot(productDir), r.SafeNamespace(), r.DirName())
}

// PackageDir returns the Python package inside a feature checkout.
func PackageDir(featureDir string, r Ref) string {
	return filepath.Join(featureDir, "src", r.SafeNamespace(), r.Name)
}

// DockerDir returns the docker assets directory of a feature checkout.
func DockerDir(featureDir string) string {
	return filepath.Join(featureDir, "docker")
}
