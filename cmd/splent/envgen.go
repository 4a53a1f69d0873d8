package main

import (
	"path/filepath"

	"github.com/diverso-lab/splent-cli/internal/envfile"
	"github.com/diverso-lab/splent-cli/internal/feature"
)

// envOutcome is the result of generating one docker/.env.
type envOutcome string

const (
	envCreated    envOutcome = "created"
	envSkipped    envOutcome = "skipped"
	envNoTemplate envOutcome = "no template"
	envFailed     envOutcome = "failed"
)

// generateDockerEnv copies the first env template of dockerDir to .env when
// .env is missing. It returns the template used, if any.
func generateDockerEnv(dockerDir, env string) (envOutcome, string, error) {
	if !pathExists(dockerDir) {
		return envNoTemplate, "", nil
	}
	target := filepath.Join(dockerDir, ".env")
	if pathExists(target) {
		return envSkipped, "", nil
	}
	tmpl, ok := envfile.FirstExisting(dockerDir, envfile.TemplateNames(env)...)
	if !ok {
		return envNoTemplate, "", nil
	}
	if _, err := envfile.CopyIfMissing(tmpl, target); err != nil {
		return envFailed, tmpl, err
	}
	return envCreated, tmpl, nil
}

// generateFeatureEnv resolves the product link of r and generates the .env
// of the checkout it points to.
func generateFeatureEnv(productDir string, r feature.Ref, env string) (envOutcome, string, error) {
	dir, err := feature.Resolve(feature.LinkPath(productDir, r))
	if err != nil {
		return envFailed, "", err
	}
	return generateDockerEnv(feature.DockerDir(dir), env)
}
