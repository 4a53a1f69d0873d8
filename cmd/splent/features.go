package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/git"
	"github.com/diverso-lab/splent-cli/internal/manifest"
	"github.com/diverso-lab/splent-cli/internal/output"
	"github.com/diverso-lab/splent-cli/internal/workspace"
)

// tagExists asks GitHub whether r has tag, and asks the remote directly when
// the API cannot answer.
func tagExists(ctx context.Context, wctx *workspace.Context, r feature.Ref, tag string) (bool, error) {
	ok, err := newGitHubClient(wctx).TagExists(ctx, r.Namespace, r.Name, tag)
	if ok {
		return true, nil
	}
	if err != nil {
		log.Debug().Err(err).Str("feature", r.String()).Msg("github tag check failed")
	}
	tags, lsErr := git.LsRemoteTags(wctx.RepoURL(r))
	if lsErr != nil {
		if err != nil {
			return false, err
		}
		return false, lsErr
	}
	return slices.Contains(tags, tag), nil
}

// linkFeature points the product link for r at its cache checkout.
func linkFeature(wctx *workspace.Context, productDir string, r feature.Ref) (string, error) {
	link := feature.LinkPath(productDir, r)
	if err := feature.Link(feature.CacheDir(wctx.Root, r), link); err != nil {
		return "", systemErr("linking "+r.String(), err)
	}
	return link, nil
}

// unlinkVersions removes every product link of r's feature, versioned or
// not, and returns the removed paths.
func unlinkVersions(productDir string, r feature.Ref) ([]string, error) {
	nsDir := filepath.Join(feature.LinksRoot(productDir), r.SafeNamespace())
	entries, err := os.ReadDir(nsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, systemErr("reading "+nsDir, err)
	}
	var removed []string
	for _, e := range entries {
		name, _, _ := strings.Cut(e.Name(), "@")
		if name != r.Name {
			continue
		}
		p := filepath.Join(nsDir, e.Name())
		ok, err := feature.Unlink(p)
		if err != nil {
			return removed, systemErr("unlinking "+p, err)
		}
		if ok {
			removed = append(removed, p)
		}
	}
	return removed, nil
}

// editProject applies fn to the active product's pyproject and saves it.
func editProject(productDir string, fn func(*manifest.Project) error) (*manifest.Project, error) {
	path := manifest.Path(productDir)
	p, err := manifest.Edit(path, fn)
	if errors.Is(err, manifest.ErrUnsafeEdit) {
		return nil, output.NewUserError("%v", err).
			WithHint("declare the features under a [project.optional-dependencies] table in %s", path)
	}
	if err != nil {
		return nil, systemErr("updating pyproject.toml", err)
	}
	return p, nil
}

// productsUsing lists the products declaring r at exactly its version.
func productsUsing(wctx *workspace.Context, r feature.Ref) ([]string, error) {
	products, err := manifest.Products(wctx.Root)
	if err != nil {
		return nil, systemErr("listing products", err)
	}
	var users []string
	for _, name := range products {
		p, err := manifest.Load(manifest.Path(wctx.ProductDir(name)))
		if err != nil {
			log.Debug().Err(err).Str("product", name).Msg("skipping unreadable pyproject")
			continue
		}
		refs, err := p.Refs(wctx.DefaultNamespace())
		if err != nil {
			continue
		}
		for _, got := range refs {
			if feature.Equal(got, r) {
				users = append(users, name)
				break
			}
		}
	}
	return users, nil
}
