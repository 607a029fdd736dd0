// Package manifest rewrites docker-compose manifests into the catalog's
// canonical shape and pulls manifest text out of free-form generated output.
package manifest

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Well-known keys of a compose document.
const (
	keyServices      = "services"
	keyName          = "name"
	keyContainerName = "container_name"
)

// Defaults matching the upstream catalogs this pipeline imports.
const (
	DefaultPlaceholder  = "{ServiceName}"
	DefaultNamePrefix   = "big-bear-"
	DefaultInstallerKey = "cosmos-installer"
)

// Options configures the rewrite.
type Options struct {
	// Placeholder is the literal token replaced by the resolved container name.
	Placeholder string
	// RemoveKeys are top-level keys dropped from every manifest.
	RemoveKeys []string
	// NamePrefix is removed from the top-level name field.
	NamePrefix string
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Placeholder: DefaultPlaceholder,
		RemoveKeys:  []string{DefaultInstallerKey},
		NamePrefix:  DefaultNamePrefix,
	}
}

// Result describes what a rewrite changed.
type Result struct {
	RemovedKeys   []string
	NameStripped  bool
	ContainerName string
	Services      int
	Substitutions int
}

// Normalizer rewrites manifest node trees in place.
type Normalizer struct {
	opts Options
	log  zerolog.Logger
}

// NewNormalizer returns a Normalizer. An empty placeholder is rejected since
// it would match everywhere.
func NewNormalizer(opts Options, log zerolog.Logger) (*Normalizer, error) {
	if opts.Placeholder == "" {
		return nil, fmt.Errorf("manifest placeholder cannot be empty")
	}
	return &Normalizer{
		opts: opts,
		log:  log.With().Str("component", "manifest").Logger(),
	}, nil
}

// Normalize rewrites doc for the service named target:
//
//  1. configured top-level keys are removed;
//  2. the vendor prefix is stripped from the top-level name;
//  3. the container name is resolved from container_name, falling back to target;
//  4. the placeholder is substituted throughout the service definition;
//  5. the services section is re-keyed by target.
//
// A document without a services mapping only gets steps 1 and 2. Running
// Normalize again with the same target changes nothing.
//
// Manifests declaring several services keep every service under its own key;
// each is substituted with its own resolved container name.
func (n *Normalizer) Normalize(doc *yaml.Node, target string) (Result, error) {
	var res Result
	if target == "" {
		return res, fmt.Errorf("normalize: target service name cannot be empty")
	}

	top := root(doc)
	if top == nil || top.Kind != yaml.MappingNode {
		n.log.Debug().Str("target", target).Msg("manifest has no top-level mapping, nothing to rewrite")
		return res, nil
	}

	for _, key := range n.opts.RemoveKeys {
		if removeKey(top, key) {
			res.RemovedKeys = append(res.RemovedKeys, key)
		}
	}

	if name, _ := mappingValue(top, keyName); name != nil && n.opts.NamePrefix != "" {
		if name.Kind == yaml.ScalarNode && name.ShortTag() == strTag && strings.Contains(name.Value, n.opts.NamePrefix) {
			name.Value = strings.ReplaceAll(name.Value, n.opts.NamePrefix, "")
			res.NameStripped = true
		}
	}

	services, _ := mappingValue(top, keyServices)
	if services == nil || services.Kind != yaml.MappingNode || len(services.Content) == 0 {
		return res, nil
	}
	res.Services = len(services.Content) / 2

	if res.Services == 1 {
		svc := services.Content[1]
		res.ContainerName = n.containerName(svc, target)
		res.Substitutions = substitute(svc, n.opts.Placeholder, res.ContainerName)
		services.Content[0].Value = target
	} else {
		n.log.Warn().
			Str("target", target).
			Int("services", res.Services).
			Msg("manifest declares several services, keeping all of them")
		for i := 1; i < len(services.Content); i += 2 {
			svc := services.Content[i]
			name := n.containerName(svc, target)
			if res.ContainerName == "" {
				res.ContainerName = name
			}
			res.Substitutions += substitute(svc, n.opts.Placeholder, name)
		}
	}

	n.log.Debug().
		Str("target", target).
		Str("container_name", res.ContainerName).
		Int("substitutions", res.Substitutions).
		Strs("removed_keys", res.RemovedKeys).
		Msg("manifest normalized")
	return res, nil
}

// NormalizeBytes decodes, rewrites and re-encodes a manifest.
func (n *Normalizer) NormalizeBytes(data []byte, target string) ([]byte, Result, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, Result{}, err
	}
	res, err := n.Normalize(doc, target)
	if err != nil {
		return nil, res, err
	}
	out, err := Encode(doc)
	if err != nil {
		return nil, res, err
	}
	return out, res, nil
}

// containerName resolves the name a service's placeholder expands to: an
// explicit container_name with the placeholder replaced by target, or target
// itself when the field is missing, empty or nothing but the placeholder.
func (n *Normalizer) containerName(svc *yaml.Node, target string) string {
	field, _ := mappingValue(resolveAlias(svc), keyContainerName)
	field = resolveAlias(field)
	if field == nil || field.Kind != yaml.ScalarNode {
		return target
	}
	if field.Value == n.opts.Placeholder {
		return target
	}
	name := strings.ReplaceAll(field.Value, n.opts.Placeholder, target)
	if name == "" {
		return target
	}
	return name
}
