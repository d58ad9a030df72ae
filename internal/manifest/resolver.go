// Package manifest loads version descriptors and merges a modified client
// with the vanilla base it inherits from.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gamelaunch/pkg/types"
)

// Resolved is the output of Resolve.
type Resolved struct {
	Descriptor *types.VersionDescriptor
	// MainJar is <versions>/<baseID>/<baseID>.jar.
	MainJar string
	// BaseID is the version the main artifact belongs to.
	BaseID string
}

// DescriptorPath returns <versions>/<id>/<id>.json.
func DescriptorPath(versionsDir, id string) string {
	return filepath.Join(versionsDir, id, id+".json")
}

// JarPath returns <versions>/<id>/<id>.jar.
func JarPath(versionsDir, id string) string {
	return filepath.Join(versionsDir, id, id+".jar")
}

// Load reads and decodes a single descriptor.
func Load(versionsDir, id string) (*types.VersionDescriptor, error) {
	p := DescriptorPath(versionsDir, id)
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, missingManifestError{id: id, path: p, err: err}
	}
	var d types.VersionDescriptor
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, missingManifestError{id: id, path: p, err: err}
	}
	if d.ID == "" {
		d.ID = id
	}
	return &d, nil
}

// Resolve loads id and, when it declares inheritsFrom, its base, returning
// the merged descriptor. At most one inheritance link is followed.
func Resolve(versionsDir, id string) (*Resolved, error) {
	target, err := Load(versionsDir, id)
	if err != nil {
		return nil, err
	}
	res := &Resolved{Descriptor: target, MainJar: JarPath(versionsDir, id), BaseID: id}
	if baseID := strings.TrimSpace(target.InheritsFrom); baseID != "" {
		base, err := Load(versionsDir, baseID)
		if err != nil {
			return nil, err
		}
		res = &Resolved{
			Descriptor: Merge(base, target),
			MainJar:    JarPath(versionsDir, baseID),
			BaseID:     baseID,
		}
	}
	if err := validate(id, res.Descriptor); err != nil {
		return nil, err
	}
	return res, nil
}

func validate(id string, d *types.VersionDescriptor) error {
	if strings.TrimSpace(d.MainClass) == "" {
		return invalidManifestError{id: id, field: "mainClass"}
	}
	if d.AssetIndexID() == "" {
		return invalidManifestError{id: id, field: "assetIndex"}
	}
	return nil
}

// Merge layers target over base. Libraries and structured arguments are
// concatenated base-first; scalar references prefer the target.
func Merge(base, target *types.VersionDescriptor) *types.VersionDescriptor {
	out := *target
	out.Libraries = make([]types.Library, 0, len(base.Libraries)+len(target.Libraries))
	out.Libraries = append(out.Libraries, base.Libraries...)
	out.Libraries = append(out.Libraries, target.Libraries...)

	if strings.TrimSpace(target.MainClass) == "" {
		out.MainClass = base.MainClass
	}
	if target.MinecraftArguments == "" {
		out.MinecraftArguments = base.MinecraftArguments
	}
	if target.AssetIndex == nil {
		out.AssetIndex = base.AssetIndex
	}
	if target.Assets == "" {
		out.Assets = base.Assets
	}
	if target.Downloads == nil || target.Downloads.Client == nil {
		out.Downloads = base.Downloads
	}
	if target.Type == "" {
		out.Type = base.Type
	}
	if base.Arguments != nil || target.Arguments != nil {
		var a types.Arguments
		for _, src := range []*types.VersionDescriptor{base, target} {
			if src.Arguments == nil {
				continue
			}
			a.JVM = append(a.JVM, src.Arguments.JVM...)
			a.Game = append(a.Game, src.Arguments.Game...)
		}
		out.Arguments = &a
	}
	return &out
}
