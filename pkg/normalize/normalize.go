// Package normalize renames the numerically keyed mappings Behance uses for
// image renditions ("115", "404", "original", "max_1920") into size_-prefixed
// keys that are valid identifiers downstream.
//
// Every function is pure: the input is never modified and the result shares
// no mutable maps or slices with it.
//
// Precondition: keys are not already size_-prefixed. Normalizing the same
// value twice yields size_size_ keys; this is not checked.
package normalize

import (
	"behancesync/pkg/behance"
)

// SizePrefix is prepended to every renamed key
const SizePrefix = "size_"

// RenameSizes returns a copy of m with every key K renamed to "size_"+K.
// A nil map stays nil.
func RenameSizes[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[SizePrefix+k] = v
	}
	return out
}

// NormalizeImage renames the keys of the sizes and dimensions mappings. All
// other members pass through unchanged.
func NormalizeImage(img behance.Image) behance.Image {
	img.Sizes = RenameSizes(img.Sizes)
	img.Dimensions = RenameSizes(img.Dimensions)
	img.Extra = img.Extra.Clone()
	return img
}

// NormalizeModule normalizes an image module, or each component of a media
// collection. Other variants are returned untouched.
func NormalizeModule(m behance.Module) behance.Module {
	switch {
	case m.Image != nil:
		img := NormalizeImage(*m.Image)
		m.Image = &img
	case m.Collection != nil:
		coll := *m.Collection
		coll.Extra = coll.Extra.Clone()
		if m.Collection.Components != nil {
			coll.Components = make([]behance.Image, len(m.Collection.Components))
			for i, c := range m.Collection.Components {
				coll.Components[i] = NormalizeImage(c)
			}
		}
		m.Collection = &coll
	}
	return m
}

// NormalizeProject renames covers, each owner's images and every image
// bearing module.
func NormalizeProject(p behance.Project) behance.Project {
	p.Covers = RenameSizes(p.Covers)
	p.Extra = p.Extra.Clone()

	if p.Owners != nil {
		owners := make([]behance.Owner, len(p.Owners))
		for i, o := range p.Owners {
			o.Images = RenameSizes(o.Images)
			o.Extra = o.Extra.Clone()
			owners[i] = o
		}
		p.Owners = owners
	}

	if p.Modules != nil {
		modules := make([]behance.Module, len(p.Modules))
		for i, m := range p.Modules {
			modules[i] = NormalizeModule(m)
		}
		p.Modules = modules
	}

	return p
}
