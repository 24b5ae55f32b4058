package schema

import (
	"strings"
)

// MinChapter and MaxChapter bound the language chapters.
const (
	MinChapter Chapter = 1
	MaxChapter Chapter = 4
)

var knownVariants = map[Variant]struct{}{
	VariantDefault:    {},
	VariantConcurrent: {},
	VariantNonDet:     {},
	VariantLazy:       {},
	VariantWasm:       {},
	VariantGPU:        {},
	VariantTyped:      {},
	VariantNative:     {},
}

var knownLibraries = map[ExternalLibrary]struct{}{
	ExternalNone:            {},
	ExternalRunes:           {},
	ExternalCurves:          {},
	ExternalSounds:          {},
	ExternalBinaryTrees:     {},
	ExternalPixNFlix:        {},
	ExternalMachineLearning: {},
	ExternalAll:             {},
}

// NormalizeChapter validates a chapter.
func NormalizeChapter(chapter int) (Chapter, error) {
	c := Chapter(chapter)
	if c < MinChapter || c > MaxChapter {
		return 0, ErrInvalidChapter
	}
	return c, nil
}

// NormalizeVariant trims and validates a variant. Empty means default.
func NormalizeVariant(variant string) (Variant, error) {
	trimmed := strings.ToLower(strings.TrimSpace(variant))
	if trimmed == "" {
		return VariantDefault, nil
	}
	v := Variant(trimmed)
	if _, ok := knownVariants[v]; !ok {
		return "", ErrInvalidVariant
	}
	return v, nil
}

// NormalizeExternalLibrary trims and validates a library name. Empty means NONE.
func NormalizeExternalLibrary(name string) (ExternalLibrary, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(name))
	if trimmed == "" {
		return ExternalNone, nil
	}
	lib := ExternalLibrary(trimmed)
	if _, ok := knownLibraries[lib]; !ok {
		return "", ErrInvalidExternalLibrary
	}
	return lib, nil
}

// IsKnownExternalLibrary reports whether the library is in the selectable set.
func IsKnownExternalLibrary(lib ExternalLibrary) bool {
	_, ok := knownLibraries[lib]
	return ok
}

// NormalizeWorkspaceConfig fills defaults and validates the config.
func NormalizeWorkspaceConfig(cfg WorkspaceConfig) (WorkspaceConfig, error) {
	if cfg.Chapter == 0 {
		cfg.Chapter = MinChapter
	}
	chapter, err := NormalizeChapter(int(cfg.Chapter))
	if err != nil {
		return WorkspaceConfig{}, err
	}
	variant, err := NormalizeVariant(string(cfg.Variant))
	if err != nil {
		return WorkspaceConfig{}, err
	}
	lib, err := NormalizeExternalLibrary(string(cfg.ExternalLibrary))
	if err != nil {
		return WorkspaceConfig{}, err
	}
	cfg.Chapter = chapter
	cfg.Variant = variant
	cfg.ExternalLibrary = lib
	return cfg, nil
}
