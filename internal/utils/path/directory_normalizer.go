package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	homeShortcutConstant            = "~"
	homeShortcutSlashPrefixConstant = "~/"
)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// DirectoryNormalizer turns user supplied directory values into clean paths: blank values become
// the fallback directory and a leading "~" resolves to the home directory.
type DirectoryNormalizer struct {
	fallbackDirectory     string
	homeDirectoryProvider HomeDirectoryProvider
	homeDirectory         string
	homeDirectoryResolved bool
	resolutionGuard       sync.Once
}

// NewDirectoryNormalizer constructs a normalizer using the operating system home lookup.
func NewDirectoryNormalizer(fallbackDirectory string) *DirectoryNormalizer {
	return NewDirectoryNormalizerWithProvider(fallbackDirectory, os.UserHomeDir)
}

// NewDirectoryNormalizerWithProvider constructs a normalizer with a custom home lookup.
func NewDirectoryNormalizerWithProvider(fallbackDirectory string, provider HomeDirectoryProvider) *DirectoryNormalizer {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &DirectoryNormalizer{fallbackDirectory: fallbackDirectory, homeDirectoryProvider: provider}
}

// Normalize trims, defaults, expands, and cleans candidateDirectory. A "~" prefix is left as is
// when the home directory cannot be resolved.
func (normalizer *DirectoryNormalizer) Normalize(candidateDirectory string) string {
	trimmedDirectory := strings.TrimSpace(candidateDirectory)
	if normalizer == nil {
		return trimmedDirectory
	}
	if len(trimmedDirectory) == 0 {
		trimmedDirectory = normalizer.fallbackDirectory
	}
	if len(trimmedDirectory) == 0 {
		return trimmedDirectory
	}
	return filepath.Clean(normalizer.expandHome(trimmedDirectory))
}

func (normalizer *DirectoryNormalizer) expandHome(directory string) string {
	if !strings.HasPrefix(directory, homeShortcutConstant) {
		return directory
	}

	relativeDirectory, isHomeRelative := trimHomeShortcut(directory)
	if !isHomeRelative {
		return directory
	}

	homeDirectory, resolved := normalizer.resolveHomeDirectory()
	if !resolved {
		return directory
	}
	return filepath.Join(homeDirectory, relativeDirectory)
}

// trimHomeShortcut strips "~", "~/" or "~<separator>"; "~user" forms are not home relative.
func trimHomeShortcut(directory string) (string, bool) {
	if directory == homeShortcutConstant {
		return "", true
	}
	for _, prefix := range []string{homeShortcutSlashPrefixConstant, homeShortcutConstant + string(os.PathSeparator)} {
		if strings.HasPrefix(directory, prefix) {
			return strings.TrimPrefix(directory, prefix), true
		}
	}
	return "", false
}

func (normalizer *DirectoryNormalizer) resolveHomeDirectory() (string, bool) {
	normalizer.resolutionGuard.Do(func() {
		homeDirectory, lookupError := normalizer.homeDirectoryProvider()
		if lookupError != nil || len(homeDirectory) == 0 {
			return
		}
		normalizer.homeDirectory = homeDirectory
		normalizer.homeDirectoryResolved = true
	})
	return normalizer.homeDirectory, normalizer.homeDirectoryResolved
}
