package auditors

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	packageLockFileNameConstant    = "package-lock.json"
	shrinkwrapFileNameConstant     = "npm-shrinkwrap.json"
	yarnLockFileNameConstant       = "yarn.lock"
	pnpmLockFileNameConstant       = "pnpm-lock.yaml"
	noLockFileTemplateConstant     = "cannot determine package manager for %s: none of %s found (set the package manager explicitly to one of %s)"
	lockFileProbeFailedTemplate    = "unable to inspect %s: %v"
	lockFileNamesSeparatorConstant = ", "
)

// LockFile associates a lock-file name with the tool that writes it.
type LockFile struct {
	FileName string
	Tool     Tool
}

// LockFilePrecedence is the fixed detection order; the first existing file wins.
func LockFilePrecedence() []LockFile {
	return []LockFile{
		{FileName: packageLockFileNameConstant, Tool: ToolNpm},
		{FileName: shrinkwrapFileNameConstant, Tool: ToolNpm},
		{FileName: yarnLockFileNameConstant, Tool: ToolYarn},
		{FileName: pnpmLockFileNameConstant, Tool: ToolPnpm},
	}
}

// Detector resolves which tool audits a directory.
type Detector struct {
	fileSystem afero.Fs
}

// NewDetector builds a Detector over fileSystem, defaulting to the OS filesystem.
func NewDetector(fileSystem afero.Fs) *Detector {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	return &Detector{fileSystem: fileSystem}
}

// Resolve returns the configured tool, or detects one from lock-files when configured is ToolAuto.
// The matched lock-file path is returned for detected and explicit tools alike when it exists.
func (detector *Detector) Resolve(configured Tool, directory string) (Tool, string, error) {
	if configured != ToolAuto && len(configured) > 0 {
		if _, parseError := ParseTool(configured.String()); parseError != nil {
			return "", "", parseError
		}
		lockFilePath, probeError := detector.lockFileFor(configured, directory)
		if probeError != nil {
			return "", "", probeError
		}
		return configured, lockFilePath, nil
	}

	for _, lockFile := range LockFilePrecedence() {
		candidatePath := filepath.Join(directory, lockFile.FileName)
		exists, probeError := detector.lockFileExists(candidatePath)
		if probeError != nil {
			return "", "", probeError
		}
		if exists {
			return lockFile.Tool, candidatePath, nil
		}
	}

	return "", "", ConfigurationError{Message: fmt.Sprintf(noLockFileTemplateConstant, directory, lockFileNames(), formatToolNames(SupportedTools()))}
}

// lockFileFor returns the first existing lock-file written by tool, or "" when there is none.
func (detector *Detector) lockFileFor(tool Tool, directory string) (string, error) {
	for _, lockFile := range LockFilePrecedence() {
		if lockFile.Tool != tool {
			continue
		}
		candidatePath := filepath.Join(directory, lockFile.FileName)
		exists, probeError := detector.lockFileExists(candidatePath)
		if probeError != nil {
			return "", probeError
		}
		if exists {
			return candidatePath, nil
		}
	}
	return "", nil
}

func (detector *Detector) lockFileExists(candidatePath string) (bool, error) {
	exists, existsError := afero.Exists(detector.fileSystem, candidatePath)
	if existsError != nil {
		return false, ConfigurationError{Message: fmt.Sprintf(lockFileProbeFailedTemplate, candidatePath, existsError)}
	}
	return exists, nil
}

func lockFileNames() string {
	names := ""
	for index, lockFile := range LockFilePrecedence() {
		if index > 0 {
			names += lockFileNamesSeparatorConstant
		}
		names += lockFile.FileName
	}
	return names
}
