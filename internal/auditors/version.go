package auditors

import (
	"context"
	"strings"

	"github.com/Masterminds/semver"
	"go.uber.org/zap"

	"github.com/temirov/auditgate/internal/execshell"
)

const (
	versionFlagConstant               = "--version"
	versionPrefixConstant             = "v"
	versionProbeFailedMessageConstant = "Unable to determine tool version; assuming a current release"
	versionUnparsableMessageConstant  = "Tool version is not semantic; assuming a current release"
	logFieldReportedVersionConstant   = "reported_version"
)

// toolVersion is the outcome of "<tool> --version". A nil semantic version means unknown.
type toolVersion struct {
	reported string
	semantic *semver.Version
}

// majorAtLeast treats an unknown version as the newest release line.
func (version toolVersion) majorAtLeast(major int64) bool {
	if version.semantic == nil {
		return true
	}
	return version.semantic.Major() >= major
}

func probeToolVersion(executionContext context.Context, execute toolExecution, tool Tool, directory string, logger *zap.Logger) toolVersion {
	executionResult, executionError := execute(executionContext, execshell.CommandDetails{
		Arguments:        []string{versionFlagConstant},
		WorkingDirectory: directory,
	})
	if executionError != nil {
		logger.Warn(versionProbeFailedMessageConstant, zap.String(logFieldToolConstant, tool.String()), zap.Error(executionError))
		return toolVersion{}
	}

	reportedVersion := firstLine(executionResult.StandardOutput)
	semanticVersion, parseError := semver.NewVersion(strings.TrimPrefix(reportedVersion, versionPrefixConstant))
	if parseError != nil {
		logger.Warn(
			versionUnparsableMessageConstant,
			zap.String(logFieldToolConstant, tool.String()),
			zap.String(logFieldReportedVersionConstant, reportedVersion),
			zap.Error(parseError),
		)
		return toolVersion{reported: reportedVersion}
	}
	return toolVersion{reported: semanticVersion.String(), semantic: semanticVersion}
}

func firstLine(text string) string {
	trimmedText := strings.TrimSpace(text)
	if newlineIndex := strings.IndexByte(trimmedText, '\n'); newlineIndex >= 0 {
		return strings.TrimSpace(trimmedText[:newlineIndex])
	}
	return trimmedText
}
