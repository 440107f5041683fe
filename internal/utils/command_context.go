package utils

import "context"

type commandContextKey string

const configurationMetadataContextKeyConstant = commandContextKey("configurationMetadata")

// CommandContextAccessor stores and retrieves values shared between the root command and subcommands.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationMetadata attaches the loaded configuration metadata to the provided context.
func (accessor CommandContextAccessor) WithConfigurationMetadata(parentContext context.Context, metadata LoadedConfiguration) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, configurationMetadataContextKeyConstant, metadata)
}

// ConfigurationMetadata extracts the configuration metadata from the provided context.
func (accessor CommandContextAccessor) ConfigurationMetadata(executionContext context.Context) (LoadedConfiguration, bool) {
	if executionContext == nil {
		return LoadedConfiguration{}, false
	}
	metadata, metadataAvailable := executionContext.Value(configurationMetadataContextKeyConstant).(LoadedConfiguration)
	return metadata, metadataAvailable
}
