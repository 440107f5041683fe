package flags

import (
	"time"

	"github.com/spf13/pflag"
)

// StringBinding copies a string flag into Target when the flag was set.
type StringBinding struct {
	FlagName string
	Target   *string
}

// BoolBinding copies a boolean or toggle flag into Target when the flag was set.
type BoolBinding struct {
	FlagName string
	Target   *bool
}

// IntBinding copies an integer flag into Target when the flag was set.
type IntBinding struct {
	FlagName string
	Target   *int
}

// DurationBinding copies a duration flag into Target when the flag was set.
type DurationBinding struct {
	FlagName string
	Target   *time.Duration
}

// StringSliceBinding appends the values of a repeatable flag to Target when the flag was set.
type StringSliceBinding struct {
	FlagName string
	Target   *[]string
}

// Overrides groups the bindings applied by ApplyChangedFlags.
type Overrides struct {
	Strings      []StringBinding
	Booleans     []BoolBinding
	Integers     []IntBinding
	Durations    []DurationBinding
	StringSlices []StringSliceBinding
}

// ApplyChangedFlags overlays flags explicitly set on the command line onto their targets,
// leaving configured values untouched for flags left at their defaults.
func ApplyChangedFlags(flagSet *pflag.FlagSet, overrides Overrides) error {
	if flagSet == nil {
		return nil
	}

	for _, binding := range overrides.Strings {
		if !flagSet.Changed(binding.FlagName) {
			continue
		}
		flagValue, flagError := flagSet.GetString(binding.FlagName)
		if flagError != nil {
			return flagError
		}
		*binding.Target = flagValue
	}

	for _, binding := range overrides.Booleans {
		if !flagSet.Changed(binding.FlagName) {
			continue
		}
		flagValue, flagError := flagSet.GetBool(binding.FlagName)
		if flagError != nil {
			return flagError
		}
		*binding.Target = flagValue
	}

	for _, binding := range overrides.Integers {
		if !flagSet.Changed(binding.FlagName) {
			continue
		}
		flagValue, flagError := flagSet.GetInt(binding.FlagName)
		if flagError != nil {
			return flagError
		}
		*binding.Target = flagValue
	}

	for _, binding := range overrides.Durations {
		if !flagSet.Changed(binding.FlagName) {
			continue
		}
		flagValue, flagError := flagSet.GetDuration(binding.FlagName)
		if flagError != nil {
			return flagError
		}
		*binding.Target = flagValue
	}

	for _, binding := range overrides.StringSlices {
		if !flagSet.Changed(binding.FlagName) {
			continue
		}
		flagValues, flagError := flagSet.GetStringSlice(binding.FlagName)
		if flagError != nil {
			return flagError
		}
		*binding.Target = append(append([]string{}, (*binding.Target)...), flagValues...)
	}

	return nil
}
