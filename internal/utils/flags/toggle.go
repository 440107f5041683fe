package flags

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/pflag"
)

const (
	toggleTrueCanonicalValue   = "true"
	toggleFalseCanonicalValue  = "false"
	toggleValueTypeConstant    = "bool"
	toggleParseErrorTemplate   = "invalid toggle value %q (expected yes/no, true/false, on/off, or 1/0)"
	toggleTruePlaceholder      = "<YES|no>"
	toggleFalsePlaceholder     = "<yes|NO>"
	toggleUsageEmptyTemplate   = "`%s`"
	toggleUsageFullTemplate    = "`%s` %s"
	longFlagPrefixConstant     = "--"
	shortFlagPrefixConstant    = "-"
	flagValueSeparatorConstant = "="
	argumentTerminatorConstant = "--"
	shorthandLengthConstant    = 1
	singleArgumentConsumed     = 1
	argumentWithValueConsumed  = 2
	noArgumentConsumed         = 0
)

var toggleLiteralValues = map[string]bool{
	"true":  true,
	"yes":   true,
	"on":    true,
	"1":     true,
	"t":     true,
	"y":     true,
	"false": false,
	"no":    false,
	"off":   false,
	"0":     false,
	"f":     false,
	"n":     false,
}

type toggleRegistry struct {
	mutex      sync.RWMutex
	names      map[string]struct{}
	shorthands map[string]struct{}
}

var registeredToggles = &toggleRegistry{
	names:      map[string]struct{}{},
	shorthands: map[string]struct{}{},
}

// AddToggleFlag registers a boolean flag that also accepts yes/no style values, either as
// "--flag=value" or, after NormalizeToggleArguments, as "--flag value". A bare "--flag" means true.
// target may be nil when callers read the value back with pflag's GetBool.
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, shorthand string, defaultValue bool, usage string) {
	if flagSet == nil || len(name) == 0 {
		return
	}

	toggleValue := newToggleFlagValue(defaultValue, target)
	flag := flagSet.VarPF(toggleValue, name, shorthand, usage)
	flag.NoOptDefVal = toggleTrueCanonicalValue
	flag.Usage = formatToggleUsage(usage, defaultValue)

	registeredToggles.register(name, shorthand)
}

// NormalizeToggleArguments joins registered toggle flags with a following value argument
// ("--low no" becomes "--low=no") so pflag does not treat the value as a positional argument.
func NormalizeToggleArguments(arguments []string) []string {
	if len(arguments) == 0 {
		return nil
	}

	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); {
		current := arguments[index]
		if current == argumentTerminatorConstant {
			normalized = append(normalized, arguments[index:]...)
			break
		}

		joinedArgument, consumed := registeredToggles.join(arguments, index)
		if consumed == noArgumentConsumed {
			normalized = append(normalized, current)
			index++
			continue
		}
		normalized = append(normalized, joinedArgument)
		index += consumed
	}

	return normalized
}

func formatToggleUsage(description string, defaultValue bool) string {
	placeholder := toggleFalsePlaceholder
	if defaultValue {
		placeholder = toggleTruePlaceholder
	}
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return fmt.Sprintf(toggleUsageEmptyTemplate, placeholder)
	}
	return fmt.Sprintf(toggleUsageFullTemplate, placeholder, trimmedDescription)
}

type toggleFlagValue struct {
	currentValue bool
	target       *bool
}

func newToggleFlagValue(defaultValue bool, target *bool) *toggleFlagValue {
	if target != nil {
		*target = defaultValue
	}
	return &toggleFlagValue{currentValue: defaultValue, target: target}
}

func (value *toggleFlagValue) Set(rawValue string) error {
	parsedValue, parseError := parseToggleValue(rawValue)
	if parseError != nil {
		return parseError
	}

	value.currentValue = parsedValue
	if value.target != nil {
		*value.target = parsedValue
	}
	return nil
}

func (value *toggleFlagValue) String() string {
	if value == nil || !value.currentValue {
		return toggleFalseCanonicalValue
	}
	return toggleTrueCanonicalValue
}

// Type reports "bool" so pflag's GetBool accepts toggle flags.
func (value *toggleFlagValue) Type() string {
	return toggleValueTypeConstant
}

func parseToggleValue(rawValue string) (bool, error) {
	normalizedValue := strings.ToLower(strings.TrimSpace(rawValue))
	if len(normalizedValue) == 0 {
		return true, nil
	}
	parsedValue, known := toggleLiteralValues[normalizedValue]
	if !known {
		return false, fmt.Errorf(toggleParseErrorTemplate, rawValue)
	}
	return parsedValue, nil
}

func (registry *toggleRegistry) register(name string, shorthand string) {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()
	registry.names[name] = struct{}{}
	if len(shorthand) > 0 {
		registry.shorthands[shorthand] = struct{}{}
	}
}

// join returns the rewritten argument and how many input arguments it consumed; zero means
// the argument at index is not a registered toggle.
func (registry *toggleRegistry) join(arguments []string, index int) (string, int) {
	current := arguments[index]
	if !registry.isToggleArgument(current) {
		return "", noArgumentConsumed
	}
	if strings.Contains(current, flagValueSeparatorConstant) || index+1 >= len(arguments) {
		return current, singleArgumentConsumed
	}
	nextArgument := arguments[index+1]
	if strings.HasPrefix(nextArgument, shortFlagPrefixConstant) {
		return current, singleArgumentConsumed
	}
	if _, isToggleLiteral := toggleLiteralValues[strings.ToLower(strings.TrimSpace(nextArgument))]; !isToggleLiteral {
		return current, singleArgumentConsumed
	}
	return current + flagValueSeparatorConstant + nextArgument, argumentWithValueConsumed
}

func (registry *toggleRegistry) isToggleArgument(argument string) bool {
	registry.mutex.RLock()
	defer registry.mutex.RUnlock()

	if strings.HasPrefix(argument, longFlagPrefixConstant) {
		name, _, _ := strings.Cut(strings.TrimPrefix(argument, longFlagPrefixConstant), flagValueSeparatorConstant)
		_, registered := registry.names[name]
		return len(name) > 0 && registered
	}
	if strings.HasPrefix(argument, shortFlagPrefixConstant) {
		shorthand, _, _ := strings.Cut(strings.TrimPrefix(argument, shortFlagPrefixConstant), flagValueSeparatorConstant)
		_, registered := registry.shorthands[shorthand]
		return len(shorthand) == shorthandLengthConstant && registered
	}
	return false
}
