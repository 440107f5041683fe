package flags

import (
	"fmt"
	"strings"
)

const (
	choicePlaceholderPrefix      = "<"
	choicePlaceholderSuffix      = ">"
	choiceSeparatorLiteral       = "|"
	choiceUsageEmptyTemplate     = "`%s`"
	choiceUsageFullTemplate      = "`%s` %s"
	invalidChoiceTemplate        = "unsupported --%s value %q (expected %s)"
	choiceListSeparator          = ", "
	choiceListFinalSeparator     = " or "
	choiceListSingleElementCount = 1
)

// FormatChoiceUsage builds a usage string where the default option is capitalized inside a placeholder.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	normalizedDefault := normalizeChoice(defaultChoice)
	displayedChoices := make([]string, 0, len(choices))
	for _, choice := range uniqueChoices(choices) {
		if normalizeChoice(choice) == normalizedDefault {
			choice = strings.ToUpper(choice)
		}
		displayedChoices = append(displayedChoices, choice)
	}

	placeholder := choicePlaceholderPrefix + strings.Join(displayedChoices, choiceSeparatorLiteral) + choicePlaceholderSuffix
	if len(strings.TrimSpace(description)) == 0 {
		return fmt.Sprintf(choiceUsageEmptyTemplate, placeholder)
	}
	return fmt.Sprintf(choiceUsageFullTemplate, placeholder, description)
}

// ValidateChoice returns the canonical choice matching value case-insensitively.
func ValidateChoice(flagName string, value string, choices []string) (string, error) {
	normalizedValue := normalizeChoice(value)
	available := uniqueChoices(choices)
	for _, choice := range available {
		if normalizeChoice(choice) == normalizedValue {
			return choice, nil
		}
	}
	return "", fmt.Errorf(invalidChoiceTemplate, flagName, value, describeChoices(available))
}

func uniqueChoices(choices []string) []string {
	unique := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))
	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		normalizedChoice := normalizeChoice(trimmedChoice)
		if len(normalizedChoice) == 0 {
			continue
		}
		if _, exists := seen[normalizedChoice]; exists {
			continue
		}
		seen[normalizedChoice] = struct{}{}
		unique = append(unique, trimmedChoice)
	}
	return unique
}

func describeChoices(choices []string) string {
	if len(choices) <= choiceListSingleElementCount {
		return strings.Join(choices, choiceListSeparator)
	}
	lastIndex := len(choices) - 1
	return strings.Join(choices[:lastIndex], choiceListSeparator) + choiceListFinalSeparator + choices[lastIndex]
}

func normalizeChoice(choice string) string {
	return strings.ToLower(strings.TrimSpace(choice))
}
