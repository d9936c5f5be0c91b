package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	integrationNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_\-]*$`)
	commandTypeRegex     = regexp.MustCompile(`^[a-z][a-z0-9_\-]*(\.[a-z0-9_\-]+)+$`)
	controlCharRegex     = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// ValidateIntegrationName validates an integration name such as "slack"
func ValidateIntegrationName(name string) error {
	if !integrationNameRegex.MatchString(name) {
		return fmt.Errorf("invalid integration name: %q", name)
	}
	return nil
}

// ValidateCommandType validates a dotted command type such as "slack.notify"
func ValidateCommandType(commandType string) error {
	if !commandTypeRegex.MatchString(commandType) {
		return fmt.Errorf("invalid command type: %q", commandType)
	}
	return nil
}

// ValidateWebhookURL validates an absolute http(s) URL
func ValidateWebhookURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("webhook URL must use http or https: %s", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("webhook URL has no host: %s", raw)
	}
	return nil
}

// ValidateLimit validates a page size against max
func ValidateLimit(limit, max int) error {
	if limit <= 0 {
		return fmt.Errorf("limit must be positive: %d", limit)
	}
	if limit > max {
		return fmt.Errorf("limit exceeds maximum of %d: %d", max, limit)
	}
	return nil
}

// SanitizeString removes control characters and surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(controlCharRegex.ReplaceAllString(s, ""))
}
