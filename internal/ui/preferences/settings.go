// Package preferences provides the window for editing timer durations.
package preferences

import (
	"fmt"
	"strconv"
	"strings"

	"focus/internal/core/model"
)

// Fields is the textual content of the preferences form.
type Fields struct {
	FocusTime string
	FreeTime  string
	RestTime  string
}

// FieldsFrom renders config as form text.
func FieldsFrom(config model.Config) Fields {
	return Fields{
		FocusTime: strconv.Itoa(config.FocusTime),
		FreeTime:  strconv.Itoa(config.FreeTime),
		RestTime:  strconv.Itoa(config.RestTime),
	}
}

// Parse converts the form text into a validated configuration.
func (fields Fields) Parse() (model.Config, error) {
	focus, err := parseMinutes("focus time", fields.FocusTime)
	if err != nil {
		return model.Config{}, err
	}
	free, err := parseMinutes("free time", fields.FreeTime)
	if err != nil {
		return model.Config{}, err
	}
	rest, err := parseMinutes("rest time", fields.RestTime)
	if err != nil {
		return model.Config{}, err
	}

	config := model.Config{FocusTime: focus, FreeTime: free, RestTime: rest}
	if err := config.Validate(); err != nil {
		return model.Config{}, err
	}
	return config, nil
}

func parseMinutes(name, value string) (int, error) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a whole number of minutes", model.ErrInvalidConfig, name)
	}
	return parsed, nil
}
