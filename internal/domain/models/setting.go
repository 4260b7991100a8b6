package models

import "time"

// SettingType drives validation of a setting value.
type SettingType string

const (
	SettingString   SettingType = "string"
	SettingBoolean  SettingType = "boolean"
	SettingNumber   SettingType = "number"
	SettingPassword SettingType = "password"
	SettingEmail    SettingType = "email"
	SettingURL      SettingType = "url"
	SettingPhone    SettingType = "phone"
	SettingSelect   SettingType = "select"
)

// SettingField describes one known configuration key.
type SettingField struct {
	Key         string      `json:"key"`
	Label       string      `json:"label"`
	Type        SettingType `json:"type"`
	Category    string      `json:"category"`
	Description string      `json:"description,omitempty"`
	Default     string      `json:"default,omitempty"`
	Required    bool        `json:"required"`
	Sensitive   bool        `json:"sensitive"`
	Pattern     string      `json:"pattern,omitempty"`
	Options     []string    `json:"options,omitempty"`
	Min         *float64    `json:"min,omitempty"`
	Max         *float64    `json:"max,omitempty"`
}

// SettingCategory groups fields for the settings UI.
type SettingCategory struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	FieldCount  int    `json:"field_count"`
}

// Setting is a persisted value.
type Setting struct {
	Key       string
	Value     string
	Type      SettingType
	Category  string
	UpdatedAt time.Time
}
