package services

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"travelbooking/internal/domain"
	"travelbooking/internal/domain/models"
	"travelbooking/internal/repositories"
	"travelbooking/internal/utils"
)

// MaskedValue replaces sensitive values in responses. Updates carrying it are ignored.
const MaskedValue = "********"

type settingsRepository interface {
	All(ctx context.Context) ([]models.Setting, error)
	UpsertMany(ctx context.Context, settings []models.Setting) error
}

// SettingsStore resolves runtime settings: stored value, then environment
// variable of the same name, then the schema default.
type SettingsStore struct {
	Repo settingsRepository
	// UseEnv enables the environment fallback.
	UseEnv bool

	mu     sync.RWMutex
	values map[string]string
	loaded bool
}

var (
	defaultSettings     *SettingsStore
	defaultSettingsOnce sync.Once
)

// Settings returns the process-wide store backed by app_config.
func Settings() *SettingsStore {
	defaultSettingsOnce.Do(func() {
		defaultSettings = &SettingsStore{Repo: repositories.SettingsRepository{}, UseEnv: true}
	})
	return defaultSettings
}

// NewStaticSettings returns a store with fixed values and no persistence.
func NewStaticSettings(values map[string]string) *SettingsStore {
	s := &SettingsStore{values: map[string]string{}, loaded: true}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// Refresh reloads cached values from the repository. On error the previous
// values are kept.
func (s *SettingsStore) Refresh(ctx context.Context) error {
	if s.Repo == nil {
		s.mu.Lock()
		s.loaded = true
		s.mu.Unlock()
		return nil
	}
	rows, err := s.Repo.All(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	if err != nil {
		return fmt.Errorf("refresh settings: %w", err)
	}
	values := make(map[string]string, len(rows))
	for _, r := range rows {
		values[r.Key] = r.Value
	}
	s.values = values
	return nil
}

func (s *SettingsStore) ensureLoaded() {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.Refresh(ctx); err != nil {
		utils.LogWarn("", "settings", "load", err.Error())
	}
}

// Get returns the effective value of key.
func (s *SettingsStore) Get(key string) string {
	s.ensureLoaded()
	s.mu.RLock()
	v, ok := s.values[key]
	s.mu.RUnlock()
	if ok {
		return v
	}
	if s.UseEnv {
		if ev, ok := os.LookupEnv(key); ok && strings.TrimSpace(ev) != "" {
			return strings.TrimSpace(ev)
		}
	}
	if f, ok := LookupSetting(key); ok {
		return f.Default
	}
	return ""
}

func (s *SettingsStore) Bool(key string) bool {
	return utils.Truthy(s.Get(key))
}

func (s *SettingsStore) Int(key string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s.Get(key)))
	if err != nil {
		return fallback
	}
	return n
}

func (s *SettingsStore) Float(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s.Get(key)), 64)
	if err != nil {
		return fallback
	}
	return f
}

// SettingValue is a field with its effective value for display.
type SettingValue struct {
	models.SettingField
	Value string `json:"value"`
	IsSet bool   `json:"is_set"`
}

// Values lists the fields of category with their current values; sensitive ones masked.
func (s *SettingsStore) Values(category string) ([]SettingValue, error) {
	if category != "" && !isSettingCategory(category) {
		return nil, domain.NotFoundError{Resource: "configuration category"}
	}
	fields := SettingFields(category)
	out := make([]SettingValue, 0, len(fields))
	for _, f := range fields {
		v := s.Get(f.Key)
		sv := SettingValue{SettingField: f, Value: v, IsSet: v != ""}
		if f.Sensitive && v != "" {
			sv.Value = MaskedValue
		}
		out = append(out, sv)
	}
	return out, nil
}

// BatchResult reports per-key validation.
type BatchResult struct {
	Valid   []string          `json:"valid"`
	Invalid []string          `json:"invalid"`
	Errors  map[string]string `json:"errors"`
}

func (r BatchResult) OK() bool { return len(r.Invalid) == 0 }

var (
	patternMu    sync.Mutex
	patternCache = map[string]*regexp.Regexp{}
	urlPrefix    = regexp.MustCompile(`^https?://`)
)

func compiledPattern(p string) *regexp.Regexp {
	patternMu.Lock()
	defer patternMu.Unlock()
	re, ok := patternCache[p]
	if !ok {
		re = regexp.MustCompile(p)
		patternCache[p] = re
	}
	return re
}

// ValidateSetting checks value against the field definition of key.
func ValidateSetting(key, value string) error {
	f, ok := LookupSetting(key)
	if !ok {
		return domain.Invalid(key, "Unknown configuration key %s", key)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		if f.Required {
			return domain.Invalid(key, "%s is required", f.Label)
		}
		return nil
	}

	switch f.Type {
	case models.SettingNumber:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return domain.Invalid(key, "%s must be a number", f.Label)
		}
		if f.Min != nil && n < *f.Min {
			return domain.Invalid(key, "%s must be at least %s", f.Label, strconv.FormatFloat(*f.Min, 'f', -1, 64))
		}
		if f.Max != nil && n > *f.Max {
			return domain.Invalid(key, "%s must be at most %s", f.Label, strconv.FormatFloat(*f.Max, 'f', -1, 64))
		}
	case models.SettingBoolean:
		switch strings.ToLower(value) {
		case "true", "false", "1", "0", "yes", "no", "on", "off":
		default:
			return domain.Invalid(key, "%s must be true or false", f.Label)
		}
	case models.SettingEmail:
		if !IsValidEmail(value) {
			return domain.Invalid(key, "%s must be a valid email address", f.Label)
		}
	case models.SettingURL:
		if !urlPrefix.MatchString(value) || validate.Var(value, "url") != nil {
			return domain.Invalid(key, "%s must be a valid http(s) URL", f.Label)
		}
	case models.SettingPhone:
		digits := utils.StripPhone(value)
		if len(digits) < 10 || len(digits) > 15 || utils.DigitsOnly(digits) != digits {
			return domain.Invalid(key, "%s must contain 10 to 15 digits", f.Label)
		}
	case models.SettingSelect:
		found := false
		for _, o := range f.Options {
			if strings.EqualFold(o, value) {
				found = true
				break
			}
		}
		if !found {
			return domain.Invalid(key, "%s must be one of %s", f.Label, strings.Join(f.Options, ", "))
		}
	}

	if f.Pattern != "" && !compiledPattern(f.Pattern).MatchString(value) {
		return domain.Invalid(key, "%s has an invalid format", f.Label)
	}
	return nil
}

// ValidateBatch validates every entry; keys are reported in sorted order.
func ValidateBatch(values map[string]string) BatchResult {
	res := BatchResult{Valid: []string{}, Invalid: []string{}, Errors: map[string]string{}}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := ValidateSetting(k, values[k]); err != nil {
			res.Invalid = append(res.Invalid, k)
			res.Errors[k] = err.Error()
			continue
		}
		res.Valid = append(res.Valid, k)
	}
	return res
}

// Update validates and persists changes as one batch. Nothing is written
// when any key is invalid. Masked values for sensitive keys are skipped.
func (s *SettingsStore) Update(ctx context.Context, changes map[string]string) (BatchResult, error) {
	clean := map[string]string{}
	for k, v := range changes {
		k = strings.TrimSpace(k)
		if f, ok := LookupSetting(k); ok && f.Sensitive && v == MaskedValue {
			continue
		}
		clean[k] = strings.TrimSpace(v)
	}

	res := ValidateBatch(clean)
	if !res.OK() {
		return res, domain.ValidationError{Field: "configs", Msg: "Invalid configuration values"}
	}
	if len(clean) == 0 {
		return res, nil
	}

	rows := make([]models.Setting, 0, len(clean))
	for _, k := range res.Valid {
		f, _ := LookupSetting(k)
		rows = append(rows, models.Setting{Key: k, Value: clean[k], Type: f.Type, Category: f.Category})
	}
	if s.Repo != nil {
		if err := s.Repo.UpsertMany(ctx, rows); err != nil {
			return res, err
		}
	}

	s.mu.Lock()
	if s.values == nil {
		s.values = map[string]string{}
	}
	for _, r := range rows {
		s.values[r.Key] = r.Value
	}
	s.mu.Unlock()
	return res, nil
}

// BusinessInfo is the agency identity printed on documents and messages.
type BusinessInfo struct {
	Name    string
	Tagline string
	GSTIN   string
	Address string
	Phone   string
	Email   string
	Website string
	Logo    string
}

func (s *SettingsStore) Business() BusinessInfo {
	return BusinessInfo{
		Name:    s.Get("AGENCY_NAME"),
		Tagline: s.Get("AGENCY_TAGLINE"),
		GSTIN:   s.Get("GSTIN"),
		Address: s.Get("BUSINESS_ADDRESS"),
		Phone:   s.Get("BUSINESS_PHONE"),
		Email:   s.Get("BUSINESS_EMAIL"),
		Website: s.Get("WEBSITE_URL"),
		Logo:    s.Get("LOGO_PATH"),
	}
}

// GSTPercent is the configured tax rate (default 5).
func (s *SettingsStore) GSTPercent() float64 {
	return s.Float("GST_PERCENT", 5)
}
