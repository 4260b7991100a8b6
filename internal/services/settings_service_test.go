package services

import (
	"context"
	"errors"
	"testing"

	"travelbooking/internal/domain"
	"travelbooking/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSettingsRepo struct {
	rows    []models.Setting
	saved   []models.Setting
	loadErr error
	saveErr error
}

func (f *fakeSettingsRepo) All(context.Context) ([]models.Setting, error) {
	return f.rows, f.loadErr
}

func (f *fakeSettingsRepo) UpsertMany(_ context.Context, rows []models.Setting) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, rows...)
	return nil
}

func TestSettingsResolutionOrder(t *testing.T) {
	t.Setenv("AGENCY_TAGLINE", "From env")
	t.Setenv("GST_PERCENT", "18")
	repo := &fakeSettingsRepo{rows: []models.Setting{{Key: "GST_PERCENT", Value: "12"}}}
	store := &SettingsStore{Repo: repo, UseEnv: true}

	assert.Equal(t, 12.0, store.GSTPercent())
	assert.Equal(t, "From env", store.Get("AGENCY_TAGLINE"))
	assert.Equal(t, "smtp.gmail.com", store.Get("SMTP_HOST"))
	assert.Equal(t, "", store.Get("NOT_A_SETTING"))
	assert.Equal(t, 587, store.Int("SMTP_PORT", 25))
}

func TestSettingsRefreshKeepsValuesOnError(t *testing.T) {
	repo := &fakeSettingsRepo{rows: []models.Setting{{Key: "AGENCY_NAME", Value: "Blue Sky"}}}
	store := &SettingsStore{Repo: repo}
	require.NoError(t, store.Refresh(context.Background()))

	repo.loadErr = errors.New("db down")
	assert.Error(t, store.Refresh(context.Background()))
	assert.Equal(t, "Blue Sky", store.Get("AGENCY_NAME"))
}

func TestValidateSetting(t *testing.T) {
	ok := map[string]string{
		"GST_PERCENT":       "18",
		"GSTIN":             "29ABCDE1234F2Z5",
		"EMAIL_ENABLED":     "on",
		"FROM_EMAIL":        "billing@example.com",
		"WEBSITE_URL":       "https://example.com",
		"BUSINESS_PHONE":    "+91 98765 43210",
		"WHATSAPP_PROVIDER": "Twilio",
		"BACKUP_TIME":       "23:45",
		"REPLY_TO_EMAIL":    "",
	}
	for k, v := range ok {
		assert.NoError(t, ValidateSetting(k, v), k)
	}

	bad := map[string]string{
		"GST_PERCENT":       "120",
		"SMTP_PORT":         "abc",
		"GSTIN":             "12345",
		"EMAIL_ENABLED":     "maybe",
		"FROM_EMAIL":        "nobody",
		"WEBSITE_URL":       "example.com",
		"BUSINESS_PHONE":    "12345",
		"WHATSAPP_PROVIDER": "telegram",
		"BACKUP_TIME":       "25:00",
		"AGENCY_NAME":       "  ",
		"UNKNOWN_KEY":       "x",
	}
	for k, v := range bad {
		err := ValidateSetting(k, v)
		assert.Error(t, err, k)
		assert.True(t, domain.IsValidation(err), k)
	}
}

func TestSettingsValuesMasksSecrets(t *testing.T) {
	store := NewStaticSettings(map[string]string{"SMTP_PASSWORD": "hunter2"})
	values, err := store.Values(CategoryEmail)
	require.NoError(t, err)

	found := false
	for _, v := range values {
		if v.Key == "SMTP_PASSWORD" {
			found = true
			assert.Equal(t, MaskedValue, v.Value)
			assert.True(t, v.IsSet)
		}
		assert.Equal(t, CategoryEmail, v.Category)
	}
	assert.True(t, found)

	_, err = store.Values("nope")
	assert.True(t, domain.IsNotFound(err))
}

func TestSettingsUpdateIsAllOrNothing(t *testing.T) {
	repo := &fakeSettingsRepo{}
	store := &SettingsStore{Repo: repo}
	require.NoError(t, store.Refresh(context.Background()))

	res, err := store.Update(context.Background(), map[string]string{
		"GST_PERCENT": "12",
		"FROM_EMAIL":  "broken",
	})
	require.Error(t, err)
	assert.Equal(t, "Invalid configuration values", err.Error())
	assert.Equal(t, []string{"FROM_EMAIL"}, res.Invalid)
	assert.Equal(t, []string{"GST_PERCENT"}, res.Valid)
	assert.Empty(t, repo.saved)
	assert.Equal(t, 5.0, store.GSTPercent())

	res, err = store.Update(context.Background(), map[string]string{
		"GST_PERCENT":   "12",
		"SMTP_PASSWORD": MaskedValue,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"GST_PERCENT"}, res.Valid)
	require.Len(t, repo.saved, 1)
	assert.Equal(t, models.SettingNumber, repo.saved[0].Type)
	assert.Equal(t, CategoryBusiness, repo.saved[0].Category)
	assert.Equal(t, 12.0, store.GSTPercent())
}

func TestSettingCategoriesCountFields(t *testing.T) {
	total := 0
	for _, c := range SettingCategories() {
		assert.Greater(t, c.FieldCount, 0, c.Key)
		total += c.FieldCount
	}
	assert.Equal(t, len(SettingFields("")), total)
}
