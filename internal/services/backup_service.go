package services

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"travelbooking/internal/domain"
	"travelbooking/internal/domain/models"
	"travelbooking/internal/repositories"
	"travelbooking/internal/utils"

	"github.com/go-co-op/gocron/v2"
	"github.com/gosimple/slug"
	"github.com/jinzhu/now"
)

const snapshotVersion = 1

type bookingLister interface {
	ListAll(ctx context.Context) ([]models.Booking, error)
}

// Snapshot is the JSON document written by a backup.
type Snapshot struct {
	Version   int              `json:"version"`
	Agency    string           `json:"agency"`
	CreatedAt string           `json:"created_at"`
	Count     int              `json:"count"`
	Bookings  []models.Booking `json:"bookings"`
}

// BackupInfo describes one snapshot file.
type BackupInfo struct {
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	Modified   time.Time `json:"modified"`
	Compressed bool      `json:"compressed"`
}

// BackupService writes booking snapshots under BACKUP_PATH and prunes old ones.
type BackupService struct {
	Config    *SettingsStore
	Source    bookingLister
	Dir       string
	RequestID string
	Now       func() time.Time
}

func (s BackupService) settings() *SettingsStore {
	if s.Config != nil {
		return s.Config
	}
	return Settings()
}

func (s BackupService) source() bookingLister {
	if s.Source != nil {
		return s.Source
	}
	return repositories.BookingRepository{}
}

func (s BackupService) dir() string {
	return utils.FirstNonEmpty(s.Dir, s.settings().Get("BACKUP_PATH"), "backups")
}

func (s BackupService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// AgencySlug is the agency name as a file name prefix ("blue_sky_travels").
func AgencySlug(cfg *SettingsStore) string {
	name := slug.Make(cfg.Get("AGENCY_NAME"))
	if name == "" {
		name = "travel"
	}
	return strings.ReplaceAll(name, "-", "_")
}

func (s BackupService) prefix() string {
	return AgencySlug(s.settings()) + "_backup_"
}

func isBackupFile(name string) bool {
	return strings.Contains(name, "_backup_") &&
		(strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".json.gz"))
}

// Create writes a snapshot of every booking and returns its file info.
func (s BackupService) Create(ctx context.Context) (BackupInfo, error) {
	bookings, err := s.source().ListAll(ctx)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("load bookings: %w", err)
	}
	ts := s.now()
	snap := Snapshot{
		Version:   snapshotVersion,
		Agency:    s.settings().Get("AGENCY_NAME"),
		CreatedAt: utils.FormatDateTime(ts),
		Count:     len(bookings),
		Bookings:  bookings,
	}
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return BackupInfo{}, err
	}

	compress := s.settings().Bool("BACKUP_COMPRESSION")
	name := s.prefix() + utils.FileStamp(ts) + ".json"
	if compress {
		name += ".gz"
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		zw.Name = strings.TrimSuffix(name, ".gz")
		zw.ModTime = ts
		if _, err := zw.Write(raw); err != nil {
			return BackupInfo{}, err
		}
		if err := zw.Close(); err != nil {
			return BackupInfo{}, err
		}
		raw = buf.Bytes()
	}

	dir := s.dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return BackupInfo{}, fmt.Errorf("create backup dir: %w", err)
	}
	path := filepath.Join(dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return BackupInfo{}, fmt.Errorf("write backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return BackupInfo{}, fmt.Errorf("write backup: %w", err)
	}

	utils.LogEvent(s.RequestID, "backup", "create", fmt.Sprintf("file=%s bookings=%d bytes=%d", name, len(bookings), len(raw)))
	return BackupInfo{Filename: name, Path: path, Size: int64(len(raw)), Modified: ts, Compressed: compress}, nil
}

// List returns snapshot files newest first. A missing directory is empty.
func (s BackupService) List() ([]BackupInfo, error) {
	dir := s.dir()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := []BackupInfo{}
	for _, e := range entries {
		if e.IsDir() || !isBackupFile(e.Name()) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, BackupInfo{
			Filename:   e.Name(),
			Path:       filepath.Join(dir, e.Name()),
			Size:       fi.Size(),
			Modified:   fi.ModTime(),
			Compressed: strings.HasSuffix(e.Name(), ".gz"),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Modified.Equal(out[j].Modified) {
			return out[i].Modified.After(out[j].Modified)
		}
		return out[i].Filename > out[j].Filename
	})
	return out, nil
}

// Cleanup deletes snapshots modified before the start of the day that is
// retentionDays ago. retentionDays <= 0 uses BACKUP_RETENTION_DAYS.
func (s BackupService) Cleanup(retentionDays int) ([]string, error) {
	if retentionDays <= 0 {
		retentionDays = s.settings().Int("BACKUP_RETENTION_DAYS", 30)
	}
	cutoff := now.With(s.now()).BeginningOfDay().AddDate(0, 0, -retentionDays)

	files, err := s.List()
	if err != nil {
		return nil, err
	}
	removed := []string{}
	for _, f := range files {
		if !f.Modified.Before(cutoff) {
			continue
		}
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			utils.LogWarn(s.RequestID, "backup", "cleanup", fmt.Sprintf("file=%s err=%v", f.Filename, err))
			continue
		}
		removed = append(removed, f.Filename)
	}
	utils.LogEvent(s.RequestID, "backup", "cleanup",
		fmt.Sprintf("cutoff=%s removed=%d", utils.FormatDateTime(cutoff), len(removed)))
	return removed, nil
}

// ReadSnapshot decodes a snapshot file by name, gzip or plain.
func (s BackupService) ReadSnapshot(filename string) (Snapshot, error) {
	if filename != filepath.Base(filename) || !isBackupFile(filename) {
		return Snapshot{}, domain.Invalid("filename", "Invalid backup file name")
	}
	raw, err := os.ReadFile(filepath.Join(s.dir(), filename))
	if os.IsNotExist(err) {
		return Snapshot{}, domain.NotFoundError{Resource: "backup", Err: err}
	}
	if err != nil {
		return Snapshot{}, err
	}
	if strings.HasSuffix(filename, ".gz") {
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return Snapshot{}, err
		}
		defer zr.Close()
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(zr); err != nil {
			return Snapshot{}, err
		}
		raw = buf.Bytes()
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode backup: %w", err)
	}
	return snap, nil
}

// parseClock reads "HH:MM".
func parseClock(v string) (uint, uint, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(v))
	if err != nil {
		return 0, 0, domain.Invalid("BACKUP_TIME", "Backup time must be in HH:MM format")
	}
	return uint(t.Hour()), uint(t.Minute()), nil
}

// BackupJobDefinition maps BACKUP_SCHEDULE and BACKUP_TIME to a gocron job.
// Weekly backups run on Sundays.
func BackupJobDefinition(cfg *SettingsStore) (gocron.JobDefinition, error) {
	h, m, err := parseClock(cfg.Get("BACKUP_TIME"))
	if err != nil {
		return nil, err
	}
	at := gocron.NewAtTimes(gocron.NewAtTime(h, m, 0))
	switch strings.ToLower(cfg.Get("BACKUP_SCHEDULE")) {
	case "weekly":
		return gocron.WeeklyJob(1, gocron.NewWeekdays(time.Sunday), at), nil
	case "daily", "":
		return gocron.DailyJob(1, at), nil
	default:
		return nil, domain.Invalid("BACKUP_SCHEDULE", "Backup schedule must be daily or weekly")
	}
}

// RunScheduled creates a snapshot and applies retention.
func (s BackupService) RunScheduled(ctx context.Context) {
	if _, err := s.Create(ctx); err != nil {
		utils.LogWarn("", "backup", "scheduled", err.Error())
		return
	}
	if _, err := s.Cleanup(0); err != nil {
		utils.LogWarn("", "backup", "scheduled_cleanup", err.Error())
	}
}

// StartBackupScheduler starts the scheduled backup when BACKUP_ENABLED is on.
// It returns a nil scheduler when backups are disabled.
func StartBackupScheduler(svc BackupService) (gocron.Scheduler, error) {
	cfg := svc.settings()
	if !cfg.Bool("BACKUP_ENABLED") {
		return nil, nil
	}
	def, err := BackupJobDefinition(cfg)
	if err != nil {
		return nil, err
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	job, err := sched.NewJob(def,
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			svc.RunScheduled(ctx)
		}),
		gocron.WithName("booking-backup"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}
	sched.Start()
	msg := fmt.Sprintf("job=%s schedule=%s at=%s", job.ID(), cfg.Get("BACKUP_SCHEDULE"), cfg.Get("BACKUP_TIME"))
	if next, err := job.NextRun(); err == nil {
		msg += " next=" + utils.FormatDateTime(next)
	}
	utils.LogEvent("", "backup", "scheduler_start", msg)
	return sched, nil
}
