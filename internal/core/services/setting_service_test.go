package services

import (
	"context"
	"errors"
	"testing"

	"coopfin-backend/internal/adapters/persistence/repositories"
)

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	db := openTestDB(t)
	svc := NewSettingService(repositories.NewSettingRepository(db))
	ctx := context.Background()

	setting, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !setting.NotifyOnApproval || !setting.NotifyOnRejection || !setting.NotifyOnAssignment {
		t.Errorf("defaults should enable all notifications: %+v", setting)
	}
	if setting.ReminderHour != 8 {
		t.Errorf("default reminder hour = %d, want 8", setting.ReminderHour)
	}

	off := false
	hour := 6
	updated, err := svc.Update(ctx, &UpdateSettingsInput{
		NotifyOnRejection: &off,
		ReminderHour:      &hour,
	}, 42)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.NotifyOnRejection {
		t.Error("notify_on_rejection should be off")
	}
	if !updated.NotifyOnApproval {
		t.Error("untouched flag should survive a partial update")
	}
	if updated.ReminderHour != 6 {
		t.Errorf("reminder hour = %d, want 6", updated.ReminderHour)
	}
	if updated.UpdatedBy == nil || *updated.UpdatedBy != 42 {
		t.Error("updated_by not recorded")
	}

	// Changes survive a reload
	reloaded, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if reloaded.ReminderHour != 6 || reloaded.NotifyOnRejection {
		t.Errorf("settings not persisted: %+v", reloaded)
	}
}

func TestSettingsRejectBadReminderHour(t *testing.T) {
	db := openTestDB(t)
	svc := NewSettingService(repositories.NewSettingRepository(db))
	ctx := context.Background()

	for _, hour := range []int{-1, 24, 99} {
		h := hour
		if _, err := svc.Update(ctx, &UpdateSettingsInput{ReminderHour: &h}, 1); !errors.Is(err, ErrInvalidReminderHour) {
			t.Errorf("hour %d: got %v, want ErrInvalidReminderHour", hour, err)
		}
	}
}
