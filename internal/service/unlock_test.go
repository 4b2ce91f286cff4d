package service

import (
	"context"
	"errors"
	"testing"

	"github.com/MKhiriev/firm-vault/internal/audit"
	"github.com/MKhiriev/firm-vault/internal/crypto"
	"github.com/MKhiriev/firm-vault/internal/logger"
	"github.com/MKhiriev/firm-vault/internal/mock"
	"github.com/MKhiriev/firm-vault/internal/session"
	"github.com/MKhiriev/firm-vault/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// newEncryptedTenant sets up tenantA, saves one encrypted record and locks
// the session.
func newEncryptedTenant(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnv(t)
	env.setupTenant(t, tenantA, masterPassword)
	require.NoError(t, env.services.RecordService.Save(context.Background(), credential(tenantA, "cr-1", "mario", "hunter22")))
	env.services.UnlockService.Lock(context.Background())
	require.False(t, env.keys.IsUnlocked())
	return env
}

func TestUnlock_CorrectPassword(t *testing.T) {
	env := newEncryptedTenant(t)

	err := env.services.UnlockService.Unlock(context.Background(), tenantA, masterPassword)

	require.NoError(t, err)
	assert.True(t, env.keys.IsUnlocked())
	assert.True(t, env.services.UnlockService.IsUnlocked(tenantA))
	assert.False(t, env.services.UnlockService.IsUnlocked(tenantB))
}

func TestUnlock_WrongPassword(t *testing.T) {
	env := newEncryptedTenant(t)

	err := env.services.UnlockService.Unlock(context.Background(), tenantA, "MasterPass2")

	assert.ErrorIs(t, err, ErrWrongPassword)
	assert.False(t, env.keys.IsUnlocked())
}

func TestUnlock_IgnoresPlaintextWithEnvelopePrefix(t *testing.T) {
	env := newEncryptedTenant(t)
	ctx := context.Background()

	// a legacy note that happens to start like an envelope, newer than the
	// real ciphertext
	legacy := credential(tenantA, "cr-2", "luigi", "legacy-pass")
	legacy.Fields[models.FieldNotes] = models.StringPtr(crypto.EnvelopePrefix + " see paper file")
	env.seed(t, legacy)

	err := env.services.UnlockService.Unlock(ctx, tenantA, masterPassword)

	require.NoError(t, err)
	assert.True(t, env.keys.UnlockedFor(tenantA))

	env.services.UnlockService.Lock(ctx)
	assert.ErrorIs(t, env.services.UnlockService.Unlock(ctx, tenantA, "MasterPass2"), ErrWrongPassword)
}

func TestUnlock_WrongPasswordKeepsExistingSession(t *testing.T) {
	env := newEncryptedTenant(t)
	ctx := context.Background()
	require.NoError(t, env.services.UnlockService.Unlock(ctx, tenantA, masterPassword))
	before, ok := env.keys.Get()
	require.True(t, ok)

	err := env.services.UnlockService.Unlock(ctx, tenantA, "nope")

	assert.ErrorIs(t, err, ErrWrongPassword)
	after, ok := env.keys.Get()
	require.True(t, ok)
	assert.Equal(t, before, after)
}

func TestUnlock_EmptyPassword(t *testing.T) {
	env := newEncryptedTenant(t)

	err := env.services.UnlockService.Unlock(context.Background(), tenantA, "")

	assert.ErrorIs(t, err, ErrWrongPassword)
	assert.False(t, env.keys.IsUnlocked())
}

func TestUnlock_NoSampleAcceptsAnyPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.setupTenant(t, tenantA, masterPassword)
	env.services.UnlockService.Lock(ctx)

	// nothing encrypted yet, so there is nothing to verify against
	err := env.services.UnlockService.Unlock(ctx, tenantA, "definitely-not-it")

	require.NoError(t, err)
	assert.True(t, env.keys.UnlockedFor(tenantA))
}

func TestUnlock_SampleOfOtherTenantIsIgnored(t *testing.T) {
	env := newEncryptedTenant(t)
	ctx := context.Background()
	env.setupTenant(t, tenantB, "TenantBPass")
	env.services.UnlockService.Lock(ctx)

	// tenant B has no envelopes of its own; tenant A's data must not be used
	require.NoError(t, env.services.UnlockService.Unlock(ctx, tenantB, "anything"))
	assert.True(t, env.keys.UnlockedFor(tenantB))
	assert.False(t, env.keys.UnlockedFor(tenantA))
}

func TestLock(t *testing.T) {
	env := newEncryptedTenant(t)
	ctx := context.Background()
	require.NoError(t, env.services.UnlockService.Unlock(ctx, tenantA, masterPassword))

	env.services.UnlockService.Lock(ctx)

	assert.False(t, env.keys.IsUnlocked())
	_, ok := env.keys.Get()
	assert.False(t, ok)

	// locking twice is harmless
	env.services.UnlockService.Lock(ctx)
}

func newMockedUnlock(t *testing.T, ctrl *gomock.Controller) (*unlockService, *mock.MockTenantRepository, *mock.MockRecordRepository, *mock.MockLogger) {
	t.Helper()
	tenants := mock.NewMockTenantRepository(ctrl)
	records := mock.NewMockRecordRepository(ctrl)
	auditLog := mock.NewMockLogger(ctrl)

	svc := NewUnlockService(tenants, records, newTestKeyChain(), session.NewKeyStore(), auditLog, logger.Nop()).(*unlockService)
	return svc, tenants, records, auditLog
}

func TestUnlock_SampleLookupFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, tenants, records, _ := newMockedUnlock(t, ctrl)
	ctx := context.Background()
	salt, err := svc.keyChain.GenerateEncryptionSalt()
	require.NoError(t, err)
	lookupErr := errors.New("connection refused")

	tenants.EXPECT().GetEncryptionSetting(ctx, tenantA).Return(models.TenantEncryptionSetting{TenantID: tenantA, Salt: &salt, Enabled: true}, nil)
	records.EXPECT().FindEnvelopeSample(ctx, tenantA, models.Schemas(), crypto.EnvelopePrefix, gomock.Any()).Return("", false, lookupErr)

	err = svc.Unlock(ctx, tenantA, masterPassword)

	assert.ErrorIs(t, err, lookupErr)
	assert.False(t, svc.keys.IsUnlocked())
}

func TestUnlock_MalformedSalt(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, tenants, _, _ := newMockedUnlock(t, ctrl)
	ctx := context.Background()
	salt := "not base64!"

	tenants.EXPECT().GetEncryptionSetting(ctx, tenantA).Return(models.TenantEncryptionSetting{TenantID: tenantA, Salt: &salt, Enabled: true}, nil)

	err := svc.Unlock(ctx, tenantA, masterPassword)

	assert.ErrorIs(t, err, crypto.ErrConfiguration)
	assert.False(t, svc.keys.IsUnlocked())
}

func TestUnlock_Audited(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, tenants, records, auditLog := newMockedUnlock(t, ctrl)
	ctx := context.Background()
	salt, err := svc.keyChain.GenerateEncryptionSalt()
	require.NoError(t, err)
	key, err := svc.keyChain.DeriveKey(masterPassword, salt)
	require.NoError(t, err)
	sample, err := svc.keyChain.Seal("hunter22", key)
	require.NoError(t, err)

	setting := models.TenantEncryptionSetting{TenantID: tenantA, Salt: &salt, Enabled: true}
	tenants.EXPECT().GetEncryptionSetting(ctx, tenantA).Return(setting, nil).Times(2)
	records.EXPECT().FindEnvelopeSample(ctx, tenantA, gomock.Any(), crypto.EnvelopePrefix, gomock.Any()).Return(sample, true, nil).Times(2)

	var statuses []string
	auditLog.EXPECT().LogEvent(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, event *audit.Event) error {
			statuses = append(statuses, event.EventType+":"+event.Status)
			return nil
		},
	).Times(3)

	assert.ErrorIs(t, svc.Unlock(ctx, tenantA, "wrong"), ErrWrongPassword)
	require.NoError(t, svc.Unlock(ctx, tenantA, masterPassword))
	svc.Lock(ctx)

	assert.Equal(t, []string{
		audit.EventTypeUnlock + ":" + audit.StatusFailed,
		audit.EventTypeUnlock + ":" + audit.StatusSuccess,
		audit.EventTypeLock + ":" + audit.StatusSuccess,
	}, statuses)
}
