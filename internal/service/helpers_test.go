package service

import (
	"context"
	"testing"

	"github.com/MKhiriev/firm-vault/internal/audit"
	"github.com/MKhiriev/firm-vault/internal/crypto"
	"github.com/MKhiriev/firm-vault/internal/logger"
	"github.com/MKhiriev/firm-vault/internal/session"
	"github.com/MKhiriev/firm-vault/internal/store"
	"github.com/MKhiriev/firm-vault/models"
	"github.com/stretchr/testify/require"
)

const (
	tenantA        = "studio-rossi"
	tenantB        = "studio-bianchi"
	masterPassword = "MasterPass1"
)

// testKDF keeps Argon2id cheap enough for unit tests.
var testKDF = crypto.KDFParams{Time: 1, Memory: 8 * 1024, Threads: 1}

// testEnv wires the real services over an in-memory store.
type testEnv struct {
	mem      *store.MemoryStorage
	keyChain crypto.KeyChainService
	keys     *session.KeyStore
	services *Services
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mem, err := store.NewMemoryStorage("")
	require.NoError(t, err)

	keyChain := newTestKeyChain()
	keys := session.NewKeyStore()

	return &testEnv{
		mem:      mem,
		keyChain: keyChain,
		keys:     keys,
		services: NewServices(store.NewStoragesFrom(mem, mem), keyChain, keys, audit.Nop(), logger.Nop()),
	}
}

func newTestKeyChain() crypto.KeyChainService {
	return crypto.NewKeyChainService(crypto.WithKDFParams(testKDF))
}

// setupTenant creates the tenant and enables encryption, which also unlocks
// the session for it.
func (e *testEnv) setupTenant(t *testing.T, tenantID, password string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.mem.CreateTenant(ctx, tenantID, tenantID))
	require.NoError(t, e.services.TenantConfigService.Setup(ctx, tenantID, password))
}

// seed writes record straight into the store, bypassing the codec.
func (e *testEnv) seed(t *testing.T, record models.Record) {
	t.Helper()
	schema, ok := models.SchemaFor(record.Kind)
	require.True(t, ok)
	require.NoError(t, e.mem.SaveRecord(context.Background(), schema, record))
}

// stored reads record straight from the store, bypassing the codec.
func (e *testEnv) stored(t *testing.T, tenantID string, kind models.EntityKind, id string) models.Record {
	t.Helper()
	schema, ok := models.SchemaFor(kind)
	require.True(t, ok)
	rec, err := e.mem.GetRecord(context.Background(), schema, tenantID, id)
	require.NoError(t, err)
	return rec
}

func credential(tenantID, id, username, password string) models.Record {
	return models.Record{
		ID:       id,
		TenantID: tenantID,
		Kind:     models.KindCredential,
		Fields: map[string]*string{
			models.FieldUsername: models.StringPtr(username),
			models.FieldPassword: models.StringPtr(password),
		},
	}
}

func client(tenantID, id, taxCode string) models.Record {
	return models.Record{
		ID:       id,
		TenantID: tenantID,
		Kind:     models.KindClient,
		Fields: map[string]*string{
			models.FieldTaxCode:   models.StringPtr(taxCode),
			models.FieldVATNumber: models.StringPtr("IT01234567890"),
		},
	}
}

func testKey(b byte) crypto.DerivedKey {
	key := make(crypto.DerivedKey, crypto.KeySize)
	for i := range key {
		key[i] = b
	}
	return key
}
