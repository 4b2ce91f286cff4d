package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/firm-vault/models"
)

// MemoryStorage implements [TenantRepository] and [RecordRepository] over
// in-process maps. When created with a file path the state is loaded from
// and written back to a JSON file after every change, which keeps the
// development CLI usable across invocations.
type MemoryStorage struct {
	path     string
	inMemory bool

	mu      sync.RWMutex
	tenants map[string]memoryTenant
	records map[string]map[string]memoryRecord // table -> id -> record

	now func() time.Time
}

type memoryTenant struct {
	Name    string  `json:"name"`
	Salt    *string `json:"encryption_salt"`
	Enabled bool    `json:"encryption_enabled"`
}

type memoryRecord struct {
	TenantID  string             `json:"tenant_id"`
	Fields    map[string]*string `json:"fields"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type memoryPersistedState struct {
	Tenants map[string]memoryTenant            `json:"tenants"`
	Records map[string]map[string]memoryRecord `json:"records"`
}

// NewMemoryStorage creates a storage. An empty path or ":memory:" keeps
// everything in process memory only.
func NewMemoryStorage(path string) (*MemoryStorage, error) {
	if path == "" {
		path = ":memory:"
	}

	s := &MemoryStorage{
		path:     path,
		inMemory: path == ":memory:" || path == "memory",
		tenants:  make(map[string]memoryTenant),
		records:  make(map[string]map[string]memoryRecord),
		now:      func() time.Time { return time.Now().UTC() },
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MemoryStorage) CreateTenant(_ context.Context, tenantID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tenants[tenantID]; ok {
		return nil
	}
	s.tenants[tenantID] = memoryTenant{Name: name}
	return s.persist()
}

func (s *MemoryStorage) GetEncryptionSetting(_ context.Context, tenantID string) (models.TenantEncryptionSetting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[tenantID]
	if !ok {
		return models.TenantEncryptionSetting{}, ErrTenantNotFound
	}

	setting := models.TenantEncryptionSetting{TenantID: tenantID, Enabled: t.Enabled}
	if t.Salt != nil {
		salt := *t.Salt
		setting.Salt = &salt
	}
	return setting, nil
}

func (s *MemoryStorage) EnableEncryption(_ context.Context, tenantID, salt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenants[tenantID]
	if t.Salt != nil {
		return ErrSaltAlreadySet
	}

	t.Salt = &salt
	t.Enabled = true
	s.tenants[tenantID] = t
	return s.persist()
}

func (s *MemoryStorage) ListRecords(_ context.Context, schema models.EntitySchema, tenantID string) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]models.Record, 0)
	for id, rec := range s.records[schema.Table] {
		if rec.TenantID != tenantID {
			continue
		}
		records = append(records, rec.toModel(schema, id))
	}

	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func (s *MemoryStorage) GetRecord(_ context.Context, schema models.EntitySchema, tenantID, id string) (models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[schema.Table][id]
	if !ok || rec.TenantID != tenantID {
		return models.Record{}, ErrRecordNotFound
	}
	return rec.toModel(schema, id), nil
}

func (s *MemoryStorage) SaveRecord(_ context.Context, schema models.EntitySchema, record models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table := s.records[schema.Table]
	if table == nil {
		table = make(map[string]memoryRecord)
		s.records[schema.Table] = table
	}

	existing, ok := table[record.ID]
	if ok && existing.TenantID != record.TenantID {
		return ErrRecordNotFound
	}

	fields := copyFields(schema, existing.Fields)
	for _, field := range record.PresentFields(schema.SensitiveFields) {
		fields[field] = nil
		if v := record.Fields[field]; v != nil {
			c := *v
			fields[field] = &c
		}
	}

	table[record.ID] = memoryRecord{
		TenantID:  record.TenantID,
		Fields:    fields,
		UpdatedAt: s.now(),
	}
	return s.persist()
}

func (s *MemoryStorage) UpdateFields(_ context.Context, schema models.EntitySchema, record models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[schema.Table][record.ID]
	if !ok || existing.TenantID != record.TenantID {
		return ErrRecordNotFound
	}

	existing.Fields = copyFields(schema, record.Fields)
	existing.UpdatedAt = s.now()
	s.records[schema.Table][record.ID] = existing
	return s.persist()
}

func (s *MemoryStorage) FindEnvelopeSample(_ context.Context, tenantID string, schemas []models.EntitySchema, prefix string, accept func(string) bool) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		sample     string
		found      bool
		sampleTime time.Time
	)

	for _, schema := range schemas {
		for _, rec := range s.records[schema.Table] {
			if rec.TenantID != tenantID {
				continue
			}
			for _, field := range schema.SensitiveFields {
				v := rec.Fields[field]
				if v == nil || !strings.HasPrefix(*v, prefix) || !acceptSample(accept, *v) {
					continue
				}
				if !found || rec.UpdatedAt.After(sampleTime) {
					sample, found, sampleTime = *v, true, rec.UpdatedAt
				}
				break
			}
		}
	}

	return sample, found, nil
}

func (r memoryRecord) toModel(schema models.EntitySchema, id string) models.Record {
	updatedAt := r.UpdatedAt
	return models.Record{
		ID:        id,
		TenantID:  r.TenantID,
		Kind:      schema.Kind,
		Fields:    copyFields(schema, r.Fields),
		UpdatedAt: &updatedAt,
	}
}

// copyFields deep-copies the schema's sensitive fields; unknown keys are
// dropped and missing ones become nil.
func copyFields(schema models.EntitySchema, fields map[string]*string) map[string]*string {
	out := make(map[string]*string, len(schema.SensitiveFields))
	for _, field := range schema.SensitiveFields {
		v := fields[field]
		if v == nil {
			out[field] = nil
			continue
		}
		c := *v
		out[field] = &c
	}
	return out
}

func (s *MemoryStorage) load() error {
	if s.inMemory {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read memory storage file: %w", err)
	}

	var st memoryPersistedState
	if err = json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("decode memory storage file: %w", err)
	}

	if st.Tenants != nil {
		s.tenants = st.Tenants
	}
	if st.Records != nil {
		s.records = st.Records
	}

	return nil
}

// persist must be called with s.mu held.
func (s *MemoryStorage) persist() error {
	if s.inMemory {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create memory storage dir: %w", err)
		}
	}

	state := memoryPersistedState{Tenants: s.tenants, Records: s.records}
	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode memory storage: %w", err)
	}

	if err = os.WriteFile(s.path, payload, 0o600); err != nil {
		return fmt.Errorf("write memory storage file: %w", err)
	}

	return nil
}
