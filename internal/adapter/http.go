package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MKhiriev/firm-vault/internal/config"
	"github.com/MKhiriev/firm-vault/internal/logger"
	"github.com/MKhiriev/firm-vault/internal/store"
	"github.com/MKhiriev/firm-vault/internal/utils"
	"github.com/MKhiriev/firm-vault/models"
	"github.com/go-resty/resty/v2"
)

type remoteStore struct {
	client *utils.HTTPClient
	logger *logger.Logger
	now    func() time.Time
}

// NewRemoteStore constructs a [RemoteStore] talking to the PostgREST API
// under cfg.BaseURL.
//
// Returns an error if cfg.BaseURL is empty or cannot be parsed as a valid URL.
func NewRemoteStore(cfg config.Remote, logger *logger.Logger) (RemoteStore, error) {
	client, err := newRESTClient(cfg)
	if err != nil {
		return nil, err
	}

	return &remoteStore{
		client: client,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (r *remoteStore) request(ctx context.Context) *resty.Request {
	return r.client.R().SetContext(ctx)
}

// CreateTenant inserts the tenant row unless it already exists.
func (r *remoteStore) CreateTenant(ctx context.Context, tenantID, name string) error {
	resp, err := r.request(ctx).
		SetHeader(headerPrefer, preferIgnoreDuplicates).
		SetBody(map[string]any{
			"id":                 tenantID,
			"name":               name,
			"encryption_enabled": false,
		}).
		Post(tablePath(tenantsTable))
	if err != nil {
		return fmt.Errorf("create tenant request: %w", err)
	}

	return mapHTTPError(resp)
}

func (r *remoteStore) GetEncryptionSetting(ctx context.Context, tenantID string) (models.TenantEncryptionSetting, error) {
	resp, err := r.request(ctx).
		SetQueryParam(idColumn, eq(tenantID)).
		SetQueryParam("select", tenantColumns).
		Get(tablePath(tenantsTable))
	if err != nil {
		return models.TenantEncryptionSetting{}, fmt.Errorf("get encryption setting request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		r.logger.Err(err).
			Str("func", "remoteStore.GetEncryptionSetting").
			Str("tenant_id", tenantID).
			Msg("remote store rejected request")
		return models.TenantEncryptionSetting{}, err
	}

	var settings []models.TenantEncryptionSetting
	if err = json.Unmarshal(resp.Body(), &settings); err != nil {
		return models.TenantEncryptionSetting{}, fmt.Errorf("%w: %w", ErrDecodingResponse, err)
	}
	if len(settings) == 0 {
		return models.TenantEncryptionSetting{}, store.ErrTenantNotFound
	}

	return settings[0], nil
}

// EnableEncryption patches the tenant row only while its salt is null. When
// nothing was patched it tries to insert the tenant; if that also changes
// nothing the salt is already set.
func (r *remoteStore) EnableEncryption(ctx context.Context, tenantID, salt string) error {
	resp, err := r.request(ctx).
		SetQueryParam(idColumn, eq(tenantID)).
		SetQueryParam("encryption_salt", "is.null").
		SetHeader(headerPrefer, preferRepresentation).
		SetBody(map[string]any{
			"encryption_salt":    salt,
			"encryption_enabled": true,
		}).
		Patch(tablePath(tenantsTable))
	if err != nil {
		return fmt.Errorf("enable encryption request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return err
	}
	patched, err := countRows(resp)
	if err != nil {
		return err
	}
	if patched > 0 {
		return nil
	}

	resp, err = r.request(ctx).
		SetHeader(headerPrefer, preferIgnoreDuplicates+","+preferRepresentation).
		SetBody(map[string]any{
			"id":                 tenantID,
			"encryption_salt":    salt,
			"encryption_enabled": true,
		}).
		Post(tablePath(tenantsTable))
	if err != nil {
		return fmt.Errorf("enable encryption request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return err
	}
	inserted, err := countRows(resp)
	if err != nil {
		return err
	}
	if inserted == 0 {
		r.logger.Warn().
			Str("func", "remoteStore.EnableEncryption").
			Str("tenant_id", tenantID).
			Msg("salt already set")
		return store.ErrSaltAlreadySet
	}

	return nil
}

func (r *remoteStore) ListRecords(ctx context.Context, schema models.EntitySchema, tenantID string) ([]models.Record, error) {
	return r.queryRecords(ctx, "remoteStore.ListRecords", schema, map[string]string{
		tenantIDColumn: eq(tenantID),
		"select":       selectColumns(schema),
		"order":        "id.asc",
	})
}

func (r *remoteStore) GetRecord(ctx context.Context, schema models.EntitySchema, tenantID, id string) (models.Record, error) {
	records, err := r.queryRecords(ctx, "remoteStore.GetRecord", schema, map[string]string{
		tenantIDColumn: eq(tenantID),
		idColumn:       eq(id),
		"select":       selectColumns(schema),
		"limit":        "1",
	})
	if err != nil {
		return models.Record{}, err
	}
	if len(records) == 0 {
		return models.Record{}, store.ErrRecordNotFound
	}

	return records[0], nil
}

// SaveRecord upserts the record. A row with the same id owned by another
// tenant is left untouched and reported as [store.ErrRecordNotFound].
func (r *remoteStore) SaveRecord(ctx context.Context, schema models.EntitySchema, record models.Record) error {
	resp, err := r.request(ctx).
		SetQueryParam(idColumn, eq(record.ID)).
		SetQueryParam("select", tenantIDColumn).
		Get(tablePath(schema.Table))
	if err != nil {
		return fmt.Errorf("save record request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return err
	}
	owners, err := decodeRows(resp)
	if err != nil {
		return err
	}
	for _, owner := range owners {
		if tid := owner[tenantIDColumn]; tid == nil || *tid != record.TenantID {
			r.logger.Warn().
				Str("func", "remoteStore.SaveRecord").
				Str("tenant_id", record.TenantID).
				Str("kind", string(schema.Kind)).
				Str("record_id", record.ID).
				Msg("record id belongs to another tenant")
			return store.ErrRecordNotFound
		}
	}

	// PostgREST merges only the columns present in the body, so fields the
	// caller left out keep their stored value
	body := fieldsBody(record.PresentFields(schema.SensitiveFields), record, r.now())
	body[idColumn] = record.ID
	body[tenantIDColumn] = record.TenantID

	resp, err = r.request(ctx).
		SetHeader(headerPrefer, preferMergeDuplicates).
		SetBody(body).
		Post(tablePath(schema.Table))
	if err != nil {
		return fmt.Errorf("save record request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		r.logger.Err(err).
			Str("func", "remoteStore.SaveRecord").
			Str("tenant_id", record.TenantID).
			Str("kind", string(schema.Kind)).
			Str("record_id", record.ID).
			Msg("remote store rejected record")
		return err
	}

	return nil
}

func (r *remoteStore) UpdateFields(ctx context.Context, schema models.EntitySchema, record models.Record) error {
	resp, err := r.request(ctx).
		SetQueryParam(idColumn, eq(record.ID)).
		SetQueryParam(tenantIDColumn, eq(record.TenantID)).
		SetQueryParam("select", idColumn).
		SetHeader(headerPrefer, preferRepresentation).
		SetBody(fieldsBody(schema.SensitiveFields, record, r.now())).
		Patch(tablePath(schema.Table))
	if err != nil {
		return fmt.Errorf("update fields request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		r.logger.Err(err).
			Str("func", "remoteStore.UpdateFields").
			Str("tenant_id", record.TenantID).
			Str("kind", string(schema.Kind)).
			Str("record_id", record.ID).
			Msg("remote store rejected update")
		return err
	}

	updated, err := countRows(resp)
	if err != nil {
		return err
	}
	if updated == 0 {
		return store.ErrRecordNotFound
	}

	return nil
}

// FindEnvelopeSample asks every schema table for its most recently updated
// rows holding a value with the given prefix. The newest accepted value of
// each table is a candidate and the most recent candidate wins.
func (r *remoteStore) FindEnvelopeSample(ctx context.Context, tenantID string, schemas []models.EntitySchema, prefix string, accept func(string) bool) (string, bool, error) {
	var (
		sample     string
		found      bool
		sampleTime time.Time
	)

	for _, schema := range schemas {
		records, err := r.queryRecords(ctx, "remoteStore.FindEnvelopeSample", schema, map[string]string{
			tenantIDColumn: eq(tenantID),
			"select":       selectColumns(schema),
			"or":           envelopeFilter(schema, prefix),
			"order":        "updated_at.desc.nullslast",
			"limit":        strconv.Itoa(envelopeSampleCandidates),
		})
		if err != nil {
			return "", false, err
		}

		value, rec, ok := firstAccepted(schema, records, prefix, accept)
		if !ok {
			continue
		}
		if !found || (rec.UpdatedAt != nil && rec.UpdatedAt.After(sampleTime)) {
			sample, found = value, true
			if rec.UpdatedAt != nil {
				sampleTime = *rec.UpdatedAt
			}
		}
	}

	return sample, found, nil
}

// firstAccepted returns the first prefixed value passing accept, scanning
// records in order, together with the record holding it.
func firstAccepted(schema models.EntitySchema, records []models.Record, prefix string, accept func(string) bool) (string, models.Record, bool) {
	for _, rec := range records {
		for _, f := range schema.SensitiveFields {
			v, ok := rec.Field(f)
			if !ok || !strings.HasPrefix(v, prefix) {
				continue
			}
			if accept != nil && !accept(v) {
				continue
			}
			return v, rec, true
		}
	}
	return "", models.Record{}, false
}

func (r *remoteStore) queryRecords(ctx context.Context, funcName string, schema models.EntitySchema, params map[string]string) ([]models.Record, error) {
	resp, err := r.request(ctx).
		SetQueryParams(params).
		Get(tablePath(schema.Table))
	if err != nil {
		return nil, fmt.Errorf("query %s request: %w", schema.Table, err)
	}
	if err = mapHTTPError(resp); err != nil {
		r.logger.Err(err).
			Str("func", funcName).
			Str("kind", string(schema.Kind)).
			Msg("remote store rejected query")
		return nil, err
	}

	rows, err := decodeRows(resp)
	if err != nil {
		return nil, err
	}

	records := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		record, decodeErr := decodeRecord(schema, row)
		if decodeErr != nil {
			return nil, decodeErr
		}
		records = append(records, record)
	}

	return records, nil
}
