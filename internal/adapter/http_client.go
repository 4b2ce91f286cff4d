package adapter

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MKhiriev/firm-vault/internal/config"
	"github.com/MKhiriev/firm-vault/internal/utils"
	"github.com/MKhiriev/firm-vault/models"
	"github.com/go-resty/resty/v2"
)

const (
	restPathPrefix = "/rest/v1/"

	headerAPIKey = "apikey"
	headerPrefer = "Prefer"

	preferRepresentation   = "return=representation"
	preferMergeDuplicates  = "resolution=merge-duplicates"
	preferIgnoreDuplicates = "resolution=ignore-duplicates"

	tenantsTable    = "tenants"
	tenantColumns   = "id,encryption_salt,encryption_enabled"
	idColumn        = "id"
	tenantIDColumn  = "tenant_id"
	updatedAtColumn = "updated_at"

	// remoteTimestampLayout is how the datastore renders TIMESTAMP columns.
	remoteTimestampLayout = "2006-01-02T15:04:05.999999"

	// rows fetched per table when looking for an envelope sample
	envelopeSampleCandidates = 20

	defaultRetryCount   = 2
	defaultRetryWait    = 500 * time.Millisecond
	defaultRetryMaxWait = 2 * time.Second
)

// newRESTClient builds the resty client shared by every request: base URL,
// timeout, the apikey header and the bearer token (the access token of the
// operator, or the API key when there is none).
func newRESTClient(cfg config.Remote) (*utils.HTTPClient, error) {
	baseURL, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid remote store url: %w", err)
	}

	bearer := strings.TrimSpace(cfg.AccessToken)
	if bearer == "" {
		bearer = cfg.APIKey
	}

	client := utils.NewHTTPClient().
		WithRetry(defaultRetryCount, defaultRetryWait, defaultRetryMaxWait, utils.TransientStatuses...)
	client.
		SetBaseURL(baseURL).
		SetTimeout(cfg.RequestTimeout).
		SetHeader(headerAPIKey, cfg.APIKey).
		SetHeader("Accept", "application/json").
		SetAuthToken(bearer)

	return client, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

func tablePath(table string) string {
	return restPathPrefix + table
}

func eq(v string) string {
	return "eq." + v
}

// selectColumns lists the columns of a schema table in the same order the
// SQL repositories scan them.
func selectColumns(schema models.EntitySchema) string {
	cols := make([]string, 0, len(schema.SensitiveFields)+3)
	cols = append(cols, idColumn, tenantIDColumn)
	cols = append(cols, schema.SensitiveFields...)
	cols = append(cols, updatedAtColumn)
	return strings.Join(cols, ",")
}

// envelopeFilter renders a PostgREST or=(...) filter matching any sensitive
// column that starts with prefix. Values are quoted because the prefix
// contains reserved characters.
func envelopeFilter(schema models.EntitySchema, prefix string) string {
	parts := make([]string, 0, len(schema.SensitiveFields))
	for _, f := range schema.SensitiveFields {
		parts = append(parts, fmt.Sprintf(`%s.like."%s*"`, f, prefix))
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// fieldsBody returns the named sensitive columns of record as a JSON object
// body. Columns without a value in the record are sent as null.
func fieldsBody(fields []string, record models.Record, now time.Time) map[string]any {
	body := make(map[string]any, len(fields)+1)
	for _, f := range fields {
		if v := record.Fields[f]; v != nil {
			body[f] = *v
		} else {
			body[f] = nil
		}
	}
	body[updatedAtColumn] = now.UTC().Format(remoteTimestampLayout)
	return body
}

// decodeRows decodes a JSON array of rows whose columns are all text or null.
func decodeRows(resp *resty.Response) ([]map[string]*string, error) {
	var rows []map[string]*string
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodingResponse, err)
	}
	return rows, nil
}

// countRows returns the number of rows in a JSON array response without
// decoding the columns.
func countRows(resp *resty.Response) (int, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDecodingResponse, err)
	}
	return len(rows), nil
}

func decodeRecord(schema models.EntitySchema, row map[string]*string) (models.Record, error) {
	record := models.Record{
		Kind:   schema.Kind,
		Fields: make(map[string]*string, len(schema.SensitiveFields)),
	}

	id := row[idColumn]
	if id == nil || *id == "" {
		return models.Record{}, fmt.Errorf("%w: row without id", ErrDecodingResponse)
	}
	record.ID = *id
	if tenantID := row[tenantIDColumn]; tenantID != nil {
		record.TenantID = *tenantID
	}

	for _, f := range schema.SensitiveFields {
		if v := row[f]; v != nil {
			s := *v
			record.Fields[f] = &s
		} else {
			record.Fields[f] = nil
		}
	}

	if raw := row[updatedAtColumn]; raw != nil && *raw != "" {
		ts, err := parseTimestamp(*raw)
		if err != nil {
			return models.Record{}, fmt.Errorf("%w: %w", ErrDecodingResponse, err)
		}
		record.UpdatedAt = &ts
	}

	return record, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts.UTC(), nil
	}
	return time.Parse(remoteTimestampLayout, raw)
}
