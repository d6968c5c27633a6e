// Package upstream talks to the hosted data store through its REST and RPC endpoints.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/clinic-scheduler/internal/logging"
	"github.com/example/clinic-scheduler/internal/semester"
)

const (
	backupTable          = "backup_semestre"
	eventsTable          = "agenda_eventos"
	occupancyProcedure   = "get_ocupacao_profissional"
	defaultClientTimeout = 15 * time.Second
)

// ErrMisconfigured is returned by New when the base URL or the service key is missing.
var ErrMisconfigured = errors.New("upstream: base url and service key are required")

// StatusError reports a non-2xx answer of the hosted store.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream: %s answered %d: %s", e.Operation, e.StatusCode, e.Body)
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is a thin client of the hosted store.
type Client struct {
	base   string
	key    string
	http   *http.Client
	logger *slog.Logger
}

// OccupancyRow is one row of the occupancy aggregate procedure.
type OccupancyRow struct {
	ProfessionalID      string `json:"profissional_id"`
	TotalSessionMinutes int    `json:"total_sessao_minutos"`
	SessionCount        int    `json:"contagem_sessao"`
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	key := strings.TrimSpace(cfg.ServiceKey)
	if base == "" || key == "" {
		return nil, ErrMisconfigured
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("upstream: parse base url: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultClientTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{base: base, key: key, http: httpClient, logger: logger}, nil
}

var (
	_ semester.ProcedureRunner = (*Client)(nil)
	_ semester.StatusSource    = (*Client)(nil)
	_ semester.BackupStore     = (*Client)(nil)
	_ semester.EventCounter    = (*Client)(nil)
)

// CallProcedure posts an empty argument object to rpc/{name} and returns the raw answer.
// Non-2xx answers are not errors; the caller inspects the result.
func (c *Client) CallProcedure(ctx context.Context, name string) (semester.ProcedureResult, error) {
	resp, body, err := c.do(ctx, http.MethodPost, c.rpcURL(name), []byte("{}"), nil)
	if err != nil {
		return semester.ProcedureResult{}, err
	}
	c.log(ctx).InfoContext(ctx, "procedure called", "procedure", name, "status", resp.StatusCode)
	return semester.ProcedureResult{StatusCode: resp.StatusCode, Body: string(body)}, nil
}

// SemesterStatus reads the first row of rpc/get_semester_status.
func (c *Client) SemesterStatus(ctx context.Context) (semester.Status, error) {
	resp, body, err := c.do(ctx, http.MethodPost, c.rpcURL(semester.ProcedureSemesterStatus), []byte("{}"), nil)
	if err != nil {
		return semester.Status{}, err
	}
	if !ok(resp) {
		return semester.Status{}, &StatusError{Operation: semester.ProcedureSemesterStatus, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var rows []semester.Status
	if err := json.Unmarshal(body, &rows); err != nil {
		return semester.Status{}, fmt.Errorf("upstream: decode semester status: %w", err)
	}
	if len(rows) == 0 {
		return semester.Status{}, nil
	}
	return rows[0], nil
}

// FindBackup looks up the backup record of label.
func (c *Client) FindBackup(ctx context.Context, label string) (semester.BackupRecord, bool, error) {
	query := url.Values{"semestre_label": {"eq." + label}}
	resp, body, err := c.do(ctx, http.MethodGet, c.tableURL(backupTable, query), nil, nil)
	if err != nil {
		return semester.BackupRecord{}, false, err
	}
	if !ok(resp) {
		return semester.BackupRecord{}, false, &StatusError{Operation: "find backup", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var records []semester.BackupRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return semester.BackupRecord{}, false, fmt.Errorf("upstream: decode backups: %w", err)
	}
	if len(records) == 0 {
		return semester.BackupRecord{}, false, nil
	}
	return records[0], true, nil
}

// InsertBackup stores record. A conflict answer maps to semester.ErrBackupExists.
func (c *Client) InsertBackup(ctx context.Context, record semester.BackupRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("upstream: encode backup: %w", err)
	}
	headers := http.Header{"Prefer": {"return=representation"}}
	resp, body, err := c.do(ctx, http.MethodPost, c.tableURL(backupTable, nil), payload, headers)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusConflict {
		return semester.ErrBackupExists
	}
	if !ok(resp) {
		return &StatusError{Operation: "insert backup", StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}

// CountEvents returns the exact number of calendar events tagged with label.
func (c *Client) CountEvents(ctx context.Context, label string) (int, error) {
	query := url.Values{"select": {"count"}, "semestre_label": {"eq." + label}}
	headers := http.Header{"Prefer": {"count=exact"}}
	resp, body, err := c.do(ctx, http.MethodGet, c.tableURL(eventsTable, query), nil, headers)
	if err != nil {
		return 0, err
	}
	if !ok(resp) {
		return 0, &StatusError{Operation: "count events", StatusCode: resp.StatusCode, Body: string(body)}
	}
	return parseContentRangeTotal(resp.Header.Get("Content-Range")), nil
}

// FetchOccupancyAggregate calls rpc/get_ocupacao_profissional.
func (c *Client) FetchOccupancyAggregate(ctx context.Context) ([]OccupancyRow, error) {
	resp, body, err := c.do(ctx, http.MethodPost, c.rpcURL(occupancyProcedure), []byte("{}"), nil)
	if err != nil {
		return nil, err
	}
	if !ok(resp) {
		return nil, &StatusError{Operation: occupancyProcedure, StatusCode: resp.StatusCode, Body: string(body)}
	}
	var rows []OccupancyRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("upstream: decode occupancy: %w", err)
	}
	return rows, nil
}

func (c *Client) do(ctx context.Context, method, target string, payload []byte, headers http.Header) (*http.Response, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("upstream: build request: %w", err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, values := range headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log(ctx).ErrorContext(ctx, "upstream request failed", "method", method, "url", target, "error", err)
		return nil, nil, fmt.Errorf("upstream: %s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("upstream: read body: %w", err)
	}
	return resp, body, nil
}

func (c *Client) rpcURL(name string) string {
	return c.base + "/rest/v1/rpc/" + url.PathEscape(name)
}

func (c *Client) tableURL(table string, query url.Values) string {
	target := c.base + "/rest/v1/" + url.PathEscape(table)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}

func (c *Client) log(ctx context.Context) *slog.Logger {
	return logging.FromContextOr(ctx, c.logger).With("component", "upstream.Client")
}

func ok(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// parseContentRangeTotal reads the total of a "0-24/3573" or "*/0" header.
// Unknown totals count as zero.
func parseContentRangeTotal(header string) int {
	_, total, found := strings.Cut(header, "/")
	if !found {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(total))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
