package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/option"

	"github.com/teemow/sheetgate/internal/google"
	"github.com/teemow/sheetgate/internal/instrumentation"
	"github.com/teemow/sheetgate/internal/logging"
)

// Client exposes the five spreadsheet operations. It is safe for concurrent
// use; the first operation triggers the authorization handshake.
type Client struct {
	spreadsheetID string
	gate          *Gate
	backend       Backend
	logger        *slog.Logger
	metrics       *instrumentation.Metrics
}

type clientOptions struct {
	logger            *slog.Logger
	metrics           *instrumentation.Metrics
	apiOptions        []option.ClientOption
	credentialOptions []google.CredentialOption
}

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ClientOption {
	return func(o *clientOptions) { o.logger = logger }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(metrics *instrumentation.Metrics) ClientOption {
	return func(o *clientOptions) { o.metrics = metrics }
}

// WithAPIOptions passes options to the Sheets service built by
// NewServiceAccountClient.
func WithAPIOptions(opts ...option.ClientOption) ClientOption {
	return func(o *clientOptions) { o.apiOptions = append(o.apiOptions, opts...) }
}

// WithCredentialOptions passes options to the credential resolved by
// NewServiceAccountClient.
func WithCredentialOptions(opts ...google.CredentialOption) ClientOption {
	return func(o *clientOptions) { o.credentialOptions = append(o.credentialOptions, opts...) }
}

func buildOptions(opts []ClientOption) clientOptions {
	o := clientOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// NewClient creates a client for spreadsheetID that authorizes through
// authorizer and talks to backend.
func NewClient(spreadsheetID string, authorizer Authorizer, backend Backend, opts ...ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, &ConfigurationError{Field: "spreadsheet ID", Reason: "is required"}
	}
	if authorizer == nil {
		return nil, fmt.Errorf("authorizer cannot be nil")
	}
	if backend == nil {
		return nil, fmt.Errorf("backend cannot be nil")
	}

	o := buildOptions(opts)
	logger := logging.WithSpreadsheet(o.logger, spreadsheetID)

	return &Client{
		spreadsheetID: spreadsheetID,
		gate:          NewGate(authorizer, logging.NewSlogAdapter(logger), o.metrics),
		backend:       backend,
		logger:        logger,
		metrics:       o.metrics,
	}, nil
}

// NewServiceAccountClient resolves a service-account credential from cfg
// (fields set in override win) and builds a client on the Sheets v4 API.
// Missing identity or key fails here with a *ConfigurationError.
func NewServiceAccountClient(ctx context.Context, spreadsheetID string, cfg, override google.CredentialConfig, opts ...ClientOption) (*Client, error) {
	o := buildOptions(opts)

	credential, err := google.Resolve(cfg, override, o.credentialOptions...)
	if err != nil {
		return nil, err
	}

	backend, err := NewGoogleBackend(ctx, credential.TokenSource(), o.apiOptions...)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("created sheets client",
		logging.Spreadsheet(spreadsheetID),
		logging.Identity(credential.Identity()))

	return NewClient(spreadsheetID, credential, backend, opts...)
}

// SpreadsheetID returns the spreadsheet this client operates on.
func (c *Client) SpreadsheetID() string {
	return c.spreadsheetID
}

// AuthorizationState reports the gate state.
func (c *Client) AuthorizationState() AuthorizationState {
	return c.gate.State()
}

// Get returns the formatted values in rng. An empty range yields an empty
// RangeResult, never nil.
func (c *Client) Get(ctx context.Context, rng string) (RangeResult, error) {
	if strings.TrimSpace(rng) == "" {
		return nil, fmt.Errorf("range is required")
	}

	return withAuthorization(ctx, c.gate, func(ctx context.Context) (RangeResult, error) {
		var result RangeResult
		err := c.call(ctx, instrumentation.OperationGet, []attribute.KeyValue{
			attribute.String(instrumentation.SpanAttrRange, rng),
		}, func(ctx context.Context) error {
			vr, err := c.backend.GetValues(ctx, c.spreadsheetID, rng)
			if err != nil {
				return err
			}
			result = normalizeValues(vr)
			return nil
		})
		return result, err
	})
}

// Update overwrites rng with rows using user-entered semantics. It returns
// the number of updated cells, or nil when the service did not report one.
func (c *Client) Update(ctx context.Context, rng string, rows []Row) (*int64, error) {
	if strings.TrimSpace(rng) == "" {
		return nil, fmt.Errorf("range is required")
	}

	return withAuthorization(ctx, c.gate, func(ctx context.Context) (*int64, error) {
		var updated *int64
		err := c.call(ctx, instrumentation.OperationUpdate, []attribute.KeyValue{
			attribute.String(instrumentation.SpanAttrRange, rng),
		}, func(ctx context.Context) error {
			resp, err := c.backend.UpdateValues(ctx, c.spreadsheetID, rng, toValues(rows))
			if err != nil {
				return err
			}
			updated = normalizeUpdate(resp)
			return nil
		})
		return updated, err
	})
}

// Append adds rows after the last populated row intersecting rng. It
// returns the number of updated cells, or nil when the reply carried no
// update summary.
func (c *Client) Append(ctx context.Context, rng string, rows []Row) (*int64, error) {
	if strings.TrimSpace(rng) == "" {
		return nil, fmt.Errorf("range is required")
	}

	return withAuthorization(ctx, c.gate, func(ctx context.Context) (*int64, error) {
		var updated *int64
		err := c.call(ctx, instrumentation.OperationAppend, []attribute.KeyValue{
			attribute.String(instrumentation.SpanAttrRange, rng),
		}, func(ctx context.Context) error {
			resp, err := c.backend.AppendValues(ctx, c.spreadsheetID, rng, toValues(rows))
			if err != nil {
				return err
			}
			updated = normalizeAppend(resp)
			return nil
		})
		return updated, err
	})
}

// ListSheets enumerates the sheet tabs. With includeData the first grid of
// each sheet is fetched as formatted values.
func (c *Client) ListSheets(ctx context.Context, includeData bool) ([]SheetInfo, error) {
	return withAuthorization(ctx, c.gate, func(ctx context.Context) ([]SheetInfo, error) {
		var infos []SheetInfo
		err := c.call(ctx, instrumentation.OperationListSheets, []attribute.KeyValue{
			attribute.Bool(instrumentation.SpanAttrIncludeData, includeData),
		}, func(ctx context.Context) error {
			spreadsheet, err := c.backend.GetSpreadsheet(ctx, c.spreadsheetID, includeData)
			if err != nil {
				return err
			}
			infos = normalizeSheets(spreadsheet, includeData)
			return nil
		})
		return infos, err
	})
}

// CreateSheet adds a tab named name with a frozen header row.
func (c *Client) CreateSheet(ctx context.Context, name string) (SheetInfo, error) {
	if strings.TrimSpace(name) == "" {
		return SheetInfo{}, fmt.Errorf("sheet name is required")
	}

	return withAuthorization(ctx, c.gate, func(ctx context.Context) (SheetInfo, error) {
		var info SheetInfo
		err := c.call(ctx, instrumentation.OperationCreateSheet, []attribute.KeyValue{
			attribute.String(instrumentation.SpanAttrSheetName, name),
		}, func(ctx context.Context) error {
			resp, err := c.backend.AddSheet(ctx, c.spreadsheetID, name)
			if err != nil {
				return err
			}
			info = normalizeAddSheet(resp)
			return nil
		})
		return info, err
	})
}

// call runs one remote call inside a span, records it, and maps failures
// to *RemoteServiceError.
func (c *Client) call(ctx context.Context, operation string, attrs []attribute.KeyValue, fn func(ctx context.Context) error) error {
	attrs = append(attrs, attribute.String(instrumentation.SpanAttrSpreadsheetID, c.spreadsheetID))
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceSheets, operation, attrs...)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	if err != nil {
		c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceSheets, operation, instrumentation.StatusError, duration)
		instrumentation.SetSpanError(span, err)
		c.logger.Debug("sheets operation failed",
			logging.Operation(operation),
			logging.Status(instrumentation.StatusError),
			logging.Err(err),
			"duration", duration)

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return newRemoteServiceError(operation, err)
	}

	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceSheets, operation, instrumentation.StatusSuccess, duration)
	instrumentation.SetSpanSuccess(span)
	c.logger.Debug("sheets operation completed",
		logging.Operation(operation),
		logging.Status(instrumentation.StatusSuccess),
		"duration", duration)
	return nil
}
