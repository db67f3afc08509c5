package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cleared-dev/txenrich/internal/buildinfo"
	"github.com/cleared-dev/txenrich/internal/enrich"
	"github.com/cleared-dev/txenrich/internal/gap"
	"github.com/cleared-dev/txenrich/internal/ingest"
	"github.com/cleared-dev/txenrich/internal/metrics"
	"github.com/cleared-dev/txenrich/internal/model"
)

// TransactionsRequest carries raw transaction rows, keyed by column name.
type TransactionsRequest struct {
	Transactions []map[string]any `json:"transactions"`
}

// EnrichedRow is one enrichment record merged with its normalized input columns.
type EnrichedRow struct {
	model.EnrichmentRecord
	TransactionDate string  `json:"TransactionDate"`
	Description     string  `json:"Description"`
	Category        string  `json:"Category"`
	AmountUSD       float64 `json:"AmountUSD"`
	Balance         string  `json:"Balance"`
}

func newEnrichedRows(rows []model.EnrichedTransaction) []EnrichedRow {
	out := make([]EnrichedRow, len(rows))
	for i, r := range rows {
		out[i] = EnrichedRow{
			EnrichmentRecord: r.Record,
			TransactionDate:  r.Transaction.Date,
			Description:      r.Transaction.Description,
			Category:         r.Transaction.Category,
			AmountUSD:        r.Transaction.AmountUSD,
			Balance:          r.Transaction.Balance,
		}
	}
	return out
}

// EnrichResponse is the response from POST /enrich.
type EnrichResponse struct {
	EnrichedTransactions []EnrichedRow `json:"enriched_transactions"`
}

// SummaryRequest is TransactionsRequest with an optional top-N override.
type SummaryRequest struct {
	Transactions []map[string]any `json:"transactions"`
	TopN         int              `json:"top_n,omitempty"`
}

// SummaryResponse is the response from POST /summary.
type SummaryResponse struct {
	EnrichedTransactions []EnrichedRow    `json:"enriched_transactions"`
	Summary              metrics.Snapshot `json:"summary"`
}

// CompareRequest carries two already-enriched runs.
type CompareRequest struct {
	Baseline []model.EnrichmentRecord `json:"baseline"`
	Revised  []model.EnrichmentRecord `json:"revised"`
	TopN     int                      `json:"top_n,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string            `json:"error"`
	Rows  []enrich.RowError `json:"rows,omitempty"`
}

// Server exposes the enricher over HTTP.
type Server struct {
	enricher *enrich.Enricher
	topN     int
	log      zerolog.Logger
}

// NewServer creates a Server. topN is the default for /summary and /compare.
func NewServer(enricher *enrich.Enricher, topN int, log zerolog.Logger) *Server {
	return &Server{enricher: enricher, topN: topN, log: log}
}

// App builds the fiber application with all routes registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "txenrich",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	app.Use(s.requestID, s.logRequests)

	app.Get("/health", s.handleHealth)
	app.Post("/enrich", s.handleEnrich)
	app.Post("/summary", s.handleSummary)
	app.Post("/compare", s.handleCompare)
	return app
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	app := s.App()
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(addr)
	}()
	s.log.Info().Str("addr", addr).Msg("server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info().Msg("shutting down server")
		return app.ShutdownWithTimeout(5 * time.Second)
	}
}

func (s *Server) requestID(c *fiber.Ctx) error {
	id := c.Get(fiber.HeaderXRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(fiber.HeaderXRequestID, id)
	c.Locals("request_id", id)
	return c.Next()
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	if err := c.Next(); err != nil {
		// Render the error here so the logged status is the one sent.
		if herr := c.App().ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}
	s.log.Info().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("duration", time.Since(start)).
		Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
		Msg("HTTP request")
	return nil
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleEnrich(c *fiber.Ctx) error {
	var req TransactionsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	rows, err := s.enrichRaw(req.Transactions)
	if err != nil {
		return err
	}
	return c.JSON(EnrichResponse{EnrichedTransactions: newEnrichedRows(rows)})
}

func (s *Server) handleSummary(c *fiber.Ctx) error {
	var req SummaryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	rows, err := s.enrichRaw(req.Transactions)
	if err != nil {
		return err
	}
	return c.JSON(SummaryResponse{
		EnrichedTransactions: newEnrichedRows(rows),
		Summary:              metrics.Summarize(enrich.Records(rows), s.pickTopN(req.TopN)),
	})
}

func (s *Server) handleCompare(c *fiber.Ctx) error {
	var req CompareRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	return c.JSON(gap.Compare(req.Baseline, req.Revised, s.pickTopN(req.TopN)))
}

func (s *Server) enrichRaw(raw []map[string]any) ([]model.EnrichedTransaction, error) {
	txns, err := ingest.FromRecords(raw)
	if err != nil {
		return nil, err
	}
	return s.enricher.EnrichTransactions(txns)
}

func (s *Server) pickTopN(n int) int {
	if n > 0 {
		return n
	}
	return s.topN
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var inv *enrich.InvalidInputError
	var sv *enrich.SchemaViolationError
	var fe *fiber.Error

	switch {
	case errors.As(err, &inv):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: enrich.ErrInvalidInput.Error(), Rows: inv.Rows})
	case errors.As(err, &sv):
		s.log.Error().Err(err).Msg("schema violation")
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	case errors.As(err, &fe):
		return c.Status(fe.Code).JSON(ErrorResponse{Error: fe.Message})
	default:
		s.log.Error().Err(err).Msg("unhandled error")
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "internal server error"})
	}
}
