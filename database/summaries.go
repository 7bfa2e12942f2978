package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/cognify/helper"
	"github.com/siherrmann/cognify/model"
	loadSql "github.com/siherrmann/cognify/sql"
)

// SummariesDBHandlerFunctions defines the interface for Summaries database operations.
type SummariesDBHandlerFunctions interface {
	InsertSummary(summary *model.Summary) error
	InsertSummaryTx(tx *sql.Tx, summary *model.Summary) error
	SelectSummaryForChunk(chunkRID uuid.UUID) (*model.Summary, error)
	SweepOrphanSummaries() (int, error)
	DeleteSummary(id uuid.UUID) error
}

// SummariesDBHandler handles summary-related database operations
type SummariesDBHandler struct {
	db *helper.Database
}

// NewSummariesDBHandler creates a new summaries database handler.
// It initializes the database connection and loads summary-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewSummariesDBHandler(db *helper.Database, force bool) (*SummariesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	summariesDbHandler := &SummariesDBHandler{
		db: db,
	}

	err := loadSql.LoadSummariesSql(summariesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load summaries sql", err)
	}

	err = summariesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized SummariesDBHandler")

	return summariesDbHandler, nil
}

// CreateTable creates the 'summaries' table in the database.
// If the table already exists, it does not create it again.
func (h *SummariesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_summaries();`)
	if err != nil {
		log.Panicf("error initializing summaries table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table summaries")

	return nil
}

// InsertSummary inserts a new summary
func (h *SummariesDBHandler) InsertSummary(summary *model.Summary) error {
	return h.insertSummary(h.db.Instance, summary)
}

// InsertSummaryTx is InsertSummary inside a caller-managed transaction.
func (h *SummariesDBHandler) InsertSummaryTx(tx *sql.Tx, summary *model.Summary) error {
	return h.insertSummary(tx, summary)
}

func (h *SummariesDBHandler) insertSummary(q querier, summary *model.Summary) error {
	row := q.QueryRow(
		`SELECT * FROM insert_summary($1)`,
		summary.Content,
	)

	err := row.Scan(
		&summary.ID,
		&summary.Content,
		&summary.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}
	return nil
}

// SelectSummaryForChunk retrieves the newest summary attached to a chunk
// via a has_summary edge.
func (h *SummariesDBHandler) SelectSummaryForChunk(chunkRID uuid.UUID) (*model.Summary, error) {
	summary := &model.Summary{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_summary_for_chunk($1)`,
		chunkRID,
	)

	err := row.Scan(
		&summary.ID,
		&summary.Content,
		&summary.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return summary, nil
}

// SweepOrphanSummaries deletes summaries without an incoming has_summary edge
// and returns the number of rows removed.
func (h *SummariesDBHandler) SweepOrphanSummaries() (int, error) {
	var swept int
	err := h.db.Instance.QueryRow(`SELECT sweep_orphan_summaries()`).Scan(&swept)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return swept, nil
}

// DeleteSummary deletes a summary by ID
func (h *SummariesDBHandler) DeleteSummary(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_summary($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
