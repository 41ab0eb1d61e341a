package api

import (
	"time"

	"github.com/karthik2365/data-cleaning/internal/domain"
)

type fieldDTO struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type statisticsDTO struct {
	TotalRows     int            `json:"total_rows"`
	TotalColumns  int            `json:"total_columns"`
	NullCounts    map[string]int `json:"null_counts"`
	DuplicateRows int            `json:"duplicate_rows"`
}

type historyEntryDTO struct {
	Code       string    `json:"code"`
	Provenance string    `json:"provenance"`
	AppliedAt  time.Time `json:"applied_at"`
	ElapsedMs  int64     `json:"elapsed_ms"`
}

type previewResponse struct {
	SessionID  string            `json:"session_id"`
	State      string            `json:"state"`
	Schema     []fieldDTO        `json:"schema"`
	Statistics statisticsDTO     `json:"statistics"`
	SampleRows [][]any           `json:"sample_rows"`
	History    []historyEntryDTO `json:"history"`
}

type generateRequest struct {
	Instruction string `json:"instruction"`
}

type generateResponse struct {
	Code       string `json:"code"`
	Provenance string `json:"provenance"`
}

type approveRequest struct {
	Code string `json:"code"`
}

type approveResponse struct {
	State string `json:"state"`
}

type executeRequest struct {
	Code         string `json:"code"`
	OutputFormat string `json:"output_format"`
}

type failureDTO struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

type executionResponse struct {
	Outcome       string      `json:"outcome"`
	Columns       []string    `json:"columns,omitempty"`
	Rows          [][]any     `json:"rows,omitempty"`
	Summary       any         `json:"summary,omitempty"`
	RowCount      int         `json:"row_count"`
	ColumnCount   int         `json:"column_count"`
	TotalRows     int         `json:"total_rows"`
	ProcessedRows int         `json:"processed_rows"`
	ElapsedMs     int64       `json:"elapsed_ms"`
	Failure       *failureDTO `json:"failure,omitempty"`
}

type recipeDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type auditEntryDTO struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Outcome    string    `json:"outcome"`
	Detail     *string   `json:"detail,omitempty"`
	DurationMs *int64    `json:"duration_ms,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func previewToAPI(p *domain.Preview) previewResponse {
	schema := make([]fieldDTO, len(p.Schema))
	for i, f := range p.Schema {
		schema[i] = fieldDTO{Name: f.Name, Type: string(f.Type)}
	}
	history := make([]historyEntryDTO, len(p.History))
	for i, h := range p.History {
		history[i] = historyEntryDTO{
			Code:       h.Code,
			Provenance: string(h.Provenance),
			AppliedAt:  h.AppliedAt,
			ElapsedMs:  h.Elapsed.Milliseconds(),
		}
	}
	return previewResponse{
		SessionID:  p.SessionID,
		State:      string(p.State),
		Schema:     schema,
		Statistics: statisticsToAPI(p.Stats),
		SampleRows: p.SampleRows,
		History:    history,
	}
}

func statisticsToAPI(s domain.Statistics) statisticsDTO {
	return statisticsDTO{
		TotalRows:     s.TotalRows,
		TotalColumns:  s.TotalColumns,
		NullCounts:    s.NullCounts,
		DuplicateRows: s.DuplicateRows,
	}
}

func executionToAPI(r *domain.ExecutionResult) executionResponse {
	resp := executionResponse{
		Outcome:       string(r.Outcome),
		Summary:       r.Summary,
		RowCount:      r.RowCount,
		ColumnCount:   r.ColumnCount,
		TotalRows:     r.TotalRows,
		ProcessedRows: r.ProcessedRows,
		ElapsedMs:     r.Elapsed.Milliseconds(),
	}
	if r.Table != nil {
		resp.Columns = r.Table.ColumnNames()
		rows := make([][]any, r.Table.NumRows())
		for i := range rows {
			rows[i] = r.Table.Row(i)
		}
		resp.Rows = rows
	}
	if r.Failure != nil {
		resp.Failure = &failureDTO{Kind: r.Failure.Kind, Detail: r.Failure.Detail}
	}
	return resp
}

func auditEntryToAPI(e domain.AuditEntry) auditEntryDTO {
	return auditEntryDTO{
		ID:         e.ID,
		Action:     e.Action,
		Outcome:    e.Outcome,
		Detail:     e.Detail,
		DurationMs: e.DurationMs,
		CreatedAt:  e.CreatedAt,
	}
}
