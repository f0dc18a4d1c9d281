package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"paghetta/internal/core"
)

type transactionRequest struct {
	Date     string `json:"date"`
	Amount   string `json:"amount"`
	Note     string `json:"note"`
	Category string `json:"category"`
}

type recordView struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
	Note        string `json:"note"`
	Category    string `json:"category"`
}

func viewOf(rec core.Record) recordView {
	return recordView{
		ID:          rec.ID,
		Date:        rec.Date.Format(dateLayout),
		Amount:      rec.Amount.String(),
		AmountCents: rec.Amount.Cents,
		Note:        rec.Note,
		Category:    rec.Category,
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid date, want YYYY-MM-DD")
		return
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	dependent, err := s.store.GetDependentAccount(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Dependent account lookup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	rec, err := s.ledger.RecordTransaction(r.Context(), dependent.ID, date,
		core.Money{Cents: cents}, sanitizeInput(req.Note), sanitizeInput(req.Category))
	switch {
	case err == nil:
		s.invalidateViews()
		respondJSON(w, http.StatusCreated, viewOf(rec))
	case errors.Is(err, core.ErrDuplicate):
		respondError(w, http.StatusConflict, "duplicate transaction for that day")
	case errors.Is(err, core.ErrEmptyNote), errors.Is(err, core.ErrInvalidDate), errors.Is(err, core.ErrInvalidAmount):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Transaction create failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	switch err := s.ledger.DeleteRecord(r.Context(), id); {
	case err == nil:
		s.invalidateViews()
		respondJSON(w, http.StatusOK, map[string]any{"deleted": id})
	case errors.Is(err, core.ErrNotFound):
		respondError(w, http.StatusNotFound, "transaction not found")
	default:
		slog.ErrorContext(r.Context(), "Transaction delete failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

const maxImportBytes = 5 << 20

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing csv file field 'file'")
		return
	}
	defer file.Close()

	dependent, err := s.store.GetDependentAccount(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Dependent account lookup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	summary, err := s.ledger.ImportCSV(r.Context(), dependent.ID, file)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if summary.Imported > 0 {
		s.invalidateViews()
	}
	respondJSON(w, http.StatusOK, summary)
}

type rateRequest struct {
	Rate string `json:"rate"`
}

func (s *Server) handleUpdateRate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Rate)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid rate")
		return
	}

	dependent, err := s.store.GetDependentAccount(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Dependent account lookup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	switch err := s.ledger.UpdateWeeklyRate(r.Context(), dependent.ID, core.Money{Cents: cents}); {
	case err == nil:
		s.invalidateViews()
		respondJSON(w, http.StatusOK, map[string]string{"weekly_rate": core.Money{Cents: cents}.String()})
	case errors.Is(err, core.ErrInvalidRate):
		respondError(w, http.StatusUnprocessableEntity, "rate must not be negative")
	default:
		slog.ErrorContext(r.Context(), "Rate update failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
