package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"paghetta/internal/core"
	applog "paghetta/internal/log"
)

type dashboardResponse struct {
	Username     string       `json:"username"`
	WeeklyRate   string       `json:"weekly_rate"`
	PaidThrough  string       `json:"paid_through,omitempty"`
	Balance      string       `json:"balance"`
	BalanceCents int64        `json:"balance_cents"`
	Months       []string     `json:"months"`
	Month        string       `json:"month,omitempty"`
	Records      []recordView `json:"records"`
}

const defaultDashboardWindow = 90 * 24 * time.Hour

// handleDashboard settles due allowance first, then serves the balance,
// month navigation and the filtered record list. Without a month filter
// the last 90 days are shown.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dependent, err := s.store.GetDependentAccount(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Dependent account lookup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.settleDependent(ctx, dependent.ID)

	month := strings.TrimSpace(r.URL.Query().Get("month"))
	var monthStart time.Time
	if month != "" {
		monthStart, err = time.Parse("2006-01", month)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, "invalid month, want YYYY-MM")
			return
		}
	}

	cacheKey := "last90"
	if month != "" {
		cacheKey = "month:" + month
	}
	if cached, found := s.dashCache.Get(cacheKey); found {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	// Re-read after settlement so the watermark is current.
	dependent, err = s.store.GetDependentAccount(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Dependent account lookup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	records, err := s.store.ListRecords(ctx, dependent.ID)
	if err != nil {
		s.logs.LogError(ctx, "Record listing failed", err, applog.ComponentHTTP, applog.OpList,
			applog.NewFields().WithClientIP(clientIP(r)))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	var display []core.Record
	if month != "" {
		display = core.FilterMonth(records, monthStart.Year(), monthStart.Month())
	} else {
		display = core.FilterRange(records, time.Now().Add(-defaultDashboardWindow), time.Time{})
	}
	core.SortByDateDesc(display)

	resp := dashboardResponse{
		Username:     dependent.Username,
		WeeklyRate:   dependent.WeeklyRate.String(),
		Balance:      core.Balance(records).String(),
		BalanceCents: core.Balance(records).Cents,
		Months:       core.AvailableMonths(records),
		Month:        month,
		Records:      make([]recordView, 0, len(display)),
	}
	if !dependent.PaidThrough.IsZero() {
		resp.PaidThrough = dependent.PaidThrough.Format(dateLayout)
	}
	for _, rec := range display {
		resp.Records = append(resp.Records, viewOf(rec))
	}

	s.dashCache.Set(cacheKey, resp)
	respondJSON(w, http.StatusOK, resp)
}

type categoryView struct {
	Name        string `json:"name"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
}

type analyticsResponse struct {
	From        string         `json:"from,omitempty"`
	To          string         `json:"to,omitempty"`
	Earned      string         `json:"earned"`
	EarnedCents int64          `json:"earned_cents"`
	Spent       string         `json:"spent"`
	SpentCents  int64          `json:"spent_cents"`
	Earnings    []categoryView `json:"earnings"`
	Spending    []categoryView `json:"spending"`
}

// handleAnalytics serves earnings and spending grouped by normalized
// category over an optional date range. The end date is inclusive
// through the whole day.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var from, to time.Time
	var err error
	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		if from, err = parseDate(v); err != nil {
			respondError(w, http.StatusUnprocessableEntity, "invalid from date, want YYYY-MM-DD")
			return
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		if to, err = parseDate(v); err != nil {
			respondError(w, http.StatusUnprocessableEntity, "invalid to date, want YYYY-MM-DD")
			return
		}
	}

	dependent, err := s.store.GetDependentAccount(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Dependent account lookup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.settleDependent(ctx, dependent.ID)

	cacheKey := r.URL.Query().Get("from") + "|" + r.URL.Query().Get("to")
	if cached, found := s.analyticsCache.Get(cacheKey); found {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	records, err := s.store.ListRecordsBetween(ctx, dependent.ID, from, to)
	if err != nil {
		s.logs.LogError(ctx, "Record listing failed", err, applog.ComponentHTTP, applog.OpList,
			applog.NewFields().WithClientIP(clientIP(r)))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	breakdown := core.Summarize(records)
	resp := analyticsResponse{
		Earned:      breakdown.Earned.String(),
		EarnedCents: breakdown.Earned.Cents,
		Spent:       breakdown.Spent.String(),
		SpentCents:  breakdown.Spent.Cents,
		Earnings:    make([]categoryView, 0, len(breakdown.Earnings)),
		Spending:    make([]categoryView, 0, len(breakdown.Spending)),
	}
	if !from.IsZero() {
		resp.From = from.Format(dateLayout)
	}
	if !to.IsZero() {
		resp.To = to.Format(dateLayout)
	}
	for _, c := range breakdown.Earnings {
		resp.Earnings = append(resp.Earnings, categoryView{Name: c.Name, Amount: c.Amount.String(), AmountCents: c.Amount.Cents})
	}
	for _, c := range breakdown.Spending {
		resp.Spending = append(resp.Spending, categoryView{Name: c.Name, Amount: c.Amount.String(), AmountCents: c.Amount.Cents})
	}

	s.analyticsCache.Set(cacheKey, resp)
	respondJSON(w, http.StatusOK, resp)
}
