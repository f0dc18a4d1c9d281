package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"paghetta/internal/auth"
	"paghetta/internal/core"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Username string    `json:"username"`
	Role     core.Role `json:"role"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := s.store.GetAccountByUsername(r.Context(), sanitizeInput(req.Username))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Same response as a wrong password, no username probing.
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		slog.ErrorContext(r.Context(), "Login lookup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := auth.VerifyPassword(req.Password, account.PasswordHash); err != nil {
		slog.WarnContext(r.Context(), "Failed login attempt", "username", account.Username)
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expires, err := s.tokens.Generate(account.ID, account.Role)
	if err != nil {
		slog.ErrorContext(r.Context(), "Token generation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	slog.InfoContext(r.Context(), "Login succeeded", "username", account.Username, "role", account.Role)
	respondJSON(w, http.StatusOK, loginResponse{Username: account.Username, Role: account.Role})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// requireAuth validates the session cookie and stores the claims in the
// request context. Missing or bad sessions get 401.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		claims, err := s.tokens.Parse(cookie.Value)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "session expired or invalid")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// requireGuardian additionally rejects authenticated non-guardians with
// 403, keeping the denial distinct from a missing session.
func (s *Server) requireGuardian(next http.HandlerFunc) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil || claims.Role != core.RoleGuardian {
			respondError(w, http.StatusForbidden, "guardian access required")
			return
		}
		next(w, r)
	})
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// settleDependent runs the allowance settlement before a read so views
// always include accruals due as of now.
func (s *Server) settleDependent(ctx context.Context, accountID int64) int {
	emitted, err := s.settler.Settle(ctx, accountID, time.Now())
	if err != nil {
		// A failed settlement still leaves a consistent ledger; serve it.
		slog.ErrorContext(ctx, "Allowance settlement failed", "account_id", accountID, "error", err)
		return 0
	}
	if emitted > 0 {
		s.invalidateViews()
	}
	return emitted
}
