package server

import (
	"net/http"

	"apartadmin/internal/imagehost"
	"apartadmin/internal/metrics"
	"apartadmin/internal/models"
	"apartadmin/internal/store"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("login")

	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if creds.Username == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	token, err := s.auth.Login(r.Context(), creds.Username, creds.Password)
	if err != nil {
		s.logger.Error().Err(err).Str("username", creds.Username).Msg("login failed")
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	s.sess.SetToken(token)

	// Warm the listing so the dashboard renders immediately after login.
	if err := s.listing.Load(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("initial listing load failed")
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged in"})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	metrics.IncHTTP("logout")
	s.sess.Invalidate()
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reload")
	if err := s.listing.Load(r.Context()); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "listing reloaded"})
}

func (s *Server) handleListApartments(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("apartments_list")
	if !s.listing.Loaded() {
		if err := s.listing.Load(r.Context()); err != nil {
			writeFailure(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cities": s.listing.ByCity(),
		"total":  len(s.listing.Apartments()),
	})
}

func (s *Server) handleSaveApartment(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("apartments_save")

	var draft models.Apartment
	if err := decodeBody(r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		draft.ID = id
	}

	msg, err := s.listing.SaveApartment(r.Context(), draft)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": msg,
		"cities":  s.listing.ByCity(),
	})
}

func (s *Server) handleDeleteApartment(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("apartments_delete")
	msg, err := s.listing.DeleteApartment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("apartments_reorder")

	var req struct {
		A string `json:"a"`
		B string `json:"b"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.listing.Swap(r.Context(), req.A, req.B)
	s.writeSwapResult(w, res, err)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("apartments_move")

	var req struct {
		Direction string `json:"direction"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dir := store.MoveDirection(req.Direction)
	if dir != store.MoveUp && dir != store.MoveDown {
		writeError(w, http.StatusBadRequest, "direction must be up or down")
		return
	}

	res, err := s.listing.Move(r.Context(), chi.URLParam(r, "id"), dir)
	s.writeSwapResult(w, res, err)
}

func (s *Server) writeSwapResult(w http.ResponseWriter, res store.SwapResult, err error) {
	if err != nil {
		// Partial failure is reported with the outcome so the SPA can
		// reconcile by reloading.
		if res.Outcome == store.SwapPartialFailure {
			writeJSON(w, http.StatusBadGateway, map[string]interface{}{
				"outcome":   res.Outcome,
				"failedIds": res.FailedIDs,
				"error":     err.Error(),
			})
			return
		}
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"outcome": res.Outcome,
		"message": res.Message,
		"cities":  s.listing.ByCity(),
	})
}

// handleUploadImages forwards a multipart batch to the image host and
// appends the returned URLs to the apartment's gallery.
func (s *Server) handleUploadImages(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("apartments_upload_images")
	if s.images == nil {
		writeError(w, http.StatusNotFound, "image uploads are not configured")
		return
	}

	apt, ok := s.listing.Apartment(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "apartment not found")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	headers := r.MultipartForm.File["images"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "no images in request")
		return
	}

	files := make([]imagehost.File, 0, len(headers))
	for _, h := range headers {
		src, err := h.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable image part")
			return
		}
		defer src.Close()
		files = append(files, imagehost.File{Name: h.Filename, Reader: src})
	}

	urls, err := s.images.Upload(r.Context(), files)
	if err != nil {
		s.logger.Error().Err(err).Str("id", apt.ID).Msg("image upload failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	apt.Images = append(apt.Images, urls...)
	msg, err := s.listing.SaveApartment(r.Context(), apt)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": msg,
		"images":  apt.Images,
	})
}

func (s *Server) handleListDiscounts(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("discounts_list")
	if !s.listing.Loaded() {
		if err := s.listing.Load(r.Context()); err != nil {
			writeFailure(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"discounts": s.listing.Discounts()})
}

func (s *Server) handleSaveDiscount(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("discounts_save")

	var draft models.Discount
	if err := decodeBody(r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := s.listing.SaveDiscount(r.Context(), draft)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   msg,
		"discounts": s.listing.Discounts(),
	})
}

func (s *Server) handleDeleteDiscount(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("discounts_delete")
	msg, err := s.listing.DeleteDiscount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func (s *Server) handleListAlerts(w http.ResponseWriter, _ *http.Request) {
	metrics.IncHTTP("alerts_list")
	resp := map[string]interface{}{"failedReservations": s.watcher.Current()}
	if err := s.watcher.LastError(); err != nil {
		resp["pollError"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRetryAlert(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("alerts_retry")
	if err := s.watcher.Retry(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "reservation sync retried"})
}

func (s *Server) handleResolveAlert(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("alerts_resolve")

	var req struct {
		Notes string `json:"notes"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.watcher.Resolve(r.Context(), chi.URLParam(r, "id"), req.Notes); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "reservation marked resolved"})
}

func (s *Server) handleListBlockedDates(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("blocked_dates_list")
	dates, err := s.dates.ListBlockedDates(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"blockedDates": dates})
}

func (s *Server) handleCreateBlockedDate(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("blocked_dates_create")

	var draft models.BlockedDate
	if err := decodeBody(r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	draft.ApartmentID = chi.URLParam(r, "id")
	if draft.EndDate.Before(draft.StartDate) {
		writeError(w, http.StatusBadRequest, "end date must not be before start date")
		return
	}

	created, err := s.dates.CreateBlockedDate(r.Context(), draft)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteBlockedDate(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("blocked_dates_delete")
	if err := s.dates.DeleteBlockedDate(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "blocked dates removed"})
}

func (s *Server) handleListPriceOverrides(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("price_overrides_list")
	overrides, err := s.dates.ListPriceOverrides(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"priceOverrides": overrides})
}

func (s *Server) handleCreatePriceOverride(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("price_overrides_create")

	var draft models.PriceOverride
	if err := decodeBody(r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	draft.ApartmentID = chi.URLParam(r, "id")
	if draft.Price < 0 {
		writeError(w, http.StatusBadRequest, "override price must not be negative")
		return
	}
	if draft.EndDate.Before(draft.StartDate) {
		writeError(w, http.StatusBadRequest, "end date must not be before start date")
		return
	}

	created, err := s.dates.CreatePriceOverride(r.Context(), draft)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeletePriceOverride(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("price_overrides_delete")
	if err := s.dates.DeletePriceOverride(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "price override removed"})
}

func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("audit_list")
	if s.trail == nil {
		writeError(w, http.StatusNotFound, "audit trail is disabled")
		return
	}
	entries, err := s.trail.List(r.Context(), 100)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}
