package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotel_occupancy/internal/adapters/observability"
	"hotel_occupancy/internal/app"
	"hotel_occupancy/internal/domain"
)

type Handlers struct {
	Bookings *app.BookingService
	Reports  *app.ReportService
}

type problem struct {
	Type                  string   `json:"type"`
	Title                 string   `json:"title"`
	Status                int      `json:"status"`
	Detail                string   `json:"detail,omitempty"`
	ConflictingBookingIDs []string `json:"conflicting_booking_ids,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/occupancy", h.getOccupancy)
		r.Get("/kpis", h.getKPIs)
		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", h.listBookings)
			r.Post("/", h.createBooking)
			r.Post("/conflicts", h.checkConflict)
			r.Get("/{id}", h.getBooking)
			r.Patch("/{id}/status", h.updateStatus)
			r.Patch("/{id}/dates", h.amendDates)
		})
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeProblemBody(w, problem{Type: "about:blank", Title: title, Status: status, Detail: detail})
}

func writeProblemBody(w http.ResponseWriter, p problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain errors onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ire *domain.InvalidRangeError
		ite *domain.InvalidTransitionError
		ce  *domain.ConflictError
	)
	switch {
	case errors.As(err, &ce):
		writeProblemBody(w, problem{
			Type: "about:blank", Title: "Booking Conflict", Status: http.StatusConflict,
			Detail: err.Error(), ConflictingBookingIDs: ce.BookingIDs,
		})
	case errors.As(err, &ite):
		writeProblem(w, http.StatusConflict, "Invalid Status Transition", err.Error())
	case errors.As(err, &ire):
		writeProblem(w, http.StatusBadRequest, "Invalid Date Range", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "booking not found")
	case errors.Is(err, domain.ErrUnknownRoomType):
		writeProblem(w, http.StatusBadRequest, "Unknown Room Type", err.Error())
	case errors.Is(err, domain.ErrInvalidBooking):
		writeProblem(w, http.StatusBadRequest, "Invalid Booking", err.Error())
	default:
		log.Error().Err(err).Str("error_type", observability.LabelErr(err)).Str("path", r.URL.Path).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCacheable answers 304 when the client already holds this version.
func writeCacheable(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return false
	}
	return true
}

// maxRangeDays bounds report and listing windows to roughly ten years.
const maxRangeDays = 3660

// queryRange reads the mandatory from/to query parameters.
func queryRange(r *http.Request) (domain.DateRange, error) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from == "" || to == "" {
		return domain.DateRange{}, fmt.Errorf("%w: from and to are required", domain.ErrInvalidBooking)
	}
	start, err := domain.ParseDate(from)
	if err != nil {
		return domain.DateRange{}, fmt.Errorf("%w: from must be YYYY-MM-DD", domain.ErrInvalidBooking)
	}
	end, err := domain.ParseDate(to)
	if err != nil {
		return domain.DateRange{}, fmt.Errorf("%w: to must be YYYY-MM-DD", domain.ErrInvalidBooking)
	}
	rg, err := domain.NewDateRange(start, end)
	if err != nil {
		return domain.DateRange{}, err
	}
	if rg.Days() > maxRangeDays {
		return domain.DateRange{}, fmt.Errorf("%w: range exceeds %d days", domain.ErrInvalidBooking, maxRangeDays)
	}
	return rg, nil
}

func (h *Handlers) getOccupancy(w http.ResponseWriter, r *http.Request) {
	rt := r.URL.Query().Get("room_type")
	if rt == "" {
		writeProblem(w, http.StatusBadRequest, "Missing room_type", "room_type is required")
		return
	}
	rg, err := queryRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := h.Reports.Occupancy(r.Context(), rt, rg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, toOccupancyDTO(rep))
}

func (h *Handlers) getKPIs(w http.ResponseWriter, r *http.Request) {
	rg, err := queryRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := h.Reports.KPIs(r.Context(), rg, r.URL.Query().Get("room_type"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, toKPIDTO(rep))
}

func (h *Handlers) listBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f domain.BookingFilter
	if rt := q.Get("room_type"); rt != "" {
		f.RoomType = &rt
	}
	if q.Get("from") != "" || q.Get("to") != "" {
		rg, err := queryRange(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		f.Range = &rg
	}
	if ss := q.Get("status"); ss != "" {
		for _, s := range strings.Split(ss, ",") {
			st, err := domain.ParseStatus(s)
			if err != nil {
				writeError(w, r, err)
				return
			}
			f.Statuses = append(f.Statuses, st)
		}
	}

	bs, err := h.Bookings.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page := bookingsPage{Items: make([]bookingDTO, len(bs)), Count: len(bs)}
	for i, b := range bs {
		page.Items[i] = toBookingDTO(b)
	}
	writeCacheable(w, r, page)
}

func (h *Handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.Bookings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, toBookingDTO(b))
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	cmd, err := req.toCommand()
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.Bookings.Create(r.Context(), cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/bookings/"+b.ID)
	writeJSON(w, http.StatusCreated, toBookingDTO(b))
}

func (h *Handlers) checkConflict(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	cmd, err := req.toCommand()
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Bookings.CheckConflict(r.Context(), cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toConflictDTO(res))
}

func (h *Handlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := domain.ParseStatus(req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.Bookings.UpdateStatus(r.Context(), chi.URLParam(r, "id"), st, req.AllowOverbooking)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingDTO(b))
}

func (h *Handlers) amendDates(w http.ResponseWriter, r *http.Request) {
	var req datesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	in, err := domain.ParseDate(req.CheckIn)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Booking", "check_in must be YYYY-MM-DD")
		return
	}
	out, err := domain.ParseDate(req.CheckOut)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Booking", "check_out must be YYYY-MM-DD")
		return
	}
	b, err := h.Bookings.AmendDates(r.Context(), chi.URLParam(r, "id"), domain.DateRange{Start: in, End: out}, req.AllowOverbooking)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingDTO(b))
}
