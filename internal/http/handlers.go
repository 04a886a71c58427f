package http

import (
	"errors"
	"net/http"

	"receipts/internal/core"
	"receipts/internal/ledger"
	"receipts/internal/log"
)

type nextNumberResponse struct {
	ReceiptNo string `json:"receiptNo"`
}

type wipeResponse struct {
	Deleted int `json:"deleted"`
}

func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(s.ledger.List()).Write(w)
}

func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	rec, err := s.ledger.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().JSON(rec).Write(w)
}

func (s *Server) handleNextNumber(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(nextNumberResponse{ReceiptNo: s.ledger.NextReceiptNo()}).Write(w)
}

// handleCreateReceipt decodes onto the entry form defaults, so an omitted
// date, quantity or status takes today, one and Pending.
func (s *Server) handleCreateReceipt(w http.ResponseWriter, r *http.Request) {
	in := core.NewInput()
	in.Date = s.now().Format(core.DateLayout)
	if !s.decodeInput(w, r, &in) {
		return
	}

	rec, err := s.ledger.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/receipts/"+rec.ID).
		JSON(rec).
		Write(w)
}

// handleUpdateReceipt decodes onto the current values, so fields missing
// from the body are left unchanged.
func (s *Server) handleUpdateReceipt(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	current, err := s.ledger.Get(id)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}

	in := current.Input()
	if !s.decodeInput(w, r, &in) {
		return
	}

	rec, err := s.ledger.Update(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().JSON(rec).Write(w)
}

func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !confirmed(r) {
		ConfirmationRequired("delete").Write(w)
		return
	}
	if err := s.ledger.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Receipt deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldReceiptID, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWipe(w http.ResponseWriter, r *http.Request) {
	if !confirmed(r) {
		ConfirmationRequired("wipe").Write(w)
		return
	}
	n := len(s.ledger.List())
	if err := s.ledger.Wipe(r.Context()); err != nil {
		s.writeError(w, r, log.OpReplace, err)
		return
	}
	log.FromContext(r.Context()).WarnContext(r.Context(), "Ledger wiped",
		log.FieldOperation, log.OpReplace,
		log.FieldCount, n)
	NewJSONResponse().JSON(wipeResponse{Deleted: n}).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(s.ledger.Summary()).Write(w)
}

// handleDashboard serves the aggregates memoized per ledger revision. The
// revision only grows, so a value computed after a concurrent mutation and
// stored under the older key is never served for a newer revision.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d := s.dashboard.Get(s.ledger.Revision(), func() core.Dashboard {
		d, _ := s.ledger.Dashboard()
		return d
	})
	NewJSONResponse().JSON(d).Write(w)
}

// decodeInput decodes and validates a receipt body onto in. It writes the
// error response and returns false on failure.
func (s *Server) decodeInput(w http.ResponseWriter, r *http.Request, in *core.ReceiptInput) bool {
	if err := decodeJSON(w, r, in); err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			ErrorResponse(http.StatusRequestEntityTooLarge, err.Error()).Write(w)
		case isClientError(err):
			ValidationError(err.Error(), nil).Write(w)
		default:
			BadRequestError("invalid JSON body: " + err.Error()).Write(w)
		}
		return false
	}
	if err := s.validate.Struct(in); err != nil {
		if details, ok := validationDetails(err); ok {
			ValidationError("invalid receipt", details).Write(w)
			return false
		}
		s.writeError(w, r, log.OpValidate, err)
		return false
	}
	return true
}

// writeError maps ledger errors to status codes and logs server faults.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, ledger.ErrReceiptNotFound):
		NotFoundError("receipt not found").Write(w)
	case isClientError(err):
		ValidationError(err.Error(), nil).Write(w)
	default:
		log.FromContext(ctx).ErrorContext(ctx, "Ledger operation failed",
			log.FieldOperation, op,
			log.FieldErrorType, log.ErrorTypeStorage,
			log.FieldError, err)
		InternalServerError("ledger operation failed").Write(w)
	}
}
