package http

import (
	"bytes"
	"errors"
	"net/http"

	"receipts/internal/backup"
	"receipts/internal/export"
	"receipts/internal/log"
)

type importResponse struct {
	Records int  `json:"records"`
	Applied bool `json:"applied"`
}

// handleBackupDownload serves the ledger as a backup file. An empty ledger
// has nothing to back up and is refused.
func (s *Server) handleBackupDownload(w http.ResponseWriter, r *http.Request) {
	data, err := backup.Export(s.ledger.List())
	if err != nil {
		if errors.Is(err, backup.ErrEmptyLedger) {
			ValidationError(err.Error(), nil).Write(w)
			return
		}
		s.writeError(w, r, log.OpExport, err)
		return
	}
	NewJSONResponse().
		Bytes(contentTypeJSON, data).
		Attachment(backup.Filename(s.now())).
		Write(w)
}

// handleBackupImport parses a backup file. Without confirm=true it only
// reports how many records would replace the ledger.
func (s *Server) handleBackupImport(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			ErrorResponse(http.StatusRequestEntityTooLarge, err.Error()).Write(w)
			return
		}
		BadRequestError(err.Error()).Write(w)
		return
	}

	records, err := backup.Parse(data)
	if err != nil {
		ValidationError(err.Error(), nil).Write(w)
		return
	}
	if !confirmed(r) {
		NewJSONResponse().JSON(importResponse{Records: len(records)}).Write(w)
		return
	}

	if err := s.ledger.Import(r.Context(), records); err != nil {
		s.writeError(w, r, log.OpImport, err)
		return
	}
	log.FromContext(r.Context()).WarnContext(r.Context(), "Ledger replaced from backup",
		log.FieldOperation, log.OpImport,
		log.FieldCount, len(records))
	NewJSONResponse().JSON(importResponse{Records: len(records), Applied: true}).Write(w)
}

func (s *Server) handleBackupSchema(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(backup.Schema()).Write(w)
}

// handleExportXLSX renders the workbook in memory so a failure can still
// be reported with a proper status.
func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, s.ledger.List()); err != nil {
		s.writeError(w, r, log.OpExport, err)
		return
	}
	NewJSONResponse().
		Bytes(export.ContentType, buf.Bytes()).
		Attachment(export.Filename(s.now())).
		Write(w)
}
