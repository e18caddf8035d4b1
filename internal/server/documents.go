package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/research-hub/internal/model"
)

// maxDocumentSize caps uploads at 10 MiB.
const maxDocumentSize = 10 << 20

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	company := s.ownedCompany(w, r)
	if company == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentSize)
	if err := r.ParseMultipartForm(maxDocumentSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form or file too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	doc, err := s.store.CreateDocument(r.Context(), model.Document{
		CompanyID: company.ID,
		Filename:  header.Filename,
		Filesize:  int64(len(data)),
		MimeType:  header.Header.Get("Content-Type"),
		Data:      data,
	})
	if err != nil {
		zap.L().Error("upload document failed", zap.String("company_id", company.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store document")
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	company := s.ownedCompany(w, r)
	if company == nil {
		return
	}

	docs, err := s.store.ListDocuments(r.Context(), company.ID)
	if err != nil {
		zap.L().Error("list documents failed", zap.String("company_id", company.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	if docs == nil {
		docs = []model.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	company := s.ownedCompany(w, r)
	if company == nil {
		return
	}

	doc, err := s.store.GetDocument(r.Context(), company.ID, chi.URLParam(r, "documentID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}

	mime := doc.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	if _, err := w.Write(doc.Data); err != nil {
		zap.L().Error("write document failed", zap.String("document_id", doc.ID), zap.Error(err))
	}
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	company := s.ownedCompany(w, r)
	if company == nil {
		return
	}

	if err := s.store.DeleteDocument(r.Context(), company.ID, chi.URLParam(r, "documentID")); err != nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
