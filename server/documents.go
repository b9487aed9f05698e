package server

import (
	"encoding/json"
	"io"
	"net/http"
)

// maxUploadBytes bounds document uploads.
const maxUploadBytes = 10 << 20

type textUploadRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

type uploadResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// handleUploadText ingests raw text into the knowledge base.
func (s *Server) handleUploadText(w http.ResponseWriter, r *http.Request) {
	var req textUploadRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, uploadResponse{Message: "invalid request body"})
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, uploadResponse{Message: "text is required"})
		return
	}
	if req.Source == "" {
		req.Source = "upload"
	}

	chunks, err := s.ingester.IngestText(r.Context(), req.Text, req.Source)
	if err != nil {
		s.logger.Error("documents.upload_text_failed", "source", req.Source, "error", err)
		writeJSON(w, http.StatusInternalServerError, uploadResponse{Message: "error uploading text"})
		return
	}
	s.logger.Info("documents.text_uploaded", "source", req.Source, "chunks", chunks)
	writeJSON(w, http.StatusOK, uploadResponse{
		Message: "Text uploaded and indexed successfully from: " + req.Source,
		Success: true,
	})
}

// handleUploadFile ingests one plain-text file from a multipart form.
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, uploadResponse{Message: "invalid multipart form"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, uploadResponse{Message: "file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, uploadResponse{Message: "error reading upload"})
		return
	}
	if _, err := s.ingester.IngestText(r.Context(), string(data), header.Filename); err != nil {
		s.logger.Error("documents.upload_failed", "file", header.Filename, "error", err)
		writeJSON(w, http.StatusInternalServerError, uploadResponse{Message: "error uploading document"})
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		Message: "Document uploaded and indexed successfully: " + header.Filename,
		Success: true,
	})
}
