package server

import (
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/mayank0274/mock-interview-with-ai/internal/workflow"
)

// maxAudioChunkBytes bounds one uploaded audio chunk.
const maxAudioChunkBytes = 16 << 20

// handleUploadAudio accepts one recorded audio chunk, stores it and kicks
// off the asynchronous transcription pipeline.
func (s *Server) handleUploadAudio(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAudioChunkBytes); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	interviewID := r.FormValue("interview_id")
	if interviewID == "" {
		http.Error(w, "interview_id is required", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAudioChunkBytes))
	if err != nil {
		http.Error(w, "Failed to read uploaded file", http.StatusBadRequest)
		return
	}

	chunk, err := s.chunks.Next(r.Context(), interviewID)
	if err != nil {
		s.logger.Error("failed to advance chunk sequence", zap.Error(err))
		http.Error(w, "Something went wrong while uploading audio", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("%d.webm", chunk)
	path := fmt.Sprintf("audio/%s/%s", interviewID, filename)

	if _, err := s.storage.Upload(r.Context(), path, data, "audio/webm"); err != nil {
		s.logger.Error("failed to upload audio chunk",
			zap.String("path", path), zap.Error(err))
		http.Error(w, "Something went wrong while uploading audio", http.StatusInternalServerError)
		return
	}

	evt, err := workflow.NewEvent(workflow.EventAudioUploaded, workflow.AudioUploaded{
		AudioPath:   path,
		InterviewID: interviewID,
		ChunkNumber: chunk,
		Filename:    filename,
	})
	if err == nil {
		err = s.events.Send(r.Context(), evt)
	}
	if err != nil {
		s.logger.Error("failed to emit audio uploaded event",
			zap.String("path", path), zap.Error(err))
		http.Error(w, "Something went wrong while uploading audio", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		AudioPath:   path,
		ChunkNumber: chunk,
	})
}

// handleSignedUploadURL issues a signed URL for direct client upload of a
// named chunk.
func (s *Server) handleSignedUploadURL(w http.ResponseWriter, r *http.Request) {
	interviewID := r.PathValue("interview_id")
	chunk := r.PathValue("chunk")

	path := fmt.Sprintf("audio/%s/%s.webm", interviewID, chunk)
	signedURL, err := s.storage.CreateSignedUploadURL(r.Context(), path)
	if err != nil {
		s.logger.Error("failed to create signed upload url",
			zap.String("path", path), zap.Error(err))
		http.Error(w, "Something went wrong while generating signed upload url", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": signedURL})
}
