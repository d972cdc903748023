package httpapi

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/queryhub-labs/queryhub/internal/core/domain"
	"github.com/queryhub-labs/queryhub/internal/logger"
)

// askRequest is the body of POST /api/v1/ask.
type askRequest struct {
	Question   string `json:"question" binding:"required"`
	DocumentID string `json:"document_id" binding:"required"`
	TopK       int    `json:"top_k"`
}

// contextResponse is one retrieved passage in an ask response.
type contextResponse struct {
	Score      float32 `json:"score"`
	Text       string  `json:"text"`
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
}

// handleHealth reports liveness.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleUpload accepts a multipart file, registers the document and
// starts background ingestion. It answers before processing finishes;
// clients poll the status endpoint.
func (s *Server) handleUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}

	tmp, err := os.CreateTemp("", "queryhub-upload-*"+filepath.Ext(file.Filename))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "allocating temp file"})
		return
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := c.SaveUploadedFile(file, tmpPath); err != nil {
		os.Remove(tmpPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storing upload"})
		return
	}

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(file.Filename))
	}

	// The blob key carries its own uuid so archived files never collide
	// on filename.
	blobKey := fmt.Sprintf("uploads/%s%s", uuid.New().String(), filepath.Ext(file.Filename))

	doc, err := s.documents.Register(c.Request.Context(),
		file.Filename, blobKey, contentType)
	if err != nil {
		os.Remove(tmpPath)
		if errors.Is(err, domain.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registering document"})
		return
	}

	s.ingestion.Start(doc.ID, tmpPath)
	logger.Info("accepted upload %s as document %s", file.Filename, doc.ID)

	c.JSON(http.StatusAccepted, gin.H{
		"document_id": doc.ID,
		"filename":    doc.Filename,
	})
}

// handleListDocuments returns all registered documents, newest first.
func (s *Server) handleListDocuments(c *gin.Context) {
	docs, err := s.documents.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing documents"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// handleStatus reports the latest processing status of a document.
func (s *Server) handleStatus(c *gin.Context) {
	info, err := s.documents.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resolving status"})
		return
	}
	c.JSON(http.StatusOK, info)
}

// handleDelete removes a document and all derived data.
func (s *Server) handleDelete(c *gin.Context) {
	err := s.documents.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "deleting document"})
		return
	}
	c.Status(http.StatusNoContent)
}

// handleAsk retrieves context for the question and, when a completion
// backend is configured, generates an answer over it. Retrieval coming
// back empty is a normal response, not an error.
func (s *Server) handleAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contexts := s.retrieval.Retrieve(c.Request.Context(), req.Question, req.TopK, req.DocumentID)

	resp := gin.H{"contexts": toContextResponses(contexts)}

	if s.completer != nil {
		texts := make([]string, 0, len(contexts))
		for _, ctx := range contexts {
			texts = append(texts, ctx.Text)
		}
		answer, err := s.completer.Complete(c.Request.Context(), texts, req.Question)
		if err != nil {
			logger.Warn("generating answer: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "answer generation failed"})
			return
		}
		resp["answer"] = answer
		resp["model"] = s.completer.ModelName()
	}

	c.JSON(http.StatusOK, resp)
}

func toContextResponses(contexts []domain.RetrievedContext) []contextResponse {
	out := make([]contextResponse, 0, len(contexts))
	for _, ctx := range contexts {
		out = append(out, contextResponse{
			Score:      ctx.Score,
			Text:       ctx.Text,
			DocumentID: ctx.Payload.DocumentID,
			ChunkIndex: ctx.Payload.ChunkIndex,
		})
	}
	return out
}
