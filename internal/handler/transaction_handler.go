package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nicholas-0101/event-management-api/internal/domain"
	"github.com/nicholas-0101/event-management-api/internal/dto"
	"github.com/nicholas-0101/event-management-api/internal/service"
	"github.com/nicholas-0101/event-management-api/pkg/middleware"
	"github.com/nicholas-0101/event-management-api/pkg/response"
)

// UploadConfig tunes payment proof uploads
type UploadConfig struct {
	Dir          string
	MaxSizeBytes int64
}

// TransactionHandler handles transaction lifecycle HTTP requests
type TransactionHandler struct {
	txns   service.TransactionService
	upload UploadConfig
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(txns service.TransactionService, upload UploadConfig) *TransactionHandler {
	if upload.Dir == "" {
		upload.Dir = "./uploads"
	}
	if upload.MaxSizeBytes <= 0 {
		upload.MaxSizeBytes = 5 * 1024 * 1024
	}
	return &TransactionHandler{txns: txns, upload: upload}
}

// Create handles POST /transaction
func (h *TransactionHandler) Create(c *gin.Context) {
	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("User ID not found in token"))
		return
	}

	if valid, msg := req.Validate(); !valid {
		c.JSON(http.StatusBadRequest, response.ValidationFailed(msg))
		return
	}

	txn, err := h.txns.Create(c.Request.Context(), userID, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(dto.ToTransactionResponse(txn)))
}

// Get handles GET /transaction/:id
func (h *TransactionHandler) Get(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	role, _ := middleware.GetRole(c)

	txn, err := h.txns.Get(c.Request.Context(), userID, role, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.ToTransactionResponse(txn)))
}

// Transitions handles GET /transaction/:id/transitions
func (h *TransactionHandler) Transitions(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	role, _ := middleware.GetRole(c)

	trail, err := h.txns.GetTransitions(c.Request.Context(), userID, role, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(trail))
}

// ListMine handles GET /transaction/user
func (h *TransactionHandler) ListMine(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("User ID not found in token"))
		return
	}
	limit, offset := pagination(c)

	txns, total, err := h.txns.ListByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(toTransactionResponses(txns), limit, offset, total))
}

// ListOrganizer handles GET /transaction/organizer, organizer only
func (h *TransactionHandler) ListOrganizer(c *gin.Context) {
	organizerID, ok := middleware.GetUserID(c)
	if !ok || organizerID == "" {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("User ID not found in token"))
		return
	}
	limit, offset := pagination(c)

	txns, total, err := h.txns.ListByOrganizer(c.Request.Context(), organizerID, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(toTransactionResponses(txns), limit, offset, total))
}

// UploadProof handles POST /transaction/upload-proof/:id with a multipart
// form carrying the payment_proof file.
func (h *TransactionHandler) UploadProof(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("User ID not found in token"))
		return
	}

	file, err := c.FormFile("payment_proof")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("payment_proof file is required"))
		return
	}
	if file.Size > h.upload.MaxSizeBytes {
		c.JSON(http.StatusBadRequest, response.BadRequest(
			fmt.Sprintf("payment_proof exceeds %d bytes", h.upload.MaxSizeBytes)))
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".pdf":
	default:
		c.JSON(http.StatusBadRequest, response.BadRequest("payment_proof must be a PNG, JPEG or PDF file"))
		return
	}

	filename := uuid.New().String() + ext
	dst := filepath.Join(h.upload.Dir, filename)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		c.JSON(http.StatusInternalServerError, response.InternalError("Failed to store payment proof"))
		return
	}

	txn, err := h.txns.SubmitPaymentProof(c.Request.Context(), userID, c.Param("id"), "/uploads/"+filename)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.ToTransactionResponse(txn)))
}

// Accept handles POST /transaction/organizer/accept/:id, organizer only
func (h *TransactionHandler) Accept(c *gin.Context) {
	organizerID, ok := middleware.GetUserID(c)
	if !ok || organizerID == "" {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("User ID not found in token"))
		return
	}

	txn, err := h.txns.Accept(c.Request.Context(), organizerID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.ToTransactionResponse(txn)))
}

// Reject handles POST /transaction/organizer/reject/:id, organizer only
func (h *TransactionHandler) Reject(c *gin.Context) {
	organizerID, ok := middleware.GetUserID(c)
	if !ok || organizerID == "" {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("User ID not found in token"))
		return
	}

	var req dto.RejectTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}
	if valid, msg := req.Validate(); !valid {
		c.JSON(http.StatusBadRequest, response.ValidationFailed(msg))
		return
	}

	txn, err := h.txns.Reject(c.Request.Context(), organizerID, c.Param("id"), req.RejectionReason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.ToTransactionResponse(txn)))
}

// Cancel handles POST /transaction/cancel/:id
func (h *TransactionHandler) Cancel(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("User ID not found in token"))
		return
	}

	txn, err := h.txns.Cancel(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(dto.ToTransactionResponse(txn)))
}

func toTransactionResponses(txns []*domain.Transaction) []*dto.TransactionResponse {
	responses := make([]*dto.TransactionResponse, len(txns))
	for i, t := range txns {
		responses[i] = dto.ToTransactionResponse(t)
	}
	return responses
}
