package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"copro-edd-import/internal/domain"
	"copro-edd-import/internal/service"

	"go.uber.org/zap"
)

const maxRequestBytes = 1 << 20

// Importer is the service surface the handlers need.
type Importer interface {
	Run(ctx context.Context, req service.ImportRequest) (*service.ImportResponse, error)
	GetJob(ctx context.Context, jobID string) (*service.JobView, error)
	ReviewsWorkbook(ctx context.Context, jobID string) ([]byte, error)
}

type ImportHandler struct {
	svc    Importer
	logger *zap.Logger
}

func NewImportHandler(svc Importer, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{svc: svc, logger: logger}
}

// Import handles POST /api/v1/edd-import.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req service.ImportRequest
	if err := readBodyJSON(r, maxRequestBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, &service.ImportResponse{
			Status:  domain.JobFailed,
			Reviews: []domain.ReviewSummary{},
			Errors: []domain.BlockingError{{
				Code:    domain.CodeInvalidRequest,
				Message: "Invalid JSON body",
				Entity:  domain.EntityRequest,
			}},
		})
		return
	}

	resp, err := h.svc.Run(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, service.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, service.ErrImportInProgress):
		writeJSON(w, http.StatusConflict, resp)
	default:
		writeJSON(w, http.StatusInternalServerError, resp)
	}
}

func (h *ImportHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	view, err := h.svc.GetJob(r.Context(), jobID)
	if err != nil {
		h.writeLookupError(w, jobID, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *ImportHandler) ReviewsWorkbook(w http.ResponseWriter, r *http.Request, jobID string) {
	data, err := h.svc.ReviewsWorkbook(r.Context(), jobID)
	if err != nil {
		h.writeLookupError(w, jobID, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="reviews-%s.xlsx"`, jobID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *ImportHandler) writeLookupError(w http.ResponseWriter, jobID string, err error) {
	if errors.Is(err, service.ErrJobNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"code": "not_found", "message": "Import job not found"})
		return
	}
	h.logger.Error("failed to load import job", zap.String("job_id", jobID), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"code":    domain.CodeInternalError,
		"message": "An internal error occurred",
	})
}
