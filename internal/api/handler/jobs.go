package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shreyasbhat/talentlens/internal/api/response"
	"github.com/shreyasbhat/talentlens/internal/service"
	"github.com/shreyasbhat/talentlens/internal/store"
	"github.com/shreyasbhat/talentlens/pkg/models"
)

// JobService defines the interface the job handlers depend on.
type JobService interface {
	EnqueueSentiment(ctx context.Context, jobType string, targetRef uuid.UUID) (*models.Job, error)
	EnqueueSubstitute(ctx context.Context, payload models.SubstitutePayload) (*models.Job, error)
	GetJobDetail(ctx context.Context, id uuid.UUID) (*service.JobDetail, error)
	GetJobStatus(ctx context.Context, id uuid.UUID) (string, error)
}

// NewEnqueueJobHandler returns an http.HandlerFunc for POST /api/v1/jobs.
// Sentiment jobs carry a target_ref; substitute jobs carry a payload.
func NewEnqueueJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Type      string                    `json:"type"`
			TargetRef string                    `json:"target_ref"`
			Payload   *models.SubstitutePayload `json:"payload"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if !models.ValidJobType(req.Type) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"type must be one of sentiment-feedback, sentiment-complaint, substitute", nil)
			return
		}

		var job *models.Job
		var err error

		switch req.Type {
		case models.JobTypeSubstitute:
			var payload models.SubstitutePayload
			if req.Payload != nil {
				payload = *req.Payload
			}
			job, err = svc.EnqueueSubstitute(r.Context(), payload)
		default:
			if req.TargetRef == "" {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "target_ref is required", nil)
				return
			}
			targetRef, parseErr := uuid.Parse(req.TargetRef)
			if parseErr != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "target_ref must be a valid UUID", nil)
				return
			}
			job, err = svc.EnqueueSentiment(r.Context(), req.Type, targetRef)
		}

		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidPayload):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid job payload", nil)
			case errors.Is(err, store.ErrNotFound):
				response.Error(w, http.StatusNotFound, "TARGET_NOT_FOUND",
					"The target record does not exist", nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"An unexpected error occurred", nil)
			}
			return
		}

		response.Accepted(w, enqueueResponse{
			JobID:  job.ID,
			Type:   job.Type,
			Status: job.Status,
		})
	}
}

// NewGetJobHandler returns an http.HandlerFunc for GET /api/v1/jobs/{jobID}.
// Clients poll this until the job reaches done or failed.
func NewGetJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "jobID must be a valid UUID", nil)
			return
		}

		detail, err := svc.GetJobDetail(r.Context(), jobID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.JSON(w, detail)
	}
}

// NewGetJobStatusHandler returns an http.HandlerFunc for
// GET /api/v1/jobs/{jobID}/status. Cheaper than the full detail route for
// tight polling loops; the answer is served from the redis mirror when warm.
func NewGetJobStatusHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "jobID must be a valid UUID", nil)
			return
		}

		status, err := svc.GetJobStatus(r.Context(), jobID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.JSON(w, jobStatusResponse{JobID: jobID, Status: status})
	}
}

type enqueueResponse struct {
	JobID  uuid.UUID `json:"job_id"`
	Type   string    `json:"type"`
	Status string    `json:"status"`
}

type jobStatusResponse struct {
	JobID  uuid.UUID `json:"job_id"`
	Status string    `json:"status"`
}
