package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	bookingdomain "github.com/smallbiznis/opsdesk/internal/booking/domain"
	contactdomain "github.com/smallbiznis/opsdesk/internal/contact/domain"
	formdomain "github.com/smallbiznis/opsdesk/internal/form/domain"
	workspacedomain "github.com/smallbiznis/opsdesk/internal/workspace/domain"
	"go.uber.org/zap"
)

const submissionLockTTL = 10 * time.Second

func publicWorkspaceID(c *gin.Context) (snowflake.ID, error) {
	id, err := snowflake.ParseString(c.Param("workspace_id"))
	if err != nil {
		return 0, workspacedomain.ErrNotFound
	}
	return id, nil
}

type publicContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func (s *Server) PublicContactIntake(c *gin.Context) {
	workspaceID, err := publicWorkspaceID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req publicContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.contactSvc.Intake(c.Request.Context(), contactdomain.IntakeRequest{
		WorkspaceID: workspaceID,
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		Message:     strings.TrimSpace(req.Message),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"data": resp})
}

type publicBookingRequest struct {
	OfferingID string    `json:"offering_id"`
	ContactID  string    `json:"contact_id"`
	StartTime  time.Time `json:"start_time"`
}

func (s *Server) PublicCreateBooking(c *gin.Context) {
	workspaceID, err := publicWorkspaceID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req publicBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.bookingSvc.CreateBooking(c.Request.Context(), bookingdomain.CreateBookingRequest{
		WorkspaceID: workspaceID,
		OfferingID:  strings.TrimSpace(req.OfferingID),
		ContactID:   strings.TrimSpace(req.ContactID),
		StartTime:   req.StartTime,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

type publicSubmitFormRequest struct {
	ContactName  string         `json:"contact_name"`
	ContactEmail string         `json:"contact_email"`
	ContactPhone string         `json:"contact_phone"`
	Data         map[string]any `json:"data"`
}

func (s *Server) PublicSubmitForm(c *gin.Context) {
	workspaceID, err := publicWorkspaceID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req publicSubmitFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()

	// A retried submission from the same sender is held off while the
	// first one is still in flight.
	sender := strings.TrimSpace(req.ContactEmail)
	if sender == "" {
		sender = strings.TrimSpace(req.ContactPhone)
	}
	if s.intakeLimiter.Enabled() && sender != "" {
		token, acquired, lockErr := s.intakeLimiter.TryLockSubmission(ctx, workspaceID.String(), sender, submissionLockTTL)
		if lockErr != nil {
			s.logWarn("submission lock unavailable", zap.Error(lockErr))
		} else if !acquired {
			AbortWithError(c, ErrConflict)
			return
		} else {
			defer func() {
				if releaseErr := s.intakeLimiter.ReleaseSubmission(ctx, workspaceID.String(), sender, token); releaseErr != nil {
					s.logWarn("submission lock release failed", zap.Error(releaseErr))
				}
			}()
		}
	}

	resp, err := s.formSvc.Submit(ctx, formdomain.SubmitRequest{
		WorkspaceID:  workspaceID,
		TemplateID:   c.Param("template_id"),
		ContactName:  strings.TrimSpace(req.ContactName),
		ContactEmail: strings.TrimSpace(req.ContactEmail),
		ContactPhone: strings.TrimSpace(req.ContactPhone),
		Data:         req.Data,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}
