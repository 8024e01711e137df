package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	bookingdomain "github.com/smallbiznis/opsdesk/internal/booking/domain"
)

type availabilityInput struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type createOfferingRequest struct {
	Name           string              `json:"name"`
	DurationMin    int                 `json:"duration_min"`
	Location       string              `json:"location"`
	Availabilities []availabilityInput `json:"availabilities"`
}

func (s *Server) CreateOffering(c *gin.Context) {
	var req createOfferingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	availabilities := make([]bookingdomain.AvailabilityInput, 0, len(req.Availabilities))
	for _, a := range req.Availabilities {
		availabilities = append(availabilities, bookingdomain.AvailabilityInput{
			DayOfWeek: a.DayOfWeek,
			StartTime: strings.TrimSpace(a.StartTime),
			EndTime:   strings.TrimSpace(a.EndTime),
		})
	}

	resp, err := s.bookingSvc.CreateOffering(c.Request.Context(), bookingdomain.CreateOfferingRequest{
		Name:           strings.TrimSpace(req.Name),
		DurationMin:    req.DurationMin,
		Location:       strings.TrimSpace(req.Location),
		Availabilities: availabilities,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListOfferings(c *gin.Context) {
	resp, err := s.bookingSvc.ListOfferings(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListBookings(c *gin.Context) {
	resp, err := s.bookingSvc.ListBookings(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
