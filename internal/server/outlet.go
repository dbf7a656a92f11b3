package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	outletdomain "github.com/safeguardhq/safeguard/internal/outlet/domain"
)

type createOutletRequest struct {
	Name     string `json:"name"`
	District string `json:"district"`
	Address  string `json:"address"`
}

func (s *Server) CreateOutlet(c *gin.Context) {
	var req createOutletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.outletSvc.Create(c.Request.Context(), outletdomain.CreateOutletRequest{
		Name:     strings.TrimSpace(req.Name),
		District: strings.TrimSpace(req.District),
		Address:  strings.TrimSpace(req.Address),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOutlets(c *gin.Context) {
	resp, err := s.outletSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
