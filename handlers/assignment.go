package handlers

import (
	"campus/models"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AssignmentRequest struct {
	AssetID      uint64 `form:"asset_id" json:"asset_id" binding:"required"`
	StaffID      uint64 `form:"staff_id" json:"staff_id" binding:"required"`
	AssignedDate string `form:"assigned_date" json:"assigned_date"` // defaults to today
}

func bindAssignmentRequest(c *gin.Context) (f models.AssignmentFields, ok bool) {
	r := AssignmentRequest{}
	if err := c.ShouldBind(&r); err != nil {
		badRequest(c, err)
		return f, false
	}
	f = models.AssignmentFields{
		AssetID:      r.AssetID,
		StaffID:      r.StaffID,
		AssignedDate: models.Today(),
	}
	if r.AssignedDate != "" {
		date, err := models.ParseDate(r.AssignedDate)
		if err != nil {
			badRequest(c, err)
			return f, false
		}
		f.AssignedDate = date
	}
	return f, true
}

func AssignmentList(c *gin.Context) {
	views, err := models.AssignmentList()
	if err != nil {
		respondError(c, err, "Assignment", "fetching assignments")
		return
	}
	c.JSON(http.StatusOK, views)
}

func AssignmentGet(c *gin.Context) {
	id, ok := parseID(c, "Assignment")
	if !ok {
		return
	}
	view, err := models.AssignmentGet(id)
	if err != nil {
		respondError(c, err, "Assignment", "fetching assignment")
		return
	}
	c.JSON(http.StatusOK, view)
}

func AssignmentCreate(c *gin.Context) {
	f, ok := bindAssignmentRequest(c)
	if !ok {
		return
	}
	assignment, err := models.AssignmentCreate(f)
	if err != nil {
		respondError(c, err, "Assignment", "creating assignment")
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

func AssignmentUpdate(c *gin.Context) {
	id, ok := parseID(c, "Assignment")
	if !ok {
		return
	}
	f, ok := bindAssignmentRequest(c)
	if !ok {
		return
	}
	assignment, err := models.AssignmentUpdate(id, f)
	if err != nil {
		respondError(c, err, "Assignment", "updating assignment")
		return
	}
	c.JSON(http.StatusOK, assignment)
}

func AssignmentDelete(c *gin.Context) {
	id, ok := parseID(c, "Assignment")
	if !ok {
		return
	}
	if err := models.AssignmentDelete(id); err != nil {
		respondError(c, err, "Assignment", "deleting assignment")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{"Assignment deleted successfully"})
}
