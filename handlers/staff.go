package handlers

import (
	"campus/models"
	"net/http"

	"github.com/gin-gonic/gin"
)

type StaffRequest struct {
	Name       string `form:"name" json:"name" binding:"required"`
	Role       string `form:"role" json:"role"`
	Department string `form:"department" json:"department"`
	Contact    string `form:"contact" json:"contact"`
}

func (r *StaffRequest) fields() models.StaffFields {
	return models.StaffFields{
		Name:       r.Name,
		Role:       r.Role,
		Department: r.Department,
		Contact:    r.Contact,
	}
}

func StaffList(c *gin.Context) {
	staff, err := models.StaffList()
	if err != nil {
		respondError(c, err, "Staff", "fetching staff")
		return
	}
	c.JSON(http.StatusOK, staff)
}

func StaffGet(c *gin.Context) {
	id, ok := parseID(c, "Staff")
	if !ok {
		return
	}
	staff, err := models.StaffGet(id)
	if err != nil {
		respondError(c, err, "Staff", "fetching staff")
		return
	}
	c.JSON(http.StatusOK, staff)
}

func StaffCreate(c *gin.Context) {
	r := StaffRequest{}
	if err := c.ShouldBind(&r); err != nil {
		badRequest(c, err)
		return
	}
	staff, err := models.StaffCreate(r.fields())
	if err != nil {
		respondError(c, err, "Staff", "creating staff")
		return
	}
	c.JSON(http.StatusCreated, staff)
}

func StaffUpdate(c *gin.Context) {
	id, ok := parseID(c, "Staff")
	if !ok {
		return
	}
	r := StaffRequest{}
	if err := c.ShouldBind(&r); err != nil {
		badRequest(c, err)
		return
	}
	staff, err := models.StaffUpdate(id, r.fields())
	if err != nil {
		respondError(c, err, "Staff", "updating staff")
		return
	}
	c.JSON(http.StatusOK, staff)
}

func StaffDelete(c *gin.Context) {
	id, ok := parseID(c, "Staff")
	if !ok {
		return
	}
	if err := models.StaffDelete(id); err != nil {
		respondError(c, err, "Staff", "deleting staff")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{"Staff deleted"})
}
