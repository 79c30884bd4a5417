package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"absensi/internal/attendance"
)

// GET /attendance?class=&startDate=&endDate=
func ListAttendanceHandler(repo *attendance.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, found := caller(c)
		if !found {
			return
		}
		var f attendance.Filter
		if err := c.ShouldBindQuery(&f); err != nil {
			badBody(c)
			return
		}
		records, err := repo.List(c.Request.Context(), id, f)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": records})
	}
}

// GET /attendance/:position
func GetAttendanceHandler(repo *attendance.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, found := caller(c)
		if !found {
			return
		}
		position, err := attendance.ParsePosition(c.Param("position"))
		if err != nil {
			respondError(c, err)
			return
		}
		rec, err := repo.Get(c.Request.Context(), id, position)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rec})
	}
}

// POST /attendance
func CreateAttendanceHandler(repo *attendance.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, found := caller(c)
		if !found {
			return
		}
		var rec attendance.Record
		if err := c.ShouldBindJSON(&rec); err != nil {
			badBody(c)
			return
		}
		if err := repo.Create(c.Request.Context(), id, rec); err != nil {
			respondError(c, err)
			return
		}
		ok(c, http.StatusCreated, "Attendance recorded")
	}
}

// PUT /attendance/:position
func UpdateAttendanceHandler(repo *attendance.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, found := caller(c)
		if !found {
			return
		}
		position, err := attendance.ParsePosition(c.Param("position"))
		if err != nil {
			respondError(c, err)
			return
		}
		var rec attendance.Record
		if err := c.ShouldBindJSON(&rec); err != nil {
			badBody(c)
			return
		}
		if err := repo.Update(c.Request.Context(), id, position, rec); err != nil {
			respondError(c, err)
			return
		}
		ok(c, http.StatusOK, "Attendance updated")
	}
}

// DELETE /attendance/:position
func DeleteAttendanceHandler(repo *attendance.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, found := caller(c)
		if !found {
			return
		}
		// A bad position reads as 0 so the repository reports the role first.
		position, _ := attendance.ParsePosition(c.Param("position"))
		if err := repo.Delete(c.Request.Context(), id, position); err != nil {
			respondError(c, err)
			return
		}
		ok(c, http.StatusOK, "Attendance deleted")
	}
}

// GET /classes
func ListClassesHandler(repo *attendance.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, found := caller(c)
		if !found {
			return
		}
		classes, err := repo.ListClasses(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"classes": classes})
	}
}
