package napsync

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/locallens/presence_backend/models"
	"github.com/locallens/presence_backend/utils"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportDiscrepanciesHandler streams the latest-run verdicts for a location
// as an xlsx workbook, one row per platform/field pair. Franchise operations
// hand these to store managers who fix listings by hand.
func ExportDiscrepanciesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgId, err := resolveOrgID(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		locationId, err := locationIDParam(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid location_id"})
			return
		}

		ctx := utils.SetOrgIdInContext(c.Request.Context(), orgId)
		location, err := models.GetLocationById(ctx, locationId, orgId)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		rows, err := models.LatestDiscrepancies(ctx, locationId, orgId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		f := excelize.NewFile()
		sheetName := "Discrepancies"
		if err := f.SetSheetName("Sheet1", sheetName); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		// Add headers
		f.SetCellValue(sheetName, "A1", "Platform")
		f.SetCellValue(sheetName, "B1", "Status")
		f.SetCellValue(sheetName, "C1", "Severity")
		f.SetCellValue(sheetName, "D1", "Field")
		f.SetCellValue(sheetName, "E1", "YourRecord")
		f.SetCellValue(sheetName, "F1", "PlatformShows")
		f.SetCellValue(sheetName, "G1", "FixInstructions")

		rowNo := 2
		for _, row := range rows {
			fields := DecodeFields(row.FieldsJSON)
			if len(fields) == 0 {
				f.SetCellValue(sheetName, "A"+fmt.Sprint(rowNo), string(row.Platform))
				f.SetCellValue(sheetName, "B"+fmt.Sprint(rowNo), string(row.Status))
				f.SetCellValue(sheetName, "C"+fmt.Sprint(rowNo), string(row.Severity))
				rowNo++
				continue
			}
			for _, field := range fields {
				f.SetCellValue(sheetName, "A"+fmt.Sprint(rowNo), string(row.Platform))
				f.SetCellValue(sheetName, "B"+fmt.Sprint(rowNo), string(row.Status))
				f.SetCellValue(sheetName, "C"+fmt.Sprint(rowNo), string(row.Severity))
				f.SetCellValue(sheetName, "D"+fmt.Sprint(rowNo), field.FieldName)
				f.SetCellValue(sheetName, "E"+fmt.Sprint(rowNo), field.GroundTruthValue)
				f.SetCellValue(sheetName, "F"+fmt.Sprint(rowNo), field.PlatformValue)
				f.SetCellValue(sheetName, "G"+fmt.Sprint(rowNo), row.FixInstructions)
				rowNo++
			}
		}

		filename := fmt.Sprintf("nap-discrepancies-%s.xlsx",
			strings.ReplaceAll(strings.ToLower(location.BusinessName), " ", "-"))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename="+filename)
		if err := f.Write(c.Writer); err != nil {
			c.Status(http.StatusInternalServerError)
		}
	}
}
