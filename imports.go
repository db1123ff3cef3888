package main

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"bitbucket.org/gobdata/seguimiento_backend/config"
	"bitbucket.org/gobdata/seguimiento_backend/models"
	"bitbucket.org/gobdata/seguimiento_backend/planimport"
	"bitbucket.org/gobdata/seguimiento_backend/utils"
	"github.com/gin-gonic/gin"
)

// Workbooks are small; a generous cap just keeps junk uploads out.
const maxWorkbookBytes = 20 << 20

// importWorkbookHandler ingests an uploaded plan workbook: one sheet per
// ministry, parsed heuristically and loaded as pending cargas. Reviewer only.
func importWorkbookHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := utils.GetRoleFromContext(c.Request.Context())
		if !models.UserRole(role).IsReviewer() {
			c.JSON(http.StatusForbidden, gin.H{"error": "reviewer role required"})
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "a workbook file is required"})
			return
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "only .xlsx files are allowed"})
			return
		}
		if fileHeader.Size > maxWorkbookBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "workbook is too large"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, err)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxWorkbookBytes+1))
		if err != nil {
			respondError(c, err)
			return
		}
		if len(data) > maxWorkbookBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "workbook is too large"})
			return
		}

		ctx := c.Request.Context()

		summary, err := planimport.ImportWorkbook(ctx, bytes.NewReader(data))
		if err != nil {
			respondError(c, err)
			return
		}

		// Keeping the original upload is best-effort, never a reason to fail
		// the import.
		if config.ImportArchiveEnabled() {
			objectName := "importPlanes/" + utils.GenerateUniqueFilename() + "_" + fileHeader.Filename
			gcsPath, err := utils.ArchiveWorkbookToGCS(ctx, objectName, data)
			if err != nil {
				config.LogError(config.GetLogger(), "imports.go", "importWorkbookHandler", "ArchiveWorkbookToGCS", objectName, err)
			} else {
				summary.ArchivoGCS = gcsPath
			}
		}

		c.JSON(http.StatusOK, summary)
	}
}
