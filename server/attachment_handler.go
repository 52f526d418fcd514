package server

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	apiError "github.com/wavehq/hrbridge/errors"
	"github.com/wavehq/hrbridge/server/response"
)

// respondStorageError maps the storage taxonomy onto the endpoint contract:
// the quota signal gets its own 429 shape so clients can key backoff off it,
// a rejected or malformed provider exchange is a 502, everything else a 500.
func respondStorageError(c *gin.Context, err error) {
	if errors.Is(err, apiError.ErrQuotaExceeded) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":   "transaction_cap_exceeded",
			"message": apiError.ErrQuotaExceeded.Message,
		})
		return
	}
	var authErr *apiError.ProviderAuthError
	if errors.As(err, &authErr) {
		log.Printf("provider auth failure: %v", authErr)
		response.JSON(c, "", http.StatusBadGateway, nil, apiError.New("storage provider rejected the request", http.StatusBadGateway))
		return
	}
	log.Printf("storage error: %v", err)
	response.JSON(c, "", http.StatusInternalServerError, nil, apiError.ErrInternalServerError)
}

func (s *Server) handleUploadAttachment() gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, apiError.New("no file provided", http.StatusBadRequest))
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			response.JSON(c, "", http.StatusInternalServerError, nil, apiError.ErrInternalServerError)
			return
		}

		uploaderID, _ := contextUserID(c)
		attachment, err := s.StorageService.Upload(c.Request.Context(), data, fileHeader.Filename,
			fileHeader.Header.Get("Content-Type"), uploaderID)
		if err != nil {
			respondStorageError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"fileName": attachment.StoredName,
			"fileId":   attachment.StoredID,
		})
	}
}

func (s *Server) handlePresignedURL() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request struct {
			FileName string `json:"fileName"`
		}
		if err := c.ShouldBindJSON(&request); err != nil || request.FileName == "" {
			response.JSON(c, "", http.StatusBadRequest, nil, apiError.New("missing file name", http.StatusBadRequest))
			return
		}

		presignedURL, err := s.StorageService.PresignedURL(c.Request.Context(), request.FileName)
		if err != nil {
			respondStorageError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"presignedUrl": presignedURL})
	}
}

func (s *Server) handleDownloadAttachment() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request struct {
			FileName string `json:"fileName"`
		}
		if err := c.ShouldBindJSON(&request); err != nil || request.FileName == "" {
			response.JSON(c, "", http.StatusBadRequest, nil, apiError.New("missing file name", http.StatusBadRequest))
			return
		}

		data, contentType, err := s.StorageService.StreamDownload(c.Request.Context(), request.FileName)
		if err != nil {
			log.Printf("download of %s failed: %v", request.FileName, err)
			response.JSON(c, "", http.StatusInternalServerError, nil, apiError.New("failed to download file", http.StatusInternalServerError))
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", url.PathEscape(request.FileName)))
		c.Data(http.StatusOK, contentType, data)
	}
}
