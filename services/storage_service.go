package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/wavehq/hrbridge/config"
	"github.com/wavehq/hrbridge/db"
	apiError "github.com/wavehq/hrbridge/errors"
	"github.com/wavehq/hrbridge/models"
)

const (
	defaultAuthorizeURL = "https://api.backblazeb2.com/b2api/v2/b2_authorize_account"

	// Tokens are long-lived upstream; 23h keeps a safety margin below the
	// provider's 24h validity.
	defaultCredentialTTL = 23 * time.Hour

	// DefaultDownloadAuthTTL is how long issued download authorizations stay
	// valid. Expired access URLs are dead links and must be regenerated.
	DefaultDownloadAuthTTL = 3600

	thumbnailMaxPx  = 320
	thumbnailPrefix = "thumb_"
)

// Credential is the cached authorize_account result.
type Credential struct {
	Token       string
	APIURL      string
	DownloadURL string
	ExpiresAt   time.Time
}

// StorageService brokers chat attachments through the object-storage
// provider's authorize/upload/download API triad.
type StorageService interface {
	Authorize(ctx context.Context) (*Credential, error)
	ClearCredential()
	Upload(ctx context.Context, data []byte, fileName, contentType string, uploaderID uuid.UUID) (*models.Attachment, error)
	GetDownloadAuthorization(ctx context.Context, fileNamePrefix string, validSeconds int) (string, error)
	BuildAccessURL(fileName, authToken string) string
	PresignedURL(ctx context.Context, fileName string) (string, error)
	StreamDownload(ctx context.Context, fileName string) ([]byte, string, error)
}

// storageService struct
type storageService struct {
	Config         *config.Config
	attachmentRepo db.AttachmentRepository
	client         *http.Client
	authorizeURL   string
	now            func() time.Time

	// The credential is process-wide shared state. The mutex doubles as the
	// single-flight guard: concurrent callers hitting an expired cache share
	// one refresh instead of racing authorize calls against a capped-quota
	// provider.
	mu   sync.Mutex
	cred *Credential
}

// NewStorageService creates a new instance of StorageService
func NewStorageService(attachmentRepo db.AttachmentRepository, conf *config.Config) StorageService {
	return &storageService{
		Config:         conf,
		attachmentRepo: attachmentRepo,
		client:         &http.Client{Timeout: 60 * time.Second},
		authorizeURL:   defaultAuthorizeURL,
		now:            time.Now,
	}
}

func (s *storageService) credentialTTL() time.Duration {
	if s.Config.B2AuthTTL > 0 {
		return s.Config.B2AuthTTL
	}
	return defaultCredentialTTL
}

// Authorize returns the cached credential while it is still valid, otherwise
// performs a fresh authorize_account exchange and caches the result.
func (s *storageService) Authorize(ctx context.Context) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cred != nil && s.now().Before(s.cred.ExpiresAt) {
		return s.cred, nil
	}

	keyID := s.Config.StorageKeyID()
	appKey := s.Config.StorageApplicationKey()
	if keyID == "" || appKey == "" {
		return nil, apiError.ErrConfiguration
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.authorizeURL, nil)
	if err != nil {
		return nil, err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(keyID + ":" + appKey))
	req.Header.Set("Authorization", "Basic "+basic)

	res, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		return nil, &apiError.ProviderAuthError{Status: res.StatusCode, Body: string(body)}
	}

	var auth struct {
		AuthorizationToken string `json:"authorizationToken"`
		APIURL             string `json:"apiUrl"`
		DownloadURL        string `json:"downloadUrl"`
	}
	if err := json.Unmarshal(body, &auth); err != nil {
		return nil, &apiError.ProviderAuthError{Status: http.StatusBadGateway, Body: string(body)}
	}
	if auth.AuthorizationToken == "" || auth.APIURL == "" || auth.DownloadURL == "" {
		return nil, &apiError.ProviderAuthError{Status: http.StatusBadGateway, Body: string(body)}
	}

	s.cred = &Credential{
		Token:       auth.AuthorizationToken,
		APIURL:      auth.APIURL,
		DownloadURL: auth.DownloadURL,
		ExpiresAt:   s.now().Add(s.credentialTTL()),
	}
	return s.cred, nil
}

// ClearCredential drops the cached credential so the next call re-authorizes.
// Used for recovery after a detected-stale-token failure.
func (s *storageService) ClearCredential() {
	s.mu.Lock()
	s.cred = nil
	s.mu.Unlock()
}

type b2ErrorBody struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// isQuotaExceeded checks both the structured code field and the free-text
// message, since the provider does not consistently use one mechanism.
func isQuotaExceeded(code, message string) bool {
	if code == "transaction_cap_exceeded" {
		return true
	}
	m := strings.ToLower(message)
	return strings.Contains(m, "transaction cap") || strings.Contains(m, "cap exceeded")
}

// providerError maps a non-2xx provider response onto the portal taxonomy.
// The quota signal is distinguished before anything else: it is an expected,
// recoverable operating condition, not a bug.
func providerError(op string, status int, body []byte) error {
	var eb b2ErrorBody
	_ = json.Unmarshal(body, &eb)
	if isQuotaExceeded(eb.Code, eb.Message) {
		return apiError.ErrQuotaExceeded
	}
	detail := eb.Message
	if detail == "" {
		detail = string(body)
	}
	return &apiError.TransferError{Op: op, Status: status, Detail: detail}
}

// postJSON performs a credential-scoped provider call. A 401 is treated as a
// stale cached token: the credential is cleared and the call retried once
// with a fresh one.
func (s *storageService) postJSON(ctx context.Context, path string, payload interface{}, out interface{}, op string) error {
	for attempt := 0; attempt < 2; attempt++ {
		cred, err := s.Authorize(ctx)
		if err != nil {
			return err
		}

		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, cred.APIURL+path, bytes.NewReader(raw))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", cred.Token)
		req.Header.Set("Content-Type", "application/json")

		res, err := s.client.Do(req)
		if err != nil {
			return err
		}
		body, err := io.ReadAll(res.Body)
		res.Body.Close()
		if err != nil {
			return err
		}

		if res.StatusCode == http.StatusUnauthorized && attempt == 0 {
			s.ClearCredential()
			continue
		}
		if res.StatusCode != http.StatusOK {
			return providerError(op, res.StatusCode, body)
		}
		return json.Unmarshal(body, out)
	}
	return apiError.ErrInternalServerError
}

// Upload streams the file to a provider-issued write target and records the
// stored object. Image uploads also get a downscaled thumbnail stored
// alongside; thumbnail failure never fails the upload.
func (s *storageService) Upload(ctx context.Context, data []byte, fileName, contentType string, uploaderID uuid.UUID) (*models.Attachment, error) {
	storedName := fmt.Sprintf("%d_%s", s.now().UnixNano(), fileName)

	fileID, err := s.uploadObject(ctx, data, storedName, contentType)
	if err != nil {
		return nil, err
	}

	attachment := &models.Attachment{
		StoredName:  storedName,
		StoredID:    fileID,
		ContentType: contentType,
		Size:        int64(len(data)),
		UploaderID:  uploaderID,
	}

	if strings.HasPrefix(contentType, "image/") {
		if thumbKey, err := s.uploadThumbnail(ctx, data, storedName); err != nil {
			log.Printf("thumbnail for %s failed: %v", storedName, err)
		} else {
			attachment.ThumbnailKey = thumbKey
		}
	}

	if s.attachmentRepo != nil {
		if err := s.attachmentRepo.Save(attachment); err != nil {
			// Bookkeeping only; the object is already stored.
			log.Printf("recording attachment %s failed: %v", storedName, err)
		}
	}

	return attachment, nil
}

func (s *storageService) uploadObject(ctx context.Context, data []byte, storedName, contentType string) (string, error) {
	var target struct {
		UploadURL          string `json:"uploadUrl"`
		AuthorizationToken string `json:"authorizationToken"`
	}
	err := s.postJSON(ctx, "/b2api/v2/b2_get_upload_url",
		map[string]string{"bucketId": s.Config.B2BucketID}, &target, "upload")
	if err != nil {
		return "", err
	}
	if target.UploadURL == "" || target.AuthorizationToken == "" {
		return "", &apiError.ProviderAuthError{Status: http.StatusBadGateway, Body: "upload target missing fields"}
	}

	if contentType == "" {
		contentType = "b2/x-auto"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.UploadURL, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", target.AuthorizationToken)
	// percent-encoding, not form-encoding: the provider decodes %20 but
	// would store a "+" literally
	req.Header.Set("X-Bz-File-Name", url.PathEscape(storedName))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Bz-Content-Sha1", "do_not_verify")

	res, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	if res.StatusCode != http.StatusOK {
		return "", providerError("upload", res.StatusCode, body)
	}

	var uploaded struct {
		FileID   string `json:"fileId"`
		FileName string `json:"fileName"`
	}
	if err := json.Unmarshal(body, &uploaded); err != nil || uploaded.FileID == "" {
		return "", &apiError.ProviderAuthError{Status: http.StatusBadGateway, Body: string(body)}
	}
	return uploaded.FileID, nil
}

func (s *storageService) uploadThumbnail(ctx context.Context, data []byte, storedName string) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	thumb := imaging.Fit(img, thumbnailMaxPx, thumbnailMaxPx, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return "", err
	}

	thumbKey := thumbnailPrefix + storedName
	if _, err := s.uploadObject(ctx, buf.Bytes(), thumbKey, "image/jpeg"); err != nil {
		return "", err
	}
	return thumbKey, nil
}

// GetDownloadAuthorization issues a scoped, time-limited download token for
// the given name or prefix.
func (s *storageService) GetDownloadAuthorization(ctx context.Context, fileNamePrefix string, validSeconds int) (string, error) {
	if validSeconds <= 0 {
		validSeconds = DefaultDownloadAuthTTL
	}
	var out struct {
		AuthorizationToken string `json:"authorizationToken"`
	}
	err := s.postJSON(ctx, "/b2api/v2/b2_get_download_authorization", map[string]interface{}{
		"bucketId":               s.Config.B2BucketID,
		"fileNamePrefix":         fileNamePrefix,
		"validDurationInSeconds": validSeconds,
	}, &out, "download")
	if err != nil {
		return "", err
	}
	if out.AuthorizationToken == "" {
		return "", &apiError.ProviderAuthError{Status: http.StatusBadGateway, Body: "download authorization missing token"}
	}
	return out.AuthorizationToken, nil
}

// BuildAccessURL combines the download endpoint, bucket, encoded file name
// and download token into a single fetchable URL. The result goes dead when
// the token expires; regenerate, don't retry.
func (s *storageService) BuildAccessURL(fileName, authToken string) string {
	s.mu.Lock()
	downloadURL := ""
	if s.cred != nil {
		downloadURL = s.cred.DownloadURL
	}
	s.mu.Unlock()
	return fmt.Sprintf("%s/file/%s/%s?Authorization=%s",
		downloadURL, s.Config.B2BucketName, url.PathEscape(fileName), authToken)
}

// PresignedURL authorizes and builds a time-boxed access URL in one step.
func (s *storageService) PresignedURL(ctx context.Context, fileName string) (string, error) {
	token, err := s.GetDownloadAuthorization(ctx, fileName, DefaultDownloadAuthTTL)
	if err != nil {
		return "", err
	}
	return s.BuildAccessURL(fileName, token), nil
}

// StreamDownload proxies the object server-side for callers that must not see
// provider credentials, returning the raw bytes and the original content type.
func (s *storageService) StreamDownload(ctx context.Context, fileName string) ([]byte, string, error) {
	cred, err := s.Authorize(ctx)
	if err != nil {
		return nil, "", err
	}
	token, err := s.GetDownloadAuthorization(ctx, fileName, DefaultDownloadAuthTTL)
	if err != nil {
		return nil, "", err
	}

	fileURL := fmt.Sprintf("%s/file/%s/%s", cred.DownloadURL, s.Config.B2BucketName, url.PathEscape(fileName))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", token)

	res, err := s.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, "", err
	}
	if res.StatusCode != http.StatusOK {
		return nil, "", providerError("download", res.StatusCode, body)
	}

	contentType := res.Header.Get("Content-Type")
	if contentType == "" && s.attachmentRepo != nil {
		// fall back to the type recorded at upload time
		if record, lookupErr := s.attachmentRepo.FindByStoredName(fileName); lookupErr == nil {
			contentType = record.ContentType
		}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return body, contentType, nil
}
