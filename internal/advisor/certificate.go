// internal/advisor/certificate.go
package advisor

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "edupath-ksa/internal/common/errors"

	"github.com/google/uuid"
)

const defaultMaxCertificateBytes = 5 << 20

// CertificateStore writes uploaded certificate images to a local directory.
type CertificateStore struct {
	dir      string
	maxBytes int64
}

func NewCertificateStore(dir string, maxBytes int64) *CertificateStore {
	if maxBytes <= 0 {
		maxBytes = defaultMaxCertificateBytes
	}
	return &CertificateStore{dir: dir, maxBytes: maxBytes}
}

// Decode accepts plain base64 or a data URL and enforces the size limit.
func (s *CertificateStore) Decode(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if i := strings.Index(encoded, ","); strings.HasPrefix(encoded, "data:") && i >= 0 {
		encoded = encoded[i+1:]
	}
	if encoded == "" {
		return nil, apperrors.NewCertificateRejectedError("certificate is empty")
	}
	if int64(base64.StdEncoding.DecodedLen(len(encoded))) > s.maxBytes+2 {
		return nil, apperrors.NewPayloadTooLargeError(s.maxBytes)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, apperrors.NewCertificateRejectedError("certificate is not valid base64")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, apperrors.NewPayloadTooLargeError(s.maxBytes)
	}
	return data, nil
}

// Save writes the image as cert_<userID>_<uuid>.png and returns its path.
func (s *CertificateStore) Save(userID int64, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o775); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(s.dir, fmt.Sprintf("cert_%d_%s.png", userID, uuid.NewString()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write certificate: %w", err)
	}
	return path, nil
}
