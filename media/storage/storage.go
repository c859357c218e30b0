package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/AzielCF/az-hub/pkg/utils"
	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	// Decodificadores extra para los thumbnails.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// thumbnailMaxSide caps thumbnails to a UI-friendly square fit.
const thumbnailMaxSide = 320

// BlobStore writes tenant media blobs under the per-tenant storage tree
// and derives thumbnails for images.
type BlobStore struct{}

func NewBlobStore() *BlobStore {
	return &BlobStore{}
}

// Save streams src into the tenant's directory and returns the blob path
// and its size. fileID keeps the on-disk name stable and collision-free.
func (s *BlobStore) Save(tenantID, fileID, originalName string, src io.Reader) (string, int64, error) {
	dir := utils.GetTenantStoragePath(tenantID)
	path := filepath.Join(dir, fileID+sanitizedExt(originalName))

	dst, err := os.Create(path)
	if err != nil {
		return "", 0, err
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		_ = os.Remove(path)
		return "", 0, err
	}
	return path, size, nil
}

// Thumbnail generates a reduced JPEG next to the blob. Best-effort: an
// undecodable image just means no thumbnail.
func (s *BlobStore) Thumbnail(blobPath string) string {
	img, err := imaging.Open(blobPath, imaging.AutoOrientation(true))
	if err != nil {
		logrus.Debugf("[MEDIA] No thumbnail for %s: %v", filepath.Base(blobPath), err)
		return ""
	}

	thumb := imaging.Fit(img, thumbnailMaxSide, thumbnailMaxSide, imaging.Lanczos)
	thumbPath := strings.TrimSuffix(blobPath, filepath.Ext(blobPath)) + "_thumb.jpg"
	if err := imaging.Save(thumb, thumbPath, imaging.JPEGQuality(82)); err != nil {
		logrus.Warnf("[MEDIA] Thumbnail save failed for %s: %v", filepath.Base(blobPath), err)
		return ""
	}
	return thumbPath
}

// Delete removes the blob and its thumbnail from disk. Missing files are
// not an error; the row is the source of truth.
func (s *BlobStore) Delete(blobPath, thumbnailPath string) {
	for _, p := range []string{blobPath, thumbnailPath} {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			logrus.Warnf("[MEDIA] Blob removal failed for %s: %v", p, err)
		}
	}
}

func sanitizedExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" || len(ext) > 10 || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}

// Open returns a reader over a stored blob.
func (s *BlobStore) Open(blobPath string) (io.ReadCloser, error) {
	if blobPath == "" {
		return nil, fmt.Errorf("empty blob path")
	}
	return os.Open(blobPath)
}
