package media

import (
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Store defines the interface for saving, retrieving, and deleting the
// stored variants of an upload. every variant of one photo shares the
// same basename; the asset type selects the directory.
type Store interface {
	// Save stores data under the asset type's directory and returns the
	// absolute path written
	Save(assetType AssetType, filename string, data io.Reader) (string, error)
	// Read returns the full contents of an asset
	Read(assetType AssetType, filename string) ([]byte, error)
	// Delete removes an asset; deleting a missing asset is not an error
	Delete(assetType AssetType, filename string) error
	// FullPath resolves the absolute filesystem path for an asset
	FullPath(assetType AssetType, filename string) (string, error)
	// PublicURL returns the URL path the static file server exposes the
	// asset under
	PublicURL(assetType AssetType, filename string) string
	// EnsureDirs creates all variant directories
	EnsureDirs() error
}

// LocalStorage implements Store on the local filesystem with the layout
// uploads/<name>, uploads/compressed/<name>, uploads/thumbs/<name>.
type LocalStorage struct {
	basePath  string // absolute uploads root
	urlPrefix string // e.g. "/uploads"
	subDirMap map[AssetType]string
}

// NewLocalStorage creates a local filesystem store rooted at basePath.
// originals live in the root itself; derived variants in subdirectories.
func NewLocalStorage(basePath, urlPrefix string, subDirs map[AssetType]string) (*LocalStorage, error) {
	absBasePath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid base storage path '%s': %w", basePath, err)
	}

	for assetType, subDir := range subDirs {
		fullPath := filepath.Join(absBasePath, subDir)
		if !strings.HasPrefix(filepath.Clean(fullPath), absBasePath) {
			return nil, fmt.Errorf("invalid subdirectory configuration: '%s' for %s resolves outside base path '%s'", subDir, assetType, absBasePath)
		}
	}

	ls := &LocalStorage{
		basePath:  absBasePath,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
		subDirMap: subDirs,
	}
	if err := ls.EnsureDirs(); err != nil {
		return nil, err
	}

	log.Printf("media.store: initialized LocalStorage at %s", absBasePath)
	return ls, nil
}

// DefaultSubDirs is the canonical uploads layout
func DefaultSubDirs(compressedSubDir, thumbsSubDir string) map[AssetType]string {
	return map[AssetType]string{
		AssetTypeOriginal:   "",
		AssetTypeCompressed: compressedSubDir,
		AssetTypeThumbnail:  thumbsSubDir,
	}
}

func (ls *LocalStorage) assetDir(assetType AssetType) (string, error) {
	subDir, ok := ls.subDirMap[assetType]
	if !ok {
		return "", fmt.Errorf("asset type '%s' not configured", assetType)
	}
	return filepath.Join(ls.basePath, subDir), nil
}

// EnsureDirs creates every configured variant directory
func (ls *LocalStorage) EnsureDirs() error {
	for assetType := range ls.subDirMap {
		dirPath, err := ls.assetDir(assetType)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dirPath, 0755); err != nil {
			return fmt.Errorf("failed to ensure directory '%s': %w", dirPath, err)
		}
	}
	return nil
}

// FullPath resolves and traversal-guards the absolute path of an asset
func (ls *LocalStorage) FullPath(assetType AssetType, filename string) (string, error) {
	dirPath, err := ls.assetDir(assetType)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Clean(filepath.Join(dirPath, filename))
	if !strings.HasPrefix(fullPath, ls.basePath) || filepath.Base(fullPath) != filename {
		return "", fmt.Errorf("invalid asset filename '%s'", filename)
	}
	return fullPath, nil
}

// Save writes data to the asset type's directory under filename
func (ls *LocalStorage) Save(assetType AssetType, filename string, data io.Reader) (string, error) {
	fullSavePath, err := ls.FullPath(assetType, filename)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(fullSavePath), 0755); err != nil {
		return "", fmt.Errorf("failed to ensure directory for '%s': %w", fullSavePath, err)
	}

	outFile, err := os.Create(fullSavePath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file '%s': %w", fullSavePath, err)
	}
	defer outFile.Close()

	if _, err := io.Copy(outFile, data); err != nil {
		outFile.Close()
		os.Remove(fullSavePath)
		return "", fmt.Errorf("failed to write data to '%s': %w", fullSavePath, err)
	}
	return fullSavePath, nil
}

// Read returns the full contents of an asset
func (ls *LocalStorage) Read(assetType AssetType, filename string) ([]byte, error) {
	fullPath, err := ls.FullPath(assetType, filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset '%s': %w", fullPath, err)
	}
	return data, nil
}

// Delete removes an asset; a missing file is treated as already deleted
func (ls *LocalStorage) Delete(assetType AssetType, filename string) error {
	fullPath, err := ls.FullPath(assetType, filename)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete asset '%s': %w", fullPath, err)
	}
	return nil
}

// PublicURL maps an asset to its served URL path
func (ls *LocalStorage) PublicURL(assetType AssetType, filename string) string {
	subDir := ls.subDirMap[assetType]
	if subDir == "" {
		return path.Join(ls.urlPrefix, filename)
	}
	return path.Join(ls.urlPrefix, subDir, filename)
}
