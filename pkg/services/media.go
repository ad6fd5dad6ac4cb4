package services

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"blog-server/pkg/config"
)

type MediaFile struct {
	Name string `json:"name"`
	Path string `json:"path"` // Relative path for usage in markdown
	Size int64  `json:"size"`
	URL  string `json:"url"` // URL for preview
}

// mediaURL is where the router serves a stored file: /static/<media folder>/<folder>/<name>.
func mediaURL(folder, name string) string {
	return path.Join("/static", filepath.ToSlash(config.MediaFolder), filepath.ToSlash(folder), name)
}

func mediaDir(folder string) (string, error) {
	dir := SafeJoin(config.StaticPath, config.MediaFolder, folder)
	if dir == "" {
		return "", ErrInvalidPath
	}
	return dir, nil
}

// ListMediaFiles lists the images stored under folder (a collection slug or ""), by name.
func ListMediaFiles(folder string) ([]MediaFile, error) {
	dir, err := mediaDir(folder)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []MediaFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read media dir: %w", err)
	}

	files := []MediaFile{}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		usagePath := mediaURL(folder, entry.Name())
		files = append(files, MediaFile{
			Name: entry.Name(),
			Path: usagePath,
			Size: info.Size(),
			URL:  usagePath,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// SaveMediaFile stores an upload under folder. Spaces become underscores and a unix
// timestamp is appended so uploads never overwrite each other.
func SaveMediaFile(header *multipart.FileHeader, folder string) (*MediaFile, error) {
	dir, err := mediaDir(folder)
	if err != nil {
		return nil, err
	}

	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	filename := filepath.Base(header.Filename)
	filename = strings.ReplaceAll(filename, " ", "_")

	ext := filepath.Ext(filename)
	name := strings.TrimSuffix(filename, ext)
	filename = fmt.Sprintf("%s_%d%s", name, time.Now().Unix(), ext)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	dst, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		return nil, err
	}

	usagePath := mediaURL(folder, filename)
	return &MediaFile{
		Name: filename,
		Path: usagePath,
		Size: size,
		URL:  usagePath,
	}, nil
}

func DeleteMediaFile(folder, filename string) error {
	dir, err := mediaDir(folder)
	if err != nil {
		return err
	}
	if filename == "" || filepath.Base(filename) != filename {
		return ErrInvalidPath
	}
	return os.Remove(filepath.Join(dir, filename))
}
