package catalogue

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ayush/animanga/backend/internal/models"
)

// SeedFile is the layout of the catalogue seed document.
type SeedFile struct {
	Shows []models.Show `yaml:"shows"`
}

// ReadSeed decodes a YAML seed document.
func ReadSeed(r io.Reader) ([]models.Show, error) {
	var f SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return f.Shows, nil
}

// SeedCovers uploads every file under dir/anime and dir/manga. It returns
// the number of uploaded images.
func (s *Service) SeedCovers(ctx context.Context, dir string) (int, error) {
	n := 0
	for _, kind := range []string{models.KindAnime, models.KindManga} {
		entries, err := os.ReadDir(filepath.Join(dir, kind))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return n, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if err := s.uploadFile(ctx, kind, filepath.Join(dir, kind, e.Name())); err != nil {
				return n, err
			}
			n++
		}
	}
	s.log.WithField("count", n).Info("covers uploaded")
	return n, nil
}

func (s *Service) uploadFile(ctx context.Context, kind, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	contentType := mime.TypeByExtension(filepath.Ext(file))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return s.UploadCover(ctx, kind, filepath.Base(file), f, info.Size(), contentType)
}
