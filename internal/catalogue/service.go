// Package catalogue serves the read-only anime and manga catalogue: show
// details from MongoDB and cover images from MinIO.
package catalogue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ayush/animanga/backend/internal/models"
	"github.com/ayush/animanga/backend/internal/store"
)

const placeholderCover = "placeholder.jpg"

var ErrUnknownKind = errors.New("unknown show kind")

// ShowStore defines the interface for show persistence.
type ShowStore interface {
	FindByTitle(ctx context.Context, kind, title string) (*models.Show, error)
	ListByKind(ctx context.Context, kind string) ([]models.Show, error)
	Upsert(ctx context.Context, show *models.Show) error
}

// CoverStore defines the interface for cover image storage.
type CoverStore interface {
	Open(ctx context.Context, key string) (*store.Object, error)
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// Service looks up shows and their covers.
type Service struct {
	shows  ShowStore
	covers CoverStore
	log    logrus.FieldLogger
}

func NewService(shows ShowStore, covers CoverStore, log logrus.FieldLogger) *Service {
	return &Service{shows: shows, covers: covers, log: log}
}

func checkKind(kind string) error {
	if kind != models.KindAnime && kind != models.KindManga {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return nil
}

// CoverURL is the public path of a cover image.
func CoverURL(kind, name string) string {
	return "/covers/" + kind + "/" + name
}

// Placeholder is the record shown for titles missing from the catalogue.
func Placeholder(kind, title string) *models.Show {
	return &models.Show{
		Kind:     kind,
		Title:    title,
		Rating:   0,
		Genre:    "N/A",
		Image:    CoverURL(kind, placeholderCover),
		Synopsis: "No detailed information available.",
		Status:   "Unknown",
		Creator:  "Unknown",
		Released: "Unknown",
		Entries:  []models.Entry{},
		Related:  []string{},
	}
}

// Get returns the show with the given title, or its placeholder when the
// catalogue has no such title.
func (s *Service) Get(ctx context.Context, kind, title string) (*models.Show, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	show, err := s.shows.FindByTitle(ctx, kind, title)
	if errors.Is(err, store.ErrNotFound) {
		return Placeholder(kind, title), nil
	}
	if err != nil {
		return nil, err
	}
	return show, nil
}

// List returns every show of kind, best rated first.
func (s *Service) List(ctx context.Context, kind string) ([]models.Show, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	shows, err := s.shows.ListByKind(ctx, kind)
	if err != nil {
		return nil, err
	}
	if shows == nil {
		shows = []models.Show{}
	}
	return shows, nil
}

// Cover opens the cover image kind/name, falling back to the kind's
// placeholder image. The caller closes the returned Body.
func (s *Service) Cover(ctx context.Context, kind, name string) (*store.Object, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	// Keep lookups inside the kind's prefix.
	name = path.Base(path.Clean("/" + name))
	if name == "/" || name == "." {
		name = placeholderCover
	}

	obj, err := s.covers.Open(ctx, kind+"/"+name)
	if errors.Is(err, store.ErrNotFound) && name != placeholderCover {
		s.log.WithFields(logrus.Fields{"kind": kind, "name": name}).Debug("cover missing, using placeholder")
		obj, err = s.covers.Open(ctx, kind+"/"+placeholderCover)
	}
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// Seed upserts shows into the catalogue.
func (s *Service) Seed(ctx context.Context, shows []models.Show) (int, error) {
	n := 0
	for i := range shows {
		show := &shows[i]
		show.Kind = strings.ToLower(strings.TrimSpace(show.Kind))
		if err := checkKind(show.Kind); err != nil {
			return n, fmt.Errorf("show %q: %w", show.Title, err)
		}
		if show.Title == "" {
			return n, fmt.Errorf("show #%d: missing title", i+1)
		}
		if show.Image == "" {
			show.Image = CoverURL(show.Kind, placeholderCover)
		}
		if err := s.shows.Upsert(ctx, show); err != nil {
			return n, err
		}
		n++
	}
	s.log.WithField("count", n).Info("catalogue seeded")
	return n, nil
}

// UploadCover stores a cover image under kind/name.
func (s *Service) UploadCover(ctx context.Context, kind, name string, r io.Reader, size int64, contentType string) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	return s.covers.Upload(ctx, kind+"/"+path.Base(name), r, size, contentType)
}
