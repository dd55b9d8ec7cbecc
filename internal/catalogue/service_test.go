package catalogue

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/animanga/backend/internal/models"
	"github.com/ayush/animanga/backend/internal/store"
)

type fakeShows struct {
	shows map[string]models.Show
	err   error
}

func newFakeShows(shows ...models.Show) *fakeShows {
	f := &fakeShows{shows: map[string]models.Show{}}
	for _, s := range shows {
		f.shows[s.Kind+"/"+s.Title] = s
	}
	return f
}

func (f *fakeShows) FindByTitle(_ context.Context, kind, title string) (*models.Show, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.shows[kind+"/"+title]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &s, nil
}

func (f *fakeShows) ListByKind(_ context.Context, kind string) ([]models.Show, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Show
	for _, s := range f.shows {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	return out, nil
}

func (f *fakeShows) Upsert(_ context.Context, show *models.Show) error {
	if f.err != nil {
		return f.err
	}
	f.shows[show.Kind+"/"+show.Title] = *show
	return nil
}

type fakeCovers struct {
	objects map[string][]byte
	opened  []string
}

func (f *fakeCovers) Open(_ context.Context, key string) (*store.Object, error) {
	f.opened = append(f.opened, key)
	data, ok := f.objects[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &store.Object{
		Body:        io.NopCloser(bytes.NewReader(data)),
		ContentType: "image/jpeg",
		Size:        int64(len(data)),
	}, nil
}

func (f *fakeCovers) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

var berserk = models.Show{
	Kind:     models.KindManga,
	Title:    "Berserk",
	Rating:   9.4,
	Genre:    "Dark Fantasy",
	Image:    "/covers/manga/Berserk.jpg",
	Synopsis: "Guts, a former mercenary...",
	Status:   "Ongoing",
	Creator:  "Kentaro Miura",
	Units:    41,
}

func newTestService(shows *fakeShows, covers *fakeCovers) *Service {
	logger, _ := logtest.NewNullLogger()
	return NewService(shows, covers, logger)
}

func TestGet_Known(t *testing.T) {
	svc := newTestService(newFakeShows(berserk), &fakeCovers{})

	got, err := svc.Get(context.Background(), models.KindManga, "Berserk")
	require.NoError(t, err)
	assert.Equal(t, berserk, *got)
}

func TestGet_UnknownTitleReturnsPlaceholder(t *testing.T) {
	svc := newTestService(newFakeShows(berserk), &fakeCovers{})

	got, err := svc.Get(context.Background(), models.KindAnime, "Mystery Show")
	require.NoError(t, err)
	assert.Equal(t, "Mystery Show", got.Title)
	assert.Equal(t, models.KindAnime, got.Kind)
	assert.Zero(t, got.Rating)
	assert.Equal(t, "N/A", got.Genre)
	assert.Equal(t, "No detailed information available.", got.Synopsis)
	assert.Equal(t, "Unknown", got.Status)
	assert.Equal(t, "/covers/anime/placeholder.jpg", got.Image)
	assert.Empty(t, got.Entries)
}

func TestService_UnknownKind(t *testing.T) {
	svc := newTestService(newFakeShows(), &fakeCovers{})
	ctx := context.Background()

	_, err := svc.Get(ctx, "novel", "x")
	assert.ErrorIs(t, err, ErrUnknownKind)
	_, err = svc.List(ctx, "novel")
	assert.ErrorIs(t, err, ErrUnknownKind)
	_, err = svc.Cover(ctx, "novel", "x.jpg")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestGet_StorageError(t *testing.T) {
	shows := newFakeShows()
	shows.err = errors.New("mongo down")
	svc := newTestService(shows, &fakeCovers{})

	_, err := svc.Get(context.Background(), models.KindManga, "Berserk")
	assert.EqualError(t, err, "mongo down")
}

func TestList(t *testing.T) {
	low := models.Show{Kind: models.KindManga, Title: "Low", Rating: 5}
	anime := models.Show{Kind: models.KindAnime, Title: "EVA", Rating: 8.5}
	svc := newTestService(newFakeShows(low, berserk, anime), &fakeCovers{})

	got, err := svc.List(context.Background(), models.KindManga)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Berserk", got[0].Title)
	assert.Equal(t, "Low", got[1].Title)

	empty := newTestService(newFakeShows(), &fakeCovers{})
	got, err = empty.List(context.Background(), models.KindAnime)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCover(t *testing.T) {
	covers := &fakeCovers{objects: map[string][]byte{
		"manga/Berserk.jpg":     []byte("berserk"),
		"manga/placeholder.jpg": []byte("placeholder"),
	}}
	svc := newTestService(newFakeShows(), covers)
	ctx := context.Background()

	read := func(name string) string {
		obj, err := svc.Cover(ctx, models.KindManga, name)
		require.NoError(t, err)
		defer obj.Body.Close()
		data, err := io.ReadAll(obj.Body)
		require.NoError(t, err)
		return string(data)
	}

	assert.Equal(t, "berserk", read("Berserk.jpg"))
	assert.Equal(t, "placeholder", read("Missing.jpg"))
	assert.Equal(t, "berserk", read("../anime/Berserk.jpg"))
	assert.Contains(t, covers.opened, "manga/Missing.jpg")
	assert.NotContains(t, covers.opened, "anime/Berserk.jpg")
}

func TestCover_NoPlaceholder(t *testing.T) {
	covers := &fakeCovers{objects: map[string][]byte{}}
	svc := newTestService(newFakeShows(), covers)

	_, err := svc.Cover(context.Background(), models.KindAnime, "EVA.jpg")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, []string{"anime/EVA.jpg", "anime/placeholder.jpg"}, covers.opened)
}

const seedYAML = `
shows:
  - kind: manga
    title: Berserk
    rating: 9.4
    genre: Dark Fantasy
    image: /covers/manga/Berserk.jpg
    creator: Kentaro Miura
    units: 41
    related: [Vagabond]
  - kind: Anime
    title: Neon Genesis Evangelion
    rating: 8.5
    entries:
      - number: 1
        title: Angel Attack
        date: Oct 4, 1995
`

func TestReadSeedAndSeed(t *testing.T) {
	shows, err := ReadSeed(strings.NewReader(seedYAML))
	require.NoError(t, err)
	require.Len(t, shows, 2)
	assert.Equal(t, []string{"Vagabond"}, shows[0].Related)
	assert.Equal(t, "Angel Attack", shows[1].Entries[0].Title)

	st := newFakeShows()
	svc := newTestService(st, &fakeCovers{})
	n, err := svc.Seed(context.Background(), shows)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	eva := st.shows["anime/Neon Genesis Evangelion"]
	assert.Equal(t, models.KindAnime, eva.Kind)
	assert.Equal(t, "/covers/anime/placeholder.jpg", eva.Image)
}

func TestReadSeed_RejectsUnknownFields(t *testing.T) {
	_, err := ReadSeed(strings.NewReader("shows:\n  - title: X\n    episodes: 12\n"))
	assert.Error(t, err)
}

func TestSeed_InvalidKind(t *testing.T) {
	svc := newTestService(newFakeShows(), &fakeCovers{})
	n, err := svc.Seed(context.Background(), []models.Show{{Kind: "novel", Title: "X"}})
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.Zero(t, n)
}

func TestSeedCovers(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "anime"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "anime", "EVA.jpg"), []byte("eva"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "anime", "placeholder.jpg"), []byte("ph"), 0o644))

	covers := &fakeCovers{objects: map[string][]byte{}}
	svc := newTestService(newFakeShows(), covers)

	n, err := svc.SeedCovers(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte("eva"), covers.objects["anime/EVA.jpg"])
	assert.Contains(t, covers.objects, "anime/placeholder.jpg")
}
