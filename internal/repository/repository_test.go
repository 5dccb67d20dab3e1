package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"securelink/internal/database"
	"securelink/internal/entities"
)

// newTestDB opens a private in-memory SQLite database with the schema applied.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	db, dialect, err := database.NewConnection(ctx, "sqlite", dsn)
	require.NoError(t, err)
	require.Equal(t, database.DialectSQLite, dialect)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.RunMigrations(ctx, db, dialect))
	return db
}

type repos struct {
	links   LinkRepository
	users   UserRepository
	domains DomainRepository
}

func newRepos(t *testing.T) repos {
	db := newTestDB(t)
	return repos{
		links:   NewLinkRepository(db, database.DialectSQLite),
		users:   NewUserRepository(db, database.DialectSQLite),
		domains: NewDomainRepository(db, database.DialectSQLite),
	}
}

func mustUser(t *testing.T, r repos, email string) string {
	t.Helper()
	now := time.Now().UTC()
	user := &entities.User{ID: uuid.NewString(), Email: email, PasswordHash: "x", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, r.users.Create(context.Background(), user))
	return user.ID
}

func mustLink(t *testing.T, r repos, code string, owner *string) *entities.Link {
	t.Helper()
	link := &entities.Link{
		ID:          uuid.NewString(),
		ShortCode:   code,
		OriginalURL: "https://example.com/" + code,
		OwnerID:     owner,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, r.links.Create(context.Background(), link))
	return link
}

func TestRebind(t *testing.T) {
	q := `SELECT * FROM links WHERE id IN (?, ?) AND owner_id = ?`
	assert.Equal(t, q, rebind(database.DialectSQLite, q))
	assert.Equal(t, `SELECT * FROM links WHERE id IN ($1, $2) AND owner_id = $3`, rebind(database.DialectPostgres, q))
	assert.Equal(t, "?, ?, ?", placeholders(3))
	assert.Equal(t, "", placeholders(0))
}

func TestLinkRepository_CreateAndFind(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	owner := mustUser(t, r, "ada@example.com")

	expiry := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	hash := "$2a$10$hash"
	title := "Docs"
	link := &entities.Link{
		ID:           uuid.NewString(),
		ShortCode:    "abc123",
		OriginalURL:  "https://example.com",
		OwnerID:      &owner,
		Title:        &title,
		PasswordHash: &hash,
		ExpiryTime:   &expiry,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, r.links.Create(ctx, link))

	got, err := r.links.FindByShortCode(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, link.ID, got.ID)
	assert.Equal(t, "https://example.com", got.OriginalURL)
	assert.Equal(t, owner, *got.OwnerID)
	assert.Equal(t, "Docs", *got.Title)
	assert.True(t, got.Protected())
	require.NotNil(t, got.ExpiryTime)
	assert.True(t, expiry.Equal(*got.ExpiryTime))
	assert.Zero(t, got.Clicks)

	byID, err := r.links.FindByID(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, "abc123", byID.ShortCode)

	_, err = r.links.FindByShortCode(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.links.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLinkRepository_ShortCodeIsCaseSensitive(t *testing.T) {
	r := newRepos(t)
	mustLink(t, r, "AbC123", nil)
	mustLink(t, r, "abc123", nil)

	got, err := r.links.FindByShortCode(context.Background(), "AbC123")
	require.NoError(t, err)
	assert.Equal(t, "AbC123", got.ShortCode)
}

func TestLinkRepository_DuplicateShortCode(t *testing.T) {
	r := newRepos(t)
	mustLink(t, r, "dup123", nil)

	err := r.links.Create(context.Background(), &entities.Link{
		ID: uuid.NewString(), ShortCode: "dup123", OriginalURL: "https://other.example", CreatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestLinkRepository_ConcurrentSameAlias(t *testing.T) {
	r := newRepos(t)
	const writers = 10

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		dupes     int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := r.links.Create(context.Background(), &entities.Link{
				ID:          uuid.NewString(),
				ShortCode:   "race",
				OriginalURL: fmt.Sprintf("https://example.com/%d", i),
				CreatedAt:   time.Now().UTC(),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrDuplicate):
				dupes++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, writers-1, dupes)
}

func TestLinkRepository_ConcurrentVisits(t *testing.T) {
	r := newRepos(t)
	link := mustLink(t, r, "hot123", nil)
	const visits = 25

	var wg sync.WaitGroup
	for i := 0; i < visits; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := r.links.RecordVisit(context.Background(), &entities.Visit{
				ID:        uuid.NewString(),
				LinkID:    link.ID,
				Device:    entities.DeviceDesktop,
				Referrer:  "Direct",
				UserAgent: "test",
				CreatedAt: time.Now().UTC(),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := r.links.FindByID(context.Background(), link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(visits), got.Clicks)

	list, err := r.links.ListVisits(context.Background(), link.ID)
	require.NoError(t, err)
	assert.Len(t, list, visits)
}

func TestLinkRepository_RecordVisitUnknownLink(t *testing.T) {
	r := newRepos(t)
	err := r.links.RecordVisit(context.Background(), &entities.Visit{
		ID: uuid.NewString(), LinkID: uuid.NewString(), Device: entities.DeviceMobile, CreatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLinkRepository_ListVisitsNewestFirst(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	link := mustLink(t, r, "vis123", nil)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, device := range []entities.Device{entities.DeviceDesktop, entities.DeviceMobile, entities.DeviceTablet} {
		require.NoError(t, r.links.RecordVisit(ctx, &entities.Visit{
			ID: uuid.NewString(), LinkID: link.ID, Device: device, Referrer: "Direct", UserAgent: "ua",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	list, err := r.links.ListVisits(ctx, link.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, entities.DeviceTablet, list[0].Device)
	assert.Equal(t, entities.DeviceDesktop, list[2].Device)
	assert.True(t, base.Equal(list[2].CreatedAt))
}

func TestLinkRepository_ClaimUnowned(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	x := mustUser(t, r, "x@example.com")
	y := mustUser(t, r, "y@example.com")
	guest := mustLink(t, r, "guest1", nil)
	mustLink(t, r, "ownedY", &y)

	n, err := r.links.ClaimUnowned(ctx, []string{"guest1", "ownedY", "missing"}, x)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := r.links.FindByID(ctx, guest.ID)
	require.NoError(t, err)
	assert.True(t, got.OwnedBy(x))

	other, err := r.links.FindByShortCode(ctx, "ownedY")
	require.NoError(t, err)
	assert.True(t, other.OwnedBy(y))

	n, err = r.links.ClaimUnowned(ctx, []string{"guest1"}, y)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLinkRepository_ListAndCountByOwner(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	x := mustUser(t, r, "x@example.com")

	first := mustLink(t, r, "first1", &x)
	time.Sleep(2 * time.Millisecond)
	second := mustLink(t, r, "second", &x)
	mustLink(t, r, "guest1", nil)

	links, err := r.links.ListByOwner(ctx, x)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, second.ID, links[0].ID)
	assert.Equal(t, first.ID, links[1].ID)

	count, err := r.links.CountByOwner(ctx, x)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestLinkRepository_Update(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	x := mustUser(t, r, "x@example.com")
	y := mustUser(t, r, "y@example.com")
	link := mustLink(t, r, "upd123", &x)

	title := "New title"
	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	link.Title = &title
	link.ExpiryTime = &expiry
	require.NoError(t, r.links.Update(ctx, link))

	got, err := r.links.FindByID(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, "New title", *got.Title)
	assert.True(t, expiry.Equal(*got.ExpiryTime))

	link.OwnerID = &y
	assert.ErrorIs(t, r.links.Update(ctx, link), ErrNotFound)
}

func TestLinkRepository_DeleteMany(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	x := mustUser(t, r, "x@example.com")
	y := mustUser(t, r, "y@example.com")
	a := mustLink(t, r, "mineA1", &x)
	b := mustLink(t, r, "mineB2", &x)
	theirs := mustLink(t, r, "theirs", &y)

	require.NoError(t, r.links.RecordVisit(ctx, &entities.Visit{
		ID: uuid.NewString(), LinkID: a.ID, Device: entities.DeviceDesktop, Referrer: "Direct", UserAgent: "ua", CreatedAt: time.Now(),
	}))

	codes, err := r.links.DeleteMany(ctx, []string{a.ID, b.ID, theirs.ID, uuid.NewString()}, x)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"mineA1", "mineB2"}, codes)

	_, err = r.links.FindByID(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.links.FindByID(ctx, theirs.ID)
	assert.NoError(t, err)

	visits, err := r.links.ListVisits(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, visits)

	codes, err = r.links.Delete(ctx, theirs.ID, x)
	require.NoError(t, err)
	assert.Empty(t, codes)
}

func TestUserRepository(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	id := mustUser(t, r, "ada@example.com")

	got, err := r.users.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Nil(t, got.LastLogin)

	at := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, r.users.TouchLastLogin(ctx, id, at))
	got, err = r.users.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)
	assert.True(t, at.Equal(*got.LastLogin))

	err = r.users.Create(ctx, &entities.User{ID: uuid.NewString(), Email: "ada@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = r.users.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDomainRepository(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	owner := mustUser(t, r, "ada@example.com")

	domain := &entities.Domain{
		ID:        uuid.NewString(),
		Hostname:  "go.example.com",
		OwnerID:   owner,
		TXTRecord: "securelink-verification=abc",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, r.domains.Create(ctx, domain))

	dup := *domain
	dup.ID = uuid.NewString()
	assert.ErrorIs(t, r.domains.Create(ctx, &dup), ErrDuplicate)

	got, err := r.domains.FindByID(ctx, domain.ID)
	require.NoError(t, err)
	assert.False(t, got.Verified)

	require.NoError(t, r.domains.MarkVerified(ctx, domain.ID))
	got, err = r.domains.FindByID(ctx, domain.ID)
	require.NoError(t, err)
	assert.True(t, got.Verified)

	list, err := r.domains.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, r.domains.MarkVerified(ctx, uuid.NewString()), ErrNotFound)
}
