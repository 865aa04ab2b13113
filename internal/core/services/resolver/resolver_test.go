package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shortcut/internal/core/domain/catalog"
	"shortcut/pkg/ulid"
)

type mockDomainRepository struct {
	mock.Mock
}

func (m *mockDomainRepository) GetVerifiedByHostname(ctx context.Context, hostname string) (*catalog.Domain, error) {
	args := m.Called(ctx, hostname)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Domain), args.Error(1)
}

type mockLinkRepository struct {
	mock.Mock
}

func (m *mockLinkRepository) GetByDomainAndSlug(ctx context.Context, domainID ulid.ULID, slug string) (*catalog.Link, error) {
	args := m.Called(ctx, domainID, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Link), args.Error(1)
}

func (m *mockLinkRepository) ListByIDs(ctx context.Context, ids []ulid.ULID) ([]*catalog.Link, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*catalog.Link), args.Error(1)
}

func TestResolve_HappyPath(t *testing.T) {
	domainID := ulid.New()
	workspaceID := ulid.New()
	linkID := ulid.New()

	domains := new(mockDomainRepository)
	links := new(mockLinkRepository)
	domains.On("GetVerifiedByHostname", mock.Anything, "example.test").
		Return(&catalog.Domain{ID: domainID, Hostname: "example.test", Status: catalog.DomainStatusVerified}, nil)
	links.On("GetByDomainAndSlug", mock.Anything, domainID, "x").
		Return(&catalog.Link{ID: linkID, WorkspaceID: workspaceID, DomainID: domainID, Slug: "x",
			Destination: "https://dest.example/path", Status: catalog.LinkStatusActive}, nil)

	r := New(domains, links)
	res, err := r.Resolve(context.Background(), "EXAMPLE.test", "X")
	require.NoError(t, err)
	assert.Equal(t, workspaceID, res.WorkspaceID)
	assert.Equal(t, linkID, res.LinkID)
	assert.Equal(t, "https://dest.example/path", res.Destination)
}

func TestResolve_UnverifiedOrMissingDomain(t *testing.T) {
	domains := new(mockDomainRepository)
	links := new(mockLinkRepository)
	domains.On("GetVerifiedByHostname", mock.Anything, "ghost.test").
		Return(nil, catalog.ErrDomainNotFound)

	r := New(domains, links)
	_, err := r.Resolve(context.Background(), "ghost.test", "x")
	assert.ErrorIs(t, err, ErrUnresolved)
	links.AssertNotCalled(t, "GetByDomainAndSlug", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolve_MissingLink(t *testing.T) {
	domainID := ulid.New()
	domains := new(mockDomainRepository)
	links := new(mockLinkRepository)
	domains.On("GetVerifiedByHostname", mock.Anything, "example.test").
		Return(&catalog.Domain{ID: domainID, Status: catalog.DomainStatusVerified}, nil)
	links.On("GetByDomainAndSlug", mock.Anything, domainID, "missing").
		Return(nil, catalog.ErrLinkNotFound)

	r := New(domains, links)
	_, err := r.Resolve(context.Background(), "example.test", "missing")
	assert.ErrorIs(t, err, ErrUnresolved)
}

func TestResolve_PausedLinkIsUnresolved(t *testing.T) {
	domainID := ulid.New()
	domains := new(mockDomainRepository)
	links := new(mockLinkRepository)
	domains.On("GetVerifiedByHostname", mock.Anything, "example.test").
		Return(&catalog.Domain{ID: domainID, Status: catalog.DomainStatusVerified}, nil)
	links.On("GetByDomainAndSlug", mock.Anything, domainID, "x").
		Return(&catalog.Link{ID: ulid.New(), DomainID: domainID, Slug: "x", Status: catalog.LinkStatusPaused}, nil)

	r := New(domains, links)
	_, err := r.Resolve(context.Background(), "example.test", "x")
	assert.ErrorIs(t, err, ErrUnresolved)
}

func TestResolve_CatalogIOErrorPropagates(t *testing.T) {
	domains := new(mockDomainRepository)
	links := new(mockLinkRepository)
	boom := errors.New("connection reset")
	domains.On("GetVerifiedByHostname", mock.Anything, "example.test").Return(nil, boom)

	r := New(domains, links)
	_, err := r.Resolve(context.Background(), "example.test", "x")
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, ErrUnresolved))
}
