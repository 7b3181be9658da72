package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemoryStore()
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) TestPutAndGet() {
	session := &Session{ID: "s1", UID: "uid-1", Email: "alex@example.com", IDToken: "tok"}
	s.Require().NoError(s.store.Put(s.ctx, session, time.Hour))

	got, err := s.store.Get(s.ctx, "s1")
	s.Require().NoError(err)
	s.Equal("uid-1", got.UID)
	s.Equal("tok", got.IDToken)
}

func (s *MemoryStoreSuite) TestGetReturnsACopy() {
	session := &Session{ID: "s1", Email: "alex@example.com"}
	s.Require().NoError(s.store.Put(s.ctx, session, time.Hour))

	first, err := s.store.Get(s.ctx, "s1")
	s.Require().NoError(err)
	first.Email = "mutated@example.com"

	second, err := s.store.Get(s.ctx, "s1")
	s.Require().NoError(err)
	s.Equal("alex@example.com", second.Email)
}

func (s *MemoryStoreSuite) TestUnknownID() {
	_, err := s.store.Get(s.ctx, "missing")
	s.Require().ErrorIs(err, ErrSessionNotFound)
}

func (s *MemoryStoreSuite) TestExpiredSessionIsGone() {
	session := &Session{ID: "s1"}
	s.Require().NoError(s.store.Put(s.ctx, session, -time.Second))

	_, err := s.store.Get(s.ctx, "s1")
	s.Require().ErrorIs(err, ErrSessionNotFound)
}

func (s *MemoryStoreSuite) TestDelete() {
	session := &Session{ID: "s1"}
	s.Require().NoError(s.store.Put(s.ctx, session, time.Hour))
	s.Require().NoError(s.store.Delete(s.ctx, "s1"))

	_, err := s.store.Get(s.ctx, "s1")
	s.Require().ErrorIs(err, ErrSessionNotFound)

	s.Require().NoError(s.store.Delete(s.ctx, "s1"), "deleting an unknown ID is not an error")
}
