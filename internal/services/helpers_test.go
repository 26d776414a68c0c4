package services

import (
	"context"
	"errors"
	"testing"

	"github.com/moviemania/frontend/internal/accountapi"
	"github.com/moviemania/frontend/internal/accountapi/accountapitest"
	"github.com/moviemania/frontend/internal/session"
)

// memSession is an in-memory Session that counts writes.
type memSession struct {
	data    session.Data
	writes  int
	cleared int
	rotated int
	failAt  int
}

func (m *memSession) Data() session.Data { return m.data }

func (m *memSession) Update(_ context.Context, fn func(*session.Data)) error {
	if m.failAt > 0 && m.writes+1 == m.failAt {
		return errors.New("session backend down")
	}
	next := m.data
	fn(&next)
	m.data = next
	m.writes++
	return nil
}

func (m *memSession) Rotate(context.Context) error {
	m.rotated++
	return nil
}

func (m *memSession) Clear(context.Context) error {
	m.data = session.Data{}
	m.cleared++
	return nil
}

func newAccountAPI(t *testing.T) (*accountapi.Client, *accountapitest.Server) {
	t.Helper()
	srv := accountapitest.NewServer()
	t.Cleanup(srv.Close)
	return accountapi.NewClient(srv.Config()), srv
}
