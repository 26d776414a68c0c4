package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/moviemania/frontend/config"
	"github.com/moviemania/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureBackend struct {
	channel string
	data    []byte
	attrs   map[string]string
	err     error
	closed  bool
}

func (c *captureBackend) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	c.channel, c.data, c.attrs = channel, data, attrs
	return "msg-1", c.err
}

func (c *captureBackend) Close() error {
	c.closed = true
	return nil
}

func TestPublishRating(t *testing.T) {
	backend := &captureBackend{}
	pub := NewPublisher(backend, "movie-ratings")
	ratedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, pub.PublishRating(context.Background(), types.Rating{MovieID: 13, UserID: 4, Note: 5, RatedAt: ratedAt}))

	assert.Equal(t, "movie-ratings", backend.channel)
	assert.Equal(t, TypeMovieRated, backend.attrs[attrEventType])
	assert.Equal(t, "13", backend.attrs["movie_id"])

	var event RatingEvent
	require.NoError(t, json.Unmarshal(backend.data, &event))
	assert.Equal(t, backend.attrs[attrEventID], event.ID)
	assert.Equal(t, 13, event.MovieID)
	assert.Equal(t, 4, event.UserID)
	assert.Equal(t, 5, event.Rating)
	assert.True(t, ratedAt.Equal(event.RatedAt))

	require.NoError(t, pub.Close())
	assert.True(t, backend.closed)
}

func TestPublishRatingWrapsBackendError(t *testing.T) {
	pub := NewPublisher(&captureBackend{err: errors.New("channel closed")}, "movie-ratings")
	err := pub.PublishRating(context.Background(), types.Rating{MovieID: 1, UserID: 1, Note: 1})
	assert.ErrorContains(t, err, "publish movie.rated: channel closed")
}

func TestNewFromConfig(t *testing.T) {
	pub, err := NewFromConfig(context.Background(), config.Config{Events: config.EventsConfig{Backend: "none"}})
	require.NoError(t, err)
	assert.Nil(t, pub)

	_, err = NewFromConfig(context.Background(), config.Config{Events: config.EventsConfig{Backend: "kafka"}})
	assert.ErrorContains(t, err, `unknown events backend "kafka"`)

	_, err = NewFromConfig(context.Background(), config.Config{Events: config.EventsConfig{Backend: "rabbitmq"}})
	assert.ErrorContains(t, err, "rabbitmq url is required")
}
