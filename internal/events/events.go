// Package events publishes rating events to a message broker so downstream
// services (the recommendation engine) can react to new ratings.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/moviemania/frontend/types"
)

const (
	TypeMovieRated = "movie.rated"

	attrEventType = "event_type"
	attrEventID   = "event_id"
)

// Backend is a broker that can publish to a named channel.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// RatingEvent is the payload of a movie.rated event.
type RatingEvent struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	MovieID int       `json:"movie_id"`
	UserID  int       `json:"user_id"`
	Rating  int       `json:"rating"`
	RatedAt time.Time `json:"rated_at"`
}

// Publisher serialises rating events onto a backend channel.
type Publisher struct {
	backend Backend
	channel string
}

// NewPublisher constructs a Publisher for the provided backend.
func NewPublisher(backend Backend, channel string) *Publisher {
	return &Publisher{backend: backend, channel: channel}
}

// PublishRating sends a movie.rated event.
func (p *Publisher) PublishRating(ctx context.Context, rating types.Rating) error {
	event := RatingEvent{
		ID:      uuid.NewString(),
		Type:    TypeMovieRated,
		MovieID: rating.MovieID,
		UserID:  rating.UserID,
		Rating:  rating.Note,
		RatedAt: rating.RatedAt,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	attrs := map[string]string{
		attrEventType: event.Type,
		attrEventID:   event.ID,
		"movie_id":    strconv.Itoa(rating.MovieID),
	}
	if _, err := p.backend.Publish(ctx, p.channel, data, attrs); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Close closes the underlying backend.
func (p *Publisher) Close() error {
	return p.backend.Close()
}
