package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stock-lookup/internal/broker"
	"stock-lookup/internal/product"
	"stock-lookup/pkg/limiter"
)

type Service struct {
	broker  *broker.Broker
	queries *product.Queries
}

func NewService(b *broker.Broker, queries *product.Queries) *Service {
	return &Service{broker: b, queries: queries}
}

// ConnectionStatus proves a full round trip: the time comes from the server.
type ConnectionStatus struct {
	Message    string
	ServerTime any
}

func (s *Service) TestConnection(ctx context.Context, creds broker.Credentials) (*ConnectionStatus, error) {
	rows, err := s.broker.Execute(ctx, creds, s.queries.Clock())
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("clock query returned no rows")
	}

	var now any
	for k, v := range rows[0] {
		if strings.EqualFold(k, "now") {
			now = v
		}
	}

	return &ConnectionStatus{
		Message:    "Connected to " + s.broker.Dialect().DisplayName() + "!",
		ServerTime: now,
	}, nil
}

// Search returns every product whose name or SKU contains keyword, ignoring
// case, highest quantity first. An empty keyword matches all products.
func (s *Service) Search(ctx context.Context, creds broker.Credentials, keyword string) ([]product.Record, error) {
	query, args := s.queries.Search(keyword)
	rows, err := s.broker.Execute(ctx, creds, query, args...)
	if err != nil {
		return nil, err
	}
	return product.FromRows(rows)
}

// Message turns a service error into the text shown to the caller. Driver
// text is passed through; passwords were already redacted by the broker.
func Message(err error) string {
	var connErr *broker.ConnectionError
	var queryErr *broker.QueryError
	switch {
	case errors.As(err, &connErr):
		return "could not reach database: " + connErr.Error()
	case errors.As(err, &queryErr):
		return queryErr.Error()
	case errors.Is(err, limiter.ErrBusy):
		return limiter.ErrBusy.Error()
	default:
		return err.Error()
	}
}
