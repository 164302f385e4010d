package gateway

import (
	"stock-lookup/internal/broker"
	"stock-lookup/internal/product"
)

// CredentialsDto is the connection credential set a client sends with every
// call. It is used for the lifetime of one request and never stored.
type CredentialsDto struct {
	Host     string `json:"host" validate:"required"`
	Port     int    `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	User     string `json:"user" validate:"required"`
	Password string `json:"password" validate:"required"`
	Database string `json:"database" validate:"required"`
}

func (c CredentialsDto) Credentials() broker.Credentials {
	return broker.Credentials{
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		Database: c.Database,
	}
}

type SearchDto struct {
	DbConfig CredentialsDto `json:"dbConfig"`
	// Keyword may be empty but must be present.
	Keyword *string `json:"keyword" validate:"required"`
}

type ConnectionResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Time    any    `json:"time"`
}

type SearchResponse struct {
	Status string           `json:"status"`
	Data   []product.Record `json:"data"`
}
