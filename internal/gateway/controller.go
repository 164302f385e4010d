package gateway

import (
	"net/http"

	"stock-lookup/pkg/req"
	"stock-lookup/pkg/res"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type ControllerDeps struct {
	*Service
}

type Controller struct {
	*Service
}

func NewController(router *mux.Router, deps ControllerDeps) *Controller {
	c := &Controller{Service: deps.Service}
	router.Handle("/api/test-connection", c.TestConnection()).Methods(http.MethodPost, http.MethodOptions)
	router.Handle("/api/search", c.Search()).Methods(http.MethodPost, http.MethodOptions)
	return c
}

func (c *Controller) TestConnection() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := req.HandleBody[CredentialsDto](&w, r)
		if err != nil {
			return
		}

		out, err := c.Service.TestConnection(r.Context(), body.Credentials())
		if err != nil {
			c.fail(w, r, "test-connection", err)
			return
		}

		res.Json(w, ConnectionResponse{
			Status:  res.StatusSuccess,
			Message: out.Message,
			Time:    out.ServerTime,
		}, http.StatusOK)
	}
}

func (c *Controller) Search() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := req.HandleBody[SearchDto](&w, r)
		if err != nil {
			return
		}

		products, err := c.Service.Search(r.Context(), body.DbConfig.Credentials(), *body.Keyword)
		if err != nil {
			c.fail(w, r, "search", err)
			return
		}

		res.Json(w, SearchResponse{Status: res.StatusSuccess, Data: products}, http.StatusOK)
	}
}

// Every failure is a 500; the subtype is only in the message.
func (c *Controller) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	zerolog.Ctx(r.Context()).Warn().Err(err).Str("op", op).Msg("request failed")
	res.Fail(w, Message(err), http.StatusInternalServerError)
}
