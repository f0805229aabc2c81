package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/artpar/contractgate/core/binding"
	"github.com/artpar/contractgate/core/route"
	"github.com/artpar/contractgate/core/shaping"
	"github.com/artpar/contractgate/pkg/jsonapi"
)

// dispatch returns the handler serving one registered route.
func (c *Channel) dispatch(reg *registered) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := binding.Extract(r, reg.table, c.extract)
		if err != nil {
			c.writeExtractError(w, r, reg, err)
			return
		}

		args, result := reg.table.Bind(raw, c.validator)
		if !result.Valid {
			c.logger.Debug().
				Str("route", reg.label).
				Int("errors", len(result.Errors)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("validation failed")
			if c.metrics != nil {
				for _, e := range result.Errors {
					c.metrics.ValidationFailures.WithLabelValues(reg.label, string(e.Kind)).Inc()
				}
			}
			jsonapi.WriteError(w, validationErrors(result)...)
			return
		}

		res := reg.route.Handler(r.Context(), args)

		switch res.Kind() {
		case route.KindValue:
			c.writeValue(w, r, reg, res)
		case route.KindNotFound:
			c.writeNotFound(w, res.Missing())
		case route.KindSignal:
			c.writeSignal(w, r, reg, res.DomainSignal())
		default:
			c.logger.Error().
				Err(res.Err()).
				Str("route", reg.label).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("handler failed")
			jsonapi.WriteError(w, jsonapi.ErrInternal(""))
		}
	}
}

func (c *Channel) writeValue(w http.ResponseWriter, r *http.Request, reg *registered, res route.Result) {
	status := res.Status()
	if status == 0 {
		status = reg.route.SuccessStatus()
	}

	if status == http.StatusNoContent || status == http.StatusNotModified {
		w.WriteHeader(status)
		return
	}

	body, err := shaping.Shape(c.validator, reg.shape, res.Value())
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("route", reg.label).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("response shaping failed")
		if c.metrics != nil {
			c.metrics.ResponseErrors.WithLabelValues(reg.label).Inc()
		}
		jsonapi.WriteError(w, jsonapi.ErrInternal(""))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)+1))
	w.WriteHeader(status)
	w.Write(body)
	w.Write([]byte("\n"))
}

func (c *Channel) writeNotFound(w http.ResponseWriter, m route.Missing) {
	resource := m.Resource
	if resource == "" {
		resource = "resource"
	}
	if c.metrics != nil {
		c.metrics.NotFound.WithLabelValues(resource).Inc()
	}
	if m.Key == nil {
		jsonapi.WriteError(w, jsonapi.ErrNotFound(resource))
		return
	}
	jsonapi.WriteError(w, jsonapi.ErrNotFoundWithID(resource, fmt.Sprint(m.Key)))
}

func (c *Channel) writeSignal(w http.ResponseWriter, r *http.Request, reg *registered, sig route.DomainSignal) {
	h, handled := c.signalHandler(sig.Name)

	c.logger.Info().
		Str("signal", sig.Name).
		Str("reason", sig.Reason).
		Str("route", reg.label).
		Bool("handled", handled).
		Str("request_id", middleware.GetReqID(r.Context())).
		Msg("domain signal")
	if c.metrics != nil {
		c.metrics.DomainSignals.WithLabelValues(sig.Name, strconv.FormatBool(handled)).Inc()
	}

	if !handled {
		jsonapi.WriteError(w, jsonapi.ErrDomainSignal(sig.Name, sig.Reason))
		return
	}
	h(w, r, sig)
}

func (c *Channel) writeExtractError(w http.ResponseWriter, r *http.Request, reg *registered, err error) {
	e := extractError(err, c.extract)
	if e.StatusCode() >= http.StatusInternalServerError {
		c.logger.Error().
			Err(err).
			Str("route", reg.label).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request extraction failed")
	} else {
		c.logger.Debug().
			Err(err).
			Str("route", reg.label).
			Msg("request rejected")
	}
	jsonapi.WriteError(w, e)
}
