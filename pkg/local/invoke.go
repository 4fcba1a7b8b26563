package local

import (
	"errors"
	"io"
	"net/http"

	"originfunc/pkg/validator"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/middleware"
	"go.uber.org/zap"
)

func (s *Server) invoke() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.valve.Open(); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		defer s.valve.Close()

		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
		req, err := toProxyRequest(r)
		if err != nil {
			s.log.Warn("failed to read request", zap.Error(err))
			status := http.StatusBadRequest
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			http.Error(w, err.Error(), status)
			return
		}

		resp, err := s.handler.HandleProxy(r.Context(), req)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, validator.ErrInvalidDomain) || errors.Is(err, validator.ErrInvalidOrigin) {
				status = http.StatusForbidden
			}
			http.Error(w, err.Error(), status)
			return
		}

		writeProxyResponse(w, resp)
	}
}

// toProxyRequest builds the event API Gateway would deliver for r.
func toProxyRequest(r *http.Request) (events.APIGatewayProxyRequest, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return events.APIGatewayProxyRequest{}, err
	}

	headers := make(map[string]string, len(r.Header))
	for k, vals := range r.Header {
		if len(vals) > 0 {
			headers[k] = vals[0]
		}
	}

	query := r.URL.Query()
	params := make(map[string]string, len(query))
	for k, vals := range query {
		params[k] = vals[0]
	}

	return events.APIGatewayProxyRequest{
		Resource:                        r.URL.Path,
		Path:                            r.URL.Path,
		HTTPMethod:                      r.Method,
		Headers:                         headers,
		MultiValueHeaders:               r.Header.Clone(),
		QueryStringParameters:           params,
		MultiValueQueryStringParameters: query,
		Body:                            string(body),
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID:  middleware.GetReqID(r.Context()),
			HTTPMethod: r.Method,
			Path:       r.URL.Path,
			Identity: events.APIGatewayRequestIdentity{
				SourceIP:  r.RemoteAddr,
				UserAgent: r.UserAgent(),
			},
		},
	}, nil
}

func writeProxyResponse(w http.ResponseWriter, resp *events.APIGatewayProxyResponse) {
	for k, vals := range resp.MultiValueHeaders {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}

	w.WriteHeader(resp.StatusCode)
	io.WriteString(w, resp.Body)
}
