package lambda

import (
	"context"

	"originfunc/pkg/validator"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// Function is the application code run once a request has been validated.
// Its result becomes the JSON body of the response.
type Function func(ctx context.Context) (interface{}, error)

// Handler validates the origin of API Gateway events before calling a
// Function and wraps its result with the CORS header for that origin.
type Handler struct {
	validator *validator.Validator
	fn        Function
	log       *zap.Logger
}

// NewHandler constructs a Handler. A nil logger disables logging.
func NewHandler(v *validator.Validator, fn Function, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{validator: v, fn: fn, log: log.Named("handler")}
}

// HandleProxy handles REST API proxy events. Validation errors are returned
// unchanged and left to API Gateway to report.
func (h *Handler) HandleProxy(ctx context.Context, req events.APIGatewayProxyRequest) (*events.APIGatewayProxyResponse, error) {
	results, err := h.validator.Validate(req)
	if err != nil {
		return nil, err
	}

	payload, err := h.call(ctx, req.RequestContext.RequestID)
	if err != nil {
		return nil, err
	}

	return h.validator.WrapWithCors(payload, results.Origin)
}

// HandleHTTP handles HTTP API (payload format 2.0) events.
func (h *Handler) HandleHTTP(ctx context.Context, req events.APIGatewayV2HTTPRequest) (*events.APIGatewayV2HTTPResponse, error) {
	results, err := h.validator.ValidateHTTP(req)
	if err != nil {
		return nil, err
	}

	payload, err := h.call(ctx, req.RequestContext.RequestID)
	if err != nil {
		return nil, err
	}

	return h.validator.WrapWithCorsHTTP(payload, results.Origin)
}

func (h *Handler) call(ctx context.Context, requestID string) (interface{}, error) {
	payload, err := h.fn(ctx)
	if err != nil {
		h.log.Error("function failed", zap.String("request_id", requestID), zap.Error(err))
		return nil, err
	}
	return payload, nil
}
