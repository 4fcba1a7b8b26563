package validator

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// AllowOriginHeader is the only header set on wrapped responses
const AllowOriginHeader = "Access-Control-Allow-Origin"

// WrapWithCors serializes payload as the JSON body of a 200 response that
// allows origin. The origin is not checked here; callers pass the Origin of
// a validated Result. decimal.Decimal values in the payload follow
// decimal.MarshalJSONWithoutQuotes, which the mains set.
func (v *Validator) WrapWithCors(payload interface{}, origin string) (*events.APIGatewayProxyResponse, error) {
	body, err := encode(payload)
	if err != nil {
		v.log.Error("failed to marshal response", zap.Error(err))
		return nil, err
	}

	resp := &events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{AllowOriginHeader: origin},
		Body:       body,
	}

	v.log.Debug("sending cors response", zap.Any("response", resp))
	return resp, nil
}

// WrapWithCorsHTTP is WrapWithCors for HTTP API (payload format 2.0) events.
func (v *Validator) WrapWithCorsHTTP(payload interface{}, origin string) (*events.APIGatewayV2HTTPResponse, error) {
	body, err := encode(payload)
	if err != nil {
		v.log.Error("failed to marshal response", zap.Error(err))
		return nil, err
	}

	resp := &events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{AllowOriginHeader: origin},
		Body:       body,
	}

	v.log.Debug("sending cors response", zap.Any("response", resp))
	return resp, nil
}

func encode(payload interface{}) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(b), nil
}
