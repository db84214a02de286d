package handler

import (
	"context"

	"github.com/aws/aws-lambda-go/events"

	"parking_tickets/internal/api/response"
	"parking_tickets/internal/validation"
)

type Response events.APIGatewayProxyResponse

// LambdaEntry serves POST /entry behind API Gateway.
func (h *ParkingHandler) LambdaEntry(ctx context.Context, req events.APIGatewayProxyRequest) (Response, error) {
	h.logger.InfoContext(ctx, "entry request", "request_id", req.RequestContext.RequestID, "path", req.Path)
	return toProxyResponse(h.HandleEntry(ctx, validation.ExtractQueryParams(req.QueryStringParameters))), nil
}

// LambdaExit serves POST /exit behind API Gateway.
func (h *ParkingHandler) LambdaExit(ctx context.Context, req events.APIGatewayProxyRequest) (Response, error) {
	h.logger.InfoContext(ctx, "exit request", "request_id", req.RequestContext.RequestID, "path", req.Path)
	return toProxyResponse(h.HandleExit(ctx, validation.ExtractQueryParams(req.QueryStringParameters))), nil
}

func toProxyResponse(res response.Result) Response {
	status, body := res.Encode()
	return Response{
		StatusCode:      status,
		Headers:         response.Headers(),
		Body:            body,
		IsBase64Encoded: false,
	}
}
