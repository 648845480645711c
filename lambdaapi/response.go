package lambdaapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/docfront/envelope"
)

// Response headers carrying envelope metadata.
const (
	headerSelf         = "X-Docfront-Self"
	headerAttachment   = "X-Docfront-Attachment"
	headerContinuation = "X-Docfront-Continuation"
	headerMatchCount   = "X-Docfront-Match-Count"
)

// respond maps an envelope onto a proxy response. The status code is the envelope
// status; failures carry the error message as a text body.
func respond(env envelope.Envelope) events.APIGatewayProxyResponse {
	if env.HasError {
		return plain(int(env.Status), env.ErrorMessage)
	}

	headers := map[string]string{
		"Content-Type":   env.MediaType.MIME(),
		headerMatchCount: strconv.Itoa(env.MatchCount),
	}
	if env.SelfReference != "" {
		headers[headerSelf] = env.SelfReference
	}
	if env.AttachmentReference != "" {
		headers[headerAttachment] = env.AttachmentReference
	}
	if env.ContinuationToken != "" {
		headers[headerContinuation] = env.ContinuationToken
	}

	return events.APIGatewayProxyResponse{
		StatusCode: int(env.Status),
		Headers:    headers,
		Body:       env.Body,
	}
}

// many renders batch results as a JSON array of envelopes, in input order.
func many(envs []envelope.Envelope) (events.APIGatewayProxyResponse, error) {
	raw, err := json.Marshal(envs)
	if err != nil {
		return plain(http.StatusInternalServerError, err.Error()), nil
	}
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": envelope.JSON.MIME()},
		Body:       string(raw),
	}, nil
}

func plain(status int, msg string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": envelope.Text.MIME()},
		Body:       msg,
	}
}
