package projecttransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/circuitbreaker"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/ratelimit"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/ichigozero/projectkit/projectsvc"
	"github.com/ichigozero/projectkit/projectsvc/pkg/projectendpoint"
	"github.com/ichigozero/projectkit/projectsvc/pkg/projectservice"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// NewHTTPClient returns a Service backed by the HTTP API at instance. The
// access token found in the call context is forwarded as a bearer token.
func NewHTTPClient(instance string, logger log.Logger) (projectservice.Service, error) {
	// Quickly sanitize the instance string.
	if !strings.HasPrefix(instance, "http") {
		instance = "http://" + instance
	}
	u, err := url.Parse(instance)
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Every(time.Second), 100))

	options := []httptransport.ClientOption{
		httptransport.ClientBefore(kitjwt.ContextToHTTP()),
	}

	newEndpoint := func(name, method, path string, enc httptransport.EncodeRequestFunc, dec httptransport.DecodeResponseFunc) endpoint.Endpoint {
		var e endpoint.Endpoint
		{
			e = httptransport.NewClient(method, copyURL(u, path), enc, dec, options...).Endpoint()
			e = limiter(e)
			e = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
				Name:    name,
				Timeout: 30 * time.Second,
			}))(e)
		}
		return e
	}

	return projectendpoint.Set{
		CreateProjectEndpoint:  newEndpoint("CreateProject", "POST", "/projects", encodeHTTPGenericRequest, decodeHTTPCreateProjectResponse),
		ProjectsEndpoint:       newEndpoint("Projects", "GET", "/projects", encodeHTTPProjectsRequest, decodeHTTPProjectsResponse),
		ProjectEndpoint:        newEndpoint("Project", "GET", "/projects", encodeHTTPProjectRequest, decodeHTTPProjectResponse),
		UpdateProjectEndpoint:  newEndpoint("UpdateProject", "PUT", "/projects", encodeHTTPUpdateProjectRequest, decodeHTTPUpdateProjectResponse),
		DeleteProjectEndpoint:  newEndpoint("DeleteProject", "DELETE", "/projects", encodeHTTPDeleteProjectRequest, decodeHTTPDeleteProjectResponse),
		ArchiveProjectEndpoint: newEndpoint("ArchiveProject", "PUT", "/projects", encodeHTTPArchiveProjectRequest, decodeHTTPArchiveProjectResponse),

		CreateTaskEndpoint:   newEndpoint("CreateTask", "POST", "/tasks", encodeHTTPGenericRequest, decodeHTTPCreateTaskResponse),
		TasksEndpoint:        newEndpoint("Tasks", "GET", "/tasks", encodeHTTPTasksRequest, decodeHTTPTasksResponse),
		TaskEndpoint:         newEndpoint("Task", "GET", "/tasks", encodeHTTPTaskRequest, decodeHTTPTaskResponse),
		UpdateTaskEndpoint:   newEndpoint("UpdateTask", "PUT", "/tasks", encodeHTTPUpdateTaskRequest, decodeHTTPUpdateTaskResponse),
		DeleteTaskEndpoint:   newEndpoint("DeleteTask", "DELETE", "/tasks", encodeHTTPDeleteTaskRequest, decodeHTTPDeleteTaskResponse),
		CompleteTaskEndpoint: newEndpoint("CompleteTask", "PUT", "/tasks", encodeHTTPCompleteTaskRequest, decodeHTTPCompleteTaskResponse),
	}, nil
}

// copyURL appends path to base, keeping any prefix base already has.
func copyURL(base *url.URL, path string) *url.URL {
	next := *base
	next.Path = strings.TrimRight(base.Path, "/") + path
	return &next
}

// appendPath adds segments to the collection path the client was built with.
func appendPath(r *http.Request, segments ...string) {
	r.URL.Path = strings.Join(append([]string{r.URL.Path}, segments...), "/")
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// encodeHTTPGenericRequest is a transport/http.EncodeRequestFunc that
// JSON-encodes any request to the request body. Primarily useful in a client.
func encodeHTTPGenericRequest(_ context.Context, r *http.Request, request interface{}) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(request); err != nil {
		return err
	}
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	r.Body = ioutil.NopCloser(&buf)
	r.ContentLength = int64(buf.Len())
	return nil
}

func encodeHTTPProjectsRequest(_ context.Context, r *http.Request, request interface{}) error {
	req := request.(projectendpoint.ProjectsRequest)

	q := r.URL.Query()
	if req.IsArchived != nil {
		q.Set("is_archived", strconv.FormatBool(*req.IsArchived))
	}
	if req.Page > 0 {
		q.Set("page", strconv.Itoa(req.Page))
	}
	r.URL.RawQuery = q.Encode()

	return nil
}

func encodeHTTPProjectRequest(_ context.Context, r *http.Request, request interface{}) error {
	appendPath(r, formatID(request.(projectendpoint.ProjectRequest).ProjectID))
	return nil
}

func encodeHTTPUpdateProjectRequest(ctx context.Context, r *http.Request, request interface{}) error {
	req := request.(projectendpoint.UpdateProjectRequest)
	appendPath(r, formatID(req.ProjectID))
	return encodeHTTPGenericRequest(ctx, r, req)
}

func encodeHTTPDeleteProjectRequest(_ context.Context, r *http.Request, request interface{}) error {
	appendPath(r, formatID(request.(projectendpoint.DeleteProjectRequest).ProjectID))
	return nil
}

func encodeHTTPArchiveProjectRequest(_ context.Context, r *http.Request, request interface{}) error {
	appendPath(r, formatID(request.(projectendpoint.ArchiveProjectRequest).ProjectID), "archive")
	return nil
}

func encodeHTTPTasksRequest(_ context.Context, r *http.Request, request interface{}) error {
	req := request.(projectendpoint.TasksRequest)

	q := r.URL.Query()
	if req.ProjectID != nil {
		q.Set("project_id", formatID(*req.ProjectID))
	}
	if req.IsCompleted != nil {
		q.Set("is_completed", strconv.FormatBool(*req.IsCompleted))
	}
	if req.DueDate != nil {
		q.Set("due_date", req.DueDate.String())
	}
	if req.Page > 0 {
		q.Set("page", strconv.Itoa(req.Page))
	}
	r.URL.RawQuery = q.Encode()

	return nil
}

func encodeHTTPTaskRequest(_ context.Context, r *http.Request, request interface{}) error {
	appendPath(r, formatID(request.(projectendpoint.TaskRequest).TaskID))
	return nil
}

func encodeHTTPUpdateTaskRequest(ctx context.Context, r *http.Request, request interface{}) error {
	req := request.(projectendpoint.UpdateTaskRequest)
	appendPath(r, formatID(req.TaskID))
	return encodeHTTPGenericRequest(ctx, r, req)
}

func encodeHTTPDeleteTaskRequest(_ context.Context, r *http.Request, request interface{}) error {
	appendPath(r, formatID(request.(projectendpoint.DeleteTaskRequest).TaskID))
	return nil
}

func encodeHTTPCompleteTaskRequest(_ context.Context, r *http.Request, request interface{}) error {
	appendPath(r, formatID(request.(projectendpoint.CompleteTaskRequest).TaskID), "complete")
	return nil
}

type remoteEnvelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

// decodeEnvelope unpacks the response envelope into data. A failure reported
// by the remote service is returned as failure so that it travels in the
// endpoint response; err is only set when the response could not be read.
func decodeEnvelope(r *http.Response, data interface{}) (failure error, err error) {
	var env remoteEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%s: %w", r.Status, err)
	}

	if !env.Success {
		return remoteError(r.StatusCode, env), nil
	}

	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// remoteError turns an error response back into the error kind err2code
// derived it from.
func remoteError(code int, env remoteEnvelope) error {
	switch code {
	case http.StatusUnprocessableEntity:
		if len(env.Errors) > 0 {
			return &projectsvc.ValidationError{Fields: env.Errors}
		}
		return projectsvc.ErrInvalidArgument
	case http.StatusNotFound:
		return projectsvc.ErrNotFound
	case http.StatusForbidden:
		return projectsvc.ErrForbidden
	case http.StatusUnauthorized:
		return projectsvc.ErrClaimsInvalid
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, env.Message)
	}
	return errors.New(env.Message)
}

func decodeHTTPCreateProjectResponse(_ context.Context, r *http.Response) (interface{}, error) {
	var resp projectendpoint.CreateProjectResponse
	failure, err := decodeEnvelope(r, &resp.Project)
	if err != nil {
		return nil, err
	}
	resp.Err = failure
	return resp, nil
}

func decodeHTTPProjectsResponse(_ context.Context, r *http.Response) (interface{}, error) {
	var resp projectendpoint.ProjectsResponse
	failure, err := decodeEnvelope(r, &resp)
	if err != nil {
		return nil, err
	}
	resp.Err = failure
	return resp, nil
}

func decodeHTTPProjectResponse(_ context.Context, r *http.Response) (interface{}, error) {
	var resp projectendpoint.ProjectResponse
	failure, err := decodeEnvelope(r, &resp.Project)
	if err != nil {
		return nil, err
	}
	resp.Err = failure
	return resp, nil
}

func decodeHTTPUpdateProjectResponse(_ context.Context, r *http.Response) (interface{}, error) {
	var resp projectendpoint.UpdateProjectResponse
	failure, err := decodeEnvelope(r, &resp.Project)
	if err != nil {
		return nil, err
	}
	resp.Err = failure
	return resp, nil
}

func decodeHTTPDeleteProjectResponse(_ context.Context, r *http.Response) (interface{}, error) {
	var resp projectendpoint.DeleteProjectResponse
	failure, err := decodeEnvelope(r, nil)
	if err != nil {
		return nil, err
	}
	resp.Result, resp.Err = failure == nil, failure
	return resp, nil
}

func decodeHTTPArchiveProjectResponse(_ context.Context, r *http.Response) (interface{}, error) {
	var resp projectendpoint.ArchiveProjectResponse
	failure, err := decodeEnvelope(r, &resp.Project)
	if err != nil {
		return nil, err
	}
	resp.Err = failure
	return resp, nil
}

func decodeHTTPCreateTaskResponse(_ context.Context, r *http.Response) (interface{}, error) {
	var resp projectendpoint.CreateTaskResponse
	failure, err := decodeEnvelope(r, &resp.Task)
	if err != nil {
		return nil, err
	}
	resp.Err = failure
	return resp, nil
}

func decodeHTTPTasksResponse(_ context.Context, r *http.Response) (interface{}, error) {
	var resp projectendpoint.TasksResponse
	failure, err := decodeEnvelope(r, &resp)
	if err != nil {
		return nil, err
	}
	resp.Err = failure
	return resp, nil
}

func decodeHTTPTaskResponse(_ context.Context, r *http.Response) (interface{}, error) {
	var resp projectendpoint.TaskResponse
	failure, err := decodeEnvelope(r, &resp.Task)
	if err != nil {
		return nil, err
	}
	resp.Err = failure
	return resp, nil
}

func decodeHTTPUpdateTaskResponse(_ context.Context, r *http.Response) (interface{}, error) {
	var resp projectendpoint.UpdateTaskResponse
	failure, err := decodeEnvelope(r, &resp.Task)
	if err != nil {
		return nil, err
	}
	resp.Err = failure
	return resp, nil
}

func decodeHTTPDeleteTaskResponse(_ context.Context, r *http.Response) (interface{}, error) {
	var resp projectendpoint.DeleteTaskResponse
	failure, err := decodeEnvelope(r, nil)
	if err != nil {
		return nil, err
	}
	resp.Result, resp.Err = failure == nil, failure
	return resp, nil
}

func decodeHTTPCompleteTaskResponse(_ context.Context, r *http.Response) (interface{}, error) {
	var resp projectendpoint.CompleteTaskResponse
	failure, err := decodeEnvelope(r, &resp.Task)
	if err != nil {
		return nil, err
	}
	resp.Err = failure
	return resp, nil
}
