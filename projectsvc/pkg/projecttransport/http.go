package projecttransport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	stdjwt "github.com/dgrijalva/jwt-go"
	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/transport"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/ichigozero/projectkit/projectsvc"
	"github.com/ichigozero/projectkit/projectsvc/pkg/projectauth"
	"github.com/ichigozero/projectkit/projectsvc/pkg/projectendpoint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHTTPHandler mounts the project and task routes. Every route requires an
// HS256 access token signed with secret; when sessions is not nil the token's
// uuid must also be a live session.
func NewHTTPHandler(endpoints projectendpoint.Set, secret []byte, sessions projectauth.SessionStore, logger log.Logger) http.Handler {
	authenticate := func(e endpoint.Endpoint) endpoint.Endpoint {
		if sessions != nil {
			e = projectauth.NewAuthenticater(sessions)(e)
		}
		return projectauth.NewParser(secret)(e)
	}

	newServer := func(resource string, e endpoint.Endpoint, dec httptransport.DecodeRequestFunc) http.Handler {
		errorEncoder := errorEncoderFor(resource)
		return httptransport.NewServer(
			authenticate(e),
			verifiedDecoder(secret, dec),
			responseEncoderFor(errorEncoder),
			httptransport.ServerErrorEncoder(errorEncoder),
			httptransport.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
			httptransport.ServerBefore(kitjwt.HTTPToContext()),
		)
	}

	r := mux.NewRouter()

	r.Methods("GET").Path("/projects").Handler(newServer("Project", endpoints.ProjectsEndpoint, decodeHTTPProjectsRequest))
	r.Methods("POST").Path("/projects").Handler(newServer("Project", endpoints.CreateProjectEndpoint, decodeHTTPCreateProjectRequest))
	r.Methods("GET").Path("/projects/{id}").Handler(newServer("Project", endpoints.ProjectEndpoint, decodeHTTPProjectRequest))
	r.Methods("PUT").Path("/projects/{id}").Handler(newServer("Project", endpoints.UpdateProjectEndpoint, decodeHTTPUpdateProjectRequest))
	r.Methods("DELETE").Path("/projects/{id}").Handler(newServer("Project", endpoints.DeleteProjectEndpoint, decodeHTTPDeleteProjectRequest))
	r.Methods("PUT").Path("/projects/{id}/archive").Handler(newServer("Project", endpoints.ArchiveProjectEndpoint, decodeHTTPArchiveProjectRequest))

	r.Methods("GET").Path("/tasks").Handler(newServer("Task", endpoints.TasksEndpoint, decodeHTTPTasksRequest))
	r.Methods("POST").Path("/tasks").Handler(newServer("Task", endpoints.CreateTaskEndpoint, decodeHTTPCreateTaskRequest))
	r.Methods("GET").Path("/tasks/{id}").Handler(newServer("Task", endpoints.TaskEndpoint, decodeHTTPTaskRequest))
	r.Methods("PUT").Path("/tasks/{id}").Handler(newServer("Task", endpoints.UpdateTaskEndpoint, decodeHTTPUpdateTaskRequest))
	r.Methods("DELETE").Path("/tasks/{id}").Handler(newServer("Task", endpoints.DeleteTaskEndpoint, decodeHTTPDeleteTaskRequest))
	r.Methods("PUT").Path("/tasks/{id}/complete").Handler(newServer("Task", endpoints.CompleteTaskEndpoint, decodeHTTPCompleteTaskRequest))

	r.Methods("GET").Path("/metrics").Handler(promhttp.Handler())

	return r
}

var (
	// ErrBadRouting is returned when an expected path variable is missing.
	// It always indicates programmer error.
	ErrBadRouting = errors.New("inconsistent mapping between route and handler (programmer error)")

	ErrBadRequest = errors.New("malformed request")
)

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// projectDetail is a shown project. Its tasks are rendered even when empty.
type projectDetail struct {
	projectsvc.Project
	Tasks []projectsvc.Task `json:"tasks"`
}

func errorEncoderFor(resource string) httptransport.ErrorEncoder {
	return func(_ context.Context, err error, w http.ResponseWriter) {
		code := err2code(err)
		body := envelope{Message: errorMessage(resource, code, err)}

		var verr *projectsvc.ValidationError
		if errors.As(err, &verr) {
			body.Errors = verr.Fields
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(body)
	}
}

func err2code(err error) int {
	var jwtErr *stdjwt.ValidationError
	switch {
	case errors.Is(err, projectsvc.ErrInvalidArgument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, projectsvc.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, projectsvc.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, kitjwt.ErrTokenContextMissing),
		errors.Is(err, kitjwt.ErrTokenInvalid),
		errors.Is(err, kitjwt.ErrTokenExpired),
		errors.Is(err, kitjwt.ErrTokenMalformed),
		errors.Is(err, kitjwt.ErrTokenNotActive),
		errors.Is(err, kitjwt.ErrUnexpectedSigningMethod),
		errors.Is(err, projectsvc.ErrClaimsMissing),
		errors.Is(err, projectsvc.ErrClaimsInvalid),
		errors.Is(err, projectsvc.ErrSessionNotFound),
		errors.Is(err, stdjwt.ErrSignatureInvalid),
		errors.As(err, &jwtErr):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func errorMessage(resource string, code int, err error) string {
	switch code {
	case http.StatusUnprocessableEntity:
		return "The given data was invalid."
	case http.StatusNotFound:
		return resource + " not found"
	case http.StatusForbidden:
		return "You do not have permission to use this project"
	case http.StatusUnauthorized:
		return "Unauthenticated."
	case http.StatusBadRequest:
		return err.Error()
	}
	return "Internal server error"
}

func responseEncoderFor(errorEncoder httptransport.ErrorEncoder) httptransport.EncodeResponseFunc {
	return func(ctx context.Context, w http.ResponseWriter, response interface{}) error {
		if f, ok := response.(endpoint.Failer); ok && f.Failed() != nil {
			errorEncoder(ctx, f.Failed(), w)
			return nil
		}

		code, message, data := present(response)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(code)
		return json.NewEncoder(w).Encode(envelope{Success: true, Message: message, Data: data})
	}
}

// present picks the status code, message and payload of a successful response.
func present(response interface{}) (int, string, interface{}) {
	switch r := response.(type) {
	case projectendpoint.CreateProjectResponse:
		return http.StatusCreated, "Project created successfully", r.Project
	case projectendpoint.ProjectsResponse:
		return http.StatusOK, "", r
	case projectendpoint.ProjectResponse:
		tasks := r.Project.Tasks
		if tasks == nil {
			tasks = []projectsvc.Task{}
		}
		return http.StatusOK, "", projectDetail{r.Project, tasks}
	case projectendpoint.UpdateProjectResponse:
		return http.StatusOK, "Project updated successfully", r.Project
	case projectendpoint.DeleteProjectResponse:
		return http.StatusOK, "Project deleted successfully", nil
	case projectendpoint.ArchiveProjectResponse:
		if r.Project.IsArchived {
			return http.StatusOK, "Project archived", r.Project
		}
		return http.StatusOK, "Project unarchived", r.Project
	case projectendpoint.CreateTaskResponse:
		return http.StatusCreated, "Task created successfully", r.Task
	case projectendpoint.TasksResponse:
		return http.StatusOK, "", r
	case projectendpoint.TaskResponse:
		return http.StatusOK, "", r.Task
	case projectendpoint.UpdateTaskResponse:
		return http.StatusOK, "Task updated successfully", r.Task
	case projectendpoint.DeleteTaskResponse:
		return http.StatusOK, "Task deleted successfully", nil
	case projectendpoint.CompleteTaskResponse:
		if r.Task.IsCompleted {
			return http.StatusOK, "Task marked as completed", r.Task
		}
		return http.StatusOK, "Task marked as pending", r.Task
	}
	return http.StatusOK, "", response
}

// verifiedDecoder checks the access token before dec looks at the request, so
// an unauthenticated caller gets 401 whatever its body or query holds.
func verifiedDecoder(secret []byte, dec httptransport.DecodeRequestFunc) httptransport.DecodeRequestFunc {
	verify := projectauth.NewParser(secret)(func(context.Context, interface{}) (interface{}, error) {
		return nil, nil
	})
	return func(ctx context.Context, r *http.Request) (interface{}, error) {
		if _, err := verify(ctx, nil); err != nil {
			return nil, err
		}
		return dec(ctx, r)
	}
}

func decodeHTTPProjectsRequest(_ context.Context, r *http.Request) (interface{}, error) {
	q := newQuery(r, "is_archived")
	req := projectendpoint.ProjectsRequest{
		IsArchived: q.boolean("is_archived"),
		Page:       q.page(),
	}
	return req, q.err()
}

func decodeHTTPCreateProjectRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req projectendpoint.CreateProjectRequest
	err := decodeJSONBody(r, &req)
	return req, err
}

func decodeHTTPProjectRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	return projectendpoint.ProjectRequest{ProjectID: id}, nil
}

func decodeHTTPUpdateProjectRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}

	var req projectendpoint.UpdateProjectRequest
	if err := decodeJSONBody(r, &req); err != nil {
		return nil, err
	}
	req.ProjectID = id

	return req, nil
}

func decodeHTTPDeleteProjectRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	return projectendpoint.DeleteProjectRequest{ProjectID: id}, nil
}

func decodeHTTPArchiveProjectRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	return projectendpoint.ArchiveProjectRequest{ProjectID: id}, nil
}

func decodeHTTPTasksRequest(_ context.Context, r *http.Request) (interface{}, error) {
	q := newQuery(r, "project_id", "is_completed", "due_date")
	req := projectendpoint.TasksRequest{
		ProjectID:   q.id("project_id"),
		IsCompleted: q.boolean("is_completed"),
		DueDate:     q.date("due_date"),
		Page:        q.page(),
	}
	return req, q.err()
}

func decodeHTTPCreateTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req projectendpoint.CreateTaskRequest
	err := decodeJSONBody(r, &req)
	return req, err
}

func decodeHTTPTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	return projectendpoint.TaskRequest{TaskID: id}, nil
}

func decodeHTTPUpdateTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}

	var req projectendpoint.UpdateTaskRequest
	if err := decodeJSONBody(r, &req); err != nil {
		return nil, err
	}
	req.TaskID = id

	return req, nil
}

func decodeHTTPDeleteTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	return projectendpoint.DeleteTaskRequest{TaskID: id}, nil
}

func decodeHTTPCompleteTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	return projectendpoint.CompleteTaskRequest{TaskID: id}, nil
}

// pathID reads the {id} route variable. An id that is not a number names no
// entity, so it is reported as not found.
func pathID(r *http.Request) (uint64, error) {
	v, ok := mux.Vars(r)["id"]
	if !ok {
		return 0, ErrBadRouting
	}

	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, projectsvc.ErrNotFound
	}
	return id, nil
}

// decodeJSONBody decodes r's body into v. An empty body decodes as an empty
// object so that missing fields are reported by validation.
func decodeJSONBody(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)

	var typeErr *json.UnmarshalTypeError
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	case errors.Is(err, projectsvc.ErrInvalidDate):
		return projectsvc.Invalid("due_date", "is not a valid date")
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return projectsvc.Invalid(typeErr.Field, "must be of type "+typeErr.Type.String())
	}
	return fmt.Errorf("%w: %v", ErrBadRequest, err)
}
