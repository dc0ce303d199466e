package projectendpoint

import (
	"bytes"
	"context"
	"testing"

	stdjwt "github.com/dgrijalva/jwt-go"
	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/log"
	"github.com/ichigozero/projectkit/projectsvc"
	"github.com/ichigozero/projectkit/projectsvc/pkg/projectservice"
	"github.com/stretchr/testify/require"
)

// stubService answers Project and Tasks; the embedded nil interface panics on
// anything else.
type stubService struct {
	projectservice.Service
	seen projectsvc.Auth
}

func (s *stubService) Project(_ context.Context, a projectsvc.Auth, projectID uint64) (projectsvc.Project, error) {
	s.seen = a
	if projectID != 7 {
		return projectsvc.Project{}, projectsvc.ErrNotFound
	}
	return projectsvc.Project{ID: 7, Name: "Home"}, nil
}

func (s *stubService) Tasks(_ context.Context, a projectsvc.Auth, _ projectsvc.TaskFilter, page int) ([]projectsvc.Task, projectsvc.Pagination, error) {
	s.seen = a
	return nil, projectsvc.NewPagination(0, page), nil
}

func withClaims(uuid string, userID float64) context.Context {
	claims := stdjwt.MapClaims{"uuid": uuid, "user_id": userID}
	return context.WithValue(context.Background(), kitjwt.JWTClaimsContextKey, claims)
}

func TestEndpointsPassClaims(t *testing.T) {
	svc := &stubService{}
	var buf bytes.Buffer
	set := New(svc, log.NewLogfmtLogger(&buf))

	p, err := set.Project(withClaims("abc", 3), projectsvc.Auth{}, 7)
	require.NoError(t, err)
	require.Equal(t, "Home", p.Name)
	require.Equal(t, projectsvc.Auth{AccessUUID: "abc", UserID: 3}, svc.seen)
	require.Contains(t, buf.String(), "method=Project")
	require.Contains(t, buf.String(), "took=")

	_, err = set.Project(withClaims("abc", 3), projectsvc.Auth{}, 8)
	require.ErrorIs(t, err, projectsvc.ErrNotFound)

	tasks, page, err := set.Tasks(withClaims("abc", 3), projectsvc.Auth{}, projectsvc.TaskFilter{}, 2)
	require.NoError(t, err)
	require.NotNil(t, tasks)
	require.Empty(t, tasks)
	require.Equal(t, 2, page.CurrentPage)
}

func TestEndpointsRequireClaims(t *testing.T) {
	set := New(&stubService{}, log.NewNopLogger())

	resp, err := set.ProjectEndpoint(context.Background(), ProjectRequest{ProjectID: 7})
	require.NoError(t, err)
	require.ErrorIs(t, resp.(ProjectResponse).Failed(), projectsvc.ErrClaimsMissing)

	_, err = set.Project(withClaims("", 3), projectsvc.Auth{}, 7)
	require.ErrorIs(t, err, projectsvc.ErrClaimsInvalid)
}
