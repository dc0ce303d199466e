package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	stdjwt "github.com/dgrijalva/jwt-go"
	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/sd"
	"github.com/ichigozero/projectkit/projectsvc"
	"github.com/ichigozero/projectkit/projectsvc/db/gorm"
	"github.com/ichigozero/projectkit/projectsvc/pkg/projectauth"
	"github.com/ichigozero/projectkit/projectsvc/pkg/projectendpoint"
	"github.com/ichigozero/projectkit/projectsvc/pkg/projectservice"
	"github.com/ichigozero/projectkit/projectsvc/pkg/projecttransport"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	stdgorm "gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var secret = []byte("test-secret")

func newServer(t *testing.T, name string) *httptest.Server {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	db, err := stdgorm.Open(sqlite.Open(dsn), &stdgorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, gorm.Migrate(db))

	svc := projectservice.New(gorm.NewProjectRepository(db), gorm.NewTaskRepository(db), log.NewNopLogger())
	h := projecttransport.NewHTTPHandler(projectendpoint.New(svc, log.NewNopLogger()), secret, nil, log.NewNopLogger())

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

// authenticated mimics the gateway: the raw token and its parsed claims are
// both in the context when the balanced endpoints run.
func authenticated(t *testing.T, userID uint64) context.Context {
	t.Helper()

	tok, err := projectauth.NewTokenizer(secret, time.Minute).Generate(userID)
	require.NoError(t, err)

	claims := stdjwt.MapClaims{"uuid": tok.UUID, "user_id": float64(userID)}
	ctx := context.WithValue(context.Background(), kitjwt.JWTTokenContextKey, tok.Hash)
	return context.WithValue(ctx, kitjwt.JWTClaimsContextKey, claims)
}

func TestBalancedEndpoints(t *testing.T) {
	srv := newServer(t, "clienttest")
	instancer := sd.FixedInstancer{strings.TrimPrefix(srv.URL, "http://")}

	set := NewWithInstancer(instancer, log.NewNopLogger(), 3, time.Second)
	ctx := authenticated(t, 1)

	project, err := set.CreateProject(ctx, projectsvc.Auth{}, projectsvc.ProjectInput{Name: "Home"})
	require.NoError(t, err)

	task, err := set.CreateTask(ctx, projectsvc.Auth{}, projectsvc.TaskInput{ProjectID: project.ID, Title: "Buy milk"})
	require.NoError(t, err)

	tasks, page, err := set.Tasks(ctx, projectsvc.Auth{}, projectsvc.TaskFilter{ProjectID: &project.ID}, 1)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, task.ID, tasks[0].ID)
	require.EqualValues(t, 1, page.Total)

	_, err = set.Task(authenticated(t, 2), projectsvc.Auth{}, task.ID)
	require.ErrorIs(t, err, projectsvc.ErrNotFound)
}

func TestRetryGivesUpOnUnreadableResponses(t *testing.T) {
	var calls int64
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	set := NewWithInstancer(sd.FixedInstancer{down.URL}, log.NewNopLogger(), 2, time.Second)

	_, err := set.Project(authenticated(t, 1), projectsvc.Auth{}, 1)
	require.Error(t, err)
	require.GreaterOrEqual(t, atomic.LoadInt64(&calls), int64(1))
	require.LessOrEqual(t, atomic.LoadInt64(&calls), int64(2))
}
