package client

import (
	"io"
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/sd"
	consulsd "github.com/go-kit/kit/sd/consul"
	"github.com/go-kit/kit/sd/lb"
	"github.com/ichigozero/projectkit/projectsvc/pkg/projectendpoint"
	"github.com/ichigozero/projectkit/projectsvc/pkg/projectservice"
	"github.com/ichigozero/projectkit/projectsvc/pkg/projecttransport"
)

// ServiceName is the name projectsvc instances register under in consul.
const ServiceName = "projectsvc"

// New returns endpoints that balance over the projectsvc instances found in
// consul, retrying failed calls on other instances.
func New(apiclient consulsd.Client, logger log.Logger, retryMax int, retryTimeout time.Duration) (projectendpoint.Set, error) {
	var (
		tags        = []string{}
		passingOnly = true
		instancer   = consulsd.NewInstancer(apiclient, logger, ServiceName, tags, passingOnly)
	)
	return NewWithInstancer(instancer, logger, retryMax, retryTimeout), nil
}

// NewWithInstancer is New for an already constructed instancer.
func NewWithInstancer(instancer sd.Instancer, logger log.Logger, retryMax int, retryTimeout time.Duration) projectendpoint.Set {
	balanced := func(makeEndpoint func(projectservice.Service) endpoint.Endpoint) endpoint.Endpoint {
		factory := factoryFor(makeEndpoint, logger)
		endpointer := sd.NewEndpointer(instancer, factory, logger)
		balancer := lb.NewRoundRobin(endpointer)
		return lb.Retry(retryMax, retryTimeout, balancer)
	}

	return projectendpoint.Set{
		CreateProjectEndpoint:  balanced(projectendpoint.MakeCreateProjectEndpoint),
		ProjectsEndpoint:       balanced(projectendpoint.MakeProjectsEndpoint),
		ProjectEndpoint:        balanced(projectendpoint.MakeProjectEndpoint),
		UpdateProjectEndpoint:  balanced(projectendpoint.MakeUpdateProjectEndpoint),
		DeleteProjectEndpoint:  balanced(projectendpoint.MakeDeleteProjectEndpoint),
		ArchiveProjectEndpoint: balanced(projectendpoint.MakeArchiveProjectEndpoint),

		CreateTaskEndpoint:   balanced(projectendpoint.MakeCreateTaskEndpoint),
		TasksEndpoint:        balanced(projectendpoint.MakeTasksEndpoint),
		TaskEndpoint:         balanced(projectendpoint.MakeTaskEndpoint),
		UpdateTaskEndpoint:   balanced(projectendpoint.MakeUpdateTaskEndpoint),
		DeleteTaskEndpoint:   balanced(projectendpoint.MakeDeleteTaskEndpoint),
		CompleteTaskEndpoint: balanced(projectendpoint.MakeCompleteTaskEndpoint),
	}
}

func factoryFor(makeEndpoint func(projectservice.Service) endpoint.Endpoint, logger log.Logger) sd.Factory {
	return func(instance string) (endpoint.Endpoint, io.Closer, error) {
		service, err := projecttransport.NewHTTPClient(instance, logger)
		if err != nil {
			return nil, nil, err
		}
		return makeEndpoint(service), nil, nil
	}
}
