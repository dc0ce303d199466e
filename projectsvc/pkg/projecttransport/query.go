package projecttransport

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ichigozero/projectkit/projectsvc"
)

// query parses listing filters. Keys other than page and the known filters
// are rejected. An empty boolean filter is false; other empty values count as
// absent.
type query struct {
	values url.Values
	fields map[string]string
}

func newQuery(r *http.Request, known ...string) *query {
	q := &query{values: r.URL.Query(), fields: map[string]string{}}

	allowed := map[string]bool{"page": true}
	for _, k := range known {
		allowed[k] = true
	}
	for k := range q.values {
		if !allowed[k] {
			q.fields[k] = "is not a recognized filter"
		}
	}
	return q
}

func (q *query) get(key string) (string, bool) {
	v := strings.TrimSpace(q.values.Get(key))
	return v, v != ""
}

// page returns the requested page. Anything that is not a number is page 1.
func (q *query) page() int {
	v, ok := q.get("page")
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 1
	}
	return n
}

func (q *query) boolean(key string) *bool {
	if _, present := q.values[key]; !present {
		return nil
	}
	v, _ := q.get(key)
	b, ok := parseBool(v)
	if !ok {
		q.fields[key] = "must be true or false"
		return nil
	}
	return &b
}

func (q *query) id(key string) *uint64 {
	v, ok := q.get(key)
	if !ok {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		q.fields[key] = "must be an integer"
		return nil
	}
	return &n
}

func (q *query) date(key string) *projectsvc.Date {
	v, ok := q.get(key)
	if !ok {
		return nil
	}
	d, err := projectsvc.ParseDate(v)
	if err != nil {
		q.fields[key] = "is not a valid date"
		return nil
	}
	return &d
}

func (q *query) err() error {
	if len(q.fields) == 0 {
		return nil
	}
	return &projectsvc.ValidationError{Fields: q.fields}
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "1", "true", "on", "yes":
		return true, true
	case "", "0", "false", "off", "no":
		return false, true
	}
	return false, false
}
