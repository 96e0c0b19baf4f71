package indices

import (
	"context"
	"encoding/json"
	"formflow/client/es"
	"formflow/domain/flow"
	"sort"
	"strings"
	"time"
)

const WorkflowIndexName = "workflows"

// WorkflowDocument is the searchable projection of a workflow definition
type WorkflowDocument struct {
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Version      string    `json:"version"`
	InitialState string    `json:"initial_state"`
	IsActive     bool      `json:"is_active"`
	StateCodes   []string  `json:"state_codes"`
	StateNames   []string  `json:"state_names"`
	Actions      []string  `json:"actions"`
	Permissions  []string  `json:"permissions"`
	UpdateTime   time.Time `json:"update_time"`
}

var workflowIndexMapping = es.H{
	"mappings": es.H{
		"properties": es.H{
			"code":          es.H{"type": "keyword"},
			"name":          es.H{"type": "text"},
			"description":   es.H{"type": "text"},
			"version":       es.H{"type": "keyword"},
			"initial_state": es.H{"type": "keyword"},
			"is_active":     es.H{"type": "boolean"},
			"state_codes":   es.H{"type": "keyword"},
			"state_names":   es.H{"type": "text"},
			"actions":       es.H{"type": "keyword"},
			"permissions":   es.H{"type": "keyword"},
			"update_time":   es.H{"type": "date"},
		},
	},
}

func DocumentOf(detail *flow.WorkflowDetail) WorkflowDocument {
	doc := WorkflowDocument{
		Code:         detail.Code,
		Name:         detail.Name,
		Description:  detail.Description,
		Version:      string(detail.Version),
		InitialState: detail.InitialState,
		IsActive:     detail.IsActive,
		StateCodes:   []string{},
		StateNames:   []string{},
		UpdateTime:   detail.UpdateTime,
	}
	for _, s := range detail.States {
		doc.StateCodes = append(doc.StateCodes, s.Code)
		doc.StateNames = append(doc.StateNames, s.Name)
	}
	actions := map[string]bool{}
	perms := map[string]bool{}
	for _, t := range detail.Transitions {
		if t.Action != "" {
			actions[t.Action] = true
		}
		if t.Permission != "" {
			perms[t.Permission] = true
		}
	}
	doc.Actions = sortedKeys(actions)
	doc.Permissions = sortedKeys(perms)
	return doc
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type BatchActionError struct {
	Failures map[string]error
}

func (e *BatchActionError) Error() string {
	codes := sortedKeys(func() map[string]bool {
		m := map[string]bool{}
		for code := range e.Failures {
			m[code] = true
		}
		return m
	}())
	var parts []string
	for _, code := range codes {
		parts = append(parts, code+": "+e.Failures[code].Error())
	}
	return "index failures: " + strings.Join(parts, "; ")
}

// IndexWorkflows continues after a failed document, the failures are reported together
func IndexWorkflows(ctx context.Context, details []flow.WorkflowDetail) error {
	failures := map[string]error{}
	for i := range details {
		if err := es.IndexFunc(ctx, WorkflowIndexName, details[i].Code, DocumentOf(&details[i])); err != nil {
			failures[details[i].Code] = err
		}
	}
	if len(failures) > 0 {
		return &BatchActionError{Failures: failures}
	}
	return nil
}

func EnsureWorkflowIndex(ctx context.Context) error {
	return es.EnsureIndexFunc(ctx, WorkflowIndexName, workflowIndexMapping)
}

type WorkflowSearchResult struct {
	Total int                `json:"total"`
	Items []WorkflowDocument `json:"items"`
}

type WorkflowSearchQuery struct {
	Keyword string `form:"q"`
	Active  *bool  `form:"active"`
	Size    int    `form:"size"`
}

var SearchWorkflowsFunc = SearchWorkflows

func SearchWorkflows(ctx context.Context, query WorkflowSearchQuery) (*WorkflowSearchResult, error) {
	must := []es.H{}
	if kw := strings.TrimSpace(query.Keyword); kw != "" {
		must = append(must, es.H{"multi_match": es.H{
			"query":  kw,
			"fields": []string{"code^3", "name^2", "description", "state_names", "state_codes", "actions", "permissions"},
		}})
	}
	filter := []es.H{}
	if query.Active != nil {
		filter = append(filter, es.H{"term": es.H{"is_active": *query.Active}})
	}
	size := query.Size
	if size <= 0 || size > 100 {
		size = 20
	}
	q := es.H{
		"size":  size,
		"query": es.H{"bool": es.H{"must": must, "filter": filter}},
		"sort":  []interface{}{"_score", es.H{"code": "asc"}},
	}

	res, err := es.SearchFunc(ctx, WorkflowIndexName, q)
	if err != nil {
		return nil, err
	}
	result := &WorkflowSearchResult{Total: res.Hits.Total.Value, Items: []WorkflowDocument{}}
	for _, hit := range res.Hits.Hits {
		doc := WorkflowDocument{}
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			return nil, err
		}
		result.Items = append(result.Items, doc)
	}
	return result, nil
}
