package indices

import (
	"context"
	"errors"
	"fmt"
	"formflow/authority"
	"formflow/bizerror"
	"formflow/client/es"
	"formflow/domain/flow"
	"formflow/event"
	"formflow/session"
	"sync"

	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

var (
	WorkflowIndexEventHandlerName = "workflowIndexer"
	indexRobot                    = &session.Session{
		Identity: session.Identity{ID: 10, Name: "index-robot"},
		Perms:    authority.Permissions{authority.SystemAdmin},
	}

	lock    sync.Mutex
	running bool

	IndicesFullSyncFunc    = IndicesFullSync
	ScheduleNewSyncRunFunc = ScheduleNewSyncRun
)

// ScheduleNewSyncRun starts a full sync in background, false is returned when one is already running
func ScheduleNewSyncRun(sec *session.Session) (bool, error) {
	if !sec.Perms.HasRole(authority.SystemAdmin) {
		return false, bizerror.ErrForbidden
	}

	lock.Lock()
	if running {
		lock.Unlock()
		return false, nil
	}
	running = true
	lock.Unlock()

	waitRunning := sync.WaitGroup{}
	waitRunning.Add(1)
	go func() {
		waitRunning.Done()
		defer func() {
			lock.Lock()
			running = false
			lock.Unlock()
		}()
		if err := IndicesFullSyncFunc(); err != nil {
			logrus.Warnf("indices fully sync: %v", err)
		}
	}()
	waitRunning.Wait()
	return true, nil
}

// IndicesFullSync reindexes every workflow definition
func IndicesFullSync() (err error) {
	defer func() {
		if ret := recover(); ret != nil {
			e, ok := ret.(error)
			if ok {
				err = e
			} else {
				err = fmt.Errorf("error on indices full sync: %v", ret)
			}
		}
	}()

	ctx := context.Background()
	if err := EnsureWorkflowIndex(ctx); err != nil {
		return err
	}
	workflows, err := flow.QueryWorkflowsFunc(&flow.WorkflowQuery{}, indexRobot)
	if err != nil {
		return err
	}

	details := []flow.WorkflowDetail{}
	for _, w := range *workflows {
		detail, err := flow.LoadWorkflowFunc(ctx, w.Code)
		if err != nil {
			logrus.Warnf("indices fully sync: error on load workflow %s: %v", w.Code, err)
			continue
		}
		details = append(details, *detail)
	}
	if err := IndexWorkflows(ctx, details); err != nil {
		return err
	}
	logrus.Infof("indices fully sync: %d workflows indexed", len(details))
	return nil
}

func IndexWorkflowEventHandle(e *event.EventRecord) *event.EventHandleResult {
	if e.SourceType != event.SourceTypeWorkflow {
		return nil
	}
	ctx := context.Background()

	if e.EventCategory == event.EventCategoryDeleted {
		if err := es.DeleteDocumentByIdFunc(ctx, WorkflowIndexName, e.SourceId); err != nil {
			return &event.EventHandleResult{
				Message:           fmt.Sprintf("delete workflow index %s, %v", e.SourceId, err),
				HandlerIdentifier: WorkflowIndexEventHandlerName,
			}
		}
		return &event.EventHandleResult{Success: true, HandlerIdentifier: WorkflowIndexEventHandlerName}
	}

	detail, err := flow.LoadWorkflowFunc(ctx, e.SourceId)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// deleted after the event was recorded, the delete event cleans up the document
		return &event.EventHandleResult{Success: true, HandlerIdentifier: WorkflowIndexEventHandlerName}
	}
	if err != nil {
		return &event.EventHandleResult{
			Message:           fmt.Sprintf("load workflow when index workflow %s, %v", e.SourceId, err),
			HandlerIdentifier: WorkflowIndexEventHandlerName,
		}
	}
	if err := IndexWorkflows(ctx, []flow.WorkflowDetail{*detail}); err != nil {
		return &event.EventHandleResult{
			Message:           fmt.Sprintf("index workflow %s, %v", e.SourceId, err),
			HandlerIdentifier: WorkflowIndexEventHandlerName,
		}
	}
	return &event.EventHandleResult{Success: true, HandlerIdentifier: WorkflowIndexEventHandlerName}
}
