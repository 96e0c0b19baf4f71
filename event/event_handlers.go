package event

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// EventHandler reacts to a committed lifecycle event, nil is returned for events it does not handle
type EventHandler func(e *EventRecord) *EventHandleResult

type EventHandleResult struct {
	Success           bool
	Message           string
	HandlerIdentifier string
}

var EventHandlers []EventHandler

var InvokeHandlersFunc = invokeHandlers

// invokeHandlers runs handlers in registration order, a panicking handler is reported as a failure
func invokeHandlers(record *EventRecord) []EventHandleResult {
	results := []EventHandleResult{}
	for _, handler := range EventHandlers {
		entry := logrus.WithFields(logrus.Fields{
			"eventId": record.ID, "sourceType": record.SourceType, "sourceId": record.SourceId, "category": record.EventCategory,
		})
		entry.Debug("pre handle event")
		r := safeHandle(handler, record)
		if r == nil {
			continue
		}

		results = append(results, *r)
		if r.Success {
			entry.WithField("handler", r.HandlerIdentifier).Info("post handle event")
		} else {
			entry.WithField("handler", r.HandlerIdentifier).Error("post handle event error: ", r.Message)
		}
	}
	return results
}

func safeHandle(handler EventHandler, record *EventRecord) (result *EventHandleResult) {
	defer func() {
		if ret := recover(); ret != nil {
			result = &EventHandleResult{Message: fmt.Sprintf("handler panic: %v", ret)}
		}
	}()
	return handler(record)
}
