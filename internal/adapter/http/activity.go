package http

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/fuelops/internal/domain"
)

// ActivityLogResponse is the API representation of an audit entry.
type ActivityLogResponse struct {
	ID          string         `json:"id" doc:"Unique identifier"`
	UserID      string         `json:"user_id" doc:"Acting user"`
	SubjectType string         `json:"subject_type" doc:"Kind of entity changed"`
	SubjectID   string         `json:"subject_id" doc:"ID of the entity changed"`
	Action      string         `json:"action" doc:"What happened"`
	OldValues   map[string]any `json:"old_values,omitempty" doc:"Attributes before the change"`
	NewValues   map[string]any `json:"new_values,omitempty" doc:"Attributes after the change"`
	Description string         `json:"description" doc:"Human-readable summary"`
	IPAddress   string         `json:"ip_address,omitempty" doc:"Client address of the actor"`
	CreatedAt   string         `json:"created_at" doc:"Recording timestamp (ISO 8601)"`
}

func toActivityLogResponses(logs []domain.ActivityLog) []ActivityLogResponse {
	resp := make([]ActivityLogResponse, len(logs))
	for i, l := range logs {
		resp[i] = ActivityLogResponse{
			ID:          l.ID,
			UserID:      l.UserID,
			SubjectType: l.SubjectType,
			SubjectID:   l.SubjectID,
			Action:      l.Action,
			OldValues:   l.OldValues,
			NewValues:   l.NewValues,
			Description: l.Description,
			IPAddress:   l.IPAddress,
			CreatedAt:   formatTime(l.CreatedAt),
		}
	}
	return resp
}

type ListActivityInput struct {
	Tenant      string    `path:"tenant" doc:"Tenant slug"`
	SubjectType string    `query:"subject_type" required:"false" enum:"Order,Client,Location,Truck" doc:"Filter by subject type"`
	Action      string    `query:"action" required:"false" doc:"Filter by action"`
	UserID      string    `query:"user_id" required:"false" doc:"Filter by acting user"`
	From        time.Time `query:"from" required:"false" doc:"Recorded at or after (ISO 8601)"`
	To          time.Time `query:"to" required:"false" doc:"Recorded at or before (ISO 8601)"`
	Limit       int       `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset      int       `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type SubjectActivityInput struct {
	Tenant      string `path:"tenant" doc:"Tenant slug"`
	SubjectType string `path:"subject_type" enum:"Order,Client,Location,Truck" doc:"Kind of entity"`
	SubjectID   string `path:"subject_id" doc:"ID of the entity"`
}

type ActivityLogsOutput struct {
	Body []ActivityLogResponse
}

func (h *handler) registerActivity(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-activity-logs",
		Method:      http.MethodGet,
		Path:        "/api/v1/{tenant}/activity-logs",
		Summary:     "List audit entries",
		Tags:        []string{"Activity"},
	}, func(ctx context.Context, input *ListActivityInput) (*ActivityLogsOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		logs, err := h.Activity.List(ctx, tenant, actor, domain.ActivityFilter{
			SubjectType: input.SubjectType,
			Action:      input.Action,
			UserID:      input.UserID,
			From:        optionalTime(input.From),
			To:          optionalTime(input.To),
			Limit:       input.Limit,
			Offset:      input.Offset,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ActivityLogsOutput{Body: toActivityLogResponses(logs)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "subject-activity-logs",
		Method:      http.MethodGet,
		Path:        "/api/v1/{tenant}/activity-logs/{subject_type}/{subject_id}",
		Summary:     "List audit entries of one entity",
		Tags:        []string{"Activity"},
	}, func(ctx context.Context, input *SubjectActivityInput) (*ActivityLogsOutput, error) {
		tenant, actor, err := h.scope(ctx, input.Tenant)
		if err != nil {
			return nil, err
		}
		logs, err := h.Activity.ForSubject(ctx, tenant, actor, input.SubjectType, input.SubjectID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ActivityLogsOutput{Body: toActivityLogResponses(logs)}, nil
	})
}
