package domain

// Action is an operation an actor attempts on a resource.
type Action string

const (
	ActionList     Action = "list"
	ActionView     Action = "view"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionSubmit   Action = "submit"
	ActionSchedule Action = "schedule"
	ActionDispatch Action = "dispatch"
	ActionDeliver  Action = "deliver"
	ActionCancel   Action = "cancel"
)

// Resource is a kind of entity guarded by the access policy.
type Resource string

const (
	ResourceClient      Resource = "client"
	ResourceLocation    Resource = "location"
	ResourceTruck       Resource = "truck"
	ResourceOrder       Resource = "order"
	ResourceActivityLog Resource = "activity_log"
	ResourceDashboard   Resource = "dashboard"
)

// grant records how a role may perform an action.
type grant int

const (
	deny grant = iota
	allow
	// own allows the action only on orders assigned to the actor as driver.
	own
)

type rule struct {
	resource Resource
	action   Action
}

var (
	everyone          = map[Role]grant{RoleAdmin: allow, RoleDispatcher: allow, RoleDriver: allow, RoleClientRep: allow}
	adminOnly         = map[Role]grant{RoleAdmin: allow}
	adminDispatcher   = map[Role]grant{RoleAdmin: allow, RoleDispatcher: allow}
	adminOwningDriver = map[Role]grant{RoleAdmin: allow, RoleDriver: own}
)

// policy is the single action × role table. Anything absent is denied.
var policy = map[rule]map[Role]grant{
	{ResourceClient, ActionList}:   everyone,
	{ResourceClient, ActionView}:   everyone,
	{ResourceClient, ActionCreate}: adminDispatcher,
	{ResourceClient, ActionUpdate}: adminDispatcher,
	{ResourceClient, ActionDelete}: adminOnly,

	{ResourceLocation, ActionList}:   everyone,
	{ResourceLocation, ActionView}:   everyone,
	{ResourceLocation, ActionCreate}: adminDispatcher,
	{ResourceLocation, ActionUpdate}: adminDispatcher,
	{ResourceLocation, ActionDelete}: adminDispatcher,

	{ResourceTruck, ActionList}:   everyone,
	{ResourceTruck, ActionView}:   everyone,
	{ResourceTruck, ActionCreate}: adminOnly,
	{ResourceTruck, ActionUpdate}: adminDispatcher,
	{ResourceTruck, ActionDelete}: adminOnly,

	{ResourceOrder, ActionList}:     everyone,
	{ResourceOrder, ActionView}:     {RoleAdmin: allow, RoleDispatcher: allow, RoleDriver: own},
	{ResourceOrder, ActionCreate}:   adminDispatcher,
	{ResourceOrder, ActionUpdate}:   adminDispatcher,
	{ResourceOrder, ActionDelete}:   adminDispatcher,
	{ResourceOrder, ActionSubmit}:   adminDispatcher,
	{ResourceOrder, ActionSchedule}: adminDispatcher,
	{ResourceOrder, ActionDispatch}: adminDispatcher,
	{ResourceOrder, ActionDeliver}:  adminOwningDriver,
	{ResourceOrder, ActionCancel}:   adminDispatcher,

	{ResourceActivityLog, ActionList}: adminOnly,
	{ResourceActivityLog, ActionView}: adminOnly,

	{ResourceDashboard, ActionView}: everyone,
}

// Allowed reports whether role may perform action on resource in general,
// ignoring ownership. Ownership-restricted grants count as allowed here.
func Allowed(role Role, action Action, resource Resource) bool {
	return policy[rule{resource, action}][role] != deny
}

// Authorize checks the actor against the policy table. For ownership-restricted
// grants, order must be the order being acted on and be assigned to the actor.
func Authorize(actor Actor, action Action, resource Resource, order *Order) error {
	switch policy[rule{resource, action}][actor.Role] {
	case allow:
		return nil
	case own:
		if order != nil && order.DriverID != nil && *order.DriverID == actor.UserID {
			return nil
		}
	}
	return &AuthorizationError{Role: actor.Role, Action: action, Resource: resource}
}
