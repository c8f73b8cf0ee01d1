package cache

import "fmt"

// Mutation identifies the kind of write that just happened; the invalidator
// maps each kind to the set of view keys it can have gone stale.
type Mutation string

const (
	MutationTaskCreated          Mutation = "task_created"
	MutationTaskUpdated          Mutation = "task_updated"
	MutationTaskStatusChanged    Mutation = "task_status_changed"
	MutationTaskDeleted          Mutation = "task_deleted"
	MutationTaskAssigned         Mutation = "task_assigned"
	MutationProjectCreated       Mutation = "project_created"
	MutationProjectUpdated       Mutation = "project_updated"
	MutationProjectDeleted       Mutation = "project_deleted"
	MutationProjectAutoCompleted Mutation = "project_auto_completed"
)

// EntityRef carries the parameters a mutation exposes to key resolution.
// UserIDs is the union of old and new assignees so a reassignment
// invalidates both sides' personal views.
type EntityRef struct {
	OrganizationID uint64
	ProjectID      *uint64
	UserIDs        []uint64
}

// OrgTasksKey is the organization-wide task list view.
func OrgTasksKey(orgID uint64) string {
	return fmt.Sprintf("org:%d:tasks", orgID)
}

// PersonalTasksKey is a single user's task list view within an organization.
func PersonalTasksKey(orgID, userID uint64) string {
	return fmt.Sprintf("org:%d:user:%d:tasks", orgID, userID)
}

// ProjectTasksKey is the task list view of one project.
func ProjectTasksKey(projectID uint64) string {
	return fmt.Sprintf("project:%d:tasks", projectID)
}

// OrgProjectsKey is the organization-wide project list view.
func OrgProjectsKey(orgID uint64) string {
	return fmt.Sprintf("org:%d:projects", orgID)
}

// template names one parameterized view; resolve expands it against a ref.
type template int

const (
	tmplOrgTasks template = iota
	tmplPersonalTasks
	tmplProjectTasks
	tmplOrgProjects
)

// mutationTemplates is the static mutation → affected-views map. Task
// mutations touch the org list, every involved user's personal list, and the
// owning project's list when there is one. Project mutations touch the
// project views; auto-completion also refreshes the project's task list
// because task rows embed project state.
var mutationTemplates = map[Mutation][]template{
	MutationTaskCreated:          {tmplOrgTasks, tmplPersonalTasks, tmplProjectTasks},
	MutationTaskUpdated:          {tmplOrgTasks, tmplPersonalTasks, tmplProjectTasks},
	MutationTaskStatusChanged:    {tmplOrgTasks, tmplPersonalTasks, tmplProjectTasks},
	MutationTaskDeleted:          {tmplOrgTasks, tmplPersonalTasks, tmplProjectTasks},
	MutationTaskAssigned:         {tmplOrgTasks, tmplPersonalTasks, tmplProjectTasks},
	MutationProjectCreated:       {tmplOrgProjects},
	MutationProjectUpdated:       {tmplOrgProjects, tmplProjectTasks},
	MutationProjectDeleted:       {tmplOrgProjects, tmplProjectTasks, tmplOrgTasks},
	MutationProjectAutoCompleted: {tmplOrgProjects, tmplProjectTasks},
}

// KeysFor resolves the templates for a mutation into concrete, deduplicated
// keys. Templates whose parameters are absent (no project, no users) resolve
// to nothing.
func KeysFor(mutation Mutation, ref EntityRef) []string {
	seen := make(map[string]struct{})
	keys := make([]string, 0, 4+len(ref.UserIDs))

	add := func(key string) {
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	for _, tmpl := range mutationTemplates[mutation] {
		switch tmpl {
		case tmplOrgTasks:
			add(OrgTasksKey(ref.OrganizationID))
		case tmplPersonalTasks:
			for _, userID := range ref.UserIDs {
				add(PersonalTasksKey(ref.OrganizationID, userID))
			}
		case tmplProjectTasks:
			if ref.ProjectID != nil {
				add(ProjectTasksKey(*ref.ProjectID))
			}
		case tmplOrgProjects:
			add(OrgProjectsKey(ref.OrganizationID))
		}
	}

	return keys
}
