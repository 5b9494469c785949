package models

import (
	"context"
	"time"
)

// Project is a collaborative workspace owned by a user.
type Project struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
}

// CreateProjectParams holds the fields required to create a project.
type CreateProjectParams struct {
	ID      string
	Name    string
	OwnerID string
}

// CreateProject inserts a new project and adds the owner as a member.
func (q *Queries) CreateProject(ctx context.Context, arg CreateProjectParams) (Project, error) {
	_, err := q.db.ExecContext(ctx, `
INSERT INTO projects (id, name, owner_id)
VALUES (?, ?, ?)
`, arg.ID, arg.Name, arg.OwnerID)
	if err != nil {
		return Project{}, err
	}
	_, err = q.db.ExecContext(ctx, `
INSERT INTO project_members (project_id, user_id) VALUES (?, ?)
`, arg.ID, arg.OwnerID)
	if err != nil {
		return Project{}, err
	}
	return q.GetProjectByID(ctx, arg.ID)
}

// GetProjectByID returns the project with the given id.
func (q *Queries) GetProjectByID(ctx context.Context, id string) (Project, error) {
	row := q.db.QueryRowContext(ctx, `
SELECT id, name, owner_id, created_at FROM projects WHERE id = ?
`, id)
	var p Project
	err := row.Scan(&p.ID, &p.Name, &p.OwnerID, &p.CreatedAt)
	return p, err
}

// ListProjectsForUser returns all projects the user is a member of.
func (q *Queries) ListProjectsForUser(ctx context.Context, userID string) ([]Project, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT p.id, p.name, p.owner_id, p.created_at
FROM projects p
JOIN project_members m ON m.project_id = p.id
WHERE m.user_id = ?
ORDER BY p.created_at DESC
`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.OwnerID, &p.CreatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// AddProjectMemberParams identifies a membership row.
type AddProjectMemberParams struct {
	ProjectID string
	UserID    string
}

// AddProjectMember adds a user to a project. Adding an existing member is a
// no-op.
func (q *Queries) AddProjectMember(ctx context.Context, arg AddProjectMemberParams) error {
	_, err := q.db.ExecContext(ctx, `
INSERT OR IGNORE INTO project_members (project_id, user_id) VALUES (?, ?)
`, arg.ProjectID, arg.UserID)
	return err
}

// IsProjectMember reports whether the user belongs to the project.
func (q *Queries) IsProjectMember(ctx context.Context, arg AddProjectMemberParams) (bool, error) {
	row := q.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM project_members WHERE project_id = ? AND user_id = ?
`, arg.ProjectID, arg.UserID)
	var count int
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListProjectMembers returns the users belonging to a project.
func (q *Queries) ListProjectMembers(ctx context.Context, projectID string) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, `
SELECT u.id, u.email, u.password_hash, u.created_at
FROM users u
JOIN project_members m ON m.user_id = u.id
WHERE m.project_id = ?
ORDER BY u.email
`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
