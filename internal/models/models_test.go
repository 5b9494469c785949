package models_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/codevhq/codev/internal/database"
	"github.com/codevhq/codev/internal/models"
	"github.com/stretchr/testify/require"
)

func newTestQueries(t *testing.T) *models.Queries {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return models.New(db.DB)
}

func createUser(t *testing.T, q *models.Queries, id, email string) models.User {
	t.Helper()
	u, err := q.CreateUser(context.Background(), models.CreateUserParams{
		ID:           id,
		Email:        email,
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	return u
}

func TestCreateAndGetUser(t *testing.T) {
	q := newTestQueries(t)

	created := createUser(t, q, "u1", "alice@example.com")
	require.Equal(t, "u1", created.ID)
	require.Equal(t, "alice@example.com", created.Email)
	require.False(t, created.CreatedAt.IsZero())

	byEmail, err := q.GetUserByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, byEmail.ID)
}

func TestDuplicateEmailRejected(t *testing.T) {
	q := newTestQueries(t)
	createUser(t, q, "u1", "alice@example.com")

	_, err := q.CreateUser(context.Background(), models.CreateUserParams{
		ID:           "u2",
		Email:        "alice@example.com",
		PasswordHash: "hash",
	})
	require.Error(t, err)
}

func TestListUsersExcept(t *testing.T) {
	q := newTestQueries(t)
	createUser(t, q, "u1", "alice@example.com")
	createUser(t, q, "u2", "bob@example.com")
	createUser(t, q, "u3", "carol@example.com")

	users, err := q.ListUsersExcept(context.Background(), "u2")
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		require.NotEqual(t, "u2", u.ID)
	}
}

func TestCreateProjectAddsOwnerMembership(t *testing.T) {
	q := newTestQueries(t)
	owner := createUser(t, q, "u1", "alice@example.com")

	project, err := q.CreateProject(context.Background(), models.CreateProjectParams{
		ID:      "p1",
		Name:    "demo",
		OwnerID: owner.ID,
	})
	require.NoError(t, err)
	require.Equal(t, owner.ID, project.OwnerID)

	member, err := q.IsProjectMember(context.Background(), models.AddProjectMemberParams{
		ProjectID: "p1",
		UserID:    owner.ID,
	})
	require.NoError(t, err)
	require.True(t, member)
}

func TestProjectMembership(t *testing.T) {
	q := newTestQueries(t)
	ctx := context.Background()

	owner := createUser(t, q, "u1", "alice@example.com")
	other := createUser(t, q, "u2", "bob@example.com")
	_, err := q.CreateProject(ctx, models.CreateProjectParams{ID: "p1", Name: "demo", OwnerID: owner.ID})
	require.NoError(t, err)

	member, err := q.IsProjectMember(ctx, models.AddProjectMemberParams{ProjectID: "p1", UserID: other.ID})
	require.NoError(t, err)
	require.False(t, member)

	require.NoError(t, q.AddProjectMember(ctx, models.AddProjectMemberParams{ProjectID: "p1", UserID: other.ID}))
	// Adding twice is a no-op.
	require.NoError(t, q.AddProjectMember(ctx, models.AddProjectMemberParams{ProjectID: "p1", UserID: other.ID}))

	members, err := q.ListProjectMembers(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, members, 2)

	projects, err := q.ListProjectsForUser(ctx, other.ID)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, "p1", projects[0].ID)
}
