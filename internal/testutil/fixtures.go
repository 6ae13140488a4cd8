package testutil

import (
	"context"
	"testing"

	"github.com/buildtalk/forum/internal/models"
	"github.com/buildtalk/forum/internal/repository"
	"github.com/buildtalk/forum/internal/utils"
)

const TestPassword = "Test123456"

// CreateUser stores a user with a local credential for TestPassword.
func CreateUser(t *testing.T, store *repository.Store, email string) *models.User {
	t.Helper()

	hash, err := utils.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		Email:        models.StringPtr(email),
		FirstName:    models.StringPtr("Test"),
		LastName:     models.StringPtr("User"),
		PasswordHash: &hash,
	}
	if err := store.Users.Create(context.Background(), user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

func CreateThread(t *testing.T, store *repository.Store, author *models.User, title string, category models.Category) *models.Thread {
	t.Helper()

	thread := &models.Thread{
		Title:    title,
		Content:  "Content of " + title,
		Category: category,
		AuthorID: author.ID,
	}
	if err := store.Threads.Create(context.Background(), thread); err != nil {
		t.Fatalf("Failed to create thread: %v", err)
	}
	return thread
}

func CreateComment(t *testing.T, store *repository.Store, thread *models.Thread, author *models.User, content string) *models.Comment {
	t.Helper()

	comment := &models.Comment{
		Content:  content,
		ThreadID: thread.ID,
		AuthorID: author.ID,
	}
	if err := store.Comments.Create(context.Background(), comment); err != nil {
		t.Fatalf("Failed to create comment: %v", err)
	}
	return comment
}
