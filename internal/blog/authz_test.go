package blog

import (
	"testing"

	"bloghub/internal/apperror"
	"bloghub/internal/models"
)

func TestCanMutatePost(t *testing.T) {
	author := &models.User{ID: 1}
	other := &models.User{ID: 2}
	post := &models.Post{ID: 10, AuthorID: author.ID}

	tests := []struct {
		name  string
		actor *models.User
		want  Decision
	}{
		{"anonymous", nil, DenyAnonymous},
		{"author", author, Allow},
		{"someone else", other, DenyNotOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanMutatePost(tt.actor, post); got != tt.want {
				t.Errorf("CanMutatePost() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCanCreate(t *testing.T) {
	if CanCreate(nil).Allowed() {
		t.Error("anonymous callers must not create")
	}
	if !CanCreate(&models.User{ID: 5}).Allowed() {
		t.Error("authenticated callers may create")
	}
	if !CanMutateCategory(&models.User{ID: 5}).Allowed() {
		t.Error("any authenticated caller may change categories")
	}
}

func TestDecisionErr(t *testing.T) {
	if err := Allow.Err(); err != nil {
		t.Errorf("Allow.Err() = %v", err)
	}

	tests := []struct {
		d      Decision
		status int
		msg    string
	}{
		{DenyAnonymous, 401, "Authentication credentials were not provided."},
		{DenyNotOwner, 403, "You do not have permission to perform this action."},
	}
	for _, tt := range tests {
		appErr, ok := apperror.FromError(tt.d.Err())
		if !ok {
			t.Fatalf("%s: not an AppError", tt.d)
		}
		if appErr.StatusCode() != tt.status || appErr.Message != tt.msg {
			t.Errorf("%s: got %d %q", tt.d, appErr.StatusCode(), appErr.Message)
		}
	}
}
