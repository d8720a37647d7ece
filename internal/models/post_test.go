package models

import "testing"

func TestPostStatusValid(t *testing.T) {
	tests := []struct {
		status PostStatus
		want   bool
	}{
		{PostStatusDraft, true},
		{PostStatusPublished, true},
		{PostStatus(""), false},
		{PostStatus("archived"), false},
		{PostStatus("Published"), false},
	}

	for _, tt := range tests {
		if got := tt.status.Valid(); got != tt.want {
			t.Errorf("PostStatus(%q).Valid() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestPostIsPublished(t *testing.T) {
	if !(&Post{Status: PostStatusPublished}).IsPublished() {
		t.Error("published post should report published")
	}
	if (&Post{Status: PostStatusDraft}).IsPublished() {
		t.Error("draft post should not report published")
	}
}
